package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketApproved TicketStatus = "approved"
	TicketRejected TicketStatus = "rejected"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketPending, TicketApproved, TicketRejected:
		return true
	}
	return false
}

// MaxAdvertised caps how many tickets may carry the advertise flag at once.
const MaxAdvertised = 6

type Ticket struct {
	ID                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title              string             `json:"title" bson:"title"`
	VendorEmail        string             `json:"vendorEmail" bson:"vendorEmail"`
	VendorName         string             `json:"vendorName,omitempty" bson:"vendorName,omitempty"`
	Price              float64            `json:"price" bson:"price"`
	Quantity           int                `json:"quantity" bson:"quantity"`
	Transport          string             `json:"transport,omitempty" bson:"transport,omitempty"`
	From               string             `json:"from,omitempty" bson:"from,omitempty"`
	To                 string             `json:"to,omitempty" bson:"to,omitempty"`
	Departure          string             `json:"departure,omitempty" bson:"departure,omitempty"`
	Perks              []string           `json:"perks,omitempty" bson:"perks,omitempty"`
	Image              string             `json:"image,omitempty" bson:"image,omitempty"`
	Status             TicketStatus       `json:"status" bson:"status"`
	VerificationStatus TicketStatus       `json:"verificationStatus" bson:"verificationStatus"`
	IsAdvertise        bool               `json:"isAdvertise" bson:"isAdvertise"`
	IsHidden           bool               `json:"isHidden" bson:"isHidden"`
	HiddenAt           *time.Time         `json:"hiddenAt,omitempty" bson:"hiddenAt,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          *time.Time         `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// TicketFields are the vendor-editable parts of a submission. Status and flag
// fields are deliberately absent: the catalog decides those.
type TicketFields struct {
	Title      string   `json:"title"`
	VendorName string   `json:"vendorName"`
	Price      float64  `json:"price"`
	Quantity   int      `json:"quantity"`
	Transport  string   `json:"transport"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	Departure  string   `json:"departure"`
	Perks      []string `json:"perks"`
	Image      string   `json:"image"`
}

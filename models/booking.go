package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingAccepted BookingStatus = "accepted"
	BookingRejected BookingStatus = "rejected"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingAccepted, BookingRejected:
		return true
	}
	return false
}

type PaymentState string

const (
	NotPaid PaymentState = "not-paid"
	Paid    PaymentState = "paid"
)

type Buyer struct {
	Name  string `json:"buyerName" bson:"buyerName"`
	Email string `json:"buyerEmail" bson:"buyerEmail"`
}

// TicketRef is the booking's copy of the catalog entry it was made against.
// No integrity is kept with the catalog after creation.
type TicketRef struct {
	TicketID    string  `json:"ticketId" bson:"ticketId"`
	Title       string  `json:"ticketTitle" bson:"ticketTitle"`
	VendorEmail string  `json:"vendorEmail" bson:"vendorEmail"`
	UnitPrice   float64 `json:"unitPrice" bson:"unitPrice"`
	Quantity    int     `json:"quantity" bson:"quantity"`
}

type Booking struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	TicketRef     `bson:",inline"`
	Buyer         `bson:",inline"`
	Status        BookingStatus `json:"status" bson:"status"`
	PaymentStatus PaymentState  `json:"paymentStatus" bson:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     *time.Time    `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

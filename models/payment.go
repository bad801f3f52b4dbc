package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentRecord is written once per paid checkout session and never updated.
type PaymentRecord struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	SessionID     string             `json:"sessionId" bson:"sessionId"`
	TransactionID string             `json:"transactionId" bson:"transactionId"`
	TicketID      string             `json:"ticketId" bson:"ticketId"`
	BookingID     string             `json:"bookingId,omitempty" bson:"bookingId,omitempty"`
	BuyerName     string             `json:"buyerName" bson:"buyerName"`
	BuyerEmail    string             `json:"buyerEmail" bson:"buyerEmail"`
	Amount        float64            `json:"amount" bson:"amount"`
	Currency      string             `json:"currency" bson:"currency"`
	Status        string             `json:"status" bson:"status"`
	ProductTitle  string             `json:"productTitle" bson:"productTitle"`
	Quantity      int64              `json:"quantity" bson:"quantity"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

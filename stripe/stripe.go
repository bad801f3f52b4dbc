// Package stripe is the hosted-checkout provider. Client talks to Stripe
// Checkout; Sandbox keeps sessions in memory for development and tests.
package stripe

// SessionRequest describes a one-line-item checkout.
type SessionRequest struct {
	Currency      string
	ProductName   string
	UnitAmount    int64 // minor units
	Quantity      int64
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID              string
	URL             string
	PaymentStatus   string // "paid" once the provider captured the money
	PaymentIntentID string
	AmountTotal     int64 // minor units
	Currency        string
	Status          string
	Metadata        map[string]string
}

type LineItem struct {
	Description string
	Quantity    int64
}

const PaymentStatusPaid = "paid"

// SessionIDPlaceholder is substituted by the provider in the success URL.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

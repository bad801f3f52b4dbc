// Package booking is the booking ledger: customer requests against catalog
// tickets, vendor decisions and the paid flag set by reconciliation.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticketbari/apperr"
	"ticketbari/db"
	"ticketbari/logger"
	"ticketbari/models"
	"ticketbari/mq"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store interface {
	Insert(ctx context.Context, b *models.Booking) error
	Find(ctx context.Context, q models.BookingQuery) ([]models.Booking, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Booking, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.BookingStatus, now time.Time) error
	SetPaymentStatus(ctx context.Context, id primitive.ObjectID, state models.PaymentState, now time.Time) error
}

type Ledger struct {
	store Store
	now   func() time.Time
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Create records a pending, unpaid booking. The ticket reference is copied as
// given; it is not checked against the catalog.
func (l *Ledger) Create(ctx context.Context, buyer models.Buyer, ref models.TicketRef) (models.Booking, error) {
	var problems []string
	if buyer.Email == "" {
		problems = append(problems, "buyer email is required")
	}
	if strings.TrimSpace(ref.TicketID) == "" {
		problems = append(problems, "ticketId is required")
	}
	if ref.Quantity <= 0 {
		problems = append(problems, "quantity must be positive")
	}
	if ref.UnitPrice < 0 {
		problems = append(problems, "unitPrice must not be negative")
	}
	if len(problems) > 0 {
		return models.Booking{}, fmt.Errorf("%s: %w", strings.Join(problems, ", "), apperr.ErrValidation)
	}

	ref.VendorEmail = strings.ToLower(strings.TrimSpace(ref.VendorEmail))
	buyer.Email = strings.ToLower(strings.TrimSpace(buyer.Email))
	b := models.Booking{
		TicketRef:     ref,
		Buyer:         buyer,
		Status:        models.BookingPending,
		PaymentStatus: models.NotPaid,
		CreatedAt:     l.now().UTC(),
	}
	if err := l.store.Insert(ctx, &b); err != nil {
		return models.Booking{}, err
	}
	logger.WithCtx(ctx).Info("booking created", "booking_id", b.ID.Hex(), "ticket_id", ref.TicketID, "buyer_email", buyer.Email)
	return b, nil
}

func (l *Ledger) ListAll(ctx context.Context) ([]models.Booking, error) {
	return l.store.Find(ctx, models.BookingQuery{})
}

func (l *Ledger) ListByBuyer(ctx context.Context, email string) ([]models.Booking, error) {
	return l.store.Find(ctx, models.BookingQuery{BuyerEmail: strings.ToLower(email)})
}

func (l *Ledger) ListByVendor(ctx context.Context, email string) ([]models.Booking, error) {
	return l.store.Find(ctx, models.BookingQuery{VendorEmail: strings.ToLower(email)})
}

func (l *Ledger) Get(ctx context.Context, id string) (models.Booking, error) {
	oid, err := db.ObjectID(id)
	if err != nil {
		return models.Booking{}, err
	}
	return l.store.FindByID(ctx, oid)
}

// SetDecision overwrites the booking status with accepted or rejected.
func (l *Ledger) SetDecision(ctx context.Context, id string, decision models.BookingStatus) error {
	if decision != models.BookingAccepted && decision != models.BookingRejected {
		return fmt.Errorf("decision %q: %w", decision, apperr.ErrValidation)
	}
	oid, err := db.ObjectID(id)
	if err != nil {
		return err
	}
	if err := l.store.SetStatus(ctx, oid, decision, l.now().UTC()); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("booking decided", "booking_id", id, "status", string(decision))
	mq.Emit(ctx, mq.Event{
		Name:       mq.BookingDecided,
		EntityType: "booking",
		EntityID:   id,
		Data:       map[string]any{"status": decision},
	})
	return nil
}

// MarkPaid flags a booking as paid. Repeating it is harmless.
func (l *Ledger) MarkPaid(ctx context.Context, id string) error {
	oid, err := db.ObjectID(id)
	if err != nil {
		return err
	}
	return l.store.SetPaymentStatus(ctx, oid, models.Paid, l.now().UTC())
}

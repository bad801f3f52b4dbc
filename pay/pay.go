// Package pay is the checkout orchestrator. It starts hosted checkout sessions
// and turns a paid session into exactly one durable payment record.
package pay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ticketbari/apperr"
	"ticketbari/logger"
	"ticketbari/metrics"
	"ticketbari/models"
	"ticketbari/mq"
	"ticketbari/stripe"

	"github.com/shopspring/decimal"
)

type Provider interface {
	CreateSession(ctx context.Context, req stripe.SessionRequest) (stripe.Session, error)
	GetSession(ctx context.Context, id string) (stripe.Session, error)
	ListLineItems(ctx context.Context, id string) ([]stripe.LineItem, error)
}

type Store interface {
	FindBySession(ctx context.Context, sessionID string) (models.PaymentRecord, error)
	// Insert fails with apperr.ErrDuplicate when sessionID already has a record.
	Insert(ctx context.Context, rec *models.PaymentRecord) error
	// List returns records newest first; an empty buyerEmail lists everyone.
	List(ctx context.Context, buyerEmail string) ([]models.PaymentRecord, error)
}

// Bookings is the slice of the booking ledger checkout needs.
type Bookings interface {
	Get(ctx context.Context, bookingID string) (models.Booking, error)
	MarkPaid(ctx context.Context, bookingID string) error
}

type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type Options struct {
	Currency      string
	ClientURL     string
	ReceiptSecret string
	// Bookings, when set, prices checkouts that carry a bookingId and is told
	// when they are paid.
	Bookings Bookings
	// Locker, when set, serialises reconciles of the same session.
	Locker Locker
}

// PaymentService handles checkout and payment records.
type PaymentService struct {
	store         Store
	provider      Provider
	bookings      Bookings
	locker        Locker
	currency      string
	successURL    string
	cancelURL     string
	receiptSecret []byte
	now           func() time.Time
}

func NewPaymentService(store Store, provider Provider, opts Options) *PaymentService {
	currency := strings.ToLower(opts.Currency)
	if currency == "" {
		currency = "usd"
	}
	client := strings.TrimRight(opts.ClientURL, "/")
	return &PaymentService{
		store:         store,
		provider:      provider,
		bookings:      opts.Bookings,
		locker:        opts.Locker,
		currency:      currency,
		successURL:    client + "/dashboard/payment/success?session_id=" + stripe.SessionIDPlaceholder,
		cancelURL:     client + "/dashboard/payment/cancelled",
		receiptSecret: []byte(opts.ReceiptSecret),
		now:           time.Now,
	}
}

type CheckoutRequest struct {
	TicketID   string  `json:"ticketId"`
	Title      string  `json:"title"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int64   `json:"quantity"`
	BuyerName  string  `json:"buyerName"`
	BuyerEmail string  `json:"buyerEmail"`
	BookingID  string  `json:"bookingId,omitempty"`
}

func (req CheckoutRequest) validate() error {
	var problems []string
	if req.TicketID == "" {
		problems = append(problems, "ticketId is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		problems = append(problems, "title is required")
	}
	if req.UnitPrice <= 0 {
		problems = append(problems, "unitPrice must be positive")
	}
	if req.Quantity <= 0 {
		problems = append(problems, "quantity must be positive")
	}
	if req.BuyerEmail == "" {
		problems = append(problems, "buyerEmail is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(problems, ", "), apperr.ErrValidation)
	}
	return nil
}

// ToMinorUnits converts a major-unit price to cents, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts cents back to a major-unit amount.
func FromMinorUnits(minor int64) float64 {
	return decimal.New(minor, -2).InexactFloat64()
}

// StartCheckout creates a hosted session for one line item and returns its
// redirect URL.
func (p *PaymentService) StartCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.BookingID != "" && p.bookings != nil {
		var err error
		if req, err = p.priceFromBooking(ctx, req); err != nil {
			return "", err
		}
	}
	if err := req.validate(); err != nil {
		return "", err
	}

	meta := map[string]string{
		"ticketId":   req.TicketID,
		"buyerName":  req.BuyerName,
		"buyerEmail": req.BuyerEmail,
	}
	if req.BookingID != "" {
		meta["bookingId"] = req.BookingID
	}

	session, err := p.provider.CreateSession(ctx, stripe.SessionRequest{
		Currency:      p.currency,
		ProductName:   req.Title,
		UnitAmount:    ToMinorUnits(req.UnitPrice),
		Quantity:      req.Quantity,
		CustomerEmail: req.BuyerEmail,
		Metadata:      meta,
		SuccessURL:    p.successURL,
		CancelURL:     p.cancelURL,
	})
	if err != nil {
		metrics.CheckoutSessions.WithLabelValues("failed").Inc()
		logger.WithCtx(ctx).Error("checkout session creation failed", "ticket_id", req.TicketID, "err", err)
		return "", fmt.Errorf("%w: %v", apperr.ErrCheckoutCreationFailed, err)
	}

	metrics.CheckoutSessions.WithLabelValues("created").Inc()
	logger.WithCtx(ctx).Info("checkout session created", "session_id", session.ID, "ticket_id", req.TicketID)
	return session.URL, nil
}

// priceFromBooking replaces the client's ticket, price and quantity with the
// booking's own. Only the booking's buyer may pay for an accepted booking.
func (p *PaymentService) priceFromBooking(ctx context.Context, req CheckoutRequest) (CheckoutRequest, error) {
	b, err := p.bookings.Get(ctx, req.BookingID)
	if err != nil {
		return req, err
	}
	if !strings.EqualFold(b.Buyer.Email, req.BuyerEmail) {
		return req, fmt.Errorf("booking %s belongs to another buyer: %w", req.BookingID, apperr.ErrForbidden)
	}
	if b.Status != models.BookingAccepted {
		return req, fmt.Errorf("booking %s is %s: %w", req.BookingID, b.Status, apperr.ErrValidation)
	}
	if b.PaymentStatus == models.Paid {
		return req, fmt.Errorf("booking %s is already paid: %w", req.BookingID, apperr.ErrValidation)
	}
	req.TicketID = b.TicketID
	if b.Title != "" {
		req.Title = b.Title
	}
	req.UnitPrice = b.UnitPrice
	req.Quantity = int64(b.Quantity)
	if req.BuyerName == "" {
		req.BuyerName = b.Buyer.Name
	}
	return req, nil
}

func sessionLockKey(sessionID string) string {
	return "lock:pay:session:" + sessionID
}

// Reconcile records a paid checkout session. Calling it again for the same
// session returns the stored record without writing.
func (p *PaymentService) Reconcile(ctx context.Context, sessionID string) (models.PaymentRecord, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return models.PaymentRecord{}, apperr.ErrMissingSessionID
	}
	log := logger.WithCtx(ctx).With("session_id", sessionID)

	if p.locker != nil {
		unlock, err := p.locker.Lock(ctx, sessionLockKey(sessionID))
		if err != nil {
			return models.PaymentRecord{}, err
		}
		defer unlock()
	}

	session, err := p.provider.GetSession(ctx, sessionID)
	if err != nil {
		metrics.Reconciliations.WithLabelValues("error").Inc()
		return models.PaymentRecord{}, err
	}
	if session.PaymentStatus != stripe.PaymentStatusPaid {
		metrics.Reconciliations.WithLabelValues("unpaid").Inc()
		return models.PaymentRecord{}, fmt.Errorf("session %s is %s: %w", sessionID, session.PaymentStatus, apperr.ErrPaymentNotCompleted)
	}

	existing, err := p.store.FindBySession(ctx, sessionID)
	switch {
	case err == nil:
		metrics.Reconciliations.WithLabelValues("existing").Inc()
		p.markBookingPaid(ctx, existing)
		return existing, nil
	case !errors.Is(err, apperr.ErrNotFound):
		metrics.Reconciliations.WithLabelValues("error").Inc()
		return models.PaymentRecord{}, err
	}

	rec, err := p.buildRecord(ctx, session)
	if err != nil {
		metrics.Reconciliations.WithLabelValues("error").Inc()
		return models.PaymentRecord{}, err
	}

	if err := p.store.Insert(ctx, &rec); err != nil {
		if !errors.Is(err, apperr.ErrDuplicate) {
			metrics.Reconciliations.WithLabelValues("error").Inc()
			return models.PaymentRecord{}, err
		}
		// a concurrent reconcile inserted first
		winner, ferr := p.store.FindBySession(ctx, sessionID)
		if ferr != nil {
			metrics.Reconciliations.WithLabelValues("error").Inc()
			return models.PaymentRecord{}, ferr
		}
		metrics.Reconciliations.WithLabelValues("existing").Inc()
		p.markBookingPaid(ctx, winner)
		return winner, nil
	}

	metrics.Reconciliations.WithLabelValues("recorded").Inc()
	log.Info("payment recorded", "transaction_id", rec.TransactionID, "amount", rec.Amount, "currency", rec.Currency)
	mq.Emit(ctx, mq.Event{
		Name:       mq.PaymentRecorded,
		EntityType: "payment",
		EntityID:   rec.SessionID,
		Data: map[string]any{
			"transactionId": rec.TransactionID,
			"ticketId":      rec.TicketID,
			"buyerEmail":    rec.BuyerEmail,
			"amount":        rec.Amount,
			"currency":      rec.Currency,
		},
	})
	p.markBookingPaid(ctx, rec)
	return rec, nil
}

func (p *PaymentService) buildRecord(ctx context.Context, session stripe.Session) (models.PaymentRecord, error) {
	if session.PaymentIntentID == "" {
		return models.PaymentRecord{}, fmt.Errorf("%w: session %s has no payment intent", apperr.ErrUpstream, session.ID)
	}
	items, err := p.provider.ListLineItems(ctx, session.ID)
	if err != nil {
		return models.PaymentRecord{}, err
	}

	rec := models.PaymentRecord{
		SessionID:     session.ID,
		TransactionID: session.PaymentIntentID,
		TicketID:      session.Metadata["ticketId"],
		BookingID:     session.Metadata["bookingId"],
		BuyerName:     session.Metadata["buyerName"],
		BuyerEmail:    session.Metadata["buyerEmail"],
		Amount:        FromMinorUnits(session.AmountTotal),
		Currency:      session.Currency,
		Status:        session.PaymentStatus,
		CreatedAt:     p.now().UTC(),
	}
	if len(items) > 0 {
		rec.ProductTitle = items[0].Description
		rec.Quantity = items[0].Quantity
	}
	return rec, nil
}

// markBookingPaid is best effort; a failure is retried by the next reconcile
// of the same session.
func (p *PaymentService) markBookingPaid(ctx context.Context, rec models.PaymentRecord) {
	if p.bookings == nil || rec.BookingID == "" {
		return
	}
	log := logger.WithCtx(ctx).With("session_id", rec.SessionID, "booking_id", rec.BookingID)

	b, err := p.bookings.Get(ctx, rec.BookingID)
	if err != nil {
		log.Warn("could not load booking for payment", "err", err)
		return
	}
	due := ToMinorUnits(b.UnitPrice) * int64(b.Quantity)
	paid := ToMinorUnits(rec.Amount)
	if paid != due || !strings.EqualFold(rec.BuyerEmail, b.Buyer.Email) {
		metrics.Reconciliations.WithLabelValues("booking_mismatch").Inc()
		log.Error("payment does not settle booking",
			"due_minor", due, "paid_minor", paid, "payer", rec.BuyerEmail, "buyer", b.Buyer.Email)
		return
	}
	if err := p.bookings.MarkPaid(ctx, rec.BookingID); err != nil {
		log.Warn("could not mark booking paid", "err", err)
	}
}

func (p *PaymentService) ListPayments(ctx context.Context) ([]models.PaymentRecord, error) {
	return p.store.List(ctx, "")
}

func (p *PaymentService) ListPaymentsByBuyer(ctx context.Context, buyerEmail string) ([]models.PaymentRecord, error) {
	if buyerEmail == "" {
		return nil, fmt.Errorf("buyer email is required: %w", apperr.ErrValidation)
	}
	return p.store.List(ctx, strings.ToLower(buyerEmail))
}

func (p *PaymentService) FindPayment(ctx context.Context, sessionID string) (models.PaymentRecord, error) {
	if sessionID == "" {
		return models.PaymentRecord{}, apperr.ErrMissingSessionID
	}
	return p.store.FindBySession(ctx, sessionID)
}

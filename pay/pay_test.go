package pay

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"ticketbari/apperr"
	"ticketbari/booking"
	"ticketbari/memstore"
	"ticketbari/models"
	"ticketbari/rdx"
	"ticketbari/stripe"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memstore.Store
	sandbox  *stripe.Sandbox
	svc      *PaymentService
	bookings *booking.Ledger
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	s := memstore.New()
	f := &fixture{store: s, sandbox: stripe.NewSandbox(false), bookings: booking.NewLedger(s.Bookings())}
	opts.ClientURL = "http://localhost:5173"
	opts.ReceiptSecret = "test-secret"
	if opts.Bookings == nil {
		opts.Bookings = f.bookings
	}
	f.svc = NewPaymentService(s.Payments(), f.sandbox, opts)
	return f
}

func checkout() CheckoutRequest {
	return CheckoutRequest{
		TicketID:   "65a1f0c2e4b0a1b2c3d4e5f6",
		Title:      "Dhaka to Chittagong",
		UnitPrice:  12.5,
		Quantity:   2,
		BuyerName:  "Rina",
		BuyerEmail: "c@example.com",
	}
}

func bookingRef() models.TicketRef {
	return models.TicketRef{
		TicketID:    "65a1f0c2e4b0a1b2c3d4e5f6",
		Title:       "Dhaka to Chittagong",
		VendorEmail: "v@example.com",
		UnitPrice:   12.5,
		Quantity:    2,
	}
}

// acceptedBooking books bookingRef for c@example.com and accepts it.
func (f *fixture) acceptedBooking(t *testing.T) models.Booking {
	t.Helper()
	ctx := context.Background()
	b, err := f.bookings.Create(ctx, models.Buyer{Name: "Rina", Email: "c@example.com"}, bookingRef())
	require.NoError(t, err)
	require.NoError(t, f.bookings.SetDecision(ctx, b.ID.Hex(), models.BookingAccepted))
	b.Status = models.BookingAccepted
	return b
}

// start runs a checkout and returns the sandbox session id from the redirect URL.
func (f *fixture) start(t *testing.T, req CheckoutRequest) string {
	t.Helper()
	redirect, err := f.svc.StartCheckout(context.Background(), req)
	require.NoError(t, err)
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	id := u.Query().Get("session_id")
	require.NotEmpty(t, id)
	return id
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1250), ToMinorUnits(12.5))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(30), ToMinorUnits(0.3))
	assert.Equal(t, 25.0, FromMinorUnits(2500))
	assert.Equal(t, 19.99, FromMinorUnits(1999))
}

func TestStartCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	b := f.acceptedBooking(t)
	req := checkout()
	req.BookingID = b.ID.Hex()
	id := f.start(t, req)

	s, err := f.sandbox.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), s.AmountTotal)
	assert.Equal(t, "usd", s.Currency)
	assert.Equal(t, map[string]string{
		"ticketId":   req.TicketID,
		"buyerName":  "Rina",
		"buyerEmail": "c@example.com",
		"bookingId":  req.BookingID,
	}, s.Metadata)
}

func TestStartCheckoutValidation(t *testing.T) {
	f := newFixture(t, Options{})
	req := checkout()
	req.Quantity = 0
	_, err := f.svc.StartCheckout(context.Background(), req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStartCheckoutProviderFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.sandbox.FailCreate(errors.New("api key revoked"))

	_, err := f.svc.StartCheckout(context.Background(), checkout())
	assert.ErrorIs(t, err, apperr.ErrCheckoutCreationFailed)
	assert.Equal(t, "failed to create checkout session", apperr.Message(err))
}

func TestReconcileRequiresSessionAndPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.svc.Reconcile(ctx, "  ")
	assert.ErrorIs(t, err, apperr.ErrMissingSessionID)

	id := f.start(t, checkout())
	_, err = f.svc.Reconcile(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrPaymentNotCompleted)
	assert.Equal(t, 0, f.store.Payments().Count())

	_, err = f.svc.Reconcile(ctx, "cs_test_unknown")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	id := f.start(t, checkout())
	require.NoError(t, f.sandbox.Complete(id))

	first, err := f.svc.Reconcile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, first.SessionID)
	assert.NotEqual(t, id, first.TransactionID)
	assert.Contains(t, first.TransactionID, "pi_")
	assert.Equal(t, 25.0, first.Amount)
	assert.Equal(t, "usd", first.Currency)
	assert.Equal(t, "paid", first.Status)
	assert.Equal(t, "Dhaka to Chittagong", first.ProductTitle)
	assert.Equal(t, int64(2), first.Quantity)
	assert.Equal(t, "c@example.com", first.BuyerEmail)

	second, err := f.svc.Reconcile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.store.Payments().Count())
}

// racingPayments simulates another reconcile inserting between our lookup and insert.
type racingPayments struct {
	*memstore.Payments
	winner models.PaymentRecord
	raced  bool
}

func (r *racingPayments) Insert(ctx context.Context, rec *models.PaymentRecord) error {
	if !r.raced {
		r.raced = true
		w := r.winner
		if err := r.Payments.Insert(ctx, &w); err != nil {
			return err
		}
		r.winner = w
	}
	return r.Payments.Insert(ctx, rec)
}

func TestReconcileDuplicateKeyReturnsWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	id := f.start(t, checkout())
	require.NoError(t, f.sandbox.Complete(id))

	racing := &racingPayments{
		Payments: f.store.Payments(),
		winner:   models.PaymentRecord{SessionID: id, TransactionID: "pi_winner", CreatedAt: time.Now()},
	}
	svc := NewPaymentService(racing, f.sandbox, Options{ClientURL: "http://localhost:5173"})

	rec, err := svc.Reconcile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pi_winner", rec.TransactionID)
	assert.Equal(t, racing.winner.ID, rec.ID)
	assert.Equal(t, 1, f.store.Payments().Count())
}

func TestReconcileMarksBookingPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	b := f.acceptedBooking(t)

	req := checkout()
	req.BookingID = b.ID.Hex()
	id := f.start(t, req)
	require.NoError(t, f.sandbox.Complete(id))

	rec, err := f.svc.Reconcile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, b.ID.Hex(), rec.BookingID)

	got, err := f.bookings.Get(ctx, b.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.Paid, got.PaymentStatus)
}

func TestCheckoutPricesFromBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	b := f.acceptedBooking(t)

	req := checkout()
	req.BookingID = b.ID.Hex()
	req.UnitPrice = 0.01
	req.Quantity = 1
	id := f.start(t, req)

	s, err := f.sandbox.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), s.AmountTotal)
}

func TestCheckoutRejectsForeignOrUndecidedBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	b := f.acceptedBooking(t)

	req := checkout()
	req.BookingID = b.ID.Hex()
	req.BuyerEmail = "someone-else@example.com"
	_, err := f.svc.StartCheckout(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	pending, err := f.bookings.Create(ctx, models.Buyer{Name: "Rina", Email: "c@example.com"}, bookingRef())
	require.NoError(t, err)
	req = checkout()
	req.BookingID = pending.ID.Hex()
	_, err = f.svc.StartCheckout(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	req.BookingID = "65a1f0c2e4b0a1b2c3d4e5f7"
	_, err = f.svc.StartCheckout(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, f.sandbox.Len())
}

func TestUnderpaidSessionLeavesBookingUnpaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	b := f.acceptedBooking(t)

	// a session created outside StartCheckout, claiming the booking for one cent
	sess, err := f.sandbox.CreateSession(ctx, stripe.SessionRequest{
		Currency:    "usd",
		ProductName: "Dhaka to Chittagong",
		UnitAmount:  1,
		Quantity:    1,
		Metadata: map[string]string{
			"ticketId":   "65a1f0c2e4b0a1b2c3d4e5f6",
			"buyerEmail": "someone-else@example.com",
			"bookingId":  b.ID.Hex(),
		},
		SuccessURL: "http://localhost:5173/ok?session_id=" + stripe.SessionIDPlaceholder,
	})
	require.NoError(t, err)
	require.NoError(t, f.sandbox.Complete(sess.ID))

	rec, err := f.svc.Reconcile(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.01, rec.Amount)

	got, err := f.bookings.Get(ctx, b.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.NotPaid, got.PaymentStatus)
}

type failingMarker struct {
	*booking.Ledger
}

func (failingMarker) MarkPaid(context.Context, string) error {
	return errors.New("mongo unavailable")
}

func TestReconcileSurvivesBookingFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	b := f.acceptedBooking(t)
	f.svc.bookings = failingMarker{f.bookings}

	req := checkout()
	req.BookingID = b.ID.Hex()
	id := f.start(t, req)
	require.NoError(t, f.sandbox.Complete(id))

	rec, err := f.svc.Reconcile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, b.ID.Hex(), rec.BookingID)
	assert.Equal(t, 1, f.store.Payments().Count())
}

func TestReconcileTakesSessionLock(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	f := newFixture(t, Options{Locker: rdx.NewLocker(client, time.Second)})
	id := f.start(t, checkout())
	require.NoError(t, f.sandbox.Complete(id))

	key := "lock:pay:session:" + id
	token := `^[0-9a-f-]{36}$`
	mock.Regexp().ExpectSetNX(key, token, time.Second).SetVal(true)
	mock.Regexp().ExpectEvalSha(".+", []string{key}, token).SetVal(int64(1))
	_, err := f.svc.Reconcile(ctx, id)
	require.NoError(t, err)

	mock.Regexp().ExpectSetNX(key, token, time.Second).SetVal(false)
	_, err = f.svc.Reconcile(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrBusy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPayments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	for _, email := range []string{"a@example.com", "b@example.com", "a@example.com"} {
		req := checkout()
		req.BuyerEmail = email
		id := f.start(t, req)
		require.NoError(t, f.sandbox.Complete(id))
		_, err := f.svc.Reconcile(ctx, id)
		require.NoError(t, err)
	}

	all, err := f.svc.ListPayments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))
	assert.True(t, all[1].CreatedAt.After(all[2].CreatedAt))

	mine, err := f.svc.ListPaymentsByBuyer(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestReceipt(t *testing.T) {
	f := newFixture(t, Options{})
	rec := models.PaymentRecord{
		SessionID:     "cs_test_1",
		TransactionID: "pi_test_1",
		BuyerName:     "Rina",
		BuyerEmail:    "c@example.com",
		Amount:        25,
		Currency:      "usd",
		ProductTitle:  "Dhaka to Chittagong",
		Quantity:      2,
		CreatedAt:     time.Now(),
	}

	pdf, err := f.svc.Receipt(rec)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	payload := f.svc.QRPayload(rec)
	session, ok := f.svc.VerifyQRPayload(payload)
	assert.True(t, ok)
	assert.Equal(t, "cs_test_1", session)

	_, ok = f.svc.VerifyQRPayload("cs_test_2|pi_test_1|" + payload[len("cs_test_1|pi_test_1|"):])
	assert.False(t, ok)
}

package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketbari/apperr"
	"ticketbari/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicTransactorRestoresOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	u, err := s.Users().UpsertLogin(ctx, "v@x.io", time.Now())
	require.NoError(t, err)

	err = s.Transactor(true).WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Users().UpdateRole(ctx, u.ID, models.RoleFraud, time.Now()))
		return errors.New("boom")
	})
	require.Error(t, err)

	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, got.Role)
	assert.Nil(t, got.FraudAt)
}

func TestInlineTransactorKeepsPartialWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	u, _ := s.Users().UpsertLogin(ctx, "v@x.io", time.Now())

	_ = s.Transactor(false).WithTransaction(ctx, func(ctx context.Context) error {
		_ = s.Users().UpdateRole(ctx, u.ID, models.RoleFraud, time.Now())
		return errors.New("boom")
	})

	got, _ := s.Users().FindByID(ctx, u.ID)
	assert.Equal(t, models.RoleFraud, got.Role)
}

func TestPaymentsSessionUnique(t *testing.T) {
	ctx := context.Background()
	p := New().Payments()
	require.NoError(t, p.Insert(ctx, &models.PaymentRecord{SessionID: "cs_1"}))
	err := p.Insert(ctx, &models.PaymentRecord{SessionID: "cs_1"})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
	assert.Equal(t, 1, p.Count())
}

func TestTicketQuery(t *testing.T) {
	ctx := context.Background()
	tk := New().Tickets()
	require.NoError(t, tk.Insert(ctx, &models.Ticket{Title: "a", VendorEmail: "v@x.io", Status: models.TicketApproved}))
	require.NoError(t, tk.Insert(ctx, &models.Ticket{Title: "b", VendorEmail: "v@x.io", Status: models.TicketPending}))
	require.NoError(t, tk.Insert(ctx, &models.Ticket{Title: "c", VendorEmail: "w@x.io", Status: models.TicketApproved, IsHidden: true}))

	got, err := tk.Find(ctx, models.TicketQuery{Status: models.TicketApproved, ExcludeHidden: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Title)

	n, err := tk.HideByVendor(ctx, "v@x.io", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestFindReturnsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tk := s.Tickets()
	require.NoError(t, tk.Insert(ctx, &models.Ticket{Title: "old", CreatedAt: day}))
	require.NoError(t, tk.Insert(ctx, &models.Ticket{Title: "new", CreatedAt: day.Add(time.Hour)}))
	require.NoError(t, tk.Insert(ctx, &models.Ticket{Title: "same-as-old", CreatedAt: day}))

	tickets, err := tk.Find(ctx, models.TicketQuery{})
	require.NoError(t, err)
	var titles []string
	for _, got := range tickets {
		titles = append(titles, got.Title)
	}
	assert.Equal(t, []string{"new", "same-as-old", "old"}, titles)

	bk := s.Bookings()
	require.NoError(t, bk.Insert(ctx, &models.Booking{TicketRef: models.TicketRef{Title: "first"}, CreatedAt: day}))
	require.NoError(t, bk.Insert(ctx, &models.Booking{TicketRef: models.TicketRef{Title: "second"}, CreatedAt: day.Add(time.Minute)}))

	bookings, err := bk.Find(ctx, models.BookingQuery{})
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "second", bookings[0].Title)
	assert.Equal(t, "first", bookings[1].Title)
}

package stripe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ticketbari/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request() SessionRequest {
	return SessionRequest{
		Currency:    "usd",
		ProductName: "Dhaka to Khulna",
		UnitAmount:  1250,
		Quantity:    2,
		Metadata:    map[string]string{"ticketId": "t1"},
		SuccessURL:  "http://localhost:5173/dashboard/payment/success?session_id=" + SessionIDPlaceholder,
	}
}

func TestSandboxLifecycle(t *testing.T) {
	ctx := context.Background()
	sb := NewSandbox(false)

	s, err := sb.CreateSession(ctx, request())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "cs_test_"))
	assert.True(t, strings.HasSuffix(s.URL, "session_id="+s.ID))
	assert.Equal(t, int64(2500), s.AmountTotal)
	assert.NotEqual(t, PaymentStatusPaid, s.PaymentStatus)

	require.NoError(t, sb.Complete(s.ID))
	got, err := sb.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, got.PaymentStatus)
	assert.NotEmpty(t, got.PaymentIntentID)
	assert.NotEqual(t, got.ID, got.PaymentIntentID)
	assert.Equal(t, "t1", got.Metadata["ticketId"])

	items, err := sb.ListLineItems(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []LineItem{{Description: "Dhaka to Khulna", Quantity: 2}}, items)
}

func TestSandboxErrors(t *testing.T) {
	ctx := context.Background()
	sb := NewSandbox(true)

	_, err := sb.GetSession(ctx, "cs_missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, sb.Complete("cs_missing"), apperr.ErrNotFound)

	sb.FailCreate(errors.New("card network down"))
	_, err = sb.CreateSession(ctx, request())
	assert.ErrorIs(t, err, apperr.ErrUpstream)

	sb.FailCreate(nil)
	s, err := sb.CreateSession(ctx, request())
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, s.PaymentStatus)
}

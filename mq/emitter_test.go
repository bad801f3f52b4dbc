package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitWithoutSetupIsNoop(t *testing.T) {
	Setup(nil, "")
	Emit(context.Background(), Event{Name: PaymentRecorded, EntityID: "cs_test_1"})
}

func TestEmitPublishesJSON(t *testing.T) {
	client, mock := redismock.NewClientMock()
	Setup(client, "events-test")
	t.Cleanup(func() { Setup(nil, "") })

	evt := Event{
		Name:       TicketStatusChanged,
		EntityType: "ticket",
		EntityID:   "65a1f0c2e4b0a1b2c3d4e5f6",
		At:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Data:       map[string]any{"status": "approved"},
	}
	data, err := json.Marshal(evt)
	require.NoError(t, err)

	mock.ExpectPublish("events-test", string(data)).SetVal(1)
	Emit(context.Background(), evt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	Setup(client, "")
	t.Cleanup(func() { Setup(nil, "") })

	evt := Event{Name: VendorMarkedFraud, EntityType: "user", EntityID: "u1", At: time.Unix(0, 0).UTC()}
	data, err := json.Marshal(evt)
	require.NoError(t, err)

	mock.ExpectPublish(DefaultChannel, string(data)).SetErr(errors.New("connection refused"))
	Emit(context.Background(), evt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

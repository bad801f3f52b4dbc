package pay

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ticketbari/logger"
	"ticketbari/memstore"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idempotentRouter(status int) (*httprouter.Router, *int32) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"call":` + string(rune('0'+n)) + `}`))
	}
	router := httprouter.New()
	router.POST("/create-checkout-session", Idempotent(memstore.NewIdempotency(), time.Hour)(handler))
	return router, &calls
}

func post(router http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/create-checkout-session", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIdempotentReplaysResponse(t *testing.T) {
	router, calls := idempotentRouter(http.StatusOK)

	first := post(router, "k1", `{"ticketId":"a"}`)
	require.Equal(t, http.StatusOK, first.Code)
	second := post(router, "k1", `{"ticketId":"a"}`)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestIdempotentKeyReuseWithDifferentBody(t *testing.T) {
	router, calls := idempotentRouter(http.StatusOK)

	post(router, "k1", `{"ticketId":"a"}`)
	rec := post(router, "k1", `{"ticketId":"b"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestIdempotentPassThroughAndServerErrors(t *testing.T) {
	router, calls := idempotentRouter(http.StatusOK)
	post(router, "", `{}`)
	post(router, "", `{}`)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))

	failing, failCalls := idempotentRouter(http.StatusInternalServerError)
	post(failing, "k2", `{}`)
	post(failing, "k2", `{}`)
	// 5xx responses are not stored, so the retry runs the handler again
	assert.Equal(t, int32(2), atomic.LoadInt32(failCalls))
}

type stuckRelease struct {
	*memstore.Idempotency
}

func (stuckRelease) Release(context.Context, string) error {
	return errors.New("mongo unavailable")
}

func TestIdempotentLogsFailedRelease(t *testing.T) {
	var buf bytes.Buffer
	logger.SetupWriter(&buf, "development")
	t.Cleanup(func() { logger.SetupWriter(os.Stdout, "development") })

	handler := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusBadGateway)
	}
	router := httprouter.New()
	router.POST("/create-checkout-session", Idempotent(stuckRelease{memstore.NewIdempotency()}, time.Hour)(handler))

	rec := post(router, "k3", `{}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, buf.String(), "idempotency key not released")
	assert.Contains(t, buf.String(), "mongo unavailable")
}

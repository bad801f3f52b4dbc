package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutePath(t *testing.T) {
	assert.Equal(t, "/tickets/approved/:id", RoutePath("/tickets/approved/65a1f0c2e4b0a1b2c3d4e5f6"))
	assert.Equal(t, "/dashboard/payment/receipt/:sessionId", RoutePath("/dashboard/payment/receipt/cs_test_a1B2"))
	assert.Equal(t, "/tickets/status/approved", RoutePath("/tickets/status/approved"))
}

func TestMiddlewareCountsRequests(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/brew", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))
	after := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/brew", "418"))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	AdvertiseRejections.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ticketbari_tickets_advertise_rejections_total"))
}

package pay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ticketbari/globals"
	"ticketbari/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func as(email string, role models.Role, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), globals.PrincipalKey, email)
		ctx = context.WithValue(ctx, globals.RoleKey, role)
		next(w, r.WithContext(ctx), ps)
	}
}

func TestCheckoutAndSuccessHandlers(t *testing.T) {
	f := newFixture(t, Options{})
	router := httprouter.New()
	router.POST("/create-checkout-session", as("c@example.com", models.RoleCustomer, f.svc.CreateCheckoutSession))
	router.POST("/dashboard/payment/success", f.svc.PaymentSuccess)

	rec := httptest.NewRecorder()
	body := `{"ticketId":"t1","title":"Night bus","unitPrice":10,"quantity":3,"buyerName":"Rina","buyerEmail":"spoof@example.com"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/create-checkout-session", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var started struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	id := started.URL[strings.LastIndex(started.URL, "=")+1:]

	s, err := f.sandbox.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "c@example.com", s.Metadata["buyerEmail"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dashboard/payment/success", strings.NewReader(`{"sessionId":"`+id+`"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, f.sandbox.Complete(id))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dashboard/payment/success", strings.NewReader(`{"sessionId":"`+id+`"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Success       bool                 `json:"success"`
		TransactionID string               `json:"transactionId"`
		Payment       models.PaymentRecord `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, out.Payment.TransactionID, out.TransactionID)
	assert.Equal(t, 30.0, out.Payment.Amount)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dashboard/payment/success", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiptAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	id := f.start(t, checkout())
	require.NoError(t, f.sandbox.Complete(id))
	_, err := f.svc.Reconcile(ctx, id)
	require.NoError(t, err)

	cases := []struct {
		name  string
		email string
		role  models.Role
		want  int
	}{
		{"buyer", "c@example.com", models.RoleCustomer, http.StatusOK},
		{"admin", "a@example.com", models.RoleAdmin, http.StatusOK},
		{"stranger", "x@example.com", models.RoleCustomer, http.StatusForbidden},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			router := httprouter.New()
			router.GET("/dashboard/payment/receipt/:sessionId", as(c.email, c.role, f.svc.DownloadReceipt))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/payment/receipt/"+id, nil))
			assert.Equal(t, c.want, rec.Code)
			if c.want == http.StatusOK {
				assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
			}
		})
	}
}

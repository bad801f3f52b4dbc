package pay

import (
	"fmt"
	"net/http"

	"ticketbari/apperr"
	"ticketbari/models"
	"ticketbari/utils"

	"github.com/julienschmidt/httprouter"
)

// POST /create-checkout-session
func (p *PaymentService) CreateCheckoutSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CheckoutRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	req.BuyerEmail = utils.GetPrincipalEmail(r)

	redirect, err := p.StartCheckout(r.Context(), req)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"url": redirect})
}

// POST /dashboard/payment/success
func (p *PaymentService) PaymentSuccess(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		SessionID string `json:"sessionId"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, r, err)
		return
	}

	rec, err := p.Reconcile(r.Context(), body.SessionID)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":       true,
		"transactionId": rec.TransactionID,
		"payment":       rec,
	})
}

// GET /dashboard/payment/success
func (p *PaymentService) GetPayments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := p.ListPayments(r.Context())
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /dashboard/payment/mine
func (p *PaymentService) GetMyPayments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := p.ListPaymentsByBuyer(r.Context(), utils.GetPrincipalEmail(r))
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /dashboard/payment/receipt/:sessionId
func (p *PaymentService) DownloadReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("sessionId")
	rec, err := p.FindPayment(r.Context(), sessionID)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	if utils.GetRole(r) != models.RoleAdmin && rec.BuyerEmail != utils.GetPrincipalEmail(r) {
		utils.RespondWithError(w, r, fmt.Errorf("receipt %s: %w", sessionID, apperr.ErrForbidden))
		return
	}

	pdf, err := p.Receipt(rec)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+rec.TransactionID+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

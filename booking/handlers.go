package booking

import (
	"fmt"
	"net/http"

	"ticketbari/apperr"
	"ticketbari/models"
	"ticketbari/utils"

	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	ledger *Ledger
}

func NewHandlers(l *Ledger) *Handlers {
	return &Handlers{ledger: l}
}

type createBookingRequest struct {
	models.TicketRef
	BuyerName string `json:"buyerName"`
}

// POST /booking-tickets
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createBookingRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	buyer := models.Buyer{Name: req.BuyerName, Email: utils.GetPrincipalEmail(r)}
	b, err := h.ledger.Create(r.Context(), buyer, req.TicketRef)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, b)
}

// GET /booking-tickets[?email=|?vendorEmail=]
func (h *Handlers) GetBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	var (
		list []models.Booking
		err  error
	)
	switch {
	case q.Get("email") != "":
		list, err = h.ledger.ListByBuyer(r.Context(), q.Get("email"))
	case q.Get("vendorEmail") != "":
		list, err = h.ledger.ListByVendor(r.Context(), q.Get("vendorEmail"))
	default:
		list, err = h.ledger.ListAll(r.Context())
	}
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// AcceptBooking serves PATCH /booking-tickets/accept/:id.
func (h *Handlers) AcceptBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.decide(w, r, ps.ByName("id"), models.BookingAccepted)
}

// RejectBooking serves PATCH /booking-tickets/reject/:id.
func (h *Handlers) RejectBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.decide(w, r, ps.ByName("id"), models.BookingRejected)
}

// Admins may decide any booking; vendors only bookings on their own tickets.
func (h *Handlers) decide(w http.ResponseWriter, r *http.Request, id string, decision models.BookingStatus) {
	if utils.GetRole(r) != models.RoleAdmin {
		b, err := h.ledger.Get(r.Context(), id)
		if err != nil {
			utils.RespondWithError(w, r, err)
			return
		}
		if b.VendorEmail != utils.GetPrincipalEmail(r) {
			utils.RespondWithError(w, r, fmt.Errorf("booking %s belongs to another vendor: %w", id, apperr.ErrForbidden))
			return
		}
	}

	if err := h.ledger.SetDecision(r.Context(), id, decision); err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "booking updated", "id": id, "status": decision})
}

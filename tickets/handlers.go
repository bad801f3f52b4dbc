package tickets

import (
	"fmt"
	"net/http"

	"ticketbari/apperr"
	"ticketbari/models"
	"ticketbari/utils"

	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	catalog *Catalog
}

func NewHandlers(c *Catalog) *Handlers {
	return &Handlers{catalog: c}
}

// POST /tickets
func (h *Handlers) CreateTicket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var fields models.TicketFields
	if err := utils.DecodeJSON(w, r, &fields); err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	t, err := h.catalog.Submit(r.Context(), utils.GetPrincipalEmail(r), fields)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, t)
}

func (h *Handlers) respondList(w http.ResponseWriter, r *http.Request, list []models.Ticket, err error) {
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /tickets
func (h *Handlers) GetTickets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.catalog.ListAll(r.Context())
	h.respondList(w, r, list, err)
}

// GET /tickets/approved
func (h *Handlers) GetApprovedTickets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.catalog.ListApproved(r.Context())
	h.respondList(w, r, list, err)
}

// GET /tickets/advertised
func (h *Handlers) GetAdvertisedTickets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.catalog.ListAdvertised(r.Context())
	h.respondList(w, r, list, err)
}

// GET /tickets/vendor?email=
func (h *Handlers) GetVendorTickets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.catalog.ListByVendor(r.Context(), r.URL.Query().Get("email"))
	h.respondList(w, r, list, err)
}

// GET /tickets/approved/:id
func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t, err := h.catalog.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, t)
}

// UpdateStatus serves both PATCH /tickets/status/:key with a {"status"} body,
// where key is the ticket id, and PATCH /tickets/status/:key/:id, where key
// names the status.
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	status := models.TicketStatus(ps.ByName("key"))
	if id == "" {
		id = ps.ByName("key")
		var body struct {
			Status models.TicketStatus `json:"status"`
		}
		if err := utils.DecodeJSON(w, r, &body); err != nil {
			utils.RespondWithError(w, r, err)
			return
		}
		status = body.Status
	} else if status != models.TicketApproved && status != models.TicketRejected {
		utils.RespondWithError(w, r, fmt.Errorf("unknown status route %q: %w", status, apperr.ErrNotFound))
		return
	}

	if err := h.catalog.SetStatus(r.Context(), id, status); err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "ticket status updated", "id": id, "status": status})
}

// PATCH /tickets/advertise/:id
func (h *Handlers) UpdateAdvertise(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		IsAdvertise *bool `json:"isAdvertise"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	if body.IsAdvertise == nil {
		utils.RespondWithError(w, r, fmt.Errorf("isAdvertise must be a boolean: %w", apperr.ErrValidation))
		return
	}

	id := ps.ByName("id")
	if err := h.catalog.SetAdvertise(r.Context(), id, *body.IsAdvertise); err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "advertise updated", "id": id, "isAdvertise": *body.IsAdvertise})
}

// DELETE /tickets/:id
func (h *Handlers) DeleteTicket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if err := h.catalog.Remove(r.Context(), id); err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "ticket deleted", "id": id})
}

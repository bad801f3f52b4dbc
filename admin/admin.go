package admin

import (
	"net/http"

	"ticketbari/db"
	"ticketbari/models"
	"ticketbari/users"
	"ticketbari/utils"

	"github.com/julienschmidt/httprouter"
)

// Handlers serve the admin console's user management. Every route is mounted
// behind the admin role gate.
type Handlers struct {
	dir *users.Directory
}

func NewHandlers(dir *users.Directory) *Handlers {
	return &Handlers{dir: dir}
}

// GET /users
func (h *Handlers) GetUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.dir.List(r.Context())
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// PATCH /users/make-admin/:id
func (h *Handlers) MakeAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.promote(w, r, ps.ByName("id"), models.RoleAdmin)
}

// PATCH /users/make-vendor/:id
func (h *Handlers) MakeVendor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.promote(w, r, ps.ByName("id"), models.RoleVendor)
}

func (h *Handlers) promote(w http.ResponseWriter, r *http.Request, id string, role models.Role) {
	oid, err := db.ObjectID(id)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	user, err := h.dir.Promote(r.Context(), oid, role)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}

// PATCH /users/mark-fraud/:id
func (h *Handlers) MarkFraud(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	oid, err := db.ObjectID(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	user, err := h.dir.MarkFraud(r.Context(), oid)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}

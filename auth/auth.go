package auth

import (
	"fmt"
	"net/http"

	"ticketbari/apperr"
	"ticketbari/users"
	"ticketbari/utils"

	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	dir *users.Directory
}

func NewHandlers(dir *users.Directory) *Handlers {
	return &Handlers{dir: dir}
}

// SaveUser handles POST /user after every sign-in on the client. The email
// always comes from the verified credential, never from the body.
func (h *Handlers) SaveUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := h.dir.UpsertOnLogin(r.Context(), utils.GetPrincipalEmail(r))
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
}

// GetRole handles GET /user/role.
func (h *Handlers) GetRole(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := utils.GetPrincipalEmail(r)
	role, ok, err := h.dir.GetRole(r.Context(), email)
	if err != nil {
		utils.RespondWithError(w, r, err)
		return
	}
	if !ok {
		utils.RespondWithError(w, r, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"role": role})
}

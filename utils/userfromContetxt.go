package utils

import (
	"net/http"

	"ticketbari/globals"
	"ticketbari/models"
)

// GetPrincipalEmail returns the email stored by the authentication middleware,
// or "" on unauthenticated routes.
func GetPrincipalEmail(r *http.Request) string {
	email, ok := r.Context().Value(globals.PrincipalKey).(string)
	if !ok {
		return ""
	}
	return email
}

// GetRole returns the role resolved by the role gate, RoleUnknown if no gate ran.
func GetRole(r *http.Request) models.Role {
	role, ok := r.Context().Value(globals.RoleKey).(models.Role)
	if !ok {
		return models.RoleUnknown
	}
	return role
}

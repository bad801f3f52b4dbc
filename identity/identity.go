// Package identity turns a bearer credential into a verified principal.
package identity

import (
	"context"
	"strings"

	"ticketbari/apperr"
)

// Principal is the verified caller. Email is the directory key.
type Principal struct {
	Email string
	UID   string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.ErrUnauthenticated
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.ErrUnauthenticated
	}
	return strings.TrimSpace(token), nil
}

package middleware

import (
	"context"
	"fmt"
	"net/http"

	"ticketbari/apperr"
	"ticketbari/globals"
	"ticketbari/identity"
	"ticketbari/logger"
	"ticketbari/models"
	"ticketbari/utils"

	"github.com/julienschmidt/httprouter"
)

type Middleware func(httprouter.Handle) httprouter.Handle

// Chain composes mws so that they run in the order given.
func Chain(mws ...Middleware) Middleware {
	return func(h httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

// Authenticate verifies the bearer credential and stores the principal email
// in the request context under globals.PrincipalKey.
func Authenticate(verifier identity.Verifier) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			token, err := identity.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				utils.RespondWithError(w, r, err)
				return
			}
			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.WithCtx(r.Context()).Debug("credential rejected", "err", err)
				utils.RespondWithError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), globals.PrincipalKey, principal.Email)
			ctx = logger.Inject(ctx, logger.WithCtx(ctx).With("principal", principal.Email))
			next(w, r.WithContext(ctx), ps)
		}
	}
}

type RoleResolver interface {
	ResolveRole(ctx context.Context, email string) (models.Role, error)
}

func resolve(resolver RoleResolver, r *http.Request) (*http.Request, models.Role, error) {
	email := utils.GetPrincipalEmail(r)
	if email == "" {
		return r, models.RoleUnknown, apperr.ErrUnauthenticated
	}
	role, err := resolver.ResolveRole(r.Context(), email)
	if err != nil {
		return r, models.RoleUnknown, err
	}
	return r.WithContext(context.WithValue(r.Context(), globals.RoleKey, role)), role, nil
}

// WithRole looks up the caller's role for handlers that vary their answer by
// role without restricting access. Runs after Authenticate.
func WithRole(resolver RoleResolver) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			r, _, err := resolve(resolver, r)
			if err != nil {
				utils.RespondWithError(w, r, err)
				return
			}
			next(w, r, ps)
		}
	}
}

// RequireRole admits the caller only when their stored role is exactly one of
// roles. There is no hierarchy: an admin does not pass a vendor-only gate.
func RequireRole(resolver RoleResolver, roles ...models.Role) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			r, role, err := resolve(resolver, r)
			if err != nil {
				utils.RespondWithError(w, r, err)
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next(w, r, ps)
					return
				}
			}
			utils.RespondWithError(w, r, fmt.Errorf("role %s: %w", role, apperr.ErrForbidden))
		}
	}
}

// Package apperr holds the error taxonomy shared by every component.
//
// Domain code wraps one of the sentinels below (fmt.Errorf("ticket %s: %w", id, ErrNotFound))
// and the HTTP layer maps the wrapped error to a status code with Status.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated   = errors.New("unauthorized access")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrForbidden         = errors.New("forbidden access")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrBusy              = errors.New("please retry")
	ErrDuplicate         = errors.New("already exists")

	ErrAlreadyInRole          = errors.New("user already has this role")
	ErrProtectedRole          = errors.New("admin cannot be made vendor")
	ErrNotAVendor             = errors.New("only vendors can be marked as fraud")
	ErrAdvertiseLimitExceeded = errors.New("maximum 6 tickets can be advertised")

	ErrMissingSessionID       = errors.New("session id is required")
	ErrPaymentNotCompleted    = errors.New("payment not completed")
	ErrCheckoutCreationFailed = errors.New("failed to create checkout session")

	ErrCascadeIncomplete = errors.New("fraud cascade incomplete")
	ErrUpstream          = errors.New("upstream failure")
)

// Status maps an error onto the HTTP status the API reports for it.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrProtectedRole):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrMissingSessionID),
		errors.Is(err, ErrAlreadyInRole),
		errors.Is(err, ErrNotAVendor),
		errors.Is(err, ErrAdvertiseLimitExceeded),
		errors.Is(err, ErrPaymentNotCompleted):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrBusy):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a caller. Server-side failures never leak
// driver or provider detail.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrCheckoutCreationFailed):
		return ErrCheckoutCreationFailed.Error()
	case errors.Is(err, ErrCascadeIncomplete):
		return "user marked as fraud but hiding tickets failed"
	}
	if Status(err) >= http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

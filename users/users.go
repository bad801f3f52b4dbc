// Package users is the user directory: the single source of truth for roles.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ticketbari/apperr"
	"ticketbari/logger"
	"ticketbari/metrics"
	"ticketbari/models"
	"ticketbari/mq"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store interface {
	UpsertLogin(ctx context.Context, email string, now time.Time) (models.User, error)
	UpsertAdmin(ctx context.Context, email string, now time.Time) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role, now time.Time) error
}

// TicketHider is the part of the catalog the fraud cascade needs.
type TicketHider interface {
	HideAllByVendor(ctx context.Context, vendorEmail string) (int64, error)
}

// Transactor runs fn atomically when Atomic reports true; otherwise fn runs
// directly and partial writes stay committed.
type Transactor interface {
	Atomic() bool
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Directory struct {
	store   Store
	tickets TicketHider
	tx      Transactor
	now     func() time.Time
}

func NewDirectory(store Store, tickets TicketHider, tx Transactor) *Directory {
	return &Directory{store: store, tickets: tickets, tx: tx, now: time.Now}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("email %q: %w", email, apperr.ErrValidation)
	}
	return email, nil
}

// UpsertOnLogin creates a customer on first sight of email and afterwards only
// refreshes last_loggedIn. An existing role is never overwritten.
func (d *Directory) UpsertOnLogin(ctx context.Context, email string) (models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.User{}, err
	}
	return d.store.UpsertLogin(ctx, email, d.now().UTC())
}

// GetRole reports ok=false for an unknown email.
func (d *Directory) GetRole(ctx context.Context, email string) (models.Role, bool, error) {
	user, err := d.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperr.ErrNotFound) {
		return models.RoleUnknown, false, nil
	}
	if err != nil {
		return models.RoleUnknown, false, err
	}
	return user.Role, true, nil
}

// ResolveRole satisfies the role gate: unknown callers resolve to RoleUnknown.
func (d *Directory) ResolveRole(ctx context.Context, email string) (models.Role, error) {
	role, _, err := d.GetRole(ctx, email)
	return role, err
}

func (d *Directory) List(ctx context.Context) ([]models.User, error) {
	return d.store.List(ctx)
}

// Promote moves a user to admin or vendor. An admin is never demoted to vendor.
func (d *Directory) Promote(ctx context.Context, id primitive.ObjectID, role models.Role) (models.User, error) {
	if role != models.RoleAdmin && role != models.RoleVendor {
		return models.User{}, fmt.Errorf("promote to %s: %w", role, apperr.ErrValidation)
	}
	user, err := d.store.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	switch {
	case user.Role == role:
		return models.User{}, fmt.Errorf("user %s is %s: %w", user.Email, role, apperr.ErrAlreadyInRole)
	case role == models.RoleVendor && user.Role == models.RoleAdmin:
		return models.User{}, fmt.Errorf("user %s: %w", user.Email, apperr.ErrProtectedRole)
	}

	now := d.now().UTC()
	if err := d.store.UpdateRole(ctx, id, role, now); err != nil {
		return models.User{}, err
	}
	user.Role = role
	user.UpdatedAt = &now
	logger.WithCtx(ctx).Info("user role changed", "email", user.Email, "role", role.String())
	return user, nil
}

// MarkFraud flips a vendor to fraud and hides every ticket they listed.
func (d *Directory) MarkFraud(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	user, err := d.store.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if user.Role != models.RoleVendor {
		return models.User{}, fmt.Errorf("user %s is %s: %w", user.Email, user.Role, apperr.ErrNotAVendor)
	}

	log := logger.WithCtx(ctx).With("vendor_email", user.Email)
	now := d.now().UTC()
	var hidden int64
	err = d.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := d.store.UpdateRole(ctx, id, models.RoleFraud, now); err != nil {
			return err
		}
		n, err := d.tickets.HideAllByVendor(ctx, user.Email)
		if err != nil {
			if d.tx.Atomic() {
				return err
			}
			return fmt.Errorf("%w: hide tickets of %s: %v", apperr.ErrCascadeIncomplete, user.Email, err)
		}
		hidden = n
		return nil
	})
	switch {
	case errors.Is(err, apperr.ErrCascadeIncomplete):
		metrics.FraudCascades.WithLabelValues("incomplete").Inc()
		log.Error("vendor marked as fraud but tickets remain visible", "err", err)
		return models.User{}, err
	case err != nil && d.tx.Atomic():
		metrics.FraudCascades.WithLabelValues("rolled_back").Inc()
		log.Error("fraud cascade rolled back", "err", err)
		return models.User{}, err
	case err != nil:
		return models.User{}, err
	}

	metrics.FraudCascades.WithLabelValues("complete").Inc()
	log.Info("vendor marked as fraud", "tickets_hidden", hidden)
	mq.Emit(ctx, mq.Event{
		Name:       mq.VendorMarkedFraud,
		EntityType: "user",
		EntityID:   id.Hex(),
		Data:       map[string]any{"email": user.Email, "ticketsHidden": hidden},
	})
	user.Role = models.RoleFraud
	user.UpdatedAt = &now
	user.FraudAt = &now
	return user, nil
}

// BootstrapAdmin creates or upgrades email straight to admin. It is only
// reachable from the command line.
func (d *Directory) BootstrapAdmin(ctx context.Context, email string) (models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.User{}, err
	}
	return d.store.UpsertAdmin(ctx, email, d.now().UTC())
}

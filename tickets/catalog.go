// Package tickets is the ticket catalog: vendor submissions, admin moderation,
// the advertised carousel and the fraud hide.
package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticketbari/apperr"
	"ticketbari/db"
	"ticketbari/logger"
	"ticketbari/metrics"
	"ticketbari/models"
	"ticketbari/mq"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store interface {
	Insert(ctx context.Context, t *models.Ticket) error
	Find(ctx context.Context, q models.TicketQuery) ([]models.Ticket, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Ticket, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.TicketStatus, now time.Time) error
	SetAdvertise(ctx context.Context, id primitive.ObjectID, flag bool, now time.Time) error
	CountAdvertised(ctx context.Context) (int64, error)
	HideByVendor(ctx context.Context, vendorEmail string, now time.Time) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Locker serialises the advertise count-then-set across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

const advertiseLockKey = "lock:tickets:advertise"

type Catalog struct {
	store  Store
	locker Locker
	now    func() time.Time
}

// NewCatalog builds a catalog. locker may be nil, in which case two admins
// advertising at the same moment can both pass the cap check.
func NewCatalog(store Store, locker Locker) *Catalog {
	return &Catalog{store: store, locker: locker, now: time.Now}
}

// validate only insists on a title. Price and seats are the vendor's call.
func validate(f models.TicketFields) error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("title is required: %w", apperr.ErrValidation)
	}
	return nil
}

// Submit stores a new listing for vendorEmail. Status and flags always start
// pending and cleared whatever the client sent.
func (c *Catalog) Submit(ctx context.Context, vendorEmail string, fields models.TicketFields) (models.Ticket, error) {
	if err := validate(fields); err != nil {
		return models.Ticket{}, err
	}
	t := models.Ticket{
		Title:              strings.TrimSpace(fields.Title),
		VendorEmail:        strings.ToLower(strings.TrimSpace(vendorEmail)),
		VendorName:         fields.VendorName,
		Price:              fields.Price,
		Quantity:           fields.Quantity,
		Transport:          fields.Transport,
		From:               fields.From,
		To:                 fields.To,
		Departure:          fields.Departure,
		Perks:              fields.Perks,
		Image:              fields.Image,
		Status:             models.TicketPending,
		VerificationStatus: models.TicketPending,
		IsAdvertise:        false,
		IsHidden:           false,
		CreatedAt:          c.now().UTC(),
	}
	if err := c.store.Insert(ctx, &t); err != nil {
		return models.Ticket{}, err
	}
	logger.WithCtx(ctx).Info("ticket submitted", "ticket_id", t.ID.Hex(), "vendor_email", t.VendorEmail)
	return t, nil
}

func (c *Catalog) ListAll(ctx context.Context) ([]models.Ticket, error) {
	return c.store.Find(ctx, models.TicketQuery{})
}

func (c *Catalog) ListApproved(ctx context.Context) ([]models.Ticket, error) {
	return c.store.Find(ctx, models.TicketQuery{Status: models.TicketApproved, ExcludeHidden: true})
}

func (c *Catalog) ListAdvertised(ctx context.Context) ([]models.Ticket, error) {
	return c.store.Find(ctx, models.TicketQuery{
		Status:         models.TicketApproved,
		AdvertisedOnly: true,
		ExcludeHidden:  true,
	})
}

func (c *Catalog) ListByVendor(ctx context.Context, vendorEmail string) ([]models.Ticket, error) {
	if vendorEmail == "" {
		return nil, fmt.Errorf("vendor email is required: %w", apperr.ErrValidation)
	}
	return c.store.Find(ctx, models.TicketQuery{VendorEmail: strings.ToLower(vendorEmail)})
}

func (c *Catalog) GetByID(ctx context.Context, id string) (models.Ticket, error) {
	oid, err := db.ObjectID(id)
	if err != nil {
		return models.Ticket{}, err
	}
	return c.store.FindByID(ctx, oid)
}

// SetStatus overwrites the moderation status; any transition is allowed.
func (c *Catalog) SetStatus(ctx context.Context, id string, status models.TicketStatus) error {
	if !status.Valid() {
		return fmt.Errorf("status %q: %w", status, apperr.ErrValidation)
	}
	oid, err := db.ObjectID(id)
	if err != nil {
		return err
	}
	if err := c.store.SetStatus(ctx, oid, status, c.now().UTC()); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("ticket status changed", "ticket_id", id, "status", string(status))
	mq.Emit(ctx, mq.Event{
		Name:       mq.TicketStatusChanged,
		EntityType: "ticket",
		EntityID:   id,
		Data:       map[string]any{"status": status},
	})
	return nil
}

// SetAdvertise toggles the carousel flag. Enabling a ticket that is not yet
// advertised fails once MaxAdvertised tickets carry the flag.
func (c *Catalog) SetAdvertise(ctx context.Context, id string, flag bool) error {
	oid, err := db.ObjectID(id)
	if err != nil {
		return err
	}
	if !flag {
		return c.store.SetAdvertise(ctx, oid, false, c.now().UTC())
	}

	// Without a locker two concurrent enables can both pass the count.
	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, advertiseLockKey)
		if err != nil {
			return err
		}
		defer unlock()
	}

	current, err := c.store.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	if !current.IsAdvertise {
		count, err := c.store.CountAdvertised(ctx)
		if err != nil {
			return err
		}
		if count >= models.MaxAdvertised {
			metrics.AdvertiseRejections.Inc()
			return fmt.Errorf("ticket %s: %w", id, apperr.ErrAdvertiseLimitExceeded)
		}
	}
	return c.store.SetAdvertise(ctx, oid, true, c.now().UTC())
}

// HideAllByVendor hides every listing of vendorEmail. Safe to repeat.
func (c *Catalog) HideAllByVendor(ctx context.Context, vendorEmail string) (int64, error) {
	return c.store.HideByVendor(ctx, vendorEmail, c.now().UTC())
}

func (c *Catalog) Remove(ctx context.Context, id string) error {
	oid, err := db.ObjectID(id)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, oid); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("ticket removed", "ticket_id", id)
	return nil
}

package memstore

import (
	"context"
	"time"

	"ticketbari/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tickets struct{ s *Store }

func (t *Tickets) Insert(_ context.Context, ticket *models.Ticket) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if ticket.ID.IsZero() {
		ticket.ID = primitive.NewObjectID()
	}
	t.s.tickets[ticket.ID] = *ticket
	return nil
}

func (t *Tickets) Find(_ context.Context, q models.TicketQuery) ([]models.Ticket, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	found := sortedValues(t.s.tickets, func(tk models.Ticket) bool {
		switch {
		case q.Status != "" && tk.Status != q.Status:
			return false
		case q.VendorEmail != "" && tk.VendorEmail != q.VendorEmail:
			return false
		case q.AdvertisedOnly && !tk.IsAdvertise:
			return false
		case q.ExcludeHidden && tk.IsHidden:
			return false
		}
		return true
	})
	return newestFirst(found, func(tk models.Ticket) time.Time { return tk.CreatedAt }), nil
}

func (t *Tickets) FindByID(_ context.Context, id primitive.ObjectID) (models.Ticket, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	tk, ok := t.s.tickets[id]
	if !ok {
		return models.Ticket{}, notFound("ticket", id)
	}
	return tk, nil
}

func (t *Tickets) update(id primitive.ObjectID, now time.Time, fn func(*models.Ticket)) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	tk, ok := t.s.tickets[id]
	if !ok {
		return notFound("ticket", id)
	}
	fn(&tk)
	tk.UpdatedAt = stamp(now)
	t.s.tickets[id] = tk
	return nil
}

func (t *Tickets) SetStatus(_ context.Context, id primitive.ObjectID, status models.TicketStatus, now time.Time) error {
	return t.update(id, now, func(tk *models.Ticket) {
		tk.Status = status
		tk.VerificationStatus = status
	})
}

func (t *Tickets) SetAdvertise(_ context.Context, id primitive.ObjectID, flag bool, now time.Time) error {
	return t.update(id, now, func(tk *models.Ticket) { tk.IsAdvertise = flag })
}

func (t *Tickets) CountAdvertised(_ context.Context) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var n int64
	for _, tk := range t.s.tickets {
		if tk.IsAdvertise {
			n++
		}
	}
	return n, nil
}

func (t *Tickets) HideByVendor(_ context.Context, email string, now time.Time) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var n int64
	for id, tk := range t.s.tickets {
		if tk.VendorEmail != email {
			continue
		}
		tk.IsHidden = true
		tk.HiddenAt = stamp(now)
		t.s.tickets[id] = tk
		n++
	}
	return n, nil
}

func (t *Tickets) Delete(_ context.Context, id primitive.ObjectID) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.tickets[id]; !ok {
		return notFound("ticket", id)
	}
	delete(t.s.tickets, id)
	return nil
}

package memstore

import (
	"context"
	"fmt"
	"sort"

	"ticketbari/apperr"
	"ticketbari/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Payments struct{ s *Store }

func (p *Payments) FindBySession(_ context.Context, sessionID string) (models.PaymentRecord, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	for _, rec := range p.s.payments {
		if rec.SessionID == sessionID {
			return rec, nil
		}
	}
	return models.PaymentRecord{}, fmt.Errorf("payment for session %s: %w", sessionID, apperr.ErrNotFound)
}

// Insert enforces the same uniqueness on sessionId as the Mongo index.
func (p *Payments) Insert(_ context.Context, rec *models.PaymentRecord) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	for _, existing := range p.s.payments {
		if existing.SessionID == rec.SessionID {
			return fmt.Errorf("payment for session %s: %w", rec.SessionID, apperr.ErrDuplicate)
		}
	}
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	p.s.payments[rec.ID] = *rec
	return nil
}

func (p *Payments) List(_ context.Context, buyerEmail string) ([]models.PaymentRecord, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	out := sortedValues(p.s.payments, func(rec models.PaymentRecord) bool {
		return buyerEmail == "" || rec.BuyerEmail == buyerEmail
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (p *Payments) Count() int {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return len(p.s.payments)
}

package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ticketbari/apperr"
	"ticketbari/models"
)

// Idempotency is kept apart from Store: replay records are not part of any
// transaction snapshot.
type Idempotency struct {
	mu      sync.Mutex
	records map[string]models.IdempotencyRecord
	now     func() time.Time
}

func NewIdempotency() *Idempotency {
	return &Idempotency{records: map[string]models.IdempotencyRecord{}, now: time.Now}
}

func (m *Idempotency) Reserve(_ context.Context, rec models.IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[rec.Key]; ok && existing.ExpiresAt.After(m.now()) {
		return fmt.Errorf("idempotency key: %w", apperr.ErrDuplicate)
	}
	m.records[rec.Key] = rec
	return nil
}

func (m *Idempotency) Find(_ context.Context, key string) (models.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return models.IdempotencyRecord{}, fmt.Errorf("idempotency key: %w", apperr.ErrNotFound)
	}
	return rec, nil
}

func (m *Idempotency) Complete(_ context.Context, key string, status int, contentType string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return fmt.Errorf("idempotency key: %w", apperr.ErrNotFound)
	}
	rec.Status = status
	rec.ContentType = contentType
	rec.Body = append([]byte(nil), body...)
	rec.Completed = true
	m.records[key] = rec
	return nil
}

func (m *Idempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

package stripe

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ticketbari/apperr"

	"github.com/google/uuid"
)

// Sandbox is an in-process provider used when no Stripe key is configured.
// Sessions start unpaid; Complete marks one paid. With AutoComplete set every
// session is paid as soon as it is created.
type Sandbox struct {
	AutoComplete bool

	mu        sync.Mutex
	sessions  map[string]*sandboxSession
	createErr error
}

type sandboxSession struct {
	Session
	items []LineItem
}

func NewSandbox(autoComplete bool) *Sandbox {
	return &Sandbox{AutoComplete: autoComplete, sessions: map[string]*sandboxSession{}}
}

// FailCreate makes every following CreateSession return err until reset with nil.
func (s *Sandbox) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

func (s *Sandbox) CreateSession(_ context.Context, req SessionRequest) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Session{}, fmt.Errorf("%w: sandbox: %v", apperr.ErrUpstream, s.createErr)
	}

	id := "cs_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	meta := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		meta[k] = v
	}
	sess := &sandboxSession{
		Session: Session{
			ID:            id,
			URL:           strings.ReplaceAll(req.SuccessURL, SessionIDPlaceholder, id),
			PaymentStatus: "unpaid",
			AmountTotal:   req.UnitAmount * req.Quantity,
			Currency:      req.Currency,
			Status:        "open",
			Metadata:      meta,
		},
		items: []LineItem{{Description: req.ProductName, Quantity: req.Quantity}},
	}
	s.sessions[id] = sess
	if s.AutoComplete {
		complete(sess)
	}
	return sess.Session, nil
}

func complete(sess *sandboxSession) {
	sess.PaymentStatus = PaymentStatusPaid
	sess.Status = "complete"
	sess.PaymentIntentID = "pi_test_" + strings.TrimPrefix(sess.ID, "cs_test_")
}

// Complete simulates the buyer paying for session id.
func (s *Sandbox) Complete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("checkout session %s: %w", id, apperr.ErrNotFound)
	}
	complete(sess)
	return nil
}

// Len reports how many sessions have been created.
func (s *Sandbox) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sandbox) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("checkout session %s: %w", id, apperr.ErrNotFound)
	}
	return sess.Session, nil
}

func (s *Sandbox) ListLineItems(_ context.Context, id string) ([]LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("checkout session %s: %w", id, apperr.ErrNotFound)
	}
	return append([]LineItem(nil), sess.items...), nil
}

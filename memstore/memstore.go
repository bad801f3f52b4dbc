// Package memstore keeps every collection in process memory. It backs
// STORE_DRIVER=memory for local development and stands in for Mongo in tests.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"ticketbari/apperr"
	"ticketbari/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	tickets  map[primitive.ObjectID]models.Ticket
	bookings map[primitive.ObjectID]models.Booking
	payments map[primitive.ObjectID]models.PaymentRecord
}

func New() *Store {
	return &Store{
		users:    map[primitive.ObjectID]models.User{},
		tickets:  map[primitive.ObjectID]models.Ticket{},
		bookings: map[primitive.ObjectID]models.Booking{},
		payments: map[primitive.ObjectID]models.PaymentRecord{},
	}
}

func (s *Store) Users() *Users       { return &Users{s} }
func (s *Store) Tickets() *Tickets   { return &Tickets{s} }
func (s *Store) Bookings() *Bookings { return &Bookings{s} }
func (s *Store) Payments() *Payments { return &Payments{s} }

// Transactor mirrors db.Transactor. With atomic set, a failing fn restores the
// state captured before it ran.
func (s *Store) Transactor(atomic bool) *Transactor {
	return &Transactor{store: s, atomic: atomic}
}

type Transactor struct {
	store  *Store
	atomic bool
}

func (t *Transactor) Atomic() bool { return t.atomic }

func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.atomic {
		return fn(ctx)
	}
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type state struct {
	users    map[primitive.ObjectID]models.User
	tickets  map[primitive.ObjectID]models.Ticket
	bookings map[primitive.ObjectID]models.Booking
	payments map[primitive.ObjectID]models.PaymentRecord
}

func (s *Store) snapshot() state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return state{
		users:    clone(s.users),
		tickets:  clone(s.tickets),
		bookings: clone(s.bookings),
		payments: clone(s.payments),
	}
}

func (s *Store) restore(st state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.tickets, s.bookings, s.payments = st.users, st.tickets, st.bookings, st.payments
}

func clone[V any](m map[primitive.ObjectID]V) map[primitive.ObjectID]V {
	out := make(map[primitive.ObjectID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sortedValues returns values in creation order; ObjectIDs minted by one
// process increase monotonically.
func sortedValues[V any](m map[primitive.ObjectID]V, keep func(V) bool) []V {
	ids := make([]primitive.ObjectID, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// newestFirst puts vs in the order the Mongo stores return, createdAt
// descending. Equal timestamps keep later inserts first.
func newestFirst[V any](vs []V, created func(V) time.Time) []V {
	slices.Reverse(vs)
	sort.SliceStable(vs, func(i, j int) bool { return created(vs[i]).After(created(vs[j])) })
	return vs
}

func notFound(kind string, id primitive.ObjectID) error {
	return fmt.Errorf("%s %s: %w", kind, id.Hex(), apperr.ErrNotFound)
}

func stamp(now time.Time) *time.Time { return &now }

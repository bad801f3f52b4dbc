package memstore

import (
	"context"
	"time"

	"ticketbari/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Bookings struct{ s *Store }

func (b *Bookings) Insert(_ context.Context, booking *models.Booking) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	b.s.bookings[booking.ID] = *booking
	return nil
}

func (b *Bookings) Find(_ context.Context, q models.BookingQuery) ([]models.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	found := sortedValues(b.s.bookings, func(bk models.Booking) bool {
		if q.BuyerEmail != "" && bk.Buyer.Email != q.BuyerEmail {
			return false
		}
		if q.VendorEmail != "" && bk.VendorEmail != q.VendorEmail {
			return false
		}
		return true
	})
	return newestFirst(found, func(bk models.Booking) time.Time { return bk.CreatedAt }), nil
}

func (b *Bookings) FindByID(_ context.Context, id primitive.ObjectID) (models.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bk, ok := b.s.bookings[id]
	if !ok {
		return models.Booking{}, notFound("booking", id)
	}
	return bk, nil
}

func (b *Bookings) update(id primitive.ObjectID, now time.Time, fn func(*models.Booking)) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bk, ok := b.s.bookings[id]
	if !ok {
		return notFound("booking", id)
	}
	fn(&bk)
	bk.UpdatedAt = stamp(now)
	b.s.bookings[id] = bk
	return nil
}

func (b *Bookings) SetStatus(_ context.Context, id primitive.ObjectID, status models.BookingStatus, now time.Time) error {
	return b.update(id, now, func(bk *models.Booking) { bk.Status = status })
}

func (b *Bookings) SetPaymentStatus(_ context.Context, id primitive.ObjectID, state models.PaymentState, now time.Time) error {
	return b.update(id, now, func(bk *models.Booking) { bk.PaymentStatus = state })
}

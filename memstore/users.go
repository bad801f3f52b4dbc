package memstore

import (
	"context"
	"fmt"
	"time"

	"ticketbari/apperr"
	"ticketbari/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Users struct{ s *Store }

func (u *Users) findByEmail(email string) (models.User, bool) {
	for _, user := range u.s.users {
		if user.Email == email {
			return user, true
		}
	}
	return models.User{}, false
}

func (u *Users) UpsertLogin(_ context.Context, email string, now time.Time) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.findByEmail(email)
	if !ok {
		user = models.User{
			ID:        primitive.NewObjectID(),
			Email:     email,
			Role:      models.RoleCustomer,
			CreatedAt: now,
		}
	}
	user.LastLoggedIn = now
	u.s.users[user.ID] = user
	return user, nil
}

func (u *Users) UpsertAdmin(_ context.Context, email string, now time.Time) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.findByEmail(email)
	if !ok {
		user = models.User{ID: primitive.NewObjectID(), Email: email, CreatedAt: now, LastLoggedIn: now}
	}
	user.Role = models.RoleAdmin
	user.UpdatedAt = stamp(now)
	u.s.users[user.ID] = user
	return user, nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.findByEmail(email)
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
	}
	return user, nil
}

func (u *Users) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return models.User{}, notFound("user", id)
	}
	return user, nil
}

func (u *Users) List(_ context.Context) ([]models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return sortedValues(u.s.users, nil), nil
}

func (u *Users) UpdateRole(_ context.Context, id primitive.ObjectID, role models.Role, now time.Time) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return notFound("user", id)
	}
	user.Role = role
	user.UpdatedAt = stamp(now)
	if role == models.RoleFraud {
		user.FraudAt = stamp(now)
	}
	u.s.users[id] = user
	return nil
}

// Put stores a user as-is; tests use it to seed fixtures.
func (u *Users) Put(user models.User) models.User {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	u.s.users[user.ID] = user
	return user
}

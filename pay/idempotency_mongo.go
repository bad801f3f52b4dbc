package pay

import (
	"context"
	"fmt"

	"ticketbari/apperr"
	"ticketbari/db"
	"ticketbari/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoIdempotencyStore relies on the unique key index and the TTL index on
// expires_at created by db.CreateIndexes.
type MongoIdempotencyStore struct {
	coll *mongo.Collection
}

func NewMongoIdempotencyStore(coll *mongo.Collection) *MongoIdempotencyStore {
	return &MongoIdempotencyStore{coll: coll}
}

func (s *MongoIdempotencyStore) Reserve(ctx context.Context, rec models.IdempotencyRecord) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		if db.IsDuplicateKey(err) {
			return fmt.Errorf("idempotency key: %w", apperr.ErrDuplicate)
		}
		return db.Upstream("reserve idempotency key", err)
	}
	return nil
}

func (s *MongoIdempotencyStore) Find(ctx context.Context, key string) (models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	if err := s.coll.FindOne(ctx, bson.M{"key": key}).Decode(&rec); err != nil {
		return models.IdempotencyRecord{}, db.Upstream("find idempotency key", err)
	}
	return rec, nil
}

func (s *MongoIdempotencyStore) Complete(ctx context.Context, key string, status int, contentType string, body []byte) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": bson.M{
		"status":       status,
		"content_type": contentType,
		"body":         body,
		"completed":    true,
	}})
	return db.Upstream("complete idempotency key", err)
}

func (s *MongoIdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"key": key})
	return db.Upstream("release idempotency key", err)
}

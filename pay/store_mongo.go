package pay

import (
	"context"
	"fmt"

	"ticketbari/apperr"
	"ticketbari/db"
	"ticketbari/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) FindBySession(ctx context.Context, sessionID string) (models.PaymentRecord, error) {
	var rec models.PaymentRecord
	if err := s.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&rec); err != nil {
		return models.PaymentRecord{}, db.Upstream("find payment for session "+sessionID, err)
	}
	return rec, nil
}

func (s *MongoStore) Insert(ctx context.Context, rec *models.PaymentRecord) error {
	rec.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		if db.IsDuplicateKey(err) {
			return fmt.Errorf("payment for session %s: %w", rec.SessionID, apperr.ErrDuplicate)
		}
		return db.Upstream("insert payment", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, buyerEmail string) ([]models.PaymentRecord, error) {
	filter := bson.M{}
	if buyerEmail != "" {
		filter["buyerEmail"] = buyerEmail
	}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, db.Upstream("list payments", err)
	}
	defer cursor.Close(ctx)

	payments := []models.PaymentRecord{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, db.Upstream("decode payments", err)
	}
	return payments, nil
}

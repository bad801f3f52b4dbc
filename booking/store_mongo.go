package booking

import (
	"context"
	"time"

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

func (s *MongoStore) Insert(ctx context.Context, b *models.Booking) error {
	b.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, b); err != nil {
		return db.Upstream("insert booking", err)
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, q models.BookingQuery) ([]models.Booking, error) {
	filter := bson.M{}
	if q.BuyerEmail != "" {
		filter["buyerEmail"] = q.BuyerEmail
	}
	if q.VendorEmail != "" {
		filter["vendorEmail"] = q.VendorEmail
	}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, db.Upstream("find bookings", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, db.Upstream("decode bookings", err)
	}
	return bookings, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Booking, error) {
	var b models.Booking
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return models.Booking{}, db.Upstream("find booking "+id.Hex(), err)
	}
	return b, nil
}

func (s *MongoStore) set(ctx context.Context, id primitive.ObjectID, fields bson.M, op string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return db.Upstream(op, err)
	}
	if res.MatchedCount == 0 {
		return db.Upstream(op+" "+id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

func (s *MongoStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.BookingStatus, now time.Time) error {
	return s.set(ctx, id, bson.M{"status": status, "updatedAt": now}, "set booking status")
}

func (s *MongoStore) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, state models.PaymentState, now time.Time) error {
	return s.set(ctx, id, bson.M{"paymentStatus": state, "updatedAt": now}, "set booking payment status")
}

package tickets

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

func (s *MongoStore) Insert(ctx context.Context, t *models.Ticket) error {
	t.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, t); err != nil {
		return db.Upstream("insert ticket", err)
	}
	return nil
}

func filterFor(q models.TicketQuery) bson.M {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.VendorEmail != "" {
		filter["vendorEmail"] = q.VendorEmail
	}
	if q.AdvertisedOnly {
		filter["isAdvertise"] = true
	}
	if q.ExcludeHidden {
		// documents written before the fraud cascade existed lack the field
		filter["isHidden"] = bson.M{"$ne": true}
	}
	return filter
}

func (s *MongoStore) Find(ctx context.Context, q models.TicketQuery) ([]models.Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, filterFor(q), opts)
	if err != nil {
		return nil, db.Upstream("find tickets", err)
	}
	defer cursor.Close(ctx)

	tickets := []models.Ticket{}
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, db.Upstream("decode tickets", err)
	}
	return tickets, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Ticket, error) {
	var t models.Ticket
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Ticket{}, db.Upstream("find ticket "+id.Hex(), err)
	}
	return t, nil
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

func (s *MongoStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.TicketStatus, now time.Time) error {
	return s.set(ctx, id, bson.M{
		"status":             status,
		"verificationStatus": status,
		"updatedAt":          now,
	}, "set ticket status")
}

func (s *MongoStore) SetAdvertise(ctx context.Context, id primitive.ObjectID, flag bool, now time.Time) error {
	return s.set(ctx, id, bson.M{"isAdvertise": flag, "updatedAt": now}, "set ticket advertise")
}

func (s *MongoStore) CountAdvertised(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"isAdvertise": true})
	if err != nil {
		return 0, db.Upstream("count advertised tickets", err)
	}
	return n, nil
}

func (s *MongoStore) HideByVendor(ctx context.Context, vendorEmail string, now time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"vendorEmail": vendorEmail},
		bson.M{"$set": bson.M{"isHidden": true, "hiddenAt": now}},
	)
	if err != nil {
		return 0, db.Upstream("hide vendor tickets", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return db.Upstream("delete ticket", err)
	}
	if res.DeletedCount == 0 {
		return db.Upstream("delete ticket "+id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

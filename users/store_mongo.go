package users

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

// UpsertLogin is one find-one-and-update so concurrent first logins for the
// same email cannot both insert; the unique email index backs it up.
func (s *MongoStore) UpsertLogin(ctx context.Context, email string, now time.Time) (models.User, error) {
	update := bson.M{
		"$set": bson.M{"last_loggedIn": now},
		"$setOnInsert": bson.M{
			"email":      email,
			"role":       models.RoleCustomer,
			"created_at": now,
		},
	}
	return s.upsert(ctx, email, update, "upsert user on login")
}

func (s *MongoStore) UpsertAdmin(ctx context.Context, email string, now time.Time) (models.User, error) {
	update := bson.M{
		"$set": bson.M{"role": models.RoleAdmin, "updatedAt": now},
		"$setOnInsert": bson.M{
			"email":         email,
			"created_at":    now,
			"last_loggedIn": now,
		},
	}
	return s.upsert(ctx, email, update, "bootstrap admin")
}

func (s *MongoStore) upsert(ctx context.Context, email string, update bson.M, op string) (models.User, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var user models.User
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&user)
	if mongo.IsDuplicateKeyError(err) {
		// lost an insert race; the winner's document now exists
		err = s.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&user)
	}
	if err != nil {
		return models.User{}, db.Upstream(op, err)
	}
	return user, nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return models.User{}, db.Upstream("find user "+email, err)
	}
	return user, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return models.User{}, db.Upstream("find user "+id.Hex(), err)
	}
	return user, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.User, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, db.Upstream("list users", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, db.Upstream("decode users", err)
	}
	return users, nil
}

func (s *MongoStore) UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role, now time.Time) error {
	set := bson.M{"role": role, "updatedAt": now}
	if role == models.RoleFraud {
		set["fraudAt"] = now
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return db.Upstream("update role", err)
	}
	if res.MatchedCount == 0 {
		return db.Upstream("update role "+id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

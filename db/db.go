package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection       = "users"
	TicketsCollection     = "allTickets"
	BookingsCollection    = "bookedTickets"
	PaymentsCollection    = "payments"
	IdempotencyCollection = "idempotency"
)

// DB is the process-wide Mongo handle. It is built once in main and passed to
// every store constructor.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database

	Users       *mongo.Collection
	Tickets     *mongo.Collection
	Bookings    *mongo.Collection
	Payments    *mongo.Collection
	Idempotency *mongo.Collection
}

// Connect dials uri and pings the primary before returning.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	d := client.Database(database)
	return &DB{
		Client:      client,
		Database:    d,
		Users:       d.Collection(UsersCollection),
		Tickets:     d.Collection(TicketsCollection),
		Bookings:    d.Collection(BookingsCollection),
		Payments:    d.Collection(PaymentsCollection),
		Idempotency: d.Collection(IdempotencyCollection),
	}, nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// Indexes lists every index the service relies on. The unique indexes on users
// and payments carry invariants: one user per email, one payment record per
// checkout session.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		},
		TicketsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "isHidden", Value: 1}}, Options: options.Index().SetName("status_hidden")},
			{Keys: bson.D{{Key: "vendorEmail", Value: 1}}, Options: options.Index().SetName("vendor")},
			{Keys: bson.D{{Key: "isAdvertise", Value: 1}}, Options: options.Index().SetName("advertise")},
		},
		BookingsCollection: {
			{Keys: bson.D{{Key: "buyerEmail", Value: 1}}, Options: options.Index().SetName("buyer")},
			{Keys: bson.D{{Key: "vendorEmail", Value: 1}}, Options: options.Index().SetName("vendor")},
		},
		PaymentsCollection: {
			{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("session_unique")},
			{Keys: bson.D{{Key: "buyerEmail", Value: 1}}, Options: options.Index().SetName("buyer")},
		},
		IdempotencyCollection: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_key")},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at")},
		},
	}
}

// CreateIndexes is idempotent; Mongo ignores an index that already exists with
// the same definition.
func (d *DB) CreateIndexes(ctx context.Context) error {
	for name, models := range Indexes() {
		if _, err := d.Database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

package models

import "time"

// IdempotencyRecord remembers the response to a request sent with an
// Idempotency-Key header so a retried request replays it.
type IdempotencyRecord struct {
	Key         string    `bson:"key" json:"key"`
	Method      string    `bson:"method" json:"method"`
	Path        string    `bson:"path" json:"path"`
	Principal   string    `bson:"principal" json:"principal"`
	RequestHash string    `bson:"request_hash" json:"request_hash"`
	Status      int       `bson:"status,omitempty" json:"status,omitempty"`
	ContentType string    `bson:"content_type,omitempty" json:"content_type,omitempty"`
	Body        []byte    `bson:"body,omitempty" json:"-"`
	Completed   bool      `bson:"completed" json:"completed"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expires_at"`
}

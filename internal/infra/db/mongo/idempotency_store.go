package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/checkout"
)

// IdempotencyStore backs checkout replay with a TTL-expired collection.
type IdempotencyStore struct {
	col *mongo.Collection
}

func NewIdempotencyStore(db *mongo.Database) *IdempotencyStore {
	return &IdempotencyStore{col: db.Collection("checkout_idempotency")}
}

type idempotencyDocument struct {
	Key     string `bson:"_id"`
	Payload []byte `bson:"payload"`
	// Stored as a BSON date so the TTL index can expire it.
	CreatedAt time.Time `bson:"created_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (checkout.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return checkout.IdempotencyRecord{}, false, nil
		}
		return checkout.IdempotencyRecord{}, false, err
	}
	return checkout.IdempotencyRecord{
		Key:       doc.Key,
		Payload:   doc.Payload,
		CreatedAt: doc.CreatedAt.UTC(),
	}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec checkout.IdempotencyRecord) error {
	doc := idempotencyDocument{Key: rec.Key, Payload: rec.Payload, CreatedAt: rec.CreatedAt.UTC()}
	opts := options.Replace().SetUpsert(true)
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": rec.Key}, doc, opts)
	return err
}

// EnsureIndexes installs the 24h TTL on stored records.
func (s *IdempotencyStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32((24 * time.Hour).Seconds())),
	})
	return err
}

var _ checkout.IdempotencyStore = (*IdempotencyStore)(nil)

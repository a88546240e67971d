package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adomia/account-gate/internal/core/domain"
)

const tombstoneCollection = "deleted_accounts"

// MongoTombstoneRepository persists tombstone records in the
// deleted_accounts collection.
type MongoTombstoneRepository struct {
	coll *mongo.Collection
}

func NewTombstoneRepository(db *mongo.Database) *MongoTombstoneRepository {
	return &MongoTombstoneRepository{coll: db.Collection(tombstoneCollection)}
}

// EnsureIndexes creates the unique index on external_user_id and the sparse
// unique index on email. It must run before traffic is served: these
// indexes, not the lookup preceding an insert, are what guarantees at most
// one tombstone per identity under concurrency.
func (r *MongoTombstoneRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create tombstone indexes: %w", err)
	}
	return nil
}

type tombstoneDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ExternalUserID  string             `bson:"external_user_id"`
	Email           *string            `bson:"email,omitempty"`
	SnapshotPayload []byte             `bson:"snapshot_payload"`
	RecordedAt      int64              `bson:"recorded_at"`
}

func (r *MongoTombstoneRepository) Create(ctx context.Context, t *domain.Tombstone) error {
	doc := tombstoneDoc{
		ExternalUserID:  t.ExternalUserID,
		SnapshotPayload: t.SnapshotPayload,
		RecordedAt:      t.RecordedAt.Unix(),
	}
	// The email field must be absent, not empty, when unknown: the sparse
	// unique index would otherwise collide on "".
	if t.Email != "" {
		email := t.Email
		doc.Email = &email
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrTombstoneExists
		}
		return fmt.Errorf("insert tombstone: %w", err)
	}
	return nil
}

func (r *MongoTombstoneRepository) FindByExternalID(ctx context.Context, externalUserID string) (*domain.Tombstone, error) {
	return r.findOne(ctx, bson.M{"external_user_id": externalUserID})
}

// FindByEmail matches exactly as stored; lookups never normalize case.
func (r *MongoTombstoneRepository) FindByEmail(ctx context.Context, email string) (*domain.Tombstone, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoTombstoneRepository) findOne(ctx context.Context, filter bson.M) (*domain.Tombstone, error) {
	var doc tombstoneDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrTombstoneNotFound
		}
		return nil, fmt.Errorf("find tombstone: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoTombstoneRepository) List(ctx context.Context, limit, offset int64) ([]domain.Tombstone, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tombstones: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.Tombstone
	for cursor.Next(ctx) {
		var doc tombstoneDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode tombstone: %w", err)
		}
		out = append(out, *doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list tombstones: %w", err)
	}
	return out, nil
}

func (d *tombstoneDoc) toDomain() *domain.Tombstone {
	t := &domain.Tombstone{
		ID:              d.ID.Hex(),
		ExternalUserID:  d.ExternalUserID,
		SnapshotPayload: d.SnapshotPayload,
		RecordedAt:      unixToTime(d.RecordedAt),
	}
	if d.Email != nil {
		t.Email = *d.Email
	}
	return t
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

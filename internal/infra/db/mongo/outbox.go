package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "staybook/internal/app/outbox"
)

const (
	outboxStatusPending = "pending"
	outboxStatusClaimed = "claimed"
)

// OutboxStore persists event records in the same database as the
// aggregates, so a command's writes and its events commit atomically in
// one Mongo transaction. Flush is a no-op here: visibility comes from
// the transaction commit.
type OutboxStore struct {
	col *mongo.Collection
}

func NewOutboxStore(db *mongo.Database) *OutboxStore {
	return &OutboxStore{col: db.Collection("outbox")}
}

type outboxDocument struct {
	ID         string            `bson:"_id"`
	Name       string            `bson:"name"`
	Payload    []byte            `bson:"payload"`
	OccurredAt time.Time         `bson:"occurred_at"`
	Aggregate  string            `bson:"aggregate"`
	Headers    map[string]string `bson:"headers,omitempty"`
	Status     string            `bson:"status"`
	Attempts   int               `bson:"attempts"`
	ClaimedAt  time.Time         `bson:"claimed_at,omitempty"`
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	doc := outboxDocument{
		ID:         record.ID,
		Name:       record.Name,
		Payload:    record.Payload,
		OccurredAt: record.OccurredAt,
		Aggregate:  record.Aggregate,
		Headers:    record.Headers,
		Status:     outboxStatusPending,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

func (s *OutboxStore) Flush(ctx context.Context) error {
	return nil
}

// Claim atomically flips up to limit pending records to claimed and
// returns them. Claims left behind by a crashed relay are reaped by
// ReclaimStale.
func (s *OutboxStore) Claim(ctx context.Context, limit int) ([]appoutbox.EventRecord, error) {
	if limit <= 0 {
		limit = 64
	}
	now := time.Now().UTC()
	var out []appoutbox.EventRecord
	for len(out) < limit {
		update := bson.M{"$set": bson.M{"status": outboxStatusClaimed, "claimed_at": now}, "$inc": bson.M{"attempts": 1}}
		opts := options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "occurred_at", Value: 1}}).
			SetReturnDocument(options.After)
		var doc outboxDocument
		err := s.col.FindOneAndUpdate(ctx, bson.M{"status": outboxStatusPending}, update, opts).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				break
			}
			return out, err
		}
		out = append(out, appoutbox.EventRecord{
			ID:         doc.ID,
			Name:       doc.Name,
			Payload:    doc.Payload,
			OccurredAt: doc.OccurredAt,
			Aggregate:  doc.Aggregate,
			Headers:    doc.Headers,
		})
	}
	return out, nil
}

func (s *OutboxStore) Ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (s *OutboxStore) Nack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.col.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": bson.M{"status": outboxStatusPending}})
	return err
}

// ReclaimStale returns records claimed longer than maxAge ago to the
// pending pool.
func (s *OutboxStore) ReclaimStale(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)
	filter := bson.M{"status": outboxStatusClaimed, "claimed_at": bson.M{"$lt": cutoff}}
	_, err := s.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": outboxStatusPending}})
	return err
}

var _ appoutbox.Outbox = (*OutboxStore)(nil)

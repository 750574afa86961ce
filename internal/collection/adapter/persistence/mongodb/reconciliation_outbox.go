package mongodb

import (
	"context"
	"fmt"
	"time"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReconciliationOutbox stores reconciliation records in their own collection.
type ReconciliationOutbox struct {
	col CollectionInterface
}

// NewReconciliationOutbox creates an outbox on col
func NewReconciliationOutbox(col CollectionInterface) *ReconciliationOutbox {
	return &ReconciliationOutbox{col: col}
}

// Append inserts rec as pending
func (o *ReconciliationOutbox) Append(ctx context.Context, rec *model.ReconciliationRecord) error {
	doc := *rec
	if doc.Status == "" {
		doc.Status = model.ReconciliationPending
	}
	if _, err := o.col.InsertOne(ctx, &doc); err != nil {
		return fmt.Errorf("failed to append reconciliation record %s: %w", rec.ID, err)
	}
	return nil
}

// ListPending returns up to limit pending records, oldest first
func (o *ReconciliationOutbox) ListPending(ctx context.Context, limit int) ([]*model.ReconciliationRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := o.col.Find(ctx, bson.M{"status": model.ReconciliationPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation records: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]*model.ReconciliationRecord, 0)
	for cur.Next(ctx) {
		var rec model.ReconciliationRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode reconciliation record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("reconciliation cursor failed: %w", err)
	}
	return out, nil
}

// MarkResolved flags the record id as repaired
func (o *ReconciliationOutbox) MarkResolved(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{
		"status":     model.ReconciliationResolved,
		"resolvedAt": time.Now().UTC(),
	}}
	res, err := o.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to resolve reconciliation record %s: %w", id, err)
	}
	if res.Matched() == 0 {
		return repository.ErrRecordNotFound
	}
	return nil
}

var _ repository.ReconciliationOutbox = (*ReconciliationOutbox)(nil)

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"
	"collection-tracker/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CardRecordStore persists user-card records, one document per userID/cardID.
type CardRecordStore struct {
	col    CollectionInterface
	logger logger.Logger
}

// NewCardRecordStore creates a card store on col
func NewCardRecordStore(col CollectionInterface, log logger.Logger) *CardRecordStore {
	return &CardRecordStore{col: col, logger: log}
}

// Get loads the record for (userID, cardID)
func (s *CardRecordStore) Get(ctx context.Context, userID, cardID string) (*model.UserCardRecord, error) {
	id := model.CardRecordID(userID, cardID)
	var rec model.UserCardRecord
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read card record %s: %w", id, err)
	}
	return &rec, nil
}

// Upsert inserts a new record when rec.Version is 0 and otherwise replaces the
// stored document only if it is still at rec.Version.
func (s *CardRecordStore) Upsert(ctx context.Context, rec *model.UserCardRecord) error {
	doc := rec.Clone()
	doc.ID = model.CardRecordID(rec.UserID, rec.CardID)
	doc.Version = rec.Version + 1
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	if err := versionedWrite(ctx, s.col, doc.ID, rec.Version, doc); err != nil {
		if !errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Error("Card record write failed", "id", doc.ID, "error", err)
		}
		return err
	}
	rec.Version = doc.Version
	return nil
}

// ListBySet returns the user's records in setID ordered by card id
func (s *CardRecordStore) ListBySet(ctx context.Context, userID, setID string) ([]*model.UserCardRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "cardId", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"userId": userID, "setId": setID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list card records of set %s: %w", setID, err)
	}
	defer cur.Close(ctx)

	out := make([]*model.UserCardRecord, 0)
	for cur.Next(ctx) {
		var rec model.UserCardRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode card record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("card record cursor failed: %w", err)
	}
	return out, nil
}

// versionedWrite implements the optimistic concurrency protocol shared by the
// versioned stores. doc already carries expected+1.
func versionedWrite(ctx context.Context, col CollectionInterface, id string, expected int64, doc interface{}) error {
	if expected == 0 {
		if _, err := col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return repository.ErrVersionConflict
			}
			return fmt.Errorf("failed to insert %s: %w", id, err)
		}
		return nil
	}

	res, err := col.ReplaceOne(ctx, bson.M{"_id": id, "version": expected}, doc)
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", id, err)
	}
	if res.Matched() == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}

var _ repository.CardRecordStore = (*CardRecordStore)(nil)

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
)

// SetAggregateStore persists user-set aggregates, one document per userID/setID.
type SetAggregateStore struct {
	col    CollectionInterface
	logger logger.Logger
}

// NewSetAggregateStore creates an aggregate store on col
func NewSetAggregateStore(col CollectionInterface, log logger.Logger) *SetAggregateStore {
	return &SetAggregateStore{col: col, logger: log}
}

// Get loads the aggregate, returning the zero aggregate when none is stored
func (s *SetAggregateStore) Get(ctx context.Context, userID, setID string) (*model.UserSetAggregateRecord, error) {
	id := model.SetAggregateID(userID, setID)
	var agg model.UserSetAggregateRecord
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&agg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.NewSetAggregate(userID, setID), nil
		}
		return nil, fmt.Errorf("failed to read set aggregate %s: %w", id, err)
	}
	agg.Normalize()
	return &agg, nil
}

// Upsert writes agg under the same version protocol as CardRecordStore
func (s *SetAggregateStore) Upsert(ctx context.Context, agg *model.UserSetAggregateRecord) error {
	doc := agg.Clone()
	doc.Normalize()
	doc.ID = model.SetAggregateID(agg.UserID, agg.SetID)
	doc.Version = agg.Version + 1
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	if err := versionedWrite(ctx, s.col, doc.ID, agg.Version, doc); err != nil {
		if !errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Error("Set aggregate write failed", "id", doc.ID, "error", err)
		}
		return err
	}
	agg.Version = doc.Version
	return nil
}

var _ repository.SetAggregateStore = (*SetAggregateStore)(nil)

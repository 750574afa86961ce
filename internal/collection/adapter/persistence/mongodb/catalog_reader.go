package mongodb

import (
	"context"
	"errors"
	"fmt"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CatalogReader reads the shared card catalog. It never writes.
type CatalogReader struct {
	col CollectionInterface
}

// NewCatalogReader creates a catalog reader on col
func NewCatalogReader(col CollectionInterface) *CatalogReader {
	return &CatalogReader{col: col}
}

// GetCard loads the catalog entry for cardID
func (r *CatalogReader) GetCard(ctx context.Context, cardID string) (*model.CatalogCard, error) {
	var card model.CatalogCard
	if err := r.col.FindOne(ctx, bson.M{"_id": cardID}).Decode(&card); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read catalog card %s: %w", cardID, err)
	}
	return &card, nil
}

var _ repository.CatalogReader = (*CatalogReader)(nil)

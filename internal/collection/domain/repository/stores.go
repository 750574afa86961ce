package repository

import (
	"context"
	"errors"

	"collection-tracker/internal/collection/domain/model"
)

var (
	// ErrRecordNotFound is returned by point reads of a key with no document.
	ErrRecordNotFound = errors.New("record not found")
	// ErrVersionConflict is returned by an upsert whose expected version does
	// not match the stored document.
	ErrVersionConflict = errors.New("version conflict")
)

// CardRecordStore persists one document per (user, card).
//
// Upsert treats rec.Version as the version the caller read. A zero version
// means the document must not exist yet. On success rec.Version holds the
// newly stored version.
type CardRecordStore interface {
	Get(ctx context.Context, userID, cardID string) (*model.UserCardRecord, error)
	Upsert(ctx context.Context, rec *model.UserCardRecord) error
	ListBySet(ctx context.Context, userID, setID string) ([]*model.UserCardRecord, error)
}

// SetAggregateStore persists one document per (user, set).
//
// Get never reports a missing document; it returns model.NewSetAggregate
// instead. Upsert follows the same version protocol as CardRecordStore.
type SetAggregateStore interface {
	Get(ctx context.Context, userID, setID string) (*model.UserSetAggregateRecord, error)
	Upsert(ctx context.Context, agg *model.UserSetAggregateRecord) error
}

// ReconciliationOutbox durably records card/aggregate divergences that could
// not be compensated inline.
type ReconciliationOutbox interface {
	Append(ctx context.Context, rec *model.ReconciliationRecord) error
	ListPending(ctx context.Context, limit int) ([]*model.ReconciliationRecord, error)
	MarkResolved(ctx context.Context, id string) error
}

// CatalogReader looks up reference data for a card. A card missing from the
// catalog yields ErrRecordNotFound.
type CatalogReader interface {
	GetCard(ctx context.Context, cardID string) (*model.CatalogCard, error)
}

// ChangeFeed publishes committed collection changes to other services.
type ChangeFeed interface {
	Publish(ctx context.Context, event model.CardChangedEvent) error
}

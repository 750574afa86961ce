package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var errNetwork = errors.New("connection reset")

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
}

func TestCardRecordStore_Get(t *testing.T) {
	ctx := context.Background()
	stored := model.NewCardRecord("u1", "c1", "s1")
	stored.Rarity = model.RarityMythic
	stored.Version = 3
	stored.OwnedVariants = []model.VariantEntry{{Finish: model.FinishEtched, Special: model.SpecialMisprint, Count: 2}}

	col := &MockCollection{}
	col.On("FindOne", ctx, bson.M{"_id": "u1/c1"}).Return(docResult{doc: stored})
	col.On("FindOne", ctx, bson.M{"_id": "u1/missing"}).Return(docResult{err: mongo.ErrNoDocuments})
	col.On("FindOne", ctx, bson.M{"_id": "u1/broken"}).Return(docResult{err: errNetwork})
	store := NewCardRecordStore(col, quietLogger())

	rec, err := store.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Version)
	assert.Equal(t, model.RarityMythic, rec.Rarity)
	assert.Equal(t, 2, rec.CountFor(model.FinishEtched, model.SpecialMisprint))

	_, err = store.Get(ctx, "u1", "missing")
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)

	_, err = store.Get(ctx, "u1", "broken")
	assert.ErrorIs(t, err, errNetwork)
	assert.NotErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestCardRecordStore_UpsertInsertsFirstVersion(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("InsertOne", ctx, mock.MatchedBy(func(doc *model.UserCardRecord) bool {
		return doc.ID == "u1/c1" && doc.Version == 1 && !doc.UpdatedAt.IsZero()
	})).Return("u1/c1", nil).Once()
	store := NewCardRecordStore(col, quietLogger())

	rec := model.NewCardRecord("u1", "c1", "s1")
	require.NoError(t, store.Upsert(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)
	col.AssertExpectations(t)
}

func TestCardRecordStore_UpsertDuplicateKeyIsConflict(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("InsertOne", ctx, mock.Anything).Return(nil, duplicateKeyError())
	store := NewCardRecordStore(col, quietLogger())

	rec := model.NewCardRecord("u1", "c1", "s1")
	assert.ErrorIs(t, store.Upsert(ctx, rec), repository.ErrVersionConflict)
	assert.Zero(t, rec.Version)
}

func TestCardRecordStore_UpsertReplacesExpectedVersion(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("ReplaceOne", ctx, bson.M{"_id": "u1/c1", "version": int64(4)}, mock.MatchedBy(func(doc *model.UserCardRecord) bool {
		return doc.Version == 5
	})).Return(updateResult{matched: 1}, nil).Once()
	store := NewCardRecordStore(col, quietLogger())

	rec := model.NewCardRecord("u1", "c1", "s1")
	rec.Version = 4
	require.NoError(t, store.Upsert(ctx, rec))
	assert.Equal(t, int64(5), rec.Version)
	col.AssertExpectations(t)
}

func TestCardRecordStore_UpsertStaleVersion(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("ReplaceOne", ctx, mock.Anything, mock.Anything).Return(updateResult{matched: 0}, nil)
	store := NewCardRecordStore(col, quietLogger())

	rec := model.NewCardRecord("u1", "c1", "s1")
	rec.Version = 2
	assert.ErrorIs(t, store.Upsert(ctx, rec), repository.ErrVersionConflict)
	assert.Equal(t, int64(2), rec.Version)
}

func TestCardRecordStore_UpsertInfrastructureFailure(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("ReplaceOne", ctx, mock.Anything, mock.Anything).Return(nil, errNetwork)
	store := NewCardRecordStore(col, quietLogger())

	rec := model.NewCardRecord("u1", "c1", "s1")
	rec.Version = 1
	err := store.Upsert(ctx, rec)
	assert.ErrorIs(t, err, errNetwork)
	assert.NotErrorIs(t, err, repository.ErrVersionConflict)
}

func TestCardRecordStore_ListBySet(t *testing.T) {
	ctx := context.Background()
	a := model.NewCardRecord("u1", "a", "s1")
	b := model.NewCardRecord("u1", "b", "s1")
	cur := &sliceCursor{docs: []interface{}{a, b}}
	col := &MockCollection{}
	col.On("Find", ctx, bson.M{"userId": "u1", "setId": "s1"}).Return(cur, nil)
	store := NewCardRecordStore(col, quietLogger())

	recs, err := store.ListBySet(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].CardID)
	assert.Equal(t, "b", recs[1].CardID)
	assert.True(t, cur.closed)
}

func TestCardRecordStore_ListBySetCursorError(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("Find", ctx, mock.Anything).Return(&sliceCursor{err: errNetwork}, nil)
	store := NewCardRecordStore(col, quietLogger())

	_, err := store.ListBySet(ctx, "u1", "s1")
	assert.ErrorIs(t, err, errNetwork)
}

func TestSetAggregateStore_GetMissingReturnsZeroValue(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("FindOne", ctx, bson.M{"_id": "u1/s1"}).Return(docResult{err: mongo.ErrNoDocuments})
	store := NewSetAggregateStore(col, quietLogger())

	agg, err := store.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, model.NewSetAggregate("u1", "s1"), agg)
}

func TestSetAggregateStore_GetDecodesBuckets(t *testing.T) {
	ctx := context.Background()
	stored := model.NewSetAggregate("u1", "s1")
	stored.FinishGroups.Add(model.RarityRare, model.FinishFoil, "c1")
	stored.TotalCards = 2
	stored.UniqueCards = 1
	stored.Version = 7
	stored.UpdatedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	col := &MockCollection{}
	col.On("FindOne", ctx, mock.Anything).Return(docResult{doc: stored})
	store := NewSetAggregateStore(col, quietLogger())

	agg, err := store.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.True(t, agg.FinishGroups.Contains(model.RarityRare, model.FinishFoil, "c1"))
	assert.Equal(t, int64(7), agg.Version)
	assert.NotNil(t, agg.CollectingSubgroups)
}

func TestSetAggregateStore_GetFailure(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("FindOne", ctx, mock.Anything).Return(docResult{err: errNetwork})
	store := NewSetAggregateStore(col, quietLogger())

	_, err := store.Get(ctx, "u1", "s1")
	assert.ErrorIs(t, err, errNetwork)
}

func TestSetAggregateStore_UpsertVersions(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("InsertOne", ctx, mock.Anything).Return("u1/s1", nil).Once()
	col.On("ReplaceOne", ctx, bson.M{"_id": "u1/s1", "version": int64(1)}, mock.Anything).Return(updateResult{matched: 1}, nil).Once()
	store := NewSetAggregateStore(col, quietLogger())

	agg := model.NewSetAggregate("u1", "s1")
	require.NoError(t, store.Upsert(ctx, agg))
	assert.Equal(t, int64(1), agg.Version)
	require.NoError(t, store.Upsert(ctx, agg))
	assert.Equal(t, int64(2), agg.Version)
	col.AssertExpectations(t)
}

func TestCatalogReader_GetCard(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("FindOne", ctx, bson.M{"_id": "c1"}).Return(docResult{doc: &model.CatalogCard{CardID: "c1", Name: "Opt", Rarity: model.RarityCommon}})
	col.On("FindOne", ctx, bson.M{"_id": "c2"}).Return(docResult{err: mongo.ErrNoDocuments})
	reader := NewCatalogReader(col)

	card, err := reader.GetCard(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Opt", card.Name)

	_, err = reader.GetCard(ctx, "c2")
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestReconciliationOutbox(t *testing.T) {
	ctx := context.Background()
	col := &MockCollection{}
	col.On("InsertOne", ctx, mock.MatchedBy(func(doc *model.ReconciliationRecord) bool {
		return doc.ID == "r1" && doc.Status == model.ReconciliationPending
	})).Return("r1", nil).Once()
	col.On("Find", ctx, bson.M{"status": model.ReconciliationPending}).
		Return(&sliceCursor{docs: []interface{}{&model.ReconciliationRecord{ID: "r1", Status: model.ReconciliationPending}}}, nil)
	col.On("UpdateOne", ctx, bson.M{"_id": "r1"}, mock.Anything).Return(updateResult{matched: 1}, nil)
	col.On("UpdateOne", ctx, bson.M{"_id": "gone"}, mock.Anything).Return(updateResult{matched: 0}, nil)
	outbox := NewReconciliationOutbox(col)

	require.NoError(t, outbox.Append(ctx, &model.ReconciliationRecord{ID: "r1"}))

	pending, err := outbox.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r1", pending[0].ID)

	require.NoError(t, outbox.MarkResolved(ctx, "r1"))
	assert.ErrorIs(t, outbox.MarkResolved(ctx, "gone"), repository.ErrRecordNotFound)
	col.AssertExpectations(t)
}

func TestEnsureIndexes(t *testing.T) {
	ctx := context.Background()
	cards := &MockCollection{}
	outbox := &MockCollection{}
	cards.On("CreateIndexes", ctx, mock.MatchedBy(func(models []mongo.IndexModel) bool {
		return len(models) == 1 && *models[0].Options.Name == "user_set"
	})).Return([]string{"user_set"}, nil)
	outbox.On("CreateIndexes", ctx, mock.Anything).Return(nil, errNetwork)

	err := EnsureIndexes(ctx, cards, outbox)
	assert.ErrorIs(t, err, errNetwork)
	cards.AssertExpectations(t)
}

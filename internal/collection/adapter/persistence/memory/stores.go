// Package memory holds mutex-guarded implementations of the collection
// stores. They follow the same version protocol as the MongoDB adapters and
// back tests and STORAGE_BACKEND=memory runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"
)

// FailFunc lets tests inject failures into a store call. A non-nil return is
// handed back to the caller and nothing is written.
type FailFunc func(op string) error

// CardRecordStore keeps card records keyed by userID/cardID.
type CardRecordStore struct {
	mu      sync.RWMutex
	records map[string]*model.UserCardRecord
	fail    FailFunc
}

// NewCardRecordStore creates an empty card store
func NewCardRecordStore() *CardRecordStore {
	return &CardRecordStore{records: make(map[string]*model.UserCardRecord)}
}

// SetFailFunc installs a failure hook; nil clears it.
func (s *CardRecordStore) SetFailFunc(fn FailFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

func (s *CardRecordStore) check(op string) error {
	if s.fail == nil {
		return nil
	}
	return s.fail(op)
}

// Get returns a copy of the stored record
func (s *CardRecordStore) Get(ctx context.Context, userID, cardID string) (*model.UserCardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("get"); err != nil {
		return nil, err
	}
	rec, ok := s.records[model.CardRecordID(userID, cardID)]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

// Upsert writes rec if its version matches the stored one
func (s *CardRecordStore) Upsert(ctx context.Context, rec *model.UserCardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("upsert"); err != nil {
		return err
	}
	id := model.CardRecordID(rec.UserID, rec.CardID)
	if !versionMatches(s.records[id] != nil, storedCardVersion(s.records[id]), rec.Version) {
		return repository.ErrVersionConflict
	}
	stored := rec.Clone()
	stored.ID = id
	stored.Version = rec.Version + 1
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	s.records[id] = stored
	rec.Version = stored.Version
	return nil
}

// ListBySet returns copies of the user's records in setID ordered by card id
func (s *CardRecordStore) ListBySet(ctx context.Context, userID, setID string) ([]*model.UserCardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("list"); err != nil {
		return nil, err
	}
	out := make([]*model.UserCardRecord, 0)
	for _, rec := range s.records {
		if rec.UserID == userID && rec.SetID == setID {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return out, nil
}

// SetAggregateStore keeps set aggregates keyed by userID/setID.
type SetAggregateStore struct {
	mu   sync.RWMutex
	aggs map[string]*model.UserSetAggregateRecord
	fail FailFunc
}

// NewSetAggregateStore creates an empty aggregate store
func NewSetAggregateStore() *SetAggregateStore {
	return &SetAggregateStore{aggs: make(map[string]*model.UserSetAggregateRecord)}
}

// SetFailFunc installs a failure hook; nil clears it.
func (s *SetAggregateStore) SetFailFunc(fn FailFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

func (s *SetAggregateStore) check(op string) error {
	if s.fail == nil {
		return nil
	}
	return s.fail(op)
}

// Get returns a copy of the stored aggregate or the zero aggregate
func (s *SetAggregateStore) Get(ctx context.Context, userID, setID string) (*model.UserSetAggregateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("get"); err != nil {
		return nil, err
	}
	agg, ok := s.aggs[model.SetAggregateID(userID, setID)]
	if !ok {
		return model.NewSetAggregate(userID, setID), nil
	}
	return agg.Clone(), nil
}

// Upsert writes agg if its version matches the stored one
func (s *SetAggregateStore) Upsert(ctx context.Context, agg *model.UserSetAggregateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("upsert"); err != nil {
		return err
	}
	id := model.SetAggregateID(agg.UserID, agg.SetID)
	current, exists := s.aggs[id]
	var currentVersion int64
	if exists {
		currentVersion = current.Version
	}
	if !versionMatches(exists, currentVersion, agg.Version) {
		return repository.ErrVersionConflict
	}
	stored := agg.Clone()
	stored.Normalize()
	stored.ID = id
	stored.Version = agg.Version + 1
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	s.aggs[id] = stored
	agg.Version = stored.Version
	return nil
}

func storedCardVersion(rec *model.UserCardRecord) int64 {
	if rec == nil {
		return 0
	}
	return rec.Version
}

// versionMatches applies the optimistic concurrency rule shared by all stores:
// version 0 creates, any other version must equal the stored one.
func versionMatches(exists bool, stored, expected int64) bool {
	if expected == 0 {
		return !exists
	}
	return exists && stored == expected
}

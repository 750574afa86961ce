package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"
)

// ReconciliationOutbox keeps reconciliation records in memory.
type ReconciliationOutbox struct {
	mu      sync.Mutex
	records map[string]*model.ReconciliationRecord
	fail    FailFunc
}

// NewReconciliationOutbox creates an empty outbox
func NewReconciliationOutbox() *ReconciliationOutbox {
	return &ReconciliationOutbox{records: make(map[string]*model.ReconciliationRecord)}
}

// SetFailFunc installs a failure hook; nil clears it.
func (o *ReconciliationOutbox) SetFailFunc(fn FailFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail = fn
}

// Append stores a copy of rec
func (o *ReconciliationOutbox) Append(ctx context.Context, rec *model.ReconciliationRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		if err := o.fail("append"); err != nil {
			return err
		}
	}
	cp := *rec
	if cp.Status == "" {
		cp.Status = model.ReconciliationPending
	}
	o.records[rec.ID] = &cp
	return nil
}

// ListPending returns up to limit pending records, oldest first
func (o *ReconciliationOutbox) ListPending(ctx context.Context, limit int) ([]*model.ReconciliationRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*model.ReconciliationRecord, 0)
	for _, rec := range o.records {
		if rec.Status == model.ReconciliationPending {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkResolved flags a record as repaired
func (o *ReconciliationOutbox) MarkResolved(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.records[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	now := time.Now().UTC()
	rec.Status = model.ReconciliationResolved
	rec.ResolvedAt = &now
	return nil
}

// Catalog is a fixed in-memory card catalog.
type Catalog struct {
	mu    sync.RWMutex
	cards map[string]*model.CatalogCard
}

// NewCatalog creates a catalog holding cards
func NewCatalog(cards ...*model.CatalogCard) *Catalog {
	c := &Catalog{cards: make(map[string]*model.CatalogCard)}
	for _, card := range cards {
		c.Put(card)
	}
	return c
}

// Put adds or replaces a catalog entry
func (c *Catalog) Put(card *model.CatalogCard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *card
	c.cards[card.CardID] = &cp
}

// GetCard returns the catalog entry for cardID
func (c *Catalog) GetCard(ctx context.Context, cardID string) (*model.CatalogCard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	card, ok := c.cards[cardID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	cp := *card
	cp.ArtistIDs = append([]string(nil), card.ArtistIDs...)
	return &cp, nil
}

var (
	_ repository.CardRecordStore      = (*CardRecordStore)(nil)
	_ repository.SetAggregateStore    = (*SetAggregateStore)(nil)
	_ repository.ReconciliationOutbox = (*ReconciliationOutbox)(nil)
	_ repository.CatalogReader        = (*Catalog)(nil)
)

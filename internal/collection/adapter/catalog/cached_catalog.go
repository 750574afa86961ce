package catalog

import (
	"context"
	"fmt"

	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/domain/repository"

	lru "github.com/hashicorp/golang-lru"
)

// CachedCatalog keeps recently read catalog cards in an LRU cache in front of
// another CatalogReader. Misses and errors are not cached.
type CachedCatalog struct {
	next  repository.CatalogReader
	cache *lru.Cache
}

// NewCachedCatalog wraps next with a cache of size entries
func NewCachedCatalog(next repository.CatalogReader, size int) (*CachedCatalog, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}
	return &CachedCatalog{next: next, cache: cache}, nil
}

// GetCard returns the cached entry or loads it from the wrapped reader
func (c *CachedCatalog) GetCard(ctx context.Context, cardID string) (*model.CatalogCard, error) {
	if v, ok := c.cache.Get(cardID); ok {
		return copyCard(v.(*model.CatalogCard)), nil
	}
	card, err := c.next.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(cardID, copyCard(card))
	return card, nil
}

// Len reports how many cards are cached
func (c *CachedCatalog) Len() int {
	return c.cache.Len()
}

func copyCard(card *model.CatalogCard) *model.CatalogCard {
	out := *card
	out.ArtistIDs = append([]string(nil), card.ArtistIDs...)
	return &out
}

var _ repository.CatalogReader = (*CachedCatalog)(nil)

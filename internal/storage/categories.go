package storage

import (
	"context"
	"strconv"
	"time"

	"budgetmaster/internal/cache"
	"budgetmaster/internal/core"
)

// CategoryReader reads the category catalogue.
type CategoryReader interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
}

const allCategoriesKey = "all"

// CachedCategories fronts a CategoryReader with an LRU cache. Categories are
// seeded once and never edited, so entries only age out by TTL.
type CachedCategories struct {
	next CategoryReader
	list *cache.LRUCache[[]core.Category]
	byID *cache.LRUCache[core.Category]
}

func NewCachedCategories(next CategoryReader, ttl time.Duration) *CachedCategories {
	return &CachedCategories{
		next: next,
		list: cache.NewLRUCache[[]core.Category](1, ttl),
		byID: cache.NewLRUCache[core.Category](64, ttl),
	}
}

// Register adds the underlying caches to a cleanup manager.
func (c *CachedCategories) Register(m *cache.Manager) {
	m.Register(c.list)
	m.Register(c.byID)
}

func (c *CachedCategories) ListCategories(ctx context.Context) ([]core.Category, error) {
	if cats, ok := c.list.Get(allCategoriesKey); ok {
		return append([]core.Category(nil), cats...), nil
	}

	cats, err := c.next.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.list.Set(allCategoriesKey, cats)
	for _, cat := range cats {
		c.byID.Set(strconv.FormatInt(cat.ID, 10), cat)
	}
	return append([]core.Category(nil), cats...), nil
}

// GetCategory misses fall through to the store; not-found is never cached.
func (c *CachedCategories) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	key := strconv.FormatInt(id, 10)
	if cat, ok := c.byID.Get(key); ok {
		return cat, nil
	}

	cat, err := c.next.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	c.byID.Set(key, cat)
	return cat, nil
}

package content

import (
	"context"
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/storage"
)

// Cache stores the last good card set per language.
type Cache struct {
	store storage.Provider
	now   func() time.Time
}

type CacheOption func(*Cache)

// WithCacheClock overrides the time source used for SavedAt.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

func NewCache(store storage.Provider, opts ...CacheOption) *Cache {
	c := &Cache{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(lang models.Lang) string {
	return constants.KeyPrefixCardsCache + lang.Code()
}

// Load returns the cached set for lang. A corrupt entry reads as missing.
func (c *Cache) Load(ctx context.Context, lang models.Lang) (models.CardsCache, bool) {
	var cache models.CardsCache
	ok, err := storage.GetJSON(ctx, c.store, cacheKey(lang), &cache)
	if err != nil {
		logger.Warn("Failed to read cards cache", "lang", lang.Code(), "error", err)
		return models.CardsCache{}, false
	}
	if !ok || len(cache.Cards) == 0 {
		return models.CardsCache{}, false
	}
	return cache, true
}

// Save replaces the cache for lang. Empty sets are never stored.
func (c *Cache) Save(ctx context.Context, lang models.Lang, cards []models.Card) error {
	if len(cards) == 0 {
		return nil
	}
	return storage.SetJSON(ctx, c.store, cacheKey(lang), models.CardsCache{
		SavedAt: c.now().UnixMilli(),
		Cards:   cards,
	})
}

// IsFresh reports whether cache is still inside its TTL.
func (c *Cache) IsFresh(cache models.CardsCache) bool {
	return cache.IsFresh(c.now())
}

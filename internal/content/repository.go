package content

import (
	"context"
	"fmt"

	apperrors "github.com/julianstephens/lessfeed/internal/errors"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
)

// Repository combines a Source with the per-language Cache.
type Repository struct {
	source Source
	cache  *Cache
}

func NewRepository(source Source, cache *Cache) *Repository {
	return &Repository{source: source, cache: cache}
}

func (r *Repository) Cache() *Cache { return r.cache }

// Cached returns the cached cards for lang and whether they are still fresh.
func (r *Repository) Cached(ctx context.Context, lang models.Lang) ([]models.Card, bool, bool) {
	cache, ok := r.cache.Load(ctx, lang)
	if !ok {
		return nil, false, false
	}
	return cache.Cards, r.cache.IsFresh(cache), true
}

// Fetch asks the source for lang. A non-empty result replaces the cache. On
// error or an empty result the cached set is returned with fallback set, and
// ErrNoData when there is none.
func (r *Repository) Fetch(ctx context.Context, lang models.Lang) ([]models.Card, bool, error) {
	var fetchErr error
	if r.source == nil {
		fetchErr = fmt.Errorf("no content source configured")
	} else {
		fetched, err := r.source.FetchCards(ctx, lang)
		switch {
		case err != nil:
			fetchErr = err
		case len(fetched) == 0:
			fetchErr = fmt.Errorf("source returned no cards")
		default:
			if err := r.cache.Save(ctx, lang, fetched); err != nil {
				logger.Warn("Failed to save cards cache", "lang", lang.Code(), "error", err)
			}
			return fetched, false, nil
		}
	}

	logger.Warn("Card fetch failed, falling back to cache", "lang", lang.Code(), "error", fetchErr)
	if cached, _, ok := r.Cached(ctx, lang); ok {
		return cached, true, nil
	}
	return nil, true, fmt.Errorf("%w: %v", apperrors.ErrNoData, fetchErr)
}

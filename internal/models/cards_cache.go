package models

import (
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
)

// CardsCache is the last good card set fetched for a language.
type CardsCache struct {
	SavedAt int64  `json:"saved_at"` // epoch millis
	Cards   []Card `json:"cards"`
}

// IsFresh reports whether the cache is younger than constants.CardsCacheTTL.
func (c CardsCache) IsFresh(now time.Time) bool {
	return now.Sub(time.UnixMilli(c.SavedAt)) < constants.CardsCacheTTL
}

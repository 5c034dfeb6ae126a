// Package daily implements the once-a-day ritual: deterministic card
// selection, per-day progress tracking and the completion streak.
package daily

import (
	"hash/fnv"
	"slices"
	"strings"

	"github.com/julianstephens/lessfeed/internal/models"
)

const shufflePasses = 3

// Seed derives the selection seed for a UTC date (YYYY-MM-DD) and language.
func Seed(date string, lang models.Lang) int64 {
	h := fnv.New64a()
	h.Write([]byte(date + "_daily_" + lang.Code()))
	return int64(h.Sum64())
}

// Select picks count cards for the ritual of date in lang. Cards for which
// exclude returns true are skipped. The result only depends on the set of
// remaining card ids, the date and the language.
func Select(cards []models.Card, count int, date string, lang models.Lang, exclude func(id string) bool) []models.Card {
	if count <= 0 || len(cards) == 0 {
		return []models.Card{}
	}

	available := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if exclude != nil && exclude(c.ID) {
			continue
		}
		available = append(available, c)
	}
	if len(available) == 0 {
		return []models.Card{}
	}

	slices.SortStableFunc(available, func(a, b models.Card) int {
		return strings.Compare(a.ID, b.ID)
	})

	rnd := newJavaRand(Seed(date, lang))
	for range shufflePasses {
		shuffle(available, rnd)
	}
	slices.Reverse(available)

	if count > len(available) {
		count = len(available)
	}
	return available[:count:count]
}

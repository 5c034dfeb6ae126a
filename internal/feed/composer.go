// Package feed composes the card feed and drives a reading session on top of
// the persistent trackers.
package feed

import (
	"math"
	"slices"
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/daily"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/scheduler"
	"github.com/julianstephens/lessfeed/internal/utils"
)

// Input is everything a composition depends on besides the session.
type Input struct {
	Cards     []models.Card
	Mode      models.ListMode
	Lang      models.Lang
	Now       time.Time
	Learned   map[string]struct{}
	Unuseful  map[string]struct{}
	Favorites map[string]struct{}
	Reviews   scheduler.Reviews

	// InjectedToday is the persisted daily support-card flag.
	InjectedToday bool
}

// Result is a composed feed.
type Result struct {
	Items []models.FeedItem
	// Injected is set when this composition placed the support card for the
	// first time in the session. The caller persists the daily flag.
	Injected bool
	// Daily holds the ritual cards in Daily mode.
	Daily []models.Card
}

func has(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}

// Compose builds the feed for in.Mode. It updates the order cache and the
// injected flag of s.
func Compose(in Input, s *Session) Result {
	if in.Mode == models.ListModeDaily {
		return composeDaily(in)
	}

	filtered := filter(in)
	if len(filtered) == 0 {
		return Result{Items: []models.FeedItem{}}
	}

	ordered := order(in, s, filtered)

	items := make([]models.FeedItem, 0, len(ordered)+1)
	for _, c := range ordered {
		items = append(items, models.ContentItem{Card: c})
	}

	res := Result{}
	// The support card appears in a single composition per session and day.
	if in.Mode == models.ListModeFeed && !s.Injected() && !in.InjectedToday && s.UniqueViews() >= constants.SystemCardMinViews {
		at := min(constants.SystemCardInsertIndex, len(items))
		items = slices.Insert(items, at, models.FeedItem(models.SystemItem{Card: models.SystemCardFor(in.Lang)}))
		s.MarkInjected()
		res.Injected = true
	}
	res.Items = items
	return res
}

func composeDaily(in Input) Result {
	if len(in.Cards) == 0 {
		return Result{Items: []models.FeedItem{}}
	}
	exclude := func(id string) bool {
		return has(in.Learned, id) || has(in.Unuseful, id)
	}
	selected := daily.Select(in.Cards, constants.DailyCardCount, utils.DayUTC(in.Now), in.Lang, exclude)

	items := make([]models.FeedItem, 0, len(selected)+2)
	items = append(items, models.OpeningItem{Card: models.OpeningCardFor(in.Lang)})
	for _, c := range selected {
		items = append(items, models.ContentItem{Card: c})
	}
	items = append(items, models.SystemItem{Card: models.SystemCardFor(in.Lang)})
	return Result{Items: items, Daily: selected}
}

func filter(in Input) []models.Card {
	var keep func(id string) bool
	switch in.Mode {
	case models.ListModeLearned:
		keep = func(id string) bool { return has(in.Learned, id) }
	case models.ListModeUnuseful:
		keep = func(id string) bool { return has(in.Unuseful, id) }
	case models.ListModeReview:
		keep = in.Reviews.InReview
	case models.ListModeFavorites:
		keep = func(id string) bool { return has(in.Favorites, id) }
	default:
		keep = func(id string) bool { return !has(in.Learned, id) && !has(in.Unuseful, id) }
	}

	out := make([]models.Card, 0, len(in.Cards))
	for _, c := range in.Cards {
		if keep(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// Score ranks a card for the initial ordering of a mode session.
func Score(c models.Card, in Input, s *Session) float64 {
	if has(in.Unuseful, c.ID) {
		return constants.ScoreUnuseful
	}
	if has(in.Learned, c.ID) {
		return constants.ScoreLearned
	}

	var score float64
	viewed := s.ViewDuration(c.ID)
	if viewed <= 0 {
		score = constants.ScoreNewCard
	} else {
		ms := float64(viewed.Milliseconds())
		score = math.Min(ms/constants.ScoreViewedDivisor, constants.ScoreViewedCap)
	}

	if in.Reviews.InReview(c.ID) {
		score += constants.ScoreReviewPinned
		if in.Reviews.IsDue(c.ID, in.Now) {
			score += constants.ScoreReviewDue
		}
	}
	return score
}

func order(in Input, s *Session, cards []models.Card) []models.Card {
	type scored struct {
		card  models.Card
		score float64
	}
	list := make([]scored, len(cards))
	for i, c := range cards {
		list[i] = scored{card: c, score: Score(c, in, s)}
	}
	slices.SortStableFunc(list, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	ids := make([]string, len(list))
	for i, sc := range list {
		ids[i] = sc.card.ID
	}

	if ranks, ok := s.rank(in.Mode, ids); ok {
		rankOf := func(id string) int {
			if r, ok := ranks[id]; ok {
				return r
			}
			return math.MaxInt
		}
		slices.SortStableFunc(list, func(a, b scored) int {
			ra, rb := rankOf(a.card.ID), rankOf(b.card.ID)
			switch {
			case ra < rb:
				return -1
			case ra > rb:
				return 1
			default:
				return 0
			}
		})
	} else {
		s.setOrder(in.Mode, ids)
	}

	out := make([]models.Card, len(list))
	for i, sc := range list {
		out[i] = sc.card
	}
	return out
}

// Package scheduler owns the spaced-repetition state of cards opted into review.
package scheduler

import (
	"context"
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/storage"
)

// Reviews maps card ids to their review state.
type Reviews map[string]models.ReviewItem

// InReview reports whether id has a review entry.
func (r Reviews) InReview(id string) bool {
	_, ok := r[id]
	return ok
}

// IsDue reports whether id is in review and due at now.
func (r Reviews) IsDue(id string, now time.Time) bool {
	item, ok := r[id]
	return ok && item.IsDue(now)
}

type Scheduler struct {
	store storage.Provider
	now   func() time.Time
}

type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(store storage.Provider, opts ...Option) *Scheduler {
	s := &Scheduler{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// All returns every review entry. A corrupt map reads as empty.
func (s *Scheduler) All(ctx context.Context) (Reviews, error) {
	reviews := Reviews{}
	if _, err := storage.GetJSON(ctx, s.store, constants.KeyReviews, &reviews); err != nil {
		return Reviews{}, err
	}
	if reviews == nil {
		reviews = Reviews{}
	}
	return reviews, nil
}

func (s *Scheduler) Get(ctx context.Context, cardID string) (models.ReviewItem, bool, error) {
	reviews, err := s.All(ctx)
	if err != nil {
		return models.ReviewItem{}, false, err
	}
	item, ok := reviews[cardID]
	return item, ok, nil
}

func (s *Scheduler) IsInReview(ctx context.Context, cardID string) (bool, error) {
	_, ok, err := s.Get(ctx, cardID)
	return ok, err
}

func (s *Scheduler) IsDue(ctx context.Context, cardID string) (bool, error) {
	item, ok, err := s.Get(ctx, cardID)
	if err != nil || !ok {
		return false, err
	}
	return item.IsDue(s.now()), nil
}

// Add inserts a fresh stage 0 entry, replacing any existing one.
func (s *Scheduler) Add(ctx context.Context, cardID string) error {
	now := s.now()
	return s.update(ctx, func(r Reviews) bool {
		r[cardID] = models.NewReviewItem(now)
		return true
	})
}

// Remove deletes the entry for cardID if there is one.
func (s *Scheduler) Remove(ctx context.Context, cardID string) error {
	return s.update(ctx, func(r Reviews) bool {
		if _, ok := r[cardID]; !ok {
			return false
		}
		delete(r, cardID)
		return true
	})
}

// Toggle adds or removes cardID in one read-modify-write and returns
// whether the card is now in review.
func (s *Scheduler) Toggle(ctx context.Context, cardID string) (bool, error) {
	now := s.now()
	var inReview bool
	err := s.update(ctx, func(r Reviews) bool {
		if _, ok := r[cardID]; ok {
			delete(r, cardID)
			inReview = false
		} else {
			r[cardID] = models.NewReviewItem(now)
			inReview = true
		}
		return true
	})
	return inReview, err
}

// MarkSeen records a view of cardID. Views of at least
// constants.ReviewAdvanceMinView advance the stage, shorter ones reschedule.
// Cards not in review are ignored.
func (s *Scheduler) MarkSeen(ctx context.Context, cardID string, viewed time.Duration) error {
	now := s.now()
	return s.update(ctx, func(r Reviews) bool {
		item, ok := r[cardID]
		if !ok {
			return false
		}
		if viewed >= constants.ReviewAdvanceMinView {
			r[cardID] = item.Advance(now)
		} else {
			r[cardID] = item.Reschedule(now, constants.ReviewRescheduleDelay)
		}
		logger.Debug("Review updated", "card_id", cardID, "stage", r[cardID].Stage, "next_due_at", r[cardID].NextDueAt)
		return true
	})
}

func (s *Scheduler) update(ctx context.Context, fn func(Reviews) bool) error {
	return storage.UpdateJSON(ctx, s.store, constants.KeyReviews, func(r *Reviews, _ bool) (bool, error) {
		if *r == nil {
			*r = Reviews{}
		}
		if !fn(*r) {
			return false, storage.ErrUnchanged
		}
		return true, nil
	})
}

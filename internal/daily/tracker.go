package daily

import (
	"context"
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/utils"
)

// Tracker persists ritual state under keys that embed the UTC date, so each
// day starts clean without any cleanup.
type Tracker struct {
	store storage.Provider
	now   func() time.Time
}

func NewTracker(store storage.Provider, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: store, now: now}
}

func (t *Tracker) today() string { return utils.DayUTC(t.now()) }

func (t *Tracker) HasSeenOpeningToday(ctx context.Context) (bool, error) {
	raw, ok, err := t.store.Get(ctx, constants.KeyDailyOpeningSeen)
	if err != nil || !ok {
		return false, err
	}
	return string(raw) == t.today(), nil
}

func (t *Tracker) MarkOpeningSeen(ctx context.Context) error {
	return t.store.Set(ctx, constants.KeyDailyOpeningSeen, []byte(t.today()))
}

// StartedAt returns when today's ritual was started, if it was.
func (t *Tracker) StartedAt(ctx context.Context) (time.Time, bool, error) {
	return t.timestamp(ctx, constants.KeyPrefixDailyStarted+t.today())
}

// MarkStarted records the start time unless one is already set for today.
func (t *Tracker) MarkStarted(ctx context.Context) error {
	return t.setOnce(ctx, constants.KeyPrefixDailyStarted+t.today())
}

func (t *Tracker) CompletedAt(ctx context.Context) (time.Time, bool, error) {
	return t.timestamp(ctx, constants.KeyPrefixDailyCompleted+t.today())
}

func (t *Tracker) IsCompleteToday(ctx context.Context) (bool, error) {
	_, ok, err := t.CompletedAt(ctx)
	return ok, err
}

// MarkCompleted records the completion time and reports whether this call set it.
func (t *Tracker) MarkCompleted(ctx context.Context) (bool, error) {
	first := false
	err := t.store.Update(ctx, constants.KeyPrefixDailyCompleted+t.today(), func(cur []byte, ok bool) ([]byte, bool, error) {
		if ok {
			return nil, false, storage.ErrUnchanged
		}
		first = true
		return []byte(t.now().UTC().Format(time.RFC3339Nano)), true, nil
	})
	return first, err
}

// MarkCardViewed adds id to today's viewed set.
func (t *Tracker) MarkCardViewed(ctx context.Context, id string) error {
	_, err := storage.AddMembers(ctx, t.store, constants.KeyPrefixDailyViewed+t.today(), id)
	return err
}

// ViewedToday returns the ids viewed in any session today.
func (t *Tracker) ViewedToday(ctx context.Context) (map[string]struct{}, error) {
	return storage.GetSet(ctx, t.store, constants.KeyPrefixDailyViewed+t.today())
}

func (t *Tracker) timestamp(ctx context.Context, key string) (time.Time, bool, error) {
	raw, ok, err := t.store.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ts, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		// Presence is what matters; an unreadable timestamp still counts.
		return time.Time{}, true, nil
	}
	return ts, true, nil
}

func (t *Tracker) setOnce(ctx context.Context, key string) error {
	return t.store.Update(ctx, key, func(cur []byte, ok bool) ([]byte, bool, error) {
		if ok {
			return nil, false, storage.ErrUnchanged
		}
		return []byte(t.now().UTC().Format(time.RFC3339Nano)), true, nil
	})
}

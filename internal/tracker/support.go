package tracker

import (
	"context"
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/utils"
)

// Support remembers, per UTC day, whether the support card was injected and
// whether the user acted on it.
type Support struct {
	store storage.Provider
	now   func() time.Time
}

type SupportOption func(*Support)

// WithSupportClock overrides the time source.
func WithSupportClock(now func() time.Time) SupportOption {
	return func(s *Support) { s.now = now }
}

func NewSupport(store storage.Provider, opts ...SupportOption) *Support {
	s := &Support{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Support) WasInjectedToday(ctx context.Context) (bool, error) {
	return s.isToday(ctx, constants.KeySupportInjectedDay)
}

func (s *Support) MarkInjected(ctx context.Context) error {
	return s.markToday(ctx, constants.KeySupportInjectedDay)
}

func (s *Support) WasUsedToday(ctx context.Context) (bool, error) {
	return s.isToday(ctx, constants.KeySupportUsedDay)
}

func (s *Support) MarkUsed(ctx context.Context) error {
	return s.markToday(ctx, constants.KeySupportUsedDay)
}

func (s *Support) isToday(ctx context.Context, key string) (bool, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return string(raw) == utils.DayUTC(s.now()), nil
}

func (s *Support) markToday(ctx context.Context, key string) error {
	return s.store.Set(ctx, key, []byte(utils.DayUTC(s.now())))
}

package daily

import (
	"context"
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/utils"
)

// StreakState is the persisted streak.
type StreakState struct {
	Current            int    `json:"current"`
	LastCompletionDate string `json:"last_completion_date,omitempty"` // YYYY-MM-DD, UTC
}

// Streak counts consecutive UTC days with a completed ritual.
type Streak struct {
	store storage.Provider
	now   func() time.Time
}

func NewStreak(store storage.Provider, now func() time.Time) *Streak {
	if now == nil {
		now = time.Now
	}
	return &Streak{store: store, now: now}
}

// State returns the stored streak without validating it.
func (s *Streak) State(ctx context.Context) (StreakState, error) {
	var st StreakState
	if _, err := storage.GetJSON(ctx, s.store, constants.KeyStreak, &st); err != nil {
		return StreakState{}, err
	}
	if st.Current < 0 {
		st.Current = 0
	}
	return st, nil
}

// Current returns the stored streak count.
func (s *Streak) Current(ctx context.Context) (int, error) {
	st, err := s.State(ctx)
	return st.Current, err
}

// RecordCompletion counts today once. A completion on the day after the last
// one extends the streak; any other gap restarts it at 1.
func (s *Streak) RecordCompletion(ctx context.Context) (int, error) {
	now := s.now()
	today := utils.DayUTC(now)
	yesterday := utils.PreviousDayUTC(now)

	var current int
	err := storage.UpdateJSON(ctx, s.store, constants.KeyStreak, func(st *StreakState, _ bool) (bool, error) {
		switch st.LastCompletionDate {
		case today:
			current = st.Current
			return false, storage.ErrUnchanged
		case yesterday:
			st.Current++
		default:
			st.Current = 1
		}
		st.LastCompletionDate = today
		current = st.Current
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	logger.Debug("Streak recorded", "streak", current, "date", today)
	return current, nil
}

// CheckValidity resets a streak whose last completion is older than yesterday
// and returns the streak that is still valid today.
func (s *Streak) CheckValidity(ctx context.Context) (int, error) {
	now := s.now()
	today := utils.DayUTC(now)
	yesterday := utils.PreviousDayUTC(now)

	var current int
	err := storage.UpdateJSON(ctx, s.store, constants.KeyStreak, func(st *StreakState, found bool) (bool, error) {
		if !found || st.LastCompletionDate == "" {
			current = 0
			return false, storage.ErrUnchanged
		}
		if st.LastCompletionDate == today || st.LastCompletionDate == yesterday {
			current = st.Current
			return false, storage.ErrUnchanged
		}
		current = 0
		if st.Current == 0 {
			return false, storage.ErrUnchanged
		}
		logger.Info("Streak expired", "last_completion_date", st.LastCompletionDate, "streak", st.Current)
		st.Current = 0
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return current, nil
}

package daily

import (
	"context"
	"fmt"
	"sync"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/logger"
)

// Phase is where the current session stands in today's ritual.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseOpeningSeen
	PhaseInProgress
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not started"
	case PhaseOpeningSeen:
		return "opening seen"
	case PhaseInProgress:
		return "in progress"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Progress is the ritual state shown to the user. Viewed counts only the
// current session, while Complete also reflects earlier sessions today.
type Progress struct {
	Phase    Phase
	Viewed   int
	Total    int
	Complete bool
}

// Ritual drives one session through the daily ritual. Visible returns
// ContentVisible reports completion once per day.
type Ritual struct {
	tracker *Tracker
	streak  *Streak

	mu          sync.Mutex
	size        int
	viewed      map[string]struct{}
	openingSeen bool
	complete    bool
}

func NewRitual(tracker *Tracker, streak *Streak) *Ritual {
	return &Ritual{
		tracker: tracker,
		streak:  streak,
		size:    constants.DailyCardCount,
		viewed:  make(map[string]struct{}),
	}
}

// Enter starts a new session: visible progress goes back to zero and the
// completion flag is reloaded from today's persisted state.
func (r *Ritual) Enter(ctx context.Context) (Progress, error) {
	complete, err := r.tracker.IsCompleteToday(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewed = make(map[string]struct{})
	r.openingSeen = false
	r.complete = complete
	return r.progressLocked(), err
}

// SetSize sets how many content cards complete the ritual, normally the
// number of cards the selector returned.
func (r *Ritual) SetSize(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 1 || n > constants.DailyCardCount {
		n = constants.DailyCardCount
	}
	r.size = n
}

// OpeningVisible marks the opening card seen and records today's start time.
func (r *Ritual) OpeningVisible(ctx context.Context) (Progress, error) {
	r.mu.Lock()
	r.openingSeen = true
	r.mu.Unlock()

	if err := r.tracker.MarkOpeningSeen(ctx); err != nil {
		return r.Progress(), err
	}
	if err := r.tracker.MarkStarted(ctx); err != nil {
		return r.Progress(), err
	}
	return r.Progress(), nil
}

// ContentVisible records a content card of the ritual. When the session has
// seen every ritual card and today is not complete yet, it marks completion,
// extends the streak and returns completed=true.
func (r *Ritual) ContentVisible(ctx context.Context, cardID string) (Progress, bool, error) {
	r.mu.Lock()
	_, already := r.viewed[cardID]
	if !already {
		r.viewed[cardID] = struct{}{}
	}
	reached := len(r.viewed) >= r.size && !r.complete
	if reached {
		r.complete = true
	}
	r.mu.Unlock()

	if !already {
		if err := r.tracker.MarkCardViewed(ctx, cardID); err != nil {
			return r.Progress(), false, err
		}
	}
	if !reached {
		return r.Progress(), false, nil
	}

	first, err := r.tracker.MarkCompleted(ctx)
	if err != nil {
		return r.Progress(), false, err
	}
	if !first {
		// Another session finished today while this one was open.
		return r.Progress(), false, nil
	}
	streak, err := r.streak.RecordCompletion(ctx)
	if err != nil {
		return r.Progress(), true, err
	}
	logger.Info("Daily ritual completed", "streak", streak)
	return r.Progress(), true, nil
}

func (r *Ritual) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progressLocked()
}

func (r *Ritual) progressLocked() Progress {
	p := Progress{
		Viewed:   len(r.viewed),
		Total:    r.size,
		Complete: r.complete,
	}
	switch {
	case r.complete:
		p.Phase = PhaseCompleted
	case len(r.viewed) > 0:
		p.Phase = PhaseInProgress
	case r.openingSeen:
		p.Phase = PhaseOpeningSeen
	default:
		p.Phase = PhaseNotStarted
	}
	return p
}

package feed

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julianstephens/lessfeed/internal/analytics"
	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/content"
	"github.com/julianstephens/lessfeed/internal/daily"
	apperrors "github.com/julianstephens/lessfeed/internal/errors"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/scheduler"
	"github.com/julianstephens/lessfeed/internal/settings"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/tracker"
)

// ErrClosed is returned by operations on a closed Engine.
var ErrClosed = stderrors.New("feed engine closed")

// ToggleKind names one of the four card toggles.
type ToggleKind int

const (
	ToggleLearned ToggleKind = iota
	ToggleUnuseful
	ToggleReview
	ToggleFavorite
)

func (k ToggleKind) String() string {
	switch k {
	case ToggleLearned:
		return "learned"
	case ToggleUnuseful:
		return "unuseful"
	case ToggleReview:
		return "review"
	case ToggleFavorite:
		return "favorite"
	default:
		return fmt.Sprintf("ToggleKind(%d)", int(k))
	}
}

// ParseToggleKind parses the String form of a ToggleKind.
func ParseToggleKind(v string) (ToggleKind, error) {
	for _, k := range []ToggleKind{ToggleLearned, ToggleUnuseful, ToggleReview, ToggleFavorite} {
		if k.String() == v {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown toggle %q", v)
}

func (k ToggleKind) event() analytics.EventType {
	switch k {
	case ToggleLearned:
		return analytics.EventLearned
	case ToggleUnuseful:
		return analytics.EventUnuseful
	case ToggleReview:
		return analytics.EventReview
	default:
		return analytics.EventFavorite
	}
}

// UndoToast offers to revert the last toggle that turned a membership on.
type UndoToast struct {
	Kind   ToggleKind
	CardID string
}

// State is what the presentation layer renders.
type State struct {
	Items               []models.FeedItem
	CurrentIndex        int
	Settings            models.UISettings
	Loading             bool
	Refreshing          bool
	SlowHint            bool
	Err                 error
	LearnedCount        int
	Streak              int
	Daily               daily.Progress
	ShowDailyCompletion bool
	Undo                *UndoToast
}

// Current returns the focused item, if any.
func (s State) Current() (models.FeedItem, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Items) {
		return nil, false
	}
	return s.Items[s.CurrentIndex], true
}

// CardStatus is the per-card menu state.
type CardStatus struct {
	Learned   bool
	Unuseful  bool
	Favorite  bool
	InReview  bool
	Due       bool
	Stage     int
	NextDueAt time.Time
	IsNew     bool
}

// Engine owns a reading session: the loaded cards, the session context and
// the observable State. Intents may be called from any goroutine.
type Engine struct {
	content   *content.Repository
	settings  *settings.Repository
	learned   *tracker.Set
	unuseful  *tracker.Set
	favorites *tracker.Set
	seen      *tracker.Seen
	reviews   *scheduler.Scheduler
	support   *tracker.Support
	feedback  *tracker.FeedbackQueue
	streak    *daily.Streak
	ritual    *daily.Ritual
	analytics *analytics.Tracker

	now           func() time.Time
	undoDuration  time.Duration
	slowHintDelay time.Duration

	loading       atomic.Bool
	reloadPending atomic.Bool
	rebuildMu     sync.Mutex
	undoTimer     delayed
	slowTimer     delayed

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   State
	cards   []models.Card
	session *Session
	gen     uint64
	closed  bool
	updates chan struct{}
}

type Option func(*Engine)

// WithClock overrides the time source of the engine and its trackers.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithAnalytics replaces the default tracker, which discards events.
func WithAnalytics(t *analytics.Tracker) Option {
	return func(e *Engine) { e.analytics = t }
}

// WithUndoDuration sets how long an undo toast stays up.
func WithUndoDuration(d time.Duration) Option {
	return func(e *Engine) { e.undoDuration = d }
}

// WithSlowHintDelay sets how long a foreground load runs before SlowHint is raised.
func WithSlowHintDelay(d time.Duration) Option {
	return func(e *Engine) { e.slowHintDelay = d }
}

func New(store storage.Provider, repo *content.Repository, opts ...Option) *Engine {
	e := &Engine{
		content:       repo,
		now:           time.Now,
		undoDuration:  constants.UndoToastDuration,
		slowHintDelay: constants.SlowHintDelay,
		session:       NewSession(),
		updates:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.analytics == nil {
		e.analytics = analytics.NewTracker(store, analytics.NopSink{})
	}

	e.settings = settings.New(store)
	e.learned = tracker.NewLearned(store)
	e.unuseful = tracker.NewUnuseful(store)
	e.favorites = tracker.NewFavorites(store)
	e.seen = tracker.NewSeen(store)
	e.reviews = scheduler.New(store, scheduler.WithClock(e.now))
	e.support = tracker.NewSupport(store, tracker.WithSupportClock(e.now))
	e.feedback = tracker.NewFeedbackQueue(store)
	e.streak = daily.NewStreak(store, e.now)
	e.ritual = daily.NewRitual(daily.NewTracker(store, e.now), e.streak)

	e.state.Settings = models.DefaultSettings()
	e.state.Items = []models.FeedItem{}
	e.state.Daily = e.ritual.Progress()
	e.bg, e.cancel = context.WithCancel(context.Background())
	return e
}

// Updates signals after every state change. Signals are coalesced; read
// State for the latest snapshot. The channel is closed by Close.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

// State returns a snapshot of the observable state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.Items = slices.Clone(e.state.Items)
	if e.state.Undo != nil {
		u := *e.state.Undo
		s.Undo = &u
	}
	return s
}

// Settings returns the current settings.
func (e *Engine) Settings() models.UISettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Settings
}

// Cards returns the cards loaded for the current language.
func (e *Engine) Cards() []models.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.cards)
}

func (e *Engine) Analytics() *analytics.Tracker { return e.analytics }

func (e *Engine) update(fn func(*State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.state)
	e.notifyLocked()
}

func (e *Engine) notifyLocked() {
	if e.closed {
		return
	}
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// Start prepares the session and loads cards for the configured language.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Prepare(ctx); err != nil {
		return err
	}
	return e.Load(ctx, false)
}

// Prepare loads settings, validates the streak, restores pending analytics
// and, in daily mode, the ritual progress. It does not touch the content
// source.
func (e *Engine) Prepare(ctx context.Context) error {
	s, err := e.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	streak, err := e.streak.CheckValidity(ctx)
	if err != nil {
		logger.Warn("Failed to validate streak", "error", err)
	}
	if err := e.analytics.Load(ctx); err != nil {
		logger.Warn("Failed to load pending analytics", "error", err)
	}
	learned, err := e.learned.Count(ctx)
	if err != nil {
		logger.Warn("Failed to count learned cards", "error", err)
	}

	e.update(func(st *State) {
		st.Settings = s
		st.Streak = streak
		st.LearnedCount = learned
	})

	if s.Mode() == models.ListModeDaily {
		p, err := e.ritual.Enter(ctx)
		if err != nil {
			logger.Warn("Failed to load daily progress", "error", err)
		}
		e.update(func(st *State) { st.Daily = p })
	}
	return nil
}

// Load fills the card set for the current language. Unless force is set, a
// fresh cache is served at once and refreshed in the background. Only one
// load runs at a time; overlapping calls get ErrAlreadyLoading.
func (e *Engine) Load(ctx context.Context, force bool) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if !e.loading.CompareAndSwap(false, true) {
		return apperrors.ErrAlreadyLoading
	}
	e.reloadPending.Store(false)

	err := e.load(ctx, force)
	e.loading.Store(false)

	if e.reloadPending.Swap(false) {
		return e.Load(ctx, false)
	}
	return err
}

func (e *Engine) load(ctx context.Context, force bool) error {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	lang := e.state.Settings.LangValue()
	e.state.Loading = true
	e.state.SlowHint = false
	e.state.Err = nil
	e.notifyLocked()
	e.mu.Unlock()

	e.slowTimer.Schedule(e.slowHintDelay, func() {
		e.update(func(s *State) {
			if s.Loading {
				s.SlowHint = true
			}
		})
	})
	defer func() {
		e.slowTimer.Cancel()
		e.update(func(s *State) {
			s.Loading = false
			s.SlowHint = false
		})
	}()

	if !force {
		if cards, fresh, ok := e.content.Cached(ctx, lang); ok && fresh {
			logger.Debug("Serving cached cards", "lang", lang.Code(), "count", len(cards))
			e.applyCards(ctx, gen, cards)

			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				_ = e.fetch(e.bg, gen, lang, true)
			}()
			return nil
		}
	}
	return e.fetch(ctx, gen, lang, false)
}

func (e *Engine) fetch(ctx context.Context, gen uint64, lang models.Lang, background bool) error {
	cards, fallback, err := e.content.Fetch(ctx, lang)
	if err != nil {
		e.mu.Lock()
		current := gen == e.gen
		shown := len(e.cards) > 0
		if current && !shown && !background {
			e.state.Err = err
			e.notifyLocked()
		}
		e.mu.Unlock()

		if background || shown || !current {
			logger.Warn("Card refresh failed, keeping current cards", "lang", lang.Code(), "error", err)
			return nil
		}
		return err
	}
	if fallback && background {
		return nil
	}
	e.applyCards(ctx, gen, cards)
	return nil
}

func (e *Engine) applyCards(ctx context.Context, gen uint64, cards []models.Card) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		logger.Debug("Dropping superseded card load", "generation", gen)
		return
	}
	e.cards = cards
	e.state.Err = nil
	e.mu.Unlock()
	e.rebuild(ctx, "")
}

// Refresh forces a fetch from the source and resets the session order.
func (e *Engine) Refresh(ctx context.Context) error {
	e.update(func(s *State) { s.Refreshing = true })
	defer e.update(func(s *State) { s.Refreshing = false })

	e.mu.Lock()
	sess := e.session
	e.mu.Unlock()
	sess.InvalidateOrder()
	return e.Load(ctx, true)
}

// Wait blocks until background refreshes finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops timers and background work and persists pending analytics.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.updates)
	e.mu.Unlock()

	e.cancel()
	e.undoTimer.Cancel()
	e.slowTimer.Cancel()
	e.wg.Wait()
	return e.analytics.Save(context.Background())
}

// rebuild recomposes the feed. When focusID is present in the new feed it
// becomes the current item; otherwise the current item is kept by id, or by
// position when it disappeared.
func (e *Engine) rebuild(ctx context.Context, focusID string) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	e.mu.Lock()
	st := e.state.Settings
	cards := e.cards
	sess := e.session
	e.mu.Unlock()

	in := Input{
		Cards:     cards,
		Mode:      st.Mode(),
		Lang:      st.LangValue(),
		Now:       e.now(),
		Learned:   e.members(ctx, e.learned),
		Unuseful:  e.members(ctx, e.unuseful),
		Favorites: e.members(ctx, e.favorites),
	}
	reviews, err := e.reviews.All(ctx)
	if err != nil {
		logger.Warn("Failed to read reviews", "error", err)
	}
	in.Reviews = reviews
	if in.Mode == models.ListModeFeed {
		injected, err := e.support.WasInjectedToday(ctx)
		if err != nil {
			logger.Warn("Failed to read support flag", "error", err)
			injected = true
		}
		in.InjectedToday = injected
	}

	res := Compose(in, sess)
	if res.Injected {
		if err := e.support.MarkInjected(ctx); err != nil {
			logger.Warn("Failed to persist support flag", "error", err)
		}
	}
	if in.Mode == models.ListModeDaily {
		e.ritual.SetSize(len(res.Daily))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if sess != e.session {
		return
	}

	prevID := ""
	if cur, ok := e.state.Current(); ok {
		prevID = cur.ID()
	}
	idx := e.state.CurrentIndex
	if i := models.IndexOf(res.Items, focusID); focusID != "" && i >= 0 {
		idx = i
	} else if i := models.IndexOf(res.Items, prevID); prevID != "" && i >= 0 {
		idx = i
	}
	idx = min(idx, len(res.Items)-1)
	idx = max(idx, 0)

	e.state.Items = res.Items
	e.state.CurrentIndex = idx
	e.state.LearnedCount = len(in.Learned)
	if in.Mode == models.ListModeDaily {
		e.state.Daily = e.ritual.Progress()
	}
	e.notifyLocked()
}

func (e *Engine) members(ctx context.Context, set *tracker.Set) map[string]struct{} {
	m, err := set.Members(ctx)
	if err != nil {
		logger.Warn("Failed to read tracker", "key", set.Key(), "error", err)
		return map[string]struct{}{}
	}
	return m
}

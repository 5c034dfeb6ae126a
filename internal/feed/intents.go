package feed

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/julianstephens/lessfeed/internal/analytics"
	"github.com/julianstephens/lessfeed/internal/constants"
	apperrors "github.com/julianstephens/lessfeed/internal/errors"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
)

func (e *Engine) ToggleLearned(ctx context.Context, cardID string) (bool, error) {
	return e.Toggle(ctx, ToggleLearned, cardID)
}

func (e *Engine) ToggleUnuseful(ctx context.Context, cardID string) (bool, error) {
	return e.Toggle(ctx, ToggleUnuseful, cardID)
}

func (e *Engine) ToggleReview(ctx context.Context, cardID string) (bool, error) {
	return e.Toggle(ctx, ToggleReview, cardID)
}

func (e *Engine) ToggleFavorite(ctx context.Context, cardID string) (bool, error) {
	return e.Toggle(ctx, ToggleFavorite, cardID)
}

func (e *Engine) toggler(kind ToggleKind) func(context.Context, string) (bool, error) {
	switch kind {
	case ToggleLearned:
		return e.learned.Toggle
	case ToggleUnuseful:
		return e.unuseful.Toggle
	case ToggleReview:
		return e.reviews.Toggle
	default:
		return e.favorites.Toggle
	}
}

// Toggle flips one membership of a card and reports the new state. Turning
// learned, unuseful or review on raises an undo toast. Learning the current
// card in Feed mode without continuous reading moves on to the next card.
func (e *Engine) Toggle(ctx context.Context, kind ToggleKind, cardID string) (bool, error) {
	if cardID == "" || models.IsSentinelID(cardID) {
		return false, fmt.Errorf("card %q cannot be marked %s", cardID, kind)
	}
	on, err := e.toggler(kind)(ctx, cardID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle %s for %s: %w", kind, cardID, err)
	}
	logger.Debug("Toggled card", "card_id", cardID, "toggle", kind, "on", on)

	e.mu.Lock()
	st := e.state.Settings
	next := ""
	if cur, ok := e.state.Current(); ok && cur.ID() == cardID && e.state.CurrentIndex+1 < len(e.state.Items) {
		next = e.state.Items[e.state.CurrentIndex+1].ID()
	}
	e.mu.Unlock()

	if on {
		e.analytics.Track(cardID, kind.event(), st.LangValue())
		if kind != ToggleFavorite {
			e.showUndo(kind, cardID)
		}
	}

	if kind == ToggleFavorite && st.Mode() != models.ListModeFavorites {
		return on, nil
	}
	focus := ""
	if kind == ToggleLearned && on && !st.ContinuousReading && st.Mode() == models.ListModeFeed {
		focus = next
	}
	e.rebuild(ctx, focus)
	return on, nil
}

func (e *Engine) showUndo(kind ToggleKind, cardID string) {
	e.undoTimer.Schedule(e.undoDuration, func() {
		e.update(func(s *State) { s.Undo = nil })
	})
	e.update(func(s *State) { s.Undo = &UndoToast{Kind: kind, CardID: cardID} })
}

// Undo reverts the toggle behind the visible undo toast. It reports false
// when there was nothing to undo.
func (e *Engine) Undo(ctx context.Context) (bool, error) {
	e.undoTimer.Cancel()
	e.mu.Lock()
	toast := e.state.Undo
	e.state.Undo = nil
	e.notifyLocked()
	e.mu.Unlock()

	if toast == nil {
		return false, nil
	}
	if _, err := e.toggler(toast.Kind)(ctx, toast.CardID); err != nil {
		return true, fmt.Errorf("failed to undo %s for %s: %w", toast.Kind, toast.CardID, err)
	}
	e.rebuild(ctx, "")
	return true, nil
}

func (e *Engine) DismissUndo() {
	e.undoTimer.Cancel()
	e.update(func(s *State) { s.Undo = nil })
}

func (e *Engine) DismissDailyCompletion() {
	e.update(func(s *State) { s.ShowDailyCompletion = false })
}

// CardBecameVisible records that the item with id is on screen.
func (e *Engine) CardBecameVisible(ctx context.Context, id string) error {
	e.mu.Lock()
	st := e.state.Settings
	sess := e.session
	idx := models.IndexOf(e.state.Items, id)
	isContent := false
	if idx >= 0 {
		e.state.CurrentIndex = idx
		_, isContent = e.state.Items[idx].(models.ContentItem)
		e.notifyLocked()
	}
	e.mu.Unlock()

	lang := st.LangValue()
	if !models.IsSentinelID(id) {
		e.analytics.Track(id, analytics.EventView, lang)
	}

	if st.Mode() == models.ListModeDaily {
		return e.dailyVisible(ctx, sess, id)
	}

	if !isContent || !sess.MarkViewed(id) {
		return nil
	}
	if _, err := e.seen.MarkSeen(ctx, id, lang); err != nil {
		logger.Warn("Failed to mark card seen", "card_id", id, "lang", lang.Code(), "error", err)
	}

	if st.Mode() == models.ListModeFeed && !sess.Injected() && sess.UniqueViews() >= constants.SystemCardMinViews {
		injected, err := e.support.WasInjectedToday(ctx)
		if err != nil {
			return err
		}
		if !injected {
			e.rebuild(ctx, "")
		}
	}
	return nil
}

func (e *Engine) dailyVisible(ctx context.Context, sess *Session, id string) error {
	var (
		progress = e.ritual.Progress()
		done     bool
		err      error
	)
	switch id {
	case constants.OpeningCardID:
		progress, err = e.ritual.OpeningVisible(ctx)
	case constants.SystemCardID:
	default:
		sess.MarkViewed(id)
		progress, done, err = e.ritual.ContentVisible(ctx, id)
	}

	streak := -1
	if done {
		if s, serr := e.streak.Current(ctx); serr == nil {
			streak = s
		}
	}
	e.update(func(s *State) {
		s.Daily = progress
		if done {
			s.ShowDailyCompletion = true
			if streak >= 0 {
				s.Streak = streak
			}
		}
	})
	return err
}

// CardViewDuration adds d to the card's session reading time and feeds the
// review schedule.
func (e *Engine) CardViewDuration(ctx context.Context, id string, d time.Duration) error {
	if models.IsSentinelID(id) || d <= 0 {
		return nil
	}
	e.mu.Lock()
	sess := e.session
	e.mu.Unlock()

	sess.AddViewDuration(id, d)
	return e.reviews.MarkSeen(ctx, id, d)
}

// SetListMode switches the active list and resets the session order.
func (e *Engine) SetListMode(ctx context.Context, mode models.ListMode) error {
	if mode == models.ListModeDaily {
		return e.EnterDailyMode(ctx)
	}
	s, err := e.settings.SetListMode(ctx, mode)
	if err != nil {
		return fmt.Errorf("failed to save list mode: %w", err)
	}

	e.mu.Lock()
	e.state.Settings = s
	e.state.CurrentIndex = 0
	e.state.ShowDailyCompletion = false
	sess := e.session
	e.mu.Unlock()

	sess.InvalidateOrder()
	e.rebuild(ctx, "")
	e.update(func(st *State) { st.CurrentIndex = 0 })
	return nil
}

// EnterDailyMode opens today's ritual from the start. Visible progress
// begins at zero while an earlier completion today is kept.
func (e *Engine) EnterDailyMode(ctx context.Context) error {
	s, err := e.settings.SetListMode(ctx, models.ListModeDaily)
	if err != nil {
		return fmt.Errorf("failed to save list mode: %w", err)
	}
	progress, err := e.ritual.Enter(ctx)
	if err != nil {
		logger.Warn("Failed to load daily completion", "error", err)
	}

	e.mu.Lock()
	e.state.Settings = s
	e.state.Daily = progress
	e.state.ShowDailyCompletion = false
	sess := e.session
	e.mu.Unlock()

	sess.InvalidateOrder()
	e.rebuild(ctx, "")
	e.update(func(st *State) { st.CurrentIndex = 0 })
	return nil
}

// SetLang switches language. The session starts over and cards for the new
// language are loaded.
func (e *Engine) SetLang(ctx context.Context, lang models.Lang) error {
	if e.Settings().LangValue() == lang {
		return nil
	}
	s, err := e.settings.SetLang(ctx, lang)
	if err != nil {
		return fmt.Errorf("failed to save language: %w", err)
	}

	e.mu.Lock()
	e.state.Settings = s
	e.state.Items = []models.FeedItem{}
	e.state.CurrentIndex = 0
	e.session = NewSession()
	e.cards = nil
	e.gen++
	e.notifyLocked()
	e.mu.Unlock()

	e.reloadPending.Store(true)
	if err := e.Load(ctx, false); err != nil {
		if stderrors.Is(err, apperrors.ErrAlreadyLoading) {
			return nil
		}
		return err
	}
	return nil
}

// Next moves focus to the following item.
func (e *Engine) Next() {
	e.update(func(s *State) {
		if s.CurrentIndex < len(s.Items)-1 {
			s.CurrentIndex++
		}
	})
}

// Prev moves focus to the previous item.
func (e *Engine) Prev() {
	e.update(func(s *State) {
		if s.CurrentIndex > 0 {
			s.CurrentIndex--
		}
	})
}

func (e *Engine) SubmitFeedback(ctx context.Context, cardID string, kind models.FeedbackKind, message string) (models.FeedbackItem, error) {
	return e.feedback.Submit(ctx, cardID, e.Settings().LangValue(), kind, message)
}

func (e *Engine) FeedbackQueue(ctx context.Context) ([]models.FeedbackItem, error) {
	return e.feedback.List(ctx)
}

// CardStatus returns the memberships shown in a card's menu.
func (e *Engine) CardStatus(ctx context.Context, cardID string) (CardStatus, error) {
	var (
		st  CardStatus
		err error
	)
	if st.Learned, err = e.learned.IsMember(ctx, cardID); err != nil {
		return CardStatus{}, err
	}
	if st.Unuseful, err = e.unuseful.IsMember(ctx, cardID); err != nil {
		return CardStatus{}, err
	}
	if st.Favorite, err = e.favorites.IsMember(ctx, cardID); err != nil {
		return CardStatus{}, err
	}
	item, inReview, err := e.reviews.Get(ctx, cardID)
	if err != nil {
		return CardStatus{}, err
	}
	if inReview {
		st.InReview = true
		st.Stage = item.Stage
		st.NextDueAt = item.NextDueAt
		st.Due = item.IsDue(e.now())
	}
	seen, err := e.seen.IsSeen(ctx, cardID, e.Settings().LangValue())
	if err != nil {
		return CardStatus{}, err
	}
	st.IsNew = !seen
	return st, nil
}

func (e *Engine) MarkSupportUsed(ctx context.Context) error {
	return e.support.MarkUsed(ctx)
}

func (e *Engine) applySettings(ctx context.Context, fn func(context.Context) (models.UISettings, error)) (models.UISettings, error) {
	s, err := fn(ctx)
	if err != nil {
		return models.UISettings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	e.update(func(st *State) { st.Settings = s })
	return s, nil
}

func (e *Engine) ToggleTextScale(ctx context.Context) (models.UISettings, error) {
	return e.applySettings(ctx, e.settings.ToggleTextScale)
}

func (e *Engine) ToggleFocusMode(ctx context.Context) (models.UISettings, error) {
	return e.applySettings(ctx, e.settings.ToggleFocusMode)
}

func (e *Engine) ToggleContinuousReading(ctx context.Context) (models.UISettings, error) {
	return e.applySettings(ctx, e.settings.ToggleContinuousReading)
}

func (e *Engine) ToggleGestures(ctx context.Context) (models.UISettings, error) {
	return e.applySettings(ctx, e.settings.ToggleGestures)
}

func (e *Engine) ToggleDarkMode(ctx context.Context) (models.UISettings, error) {
	return e.applySettings(ctx, e.settings.ToggleDarkMode)
}

func (e *Engine) MarkHelpSeen(ctx context.Context) (models.UISettings, error) {
	return e.applySettings(ctx, e.settings.MarkHelpSeen)
}

func (e *Engine) MarkGestureHintSeen(ctx context.Context) (models.UISettings, error) {
	return e.applySettings(ctx, e.settings.MarkGestureHintSeen)
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/lessfeed/internal/content"
	"github.com/julianstephens/lessfeed/internal/feed"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/scheduler"
	"github.com/julianstephens/lessfeed/internal/settings"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/tracker"
)

var testNow = time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)

func makeCards(n int) []models.Card {
	inputs := make([]models.CardInput, 0, n)
	for i := 1; i <= n; i++ {
		inputs = append(inputs, models.CardInput{
			ID:      fmt.Sprintf("card-%02d", i),
			Title:   fmt.Sprintf("Card %d", i),
			Hook:    "hook",
			Bullets: []string{"point"},
			Why:     "why",
		})
	}
	return models.BuildCards(inputs)
}

type testEnv struct {
	store  storage.Provider
	engine *feed.Engine
	clock  time.Time
}

func (env *testEnv) now() time.Time { return env.clock }

func newTestModel(t *testing.T) (Model, *testEnv) {
	t.Helper()
	env := &testEnv{store: storage.NewMemoryStore(), clock: testNow}

	source := content.SourceFunc(func(context.Context, models.Lang) ([]models.Card, error) {
		return makeCards(5), nil
	})
	repo := content.NewRepository(source, content.NewCache(env.store, content.WithCacheClock(env.now)))
	env.engine = feed.New(env.store, repo, feed.WithClock(env.now))
	t.Cleanup(func() { _ = env.engine.Close() })

	m := NewModel(context.Background(), env.engine)
	// Tests pull engine changes explicitly with sync.
	m.updates = nil
	m.now = env.now

	m = run(t, m, m.start())
	return m, env
}

// run executes cmd and feeds the resulting messages back into m.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil, tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = run(t, m, c)
		}
		return m
	default:
		next, cmd := m.Update(msg)
		return run(t, next.(Model), cmd)
	}
}

func sync(t *testing.T, m Model) Model {
	t.Helper()
	return run(t, m, func() tea.Msg { return stateMsg{} })
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return run(t, next.(Model), cmd)
}

func TestStartShowsFirstCard(t *testing.T) {
	m, _ := newTestModel(t)

	if len(m.feed.Items) != 5 {
		t.Fatalf("items = %d, want 5", len(m.feed.Items))
	}
	if m.visibleID != "card-01" {
		t.Errorf("visible = %q, want card-01", m.visibleID)
	}
	if m.status == nil || m.statusFor != "card-01" {
		t.Errorf("status for card-01 not loaded: %+v", m.status)
	}

	m.width, m.height = 100, 40
	if view := m.View(); !strings.Contains(view, "Card 1") {
		t.Errorf("view does not show the first card:\n%s", view)
	}
}

func TestNavigationReportsViewDuration(t *testing.T) {
	m, env := newTestModel(t)
	ctx := context.Background()

	m = press(t, m, "r")
	if m.status == nil || !m.status.InReview {
		t.Fatalf("card-01 should be in review, status = %+v", m.status)
	}

	env.clock = testNow.Add(10 * time.Second)
	m = press(t, m, "j")
	if m.visibleID == "card-01" || m.visibleID == "" {
		t.Fatalf("visible = %q, want the next card", m.visibleID)
	}

	item, ok, err := scheduler.New(env.store, scheduler.WithClock(env.now)).Get(ctx, "card-01")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if item.Stage != 1 {
		t.Errorf("stage = %d, want 1 after a 10s view", item.Stage)
	}

	m = press(t, m, "k")
	if m.visibleID != "card-01" {
		t.Errorf("visible = %q, want card-01 after prev", m.visibleID)
	}
}

func TestLearnedAdvancesAndUndo(t *testing.T) {
	m, env := newTestModel(t)
	ctx := context.Background()
	learned := tracker.NewLearned(env.store)

	m = press(t, m, "l")
	if on, _ := learned.IsMember(ctx, "card-01"); !on {
		t.Fatal("card-01 should be learned")
	}
	if m.visibleID == "card-01" || m.visibleID == "" {
		t.Errorf("visible = %q, want the next card after learning the current one", m.visibleID)
	}
	if m.feed.Undo == nil || m.feed.Undo.CardID != "card-01" {
		t.Fatalf("undo toast = %+v, want card-01", m.feed.Undo)
	}
	if !strings.Contains(m.viewFooter(), "undo") {
		t.Errorf("footer = %q, want an undo hint", m.viewFooter())
	}

	m = press(t, m, "u")
	m = sync(t, m)
	if on, _ := learned.IsMember(ctx, "card-01"); on {
		t.Error("undo should remove card-01 from learned")
	}
	if m.feed.Undo != nil {
		t.Error("undo toast should be gone")
	}
}

func TestFavoriteOnSentinelIsIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m.feed.Items = []models.FeedItem{models.SystemItem{Card: models.SystemCardFor(models.LangEN)}}
	m.feed.CurrentIndex = 0
	if cmd := m.toggle(feed.ToggleFavorite); cmd != nil {
		t.Error("toggles on the system card should be ignored")
	}
}

func TestModeAndLanguageKeys(t *testing.T) {
	m, env := newTestModel(t)
	ctx := context.Background()

	m = press(t, m, "tab")
	m = sync(t, m)
	s, err := settings.New(env.store).Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Mode() != models.ListModeDaily {
		t.Errorf("mode = %s, want daily after feed", s.Mode())
	}

	m = press(t, m, "g")
	m = sync(t, m)
	s, err = settings.New(env.store).Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.LangValue() != models.LangES {
		t.Errorf("lang = %s, want es after en", s.Lang)
	}
	if m.feed.Settings.LangValue() != models.LangES {
		t.Errorf("model lang = %s, want es", m.feed.Settings.Lang)
	}
}

func TestDailyRitualCompletionDialog(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "d")
	m = sync(t, m)
	if m.visibleID != "daily_opening" {
		t.Fatalf("visible = %q, want the opening card", m.visibleID)
	}

	for range len(m.feed.Items) - 1 {
		m = press(t, m, "j")
	}
	m = sync(t, m)
	if !m.feed.ShowDailyCompletion {
		t.Fatalf("daily completion should show, progress = %+v", m.feed.Daily)
	}
	if view := m.viewReading(); !strings.Contains(view, "Daily ritual complete") {
		t.Errorf("view = %q, want the completion dialog", view)
	}

	m = press(t, m, "j")
	if !m.feed.ShowDailyCompletion {
		t.Error("other keys should not dismiss the dialog")
	}
	m = press(t, m, "enter")
	if m.feed.ShowDailyCompletion {
		t.Error("enter should dismiss the completion dialog")
	}
}

func TestFeedbackForm(t *testing.T) {
	m, env := newTestModel(t)

	m = press(t, m, "!")
	if m.state != StateFeedback || m.form == nil {
		t.Fatalf("state = %v, want the feedback form", m.state)
	}
	if m.feedbackForm.CardID != "card-01" {
		t.Errorf("feedback card = %q, want card-01", m.feedbackForm.CardID)
	}

	m = press(t, m, "esc")
	if m.state != StateReading || m.form != nil {
		t.Errorf("esc should close the form, state = %v", m.state)
	}

	m = run(t, m, m.submitFeedback(FeedbackFormModel{CardID: "card-01", Kind: models.FeedbackWrong, Message: "outdated"}))
	items, err := tracker.NewFeedbackQueue(env.store).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Kind != models.FeedbackWrong || items[0].CardID != "card-01" {
		t.Errorf("queue = %+v, want one wrong report for card-01", items)
	}
	if m.notice == "" {
		t.Error("a confirmation notice should be shown")
	}
}

func TestSettingsView(t *testing.T) {
	m, env := newTestModel(t)

	m = press(t, m, "s")
	if m.state != StateSettings {
		t.Fatalf("state = %v, want settings", m.state)
	}

	m = press(t, m, "n")
	m = sync(t, m)
	s, err := settings.New(env.store).Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !s.DarkMode {
		t.Error("n should toggle dark mode")
	}

	m = press(t, m, "esc")
	if m.state != StateReading {
		t.Errorf("state = %v, want reading after esc", m.state)
	}
}

func TestQuitRecordsViewDuration(t *testing.T) {
	m, env := newTestModel(t)

	m = press(t, m, "r")
	env.clock = testNow.Add(20 * time.Second)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)
	if cmd == nil || !m.quitting {
		t.Fatal("q should quit")
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}

	item, ok, err := scheduler.New(env.store, scheduler.WithClock(env.now)).Get(context.Background(), "card-01")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if item.Stage != 1 {
		t.Errorf("stage = %d, want 1 after quitting on a reviewed card", item.Stage)
	}
}

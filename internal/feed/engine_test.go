package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julianstephens/lessfeed/internal/analytics"
	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/content"
	apperrors "github.com/julianstephens/lessfeed/internal/errors"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/storage"
)

type fakeSource struct {
	mu    sync.Mutex
	cards map[models.Lang][]models.Card
	err   error
	calls atomic.Int32
}

func (f *fakeSource) FetchCards(_ context.Context, lang models.Lang) ([]models.Card, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.cards[lang], nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type testEnv struct {
	store  storage.Provider
	source *fakeSource
	cache  *content.Cache
	engine *Engine
	now    time.Time
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  storage.NewMemoryStore(),
		source: &fakeSource{cards: map[models.Lang][]models.Card{models.LangEN: makeCards(10), models.LangFR: makeCards(4)}},
		now:    testNow,
	}
	clock := func() time.Time { return env.now }
	env.cache = content.NewCache(env.store, content.WithCacheClock(clock))
	repo := content.NewRepository(env.source, env.cache)

	opts = append([]Option{WithClock(clock)}, opts...)
	env.engine = New(env.store, repo, opts...)
	t.Cleanup(func() { _ = env.engine.Close() })
	return env
}

func (env *testEnv) start(t *testing.T) {
	t.Helper()
	if err := env.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	env.engine.Wait()
}

func TestEngineStartLoadsFeed(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)

	st := env.engine.State()
	if len(st.Items) != 10 {
		t.Fatalf("got %d items, want 10", len(st.Items))
	}
	if st.Loading || st.SlowHint || st.Err != nil {
		t.Errorf("state after load = %+v", st)
	}
	if _, _, ok := env.engine.content.Cached(context.Background(), models.LangEN); !ok {
		t.Error("successful fetch was not cached")
	}
}

func TestEngineServesFreshCacheAndRefreshesInBackground(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.cache.Save(ctx, models.LangEN, makeCards(3)); err != nil {
		t.Fatal(err)
	}

	if err := env.engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	env.engine.Wait()

	if env.source.calls.Load() != 1 {
		t.Errorf("source called %d times, want 1 background refresh", env.source.calls.Load())
	}
	if n := len(env.engine.State().Items); n != 10 {
		t.Errorf("items after background refresh = %d, want 10", n)
	}
}

func TestEngineFallsBackToStaleCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.cache.Save(ctx, models.LangEN, makeCards(3))
	env.now = env.now.Add(48 * time.Hour)
	env.source.setErr(errors.New("offline"))

	env.start(t)
	st := env.engine.State()
	if len(st.Items) != 3 || st.Err != nil {
		t.Errorf("state = %d items, err %v; want cached cards", len(st.Items), st.Err)
	}
}

func TestEngineBackgroundFailureKeepsCards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.cache.Save(ctx, models.LangEN, makeCards(3))
	env.source.setErr(errors.New("offline"))

	env.start(t)
	if st := env.engine.State(); len(st.Items) != 3 || st.Err != nil {
		t.Errorf("state = %d items, err %v", len(st.Items), st.Err)
	}
}

func TestEngineNoData(t *testing.T) {
	env := newTestEnv(t)
	env.source.setErr(errors.New("offline"))

	err := env.engine.Start(context.Background())
	if !errors.Is(err, apperrors.ErrNoData) {
		t.Fatalf("Start() error = %v, want ErrNoData", err)
	}
	if st := env.engine.State(); !errors.Is(st.Err, apperrors.ErrNoData) || len(st.Items) != 0 {
		t.Errorf("state = %+v", st)
	}
}

type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) FetchCards(ctx context.Context, _ models.Lang) ([]models.Card, error) {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return makeCards(2), nil
}

func TestEngineRejectsOverlappingLoads(t *testing.T) {
	store := storage.NewMemoryStore()
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	e := New(store, content.NewRepository(src, content.NewCache(store)), WithSlowHintDelay(10*time.Millisecond))
	defer e.Close()

	done := make(chan error, 1)
	go func() { done <- e.Load(context.Background(), true) }()
	<-src.started

	if err := e.Load(context.Background(), true); !errors.Is(err, apperrors.ErrAlreadyLoading) {
		t.Errorf("second Load() error = %v, want ErrAlreadyLoading", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !e.State().SlowHint {
		if time.Now().After(deadline) {
			t.Fatal("slow hint never raised")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(src.release)
	if err := <-done; err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	st := e.State()
	if st.SlowHint || st.Loading || len(st.Items) != 2 {
		t.Errorf("state after load = %+v", st)
	}
}

func TestEngineToggleLearnedAdvancesAndOffersUndo(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	ctx := context.Background()
	e := env.engine

	if err := e.CardBecameVisible(ctx, "card-03"); err != nil {
		t.Fatal(err)
	}
	on, err := e.ToggleLearned(ctx, "card-03")
	if err != nil || !on {
		t.Fatalf("ToggleLearned() = %v, %v", on, err)
	}

	st := e.State()
	if models.IndexOf(st.Items, "card-03") >= 0 {
		t.Error("learned card still in Feed")
	}
	if cur, _ := st.Current(); cur.ID() != "card-04" {
		t.Errorf("current = %s, want card-04", cur.ID())
	}
	if st.Undo == nil || st.Undo.Kind != ToggleLearned || st.Undo.CardID != "card-03" {
		t.Fatalf("undo toast = %+v", st.Undo)
	}
	if st.LearnedCount != 1 {
		t.Errorf("LearnedCount = %d", st.LearnedCount)
	}

	undone, err := e.Undo(ctx)
	if err != nil || !undone {
		t.Fatalf("Undo() = %v, %v", undone, err)
	}
	st = e.State()
	if models.IndexOf(st.Items, "card-03") != 2 {
		t.Errorf("undone card back at %d, want 2", models.IndexOf(st.Items, "card-03"))
	}
	if st.Undo != nil {
		t.Error("undo toast still shown")
	}
	if undone, _ := e.Undo(ctx); undone {
		t.Error("second Undo() reported work")
	}

	pending := e.Analytics().Pending()
	var learned int
	for _, ev := range pending {
		if ev.Type == analytics.EventLearned {
			learned += ev.Count
		}
	}
	if learned != 1 {
		t.Errorf("learned events = %d, want 1", learned)
	}
}

func TestEngineUndoToastExpires(t *testing.T) {
	env := newTestEnv(t, WithUndoDuration(20*time.Millisecond))
	env.start(t)
	ctx := context.Background()

	if _, err := env.engine.ToggleUnuseful(ctx, "card-01"); err != nil {
		t.Fatal(err)
	}
	if env.engine.State().Undo == nil {
		t.Fatal("no undo toast")
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.engine.State().Undo != nil {
		if time.Now().After(deadline) {
			t.Fatal("undo toast never expired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEngineFavoriteHasNoUndo(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	ctx := context.Background()

	on, err := env.engine.ToggleFavorite(ctx, "card-01")
	if err != nil || !on {
		t.Fatalf("ToggleFavorite() = %v, %v", on, err)
	}
	if env.engine.State().Undo != nil {
		t.Error("favorite raised an undo toast")
	}

	if err := env.engine.SetListMode(ctx, models.ListModeFavorites); err != nil {
		t.Fatal(err)
	}
	if ids := itemIDs(env.engine.State().Items); len(ids) != 1 || ids[0] != "card-01" {
		t.Errorf("favorites feed = %v", ids)
	}
	if _, err := env.engine.ToggleFavorite(ctx, "card-01"); err != nil {
		t.Fatal(err)
	}
	if n := len(env.engine.State().Items); n != 0 {
		t.Errorf("favorites feed after removal has %d items", n)
	}
}

func TestEngineRejectsSentinelToggles(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	if _, err := env.engine.ToggleLearned(context.Background(), constants.SystemCardID); err == nil {
		t.Error("toggling the support card succeeded")
	}
}

func TestEngineInjectsSupportCardAfterEightViews(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	ctx := context.Background()
	e := env.engine

	for i, c := range makeCards(8) {
		if err := e.CardBecameVisible(ctx, c.ID); err != nil {
			t.Fatal(err)
		}
		idx := models.IndexOf(e.State().Items, constants.SystemCardID)
		if i < 7 && idx >= 0 {
			t.Fatalf("support card injected after %d views", i+1)
		}
		if i == 7 && idx != 8 {
			t.Fatalf("support card at %d after 8 views, want 8", idx)
		}
	}

	injected, err := e.support.WasInjectedToday(ctx)
	if err != nil || !injected {
		t.Errorf("daily injection flag = %v, %v", injected, err)
	}

	// The next rebuild of the same session does not insert it again.
	if _, err := e.ToggleFavorite(ctx, "card-01"); err != nil {
		t.Fatal(err)
	}
	if idx := models.IndexOf(e.State().Items, constants.SystemCardID); idx >= 0 {
		t.Errorf("support card reinserted at %d after a toggle", idx)
	}

	// A new session the same day does not inject again.
	if err := e.SetLang(ctx, models.LangFR); err != nil {
		t.Fatal(err)
	}
	if err := e.SetLang(ctx, models.LangEN); err != nil {
		t.Fatal(err)
	}
	e.Wait()
	for _, c := range makeCards(10) {
		_ = e.CardBecameVisible(ctx, c.ID)
	}
	if idx := models.IndexOf(e.State().Items, constants.SystemCardID); idx >= 0 {
		t.Errorf("support card injected twice in one day at %d", idx)
	}
}

func TestEngineDailyRitual(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	ctx := context.Background()
	e := env.engine

	if err := e.EnterDailyMode(ctx); err != nil {
		t.Fatal(err)
	}
	st := e.State()
	if len(st.Items) != 6 || st.CurrentIndex != 0 {
		t.Fatalf("daily feed = %v at %d", itemIDs(st.Items), st.CurrentIndex)
	}
	if st.Daily.Total != 4 || st.Daily.Viewed != 0 || st.Daily.Complete {
		t.Errorf("initial progress = %+v", st.Daily)
	}

	completions := 0
	for _, it := range st.Items {
		if err := e.CardBecameVisible(ctx, it.ID()); err != nil {
			t.Fatal(err)
		}
		if e.State().ShowDailyCompletion {
			completions++
			e.DismissDailyCompletion()
		}
	}
	st = e.State()
	if completions != 1 || !st.Daily.Complete || st.Daily.Viewed != 4 {
		t.Errorf("completions = %d, progress = %+v", completions, st.Daily)
	}
	if st.Streak != 1 {
		t.Errorf("streak = %d, want 1", st.Streak)
	}

	// Coming back later the same day starts visible progress over.
	if err := e.EnterDailyMode(ctx); err != nil {
		t.Fatal(err)
	}
	st = e.State()
	if st.Daily.Viewed != 0 || !st.Daily.Complete {
		t.Errorf("re-entered progress = %+v", st.Daily)
	}
	for _, it := range st.Items {
		_ = e.CardBecameVisible(ctx, it.ID())
	}
	if e.State().ShowDailyCompletion {
		t.Error("completion shown twice in one day")
	}
	if s, _ := e.streak.Current(ctx); s != 1 {
		t.Errorf("stored streak = %d, want 1", s)
	}
}

func TestEngineViewDurationFeedsReview(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	ctx := context.Background()
	e := env.engine

	if _, err := e.ToggleReview(ctx, "card-02"); err != nil {
		t.Fatal(err)
	}
	env.now = env.now.Add(time.Minute)
	if err := e.CardViewDuration(ctx, "card-02", 7*time.Second); err != nil {
		t.Fatal(err)
	}

	status, err := e.CardStatus(ctx, "card-02")
	if err != nil {
		t.Fatal(err)
	}
	if !status.InReview || status.Stage != 1 {
		t.Errorf("status = %+v, want stage 1", status)
	}
	if want := env.now.Add(3 * 24 * time.Hour); !status.NextDueAt.Equal(want) {
		t.Errorf("NextDueAt = %v, want %v", status.NextDueAt, want)
	}
	if !status.IsNew {
		t.Error("unviewed card not reported as new")
	}
}

func TestEngineCardStatusReadsUnuseful(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	ctx := context.Background()

	if _, err := env.engine.ToggleUnuseful(ctx, "card-05"); err != nil {
		t.Fatal(err)
	}
	status, err := env.engine.CardStatus(ctx, "card-05")
	if err != nil {
		t.Fatal(err)
	}
	if !status.Unuseful || status.Learned {
		t.Errorf("status = %+v", status)
	}
}

func TestEngineSetLangResetsSession(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	ctx := context.Background()
	e := env.engine

	_ = e.CardBecameVisible(ctx, "card-01")
	old := e.session

	if err := e.SetLang(ctx, models.LangFR); err != nil {
		t.Fatal(err)
	}
	e.Wait()
	st := e.State()
	if st.Settings.Lang != "fr" || len(st.Items) != 4 {
		t.Errorf("after SetLang: lang %s, %d items", st.Settings.Lang, len(st.Items))
	}
	if e.session == old || e.session.UniqueViews() != 0 {
		t.Error("session not reset on language change")
	}
}

func TestEngineSettingsToggles(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	ctx := context.Background()

	s, err := env.engine.ToggleContinuousReading(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.ContinuousReading != env.engine.State().Settings.ContinuousReading {
		t.Error("state settings out of sync")
	}
	if s.ContinuousReading == models.DefaultSettings().ContinuousReading {
		t.Error("continuous reading not toggled")
	}
}

func TestEngineUpdatesSignal(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)

	// Drain any pending signal, then expect a new one.
	select {
	case <-env.engine.Updates():
	default:
	}
	env.engine.Next()
	select {
	case <-env.engine.Updates():
	case <-time.After(time.Second):
		t.Fatal("no update signal")
	}

	if err := env.engine.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-env.engine.Updates(); ok {
		t.Error("updates channel open after Close")
	}
	if err := env.engine.Load(context.Background(), false); !errors.Is(err, ErrClosed) {
		t.Errorf("Load() after Close = %v", err)
	}
}

func TestEngineSubmitFeedback(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	ctx := context.Background()

	item, err := env.engine.SubmitFeedback(ctx, "card-01", models.FeedbackTypo, "typo in title")
	if err != nil {
		t.Fatal(err)
	}
	queue, err := env.engine.FeedbackQueue(ctx)
	if err != nil || len(queue) != 1 || queue[0].ID != item.ID {
		t.Errorf("queue = %+v, %v", queue, err)
	}
}

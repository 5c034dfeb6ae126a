package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/storage"
)

type recordingSink struct {
	mu   sync.Mutex
	sent []Event
	fail map[string]bool
}

func (s *recordingSink) Send(_ context.Context, e Event) error {
	if s.fail[e.CardID] {
		return errors.New("unavailable")
	}
	s.mu.Lock()
	s.sent = append(s.sent, e)
	s.mu.Unlock()
	return nil
}

func TestTrackAggregates(t *testing.T) {
	tr := NewTracker(storage.NewMemoryStore(), nil)
	tr.Track("c1", EventView, models.LangFR)
	tr.Track("c1", EventView, models.LangFR)
	tr.Track("c1", EventView, models.LangEN)
	tr.Track("c2", EventLearned, models.LangFR)
	tr.Track(constants.SystemCardID, EventView, models.LangFR)
	tr.Track(constants.OpeningCardID, EventView, models.LangFR)

	got := tr.Pending()
	want := []Event{
		{CardID: "c1", Type: EventView, Lang: "en", Count: 1},
		{CardID: "c1", Type: EventView, Lang: "fr", Count: 2},
		{CardID: "c2", Type: EventLearned, Lang: "fr", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Pending() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Pending()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFlushRequeuesFailures(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sink := &recordingSink{fail: map[string]bool{"bad": true}}
	tr := NewTracker(store, sink, WithConcurrency(2))

	tr.Track("c1", EventView, models.LangFR)
	tr.Track("c2", EventReview, models.LangFR)
	tr.Track("bad", EventFavorite, models.LangEN)
	tr.Track("bad", EventFavorite, models.LangEN)

	res, err := tr.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if res.Sent != 2 || res.Failed != 1 {
		t.Errorf("Flush() = %+v", res)
	}
	if len(sink.sent) != 2 {
		t.Errorf("sink received %d events", len(sink.sent))
	}

	pending := tr.Pending()
	if len(pending) != 1 || pending[0].CardID != "bad" || pending[0].Count != 2 {
		t.Errorf("pending after flush = %v", pending)
	}

	// The remainder is persisted and picked up by a fresh tracker.
	reloaded := NewTracker(store, sink)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if p := reloaded.Pending(); len(p) != 1 || p[0].Count != 2 {
		t.Errorf("reloaded pending = %v", p)
	}
}

func TestFlushClearsStoreWhenEverythingSent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	tr := NewTracker(store, &recordingSink{})
	tr.Track("c1", EventView, models.LangFR)
	if err := tr.Save(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := tr.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, constants.KeyPendingAnalytics); ok {
		t.Error("pending analytics still stored after a clean flush")
	}
}

func TestLoadMergesAndSkipsMalformedKeys(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_ = storage.SetJSON(ctx, store, constants.KeyPendingAnalytics, map[string]int{
		"c1|view|fr": 3,
		"broken":     5,
		"c2|view|fr": 0,
	})

	tr := NewTracker(store, nil)
	tr.Track("c1", EventView, models.LangFR)
	if err := tr.Load(ctx); err != nil {
		t.Fatal(err)
	}
	p := tr.Pending()
	if len(p) != 1 || p[0].Count != 4 {
		t.Errorf("Pending() = %v", p)
	}
}

func TestCardIDsWithSeparatorSurvive(t *testing.T) {
	tests := []struct {
		name   string
		cardID string
	}{
		{name: "plain id", cardID: "c1"},
		{name: "one separator", cardID: "deck|c1"},
		{name: "trailing separator", cardID: "c1|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			tr := NewTracker(store, nil)
			tr.Track(tt.cardID, EventFavorite, models.LangES)
			if err := tr.Save(ctx); err != nil {
				t.Fatal(err)
			}

			reloaded := NewTracker(store, nil)
			if err := reloaded.Load(ctx); err != nil {
				t.Fatal(err)
			}
			want := Event{CardID: tt.cardID, Type: EventFavorite, Lang: "es", Count: 1}
			for _, p := range [][]Event{tr.Pending(), reloaded.Pending()} {
				if len(p) != 1 || p[0] != want {
					t.Errorf("Pending() = %v, want [%v]", p, want)
				}
			}
		})
	}
}

type fakeRPC struct {
	function string
	params   any
}

func (f *fakeRPC) RPC(_ context.Context, function string, params any) error {
	f.function, f.params = function, params
	return nil
}

func TestSupabaseSink(t *testing.T) {
	rpc := &fakeRPC{}
	err := NewSupabaseSink(rpc).Send(context.Background(), Event{CardID: "c1", Type: EventView, Lang: "fr", Count: 3})
	if err != nil {
		t.Fatal(err)
	}
	if rpc.function != "upsert_analytics" {
		t.Errorf("function = %q", rpc.function)
	}
	p, ok := rpc.params.(upsertParams)
	if !ok || p.CardID != "c1" || p.EventType != "view" || p.Lang != "fr" || p.Count != 3 {
		t.Errorf("params = %#v", rpc.params)
	}
}

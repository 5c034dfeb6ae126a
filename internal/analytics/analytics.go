// Package analytics aggregates anonymous per-card event counts and flushes
// them to a sink.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/storage"
)

type EventType string

const (
	EventView     EventType = "view"
	EventLearned  EventType = "learned"
	EventUnuseful EventType = "unuseful"
	EventFavorite EventType = "favorite"
	EventReview   EventType = "review"
)

const defaultFlushConcurrency = 4

// Event is an aggregated count for one card, event type and language.
type Event struct {
	CardID string    `json:"card_id"`
	Type   EventType `json:"event_type"`
	Lang   string    `json:"lang"`
	Count  int       `json:"count"`
}

// key is "card|event|lang". Event types and language codes never contain
// '|', so card ids may.
func (e Event) key() string {
	return e.CardID + "|" + string(e.Type) + "|" + e.Lang
}

func parseKey(key string, count int) (Event, bool) {
	rest, lang, ok := cutLast(key, "|")
	if !ok {
		return Event{}, false
	}
	cardID, typ, ok := cutLast(rest, "|")
	if !ok || cardID == "" || typ == "" || count <= 0 {
		return Event{}, false
	}
	return Event{CardID: cardID, Type: EventType(typ), Lang: lang, Count: count}, true
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// Sink delivers one aggregated event.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Tracker counts events in memory until they are flushed. Pending counts
// survive restarts through the store.
type Tracker struct {
	store       storage.Provider
	sink        Sink
	concurrency int

	mu      sync.Mutex
	pending map[string]int
}

type Option func(*Tracker)

// WithConcurrency bounds how many events Flush sends at once.
func WithConcurrency(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

func NewTracker(store storage.Provider, sink Sink, opts ...Option) *Tracker {
	if sink == nil {
		sink = NopSink{}
	}
	t := &Tracker{
		store:       store,
		sink:        sink,
		concurrency: defaultFlushConcurrency,
		pending:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track counts one event. Events for the system and opening cards are dropped.
func (t *Tracker) Track(cardID string, typ EventType, lang models.Lang) {
	if cardID == "" || models.IsSentinelID(cardID) {
		return
	}
	key := Event{CardID: cardID, Type: typ, Lang: lang.Code()}.key()
	t.mu.Lock()
	t.pending[key]++
	t.mu.Unlock()
	logger.Debug("Tracked event", "key", key)
}

// Pending returns the events waiting to be sent, sorted by key.
func (t *Tracker) Pending() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return eventsOf(t.pending)
}

// Load merges the persisted pending counts into memory. A corrupt entry is
// discarded.
func (t *Tracker) Load(ctx context.Context) error {
	var stored map[string]int
	if _, err := storage.GetJSON(ctx, t.store, constants.KeyPendingAnalytics, &stored); err != nil {
		return err
	}
	t.mu.Lock()
	for k, v := range stored {
		if _, ok := parseKey(k, v); ok {
			t.pending[k] += v
		}
	}
	t.mu.Unlock()
	logger.Debug("Loaded pending analytics", "count", len(stored))
	return nil
}

// Save persists the pending counts, replacing what was stored.
func (t *Tracker) Save(ctx context.Context) error {
	t.mu.Lock()
	snapshot := make(map[string]int, len(t.pending))
	for k, v := range t.pending {
		snapshot[k] = v
	}
	t.mu.Unlock()

	if len(snapshot) == 0 {
		return t.store.Remove(ctx, constants.KeyPendingAnalytics)
	}
	return storage.SetJSON(ctx, t.store, constants.KeyPendingAnalytics, snapshot)
}

// FlushResult summarizes a Flush.
type FlushResult struct {
	Sent   int
	Failed int
}

// Flush sends every pending event through the sink. Failed events go back
// into the pending counts, and the remainder is persisted.
func (t *Tracker) Flush(ctx context.Context) (FlushResult, error) {
	t.mu.Lock()
	batch := eventsOf(t.pending)
	t.pending = make(map[string]int)
	t.mu.Unlock()

	if len(batch) == 0 {
		logger.Debug("No analytics to flush")
		return FlushResult{}, t.Save(ctx)
	}

	var (
		mu     sync.Mutex
		failed []Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for _, e := range batch {
		g.Go(func() error {
			if err := t.sink.Send(gctx, e); err != nil {
				logger.Warn("Failed to send analytics event", "key", e.key(), "error", err)
				mu.Lock()
				failed = append(failed, e)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	t.mu.Lock()
	for _, e := range failed {
		t.pending[e.key()] += e.Count
	}
	t.mu.Unlock()

	res := FlushResult{Sent: len(batch) - len(failed), Failed: len(failed)}
	if err := t.Save(ctx); err != nil {
		return res, fmt.Errorf("failed to save pending analytics: %w", err)
	}
	logger.Info("Flushed analytics", "sent", res.Sent, "failed", res.Failed)
	return res, nil
}

func eventsOf(counts map[string]int) []Event {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	events := make([]Event, 0, len(keys))
	for _, k := range keys {
		if e, ok := parseKey(k, counts[k]); ok {
			events = append(events, e)
		}
	}
	return events
}

// String renders the event the way it is keyed in the store.
func (e Event) String() string {
	return e.key() + " x" + strconv.Itoa(e.Count)
}

package feed

import (
	"sync"
	"time"

	"github.com/julianstephens/lessfeed/internal/models"
)

// Session is the in-memory state of one reading session. It is replaced on a
// language change and never persisted.
type Session struct {
	mu sync.Mutex

	orderMode models.ListMode
	order     map[string]int
	hasOrder  bool

	durations map[string]time.Duration
	viewed    map[string]struct{}
	injected  bool
}

func NewSession() *Session {
	return &Session{
		order:     make(map[string]int),
		durations: make(map[string]time.Duration),
		viewed:    make(map[string]struct{}),
	}
}

// AddViewDuration accumulates d for id and returns the new total.
func (s *Session) AddViewDuration(id string, d time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.durations[id] += d
	}
	return s.durations[id]
}

func (s *Session) ViewDuration(id string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durations[id]
}

// MarkViewed records a distinct view and reports whether id is new.
func (s *Session) MarkViewed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.viewed[id]; ok {
		return false
	}
	s.viewed[id] = struct{}{}
	return true
}

// UniqueViews is the number of distinct content cards viewed.
func (s *Session) UniqueViews() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewed)
}

func (s *Session) Injected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.injected
}

func (s *Session) MarkInjected() {
	s.mu.Lock()
	s.injected = true
	s.mu.Unlock()
}

// InvalidateOrder drops the cached order so the next composition sorts by score.
func (s *Session) InvalidateOrder() {
	s.mu.Lock()
	s.hasOrder = false
	s.order = make(map[string]int)
	s.mu.Unlock()
}

// rank returns the cached position of every id for mode. Ids missing from the
// cache are appended in the given order so later compositions keep them put.
func (s *Session) rank(mode models.ListMode, ids []string) (map[string]int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasOrder || s.orderMode != mode {
		return nil, false
	}
	ranks := make(map[string]int, len(s.order))
	for id, pos := range s.order {
		ranks[id] = pos
	}
	next := len(s.order)
	for _, id := range ids {
		if _, ok := s.order[id]; !ok {
			s.order[id] = next
			next++
		}
	}
	return ranks, true
}

func (s *Session) setOrder(mode models.ListMode, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderMode = mode
	s.hasOrder = true
	s.order = make(map[string]int, len(ids))
	for i, id := range ids {
		s.order[id] = i
	}
}

// Package tracker persists per-card engagement: learned, unuseful, favorite
// and seen sets, the daily support flags and the feedback queue.
package tracker

import (
	"context"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/storage"
)

// Set is a persisted set of card ids under one key.
type Set struct {
	store storage.Provider
	key   string
}

func NewSet(store storage.Provider, key string) *Set {
	return &Set{store: store, key: key}
}

func NewLearned(store storage.Provider) *Set   { return NewSet(store, constants.KeyLearned) }
func NewUnuseful(store storage.Provider) *Set  { return NewSet(store, constants.KeyUnuseful) }
func NewFavorites(store storage.Provider) *Set { return NewSet(store, constants.KeyFavorites) }

// Key returns the storage key backing the set.
func (s *Set) Key() string { return s.key }

func (s *Set) Members(ctx context.Context) (map[string]struct{}, error) {
	return storage.GetSet(ctx, s.store, s.key)
}

func (s *Set) IsMember(ctx context.Context, id string) (bool, error) {
	return storage.IsMember(ctx, s.store, s.key, id)
}

// Toggle flips membership of id and returns the new state.
func (s *Set) Toggle(ctx context.Context, id string) (bool, error) {
	return storage.ToggleMember(ctx, s.store, s.key, id)
}

func (s *Set) Count(ctx context.Context) (int, error) {
	set, err := s.Members(ctx)
	if err != nil {
		return 0, err
	}
	return len(set), nil
}

// Seen tracks which cards were shown, separately per language.
type Seen struct {
	store storage.Provider
}

func NewSeen(store storage.Provider) *Seen {
	return &Seen{store: store}
}

func seenKey(lang models.Lang) string {
	return constants.KeyPrefixSeenCards + lang.Code()
}

func (s *Seen) Members(ctx context.Context, lang models.Lang) (map[string]struct{}, error) {
	return storage.GetSet(ctx, s.store, seenKey(lang))
}

func (s *Seen) IsSeen(ctx context.Context, id string, lang models.Lang) (bool, error) {
	return storage.IsMember(ctx, s.store, seenKey(lang), id)
}

// MarkSeen records id as seen in lang and reports whether it was new.
func (s *Seen) MarkSeen(ctx context.Context, id string, lang models.Lang) (bool, error) {
	added, err := storage.AddMembers(ctx, s.store, seenKey(lang), id)
	return added > 0, err
}

// Toggle flips the seen flag for id in lang.
func (s *Seen) Toggle(ctx context.Context, id string, lang models.Lang) (bool, error) {
	return storage.ToggleMember(ctx, s.store, seenKey(lang), id)
}

// Package validation checks the persisted lessfeed state for values the
// readers would silently discard, and repairs them on request.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/daily"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictCorruptValue    ConflictType = "corrupt_value"
	ConflictInvalidSettings ConflictType = "invalid_settings"
	ConflictInvalidReview   ConflictType = "invalid_review"
	ConflictInvalidDateKey  ConflictType = "invalid_date_key"
	ConflictInvalidDateTime ConflictType = "invalid_datetime"
	ConflictUnknownLanguage ConflictType = "unknown_language"
)

// Conflict represents one problem found in the store
type Conflict struct {
	Type        ConflictType
	Description string
	Key         string
	Items       []string // card ids involved, if any
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

// Validator inspects every key lessfeed owns.
type Validator struct {
	store storage.Provider
}

func New(store storage.Provider) *Validator {
	return &Validator{store: store}
}

var setKeys = []string{constants.KeyLearned, constants.KeyUnuseful, constants.KeyFavorites}

// Validate reads the store and reports every conflict found. Read errors are
// returned; undecodable values are conflicts.
func (v *Validator) Validate(ctx context.Context) (ValidationResult, error) {
	result := ValidationResult{Conflicts: []Conflict{}}
	add := func(c Conflict) { result.Conflicts = append(result.Conflicts, c) }

	keys, err := v.store.Keys(ctx, "")
	if err != nil {
		return result, fmt.Errorf("failed to list keys: %w", err)
	}

	for _, key := range keys {
		raw, ok, err := v.store.Get(ctx, key)
		if err != nil {
			return result, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		for _, c := range checkKey(key, raw) {
			add(c)
		}
	}

	sort.SliceStable(result.Conflicts, func(i, j int) bool {
		return result.Conflicts[i].Key < result.Conflicts[j].Key
	})
	return result, nil
}

func checkKey(key string, raw []byte) []Conflict {
	corrupt := func(err error) []Conflict {
		return []Conflict{{
			Type:        ConflictCorruptValue,
			Description: fmt.Sprintf("Key %s holds an unreadable value: %v", key, err),
			Key:         key,
		}}
	}

	switch {
	case key == constants.KeySettings:
		var s models.UISettings
		if err := json.Unmarshal(raw, &s); err != nil {
			return corrupt(err)
		}
		return checkSettings(key, s)

	case key == constants.KeyReviews:
		var reviews map[string]models.ReviewItem
		if err := json.Unmarshal(raw, &reviews); err != nil {
			return corrupt(err)
		}
		return checkReviews(key, reviews)

	case contains(setKeys, key):
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return corrupt(err)
		}

	case key == constants.KeyFeedbackQueue:
		var items []models.FeedbackItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return corrupt(err)
		}

	case key == constants.KeyPendingAnalytics:
		var counts map[string]int
		if err := json.Unmarshal(raw, &counts); err != nil {
			return corrupt(err)
		}

	case key == constants.KeyStreak:
		var st daily.StreakState
		if err := json.Unmarshal(raw, &st); err != nil {
			return corrupt(err)
		}
		if st.LastCompletionDate != "" {
			if _, err := utils.ParseDay(st.LastCompletionDate); err != nil {
				return []Conflict{{
					Type:        ConflictInvalidDateTime,
					Description: fmt.Sprintf("Streak has an invalid last completion date: %s", st.LastCompletionDate),
					Key:         key,
				}}
			}
		}
		if st.Current < 0 {
			return []Conflict{{
				Type:        ConflictCorruptValue,
				Description: fmt.Sprintf("Streak count is negative: %d", st.Current),
				Key:         key,
			}}
		}

	case key == constants.KeyDailyOpeningSeen, key == constants.KeySupportInjectedDay, key == constants.KeySupportUsedDay, key == constants.KeyReminderSentDay:
		if _, err := utils.ParseDay(string(raw)); err != nil {
			return []Conflict{{
				Type:        ConflictInvalidDateTime,
				Description: fmt.Sprintf("Key %s holds an invalid day: %q", key, string(raw)),
				Key:         key,
			}}
		}

	case strings.HasPrefix(key, constants.KeyPrefixCardsCache):
		if c, ok := checkLangSuffix(key, constants.KeyPrefixCardsCache); !ok {
			return []Conflict{c}
		}
		var cache models.CardsCache
		if err := json.Unmarshal(raw, &cache); err != nil {
			return corrupt(err)
		}

	case strings.HasPrefix(key, constants.KeyPrefixSeenCards):
		if c, ok := checkLangSuffix(key, constants.KeyPrefixSeenCards); !ok {
			return []Conflict{c}
		}
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return corrupt(err)
		}

	case strings.HasPrefix(key, constants.KeyPrefixDailyStarted), strings.HasPrefix(key, constants.KeyPrefixDailyCompleted):
		prefix := constants.KeyPrefixDailyStarted
		if strings.HasPrefix(key, constants.KeyPrefixDailyCompleted) {
			prefix = constants.KeyPrefixDailyCompleted
		}
		if c, ok := checkDateSuffix(key, prefix); !ok {
			return []Conflict{c}
		}
		if _, err := time.Parse(time.RFC3339Nano, string(raw)); err != nil {
			return []Conflict{{
				Type:        ConflictInvalidDateTime,
				Description: fmt.Sprintf("Key %s holds an invalid timestamp: %q", key, string(raw)),
				Key:         key,
			}}
		}

	case strings.HasPrefix(key, constants.KeyPrefixDailyViewed):
		if c, ok := checkDateSuffix(key, constants.KeyPrefixDailyViewed); !ok {
			return []Conflict{c}
		}
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return corrupt(err)
		}
	}
	return nil
}

func checkSettings(key string, s models.UISettings) []Conflict {
	normalized := s
	normalized.Normalize()
	if normalized == s {
		return nil
	}

	var fields []string
	if normalized.Lang != s.Lang {
		fields = append(fields, fmt.Sprintf("lang %q", s.Lang))
	}
	if normalized.ListMode != s.ListMode {
		fields = append(fields, fmt.Sprintf("list mode %q", s.ListMode))
	}
	if normalized.TextScale != s.TextScale {
		fields = append(fields, fmt.Sprintf("text scale %q", s.TextScale))
	}
	if normalized.NotificationHour != s.NotificationHour || normalized.NotificationMinute != s.NotificationMinute {
		fields = append(fields, fmt.Sprintf("notification time %d:%d", s.NotificationHour, s.NotificationMinute))
	}
	return []Conflict{{
		Type:        ConflictInvalidSettings,
		Description: fmt.Sprintf("Settings hold unsupported values: %s", strings.Join(fields, ", ")),
		Key:         key,
	}}
}

func checkReviews(key string, reviews map[string]models.ReviewItem) []Conflict {
	var bad []string
	for id, item := range reviews {
		if id == "" || models.IsSentinelID(id) || item.Stage < 0 || item.Stage > models.MaxReviewStage() || item.NextDueAt.IsZero() {
			bad = append(bad, id)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return []Conflict{{
		Type:        ConflictInvalidReview,
		Description: fmt.Sprintf("%d review entries have an invalid id, stage or due time: %v", len(bad), bad),
		Key:         key,
		Items:       bad,
	}}
}

func checkLangSuffix(key, prefix string) (Conflict, bool) {
	code := strings.TrimPrefix(key, prefix)
	for _, l := range models.Langs {
		if l.Code() == code {
			return Conflict{}, true
		}
	}
	return Conflict{
		Type:        ConflictUnknownLanguage,
		Description: fmt.Sprintf("Key %s is for unsupported language %q", key, code),
		Key:         key,
	}, false
}

func checkDateSuffix(key, prefix string) (Conflict, bool) {
	day := strings.TrimPrefix(key, prefix)
	if _, err := utils.ParseDay(day); err != nil {
		return Conflict{
			Type:        ConflictInvalidDateKey,
			Description: fmt.Sprintf("Key %s has an invalid date suffix %q", key, day),
			Key:         key,
		}, false
	}
	return Conflict{}, true
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// AutoFix repairs conflicts: settings are normalized, invalid review entries
// are dropped, everything else is removed so readers fall back to defaults.
func (v *Validator) AutoFix(ctx context.Context, conflicts []Conflict) ([]FixAction, error) {
	var actions []FixAction
	for _, c := range conflicts {
		var (
			action string
			err    error
		)
		switch c.Type {
		case ConflictInvalidSettings:
			err = storage.UpdateJSON(ctx, v.store, c.Key, func(s *models.UISettings, found bool) (bool, error) {
				if !found {
					*s = models.DefaultSettings()
				}
				s.Normalize()
				return true, nil
			})
			action = "Reset unsupported settings to defaults"
		case ConflictInvalidReview:
			err = storage.UpdateJSON(ctx, v.store, c.Key, func(reviews *map[string]models.ReviewItem, _ bool) (bool, error) {
				for _, id := range c.Items {
					delete(*reviews, id)
				}
				return len(*reviews) > 0, nil
			})
			action = fmt.Sprintf("Removed %d invalid review entries", len(c.Items))
		default:
			err = v.store.Remove(ctx, c.Key)
			action = fmt.Sprintf("Removed key %s", c.Key)
		}
		if err != nil {
			return actions, fmt.Errorf("failed to fix %s: %w", c.Key, err)
		}
		actions = append(actions, FixAction{Action: action, SourceConflict: c})
	}
	return actions, nil
}

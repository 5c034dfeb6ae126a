// Package settings persists UISettings as one blob, changed only through
// named setters that rewrite the whole value.
package settings

import (
	"context"
	"fmt"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/storage"
)

type Repository struct {
	store storage.Provider
}

func New(store storage.Provider) *Repository {
	return &Repository{store: store}
}

// Get returns the stored settings, or defaults when missing or corrupt.
func (r *Repository) Get(ctx context.Context) (models.UISettings, error) {
	s := models.DefaultSettings()
	found, err := storage.GetJSON(ctx, r.store, constants.KeySettings, &s)
	if err != nil {
		return models.DefaultSettings(), err
	}
	if !found {
		s = models.DefaultSettings()
	}
	s.Normalize()
	return s, nil
}

// Save replaces the stored settings with s.
func (r *Repository) Save(ctx context.Context, s models.UISettings) error {
	s.Normalize()
	return storage.SetJSON(ctx, r.store, constants.KeySettings, s)
}

func (r *Repository) update(ctx context.Context, fn func(*models.UISettings)) (models.UISettings, error) {
	var out models.UISettings
	err := storage.UpdateJSON(ctx, r.store, constants.KeySettings, func(s *models.UISettings, found bool) (bool, error) {
		if !found {
			*s = models.DefaultSettings()
		}
		s.Normalize()
		fn(s)
		s.Normalize()
		out = *s
		return true, nil
	})
	return out, err
}

func (r *Repository) SetLang(ctx context.Context, lang models.Lang) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) { s.Lang = lang.Code() })
}

func (r *Repository) SetListMode(ctx context.Context, mode models.ListMode) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) { s.ListMode = string(mode) })
}

func (r *Repository) ToggleTextScale(ctx context.Context) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) {
		if s.Scale() == models.TextScaleLarge {
			s.TextScale = string(models.TextScaleNormal)
		} else {
			s.TextScale = string(models.TextScaleLarge)
		}
	})
}

func (r *Repository) ToggleFocusMode(ctx context.Context) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) { s.FocusMode = !s.FocusMode })
}

func (r *Repository) ToggleContinuousReading(ctx context.Context) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) { s.ContinuousReading = !s.ContinuousReading })
}

func (r *Repository) ToggleGestures(ctx context.Context) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) { s.GesturesEnabled = !s.GesturesEnabled })
}

func (r *Repository) ToggleDarkMode(ctx context.Context) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) { s.DarkMode = !s.DarkMode })
}

func (r *Repository) MarkHelpSeen(ctx context.Context) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) { s.HelpSeen = true })
}

func (r *Repository) MarkGestureHintSeen(ctx context.Context) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) { s.GestureHintSeen = true })
}

func (r *Repository) SetNotificationsEnabled(ctx context.Context, enabled bool) (models.UISettings, error) {
	return r.update(ctx, func(s *models.UISettings) { s.NotificationsEnabled = enabled })
}

// SetNotificationTime sets the local reminder time.
func (r *Repository) SetNotificationTime(ctx context.Context, hour, minute int) (models.UISettings, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return models.UISettings{}, fmt.Errorf("invalid notification time %02d:%02d", hour, minute)
	}
	return r.update(ctx, func(s *models.UISettings) {
		s.NotificationHour = hour
		s.NotificationMinute = minute
	})
}

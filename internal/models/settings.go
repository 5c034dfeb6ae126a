package models

import "github.com/julianstephens/lessfeed/internal/constants"

// ListMode selects which subset of cards the feed shows.
type ListMode string

const (
	ListModeFeed      ListMode = "feed"
	ListModeDaily     ListMode = "daily"
	ListModeLearned   ListMode = "learned"
	ListModeUnuseful  ListMode = "unuseful"
	ListModeReview    ListMode = "review"
	ListModeFavorites ListMode = "favorites"
)

// ListModes lists every mode in menu order.
var ListModes = []ListMode{
	ListModeFeed,
	ListModeDaily,
	ListModeLearned,
	ListModeUnuseful,
	ListModeReview,
	ListModeFavorites,
}

// ListModeFromValue parses v, falling back to ListModeFeed.
func ListModeFromValue(v string) ListMode {
	for _, m := range ListModes {
		if string(m) == v {
			return m
		}
	}
	return ListModeFeed
}

// Next returns the mode after m in ListModes, wrapping around.
func (m ListMode) Next() ListMode {
	for i, cur := range ListModes {
		if cur == m {
			return ListModes[(i+1)%len(ListModes)]
		}
	}
	return ListModeFeed
}

// TextScale is the reading size preference.
type TextScale string

const (
	TextScaleNormal TextScale = "normal"
	TextScaleLarge  TextScale = "large"
)

// TextScaleFromValue parses v, falling back to TextScaleNormal.
func TextScaleFromValue(v string) TextScale {
	if TextScale(v) == TextScaleLarge {
		return TextScaleLarge
	}
	return TextScaleNormal
}

// Factor returns the font multiplier for the scale.
func (s TextScale) Factor() float64 {
	if s == TextScaleLarge {
		return 1.12
	}
	return 1.0
}

// UISettings holds the persisted UI and session preferences.
type UISettings struct {
	Lang                 string `json:"lang"`
	ListMode             string `json:"list_mode"`
	TextScale            string `json:"text_scale"`
	FocusMode            bool   `json:"focus_mode"`
	ContinuousReading    bool   `json:"continuous_reading"`
	GesturesEnabled      bool   `json:"gestures_enabled"`
	HelpSeen             bool   `json:"help_seen"`
	GestureHintSeen      bool   `json:"gesture_hint_seen"`
	DarkMode             bool   `json:"dark_mode"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	NotificationHour     int    `json:"notification_hour"`   // 0-23, local time
	NotificationMinute   int    `json:"notification_minute"` // 0-59
}

// DefaultSettings returns the settings used when nothing is persisted.
func DefaultSettings() UISettings {
	return UISettings{
		Lang:                 constants.DefaultLang,
		ListMode:             constants.DefaultListMode,
		TextScale:            constants.DefaultTextScale,
		GesturesEnabled:      constants.DefaultGesturesEnabled,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		NotificationHour:     constants.DefaultNotificationHour,
		NotificationMinute:   constants.DefaultNotificationMinute,
	}
}

// Normalize replaces unknown enum values and out-of-range times with defaults.
func (s *UISettings) Normalize() {
	s.Lang = LangFromCode(s.Lang).Code()
	s.ListMode = string(ListModeFromValue(s.ListMode))
	s.TextScale = string(TextScaleFromValue(s.TextScale))
	if s.NotificationHour < 0 || s.NotificationHour > 23 {
		s.NotificationHour = constants.DefaultNotificationHour
	}
	if s.NotificationMinute < 0 || s.NotificationMinute > 59 {
		s.NotificationMinute = constants.DefaultNotificationMinute
	}
}

// LangValue returns the typed language.
func (s UISettings) LangValue() Lang { return LangFromCode(s.Lang) }

// Mode returns the typed list mode.
func (s UISettings) Mode() ListMode { return ListModeFromValue(s.ListMode) }

// Scale returns the typed text scale.
func (s UISettings) Scale() TextScale { return TextScaleFromValue(s.TextScale) }

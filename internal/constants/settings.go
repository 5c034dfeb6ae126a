package constants

// Storage keys. Each tracker owns a disjoint set of keys; the _v1 suffix lets a
// future format change live next to the old data.
const (
	KeyLearned            = "learned_cards_v1"
	KeyUnuseful           = "unuseful_cards_v1"
	KeyFavorites          = "favorite_cards_v1"
	KeyReviews            = "reviews_v1"
	KeySettings           = "settings_v1"
	KeySupportInjectedDay = "support_injected_day_v1"
	KeySupportUsedDay     = "support_used_day_v1"
	KeyFeedbackQueue      = "feedback_queue_v1"
	KeyPendingAnalytics   = "pending_analytics_v1"
	KeyStreak             = "streak_v1"
	KeyDailyOpeningSeen   = "daily_opening_seen_v1"
	KeyReminderSentDay    = "reminder_sent_day_v1"

	// Prefixes completed with a language code or a UTC date string.
	KeyPrefixCardsCache     = "cards_cache_"
	KeyPrefixSeenCards      = "seen_cards_"
	KeyPrefixDailyStarted   = "daily_started_at_"
	KeyPrefixDailyCompleted = "daily_completed_at_"
	KeyPrefixDailyViewed    = "daily_cards_viewed_"
)

const (
	// Default settings values
	DefaultLang                 = "en"
	DefaultListMode             = "feed"
	DefaultTextScale            = "normal"
	DefaultGesturesEnabled      = true
	DefaultNotificationsEnabled = false
	DefaultNotificationHour     = 9
	DefaultNotificationMinute   = 0
)

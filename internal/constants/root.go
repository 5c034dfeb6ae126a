package constants

import "time"

const (
	AppName            = "lessfeed"
	DefaultKeyringUser = "database-connection"
	ContentKeyringUser = "content-api-key"
	DefaultConfigPath  = "~/.config/lessfeed/lessfeed.db"
	Version            = "v0.3.0"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "lessfeed-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "lessfeed-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.lessfeed"

	// Sentinel feed item ids. System and opening cards have exactly one logical
	// instance at a time, so they are not content-addressed.
	SystemCardID  = "system_card"
	OpeningCardID = "daily_opening"

	// DefaultTopic is used when a card arrives without a topic.
	DefaultTopic = "general"
)

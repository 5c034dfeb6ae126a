package constants

import "time"

const (
	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// UndoToastDuration is how long an undo toast stays alive unless dismissed or replaced.
	UndoToastDuration = 2600 * time.Millisecond

	// SlowHintDelay is how long a foreground load may run before the slow-network hint shows.
	SlowHintDelay = 6500 * time.Millisecond

	// CardsCacheTTL bounds how long a cached card set counts as fresh.
	CardsCacheTTL = 24 * time.Hour
)

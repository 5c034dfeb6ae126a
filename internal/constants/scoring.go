package constants

import "time"

const (
	// Feed scoring. Unuseful and learned cards sink below anything the Feed
	// filter lets through; unseen cards float above partially read ones.
	ScoreUnuseful      = -1000.0
	ScoreLearned       = -500.0
	ScoreNewCard       = 300.0
	ScoreViewedCap     = 200.0
	ScoreViewedDivisor = 10.0
	ScoreReviewPinned  = 40.0
	ScoreReviewDue     = 260.0

	// System card injection
	SystemCardMinViews    = 8
	SystemCardInsertIndex = 8

	// Daily ritual
	DailyCardCount = 4

	// Review scheduling
	ReviewFirstDue        = 24 * time.Hour
	ReviewRescheduleDelay = 6 * time.Hour
	ReviewAdvanceMinView  = 6500 * time.Millisecond
)

// ReviewStageDays is the fixed interval table, in days, indexed by review stage.
var ReviewStageDays = []int{1, 3, 7, 14}

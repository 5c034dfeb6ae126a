package models

import (
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
)

// ReviewItem is the spaced-repetition state of one card.
type ReviewItem struct {
	Stage      int        `json:"stage"`
	NextDueAt  time.Time  `json:"next_due_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// MaxReviewStage is the last index into constants.ReviewStageDays.
func MaxReviewStage() int {
	return len(constants.ReviewStageDays) - 1
}

// NewReviewItem returns a stage 0 item due one day after now.
func NewReviewItem(now time.Time) ReviewItem {
	return ReviewItem{Stage: 0, NextDueAt: now.Add(constants.ReviewFirstDue)}
}

// Advance moves the item to its next stage and schedules it from the interval table.
func (r ReviewItem) Advance(now time.Time) ReviewItem {
	stage := clampStage(r.Stage + 1)
	seen := now
	return ReviewItem{
		Stage:      stage,
		NextDueAt:  now.Add(time.Duration(constants.ReviewStageDays[stage]) * 24 * time.Hour),
		LastSeenAt: &seen,
	}
}

// Reschedule keeps the stage and pushes the due time to now+d.
func (r ReviewItem) Reschedule(now time.Time, d time.Duration) ReviewItem {
	seen := now
	return ReviewItem{
		Stage:      clampStage(r.Stage),
		NextDueAt:  now.Add(d),
		LastSeenAt: &seen,
	}
}

// IsDue reports whether now has reached the due time.
func (r ReviewItem) IsDue(now time.Time) bool {
	return !now.Before(r.NextDueAt)
}

func clampStage(s int) int {
	if s < 0 {
		return 0
	}
	if m := MaxReviewStage(); s > m {
		return m
	}
	return s
}

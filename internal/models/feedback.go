package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeedbackKind classifies a content report.
type FeedbackKind string

const (
	FeedbackTypo    FeedbackKind = "typo"
	FeedbackWrong   FeedbackKind = "wrong"
	FeedbackUnclear FeedbackKind = "unclear"
	FeedbackOther   FeedbackKind = "other"
)

// FeedbackKinds lists every kind in form order.
var FeedbackKinds = []FeedbackKind{FeedbackTypo, FeedbackWrong, FeedbackUnclear, FeedbackOther}

// ParseFeedbackKind validates a user supplied kind.
func ParseFeedbackKind(v string) (FeedbackKind, error) {
	for _, k := range FeedbackKinds {
		if string(k) == v {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid feedback kind %q (expected typo, wrong, unclear or other)", v)
}

// FeedbackItem is a queued user report about a card.
type FeedbackItem struct {
	ID        string       `json:"id"`
	CardID    string       `json:"card_id"`
	Lang      string       `json:"lang"`
	Kind      FeedbackKind `json:"kind"`
	Message   string       `json:"message"`
	CreatedAt int64        `json:"created_at"` // epoch millis
}

// NewFeedbackItem builds a report with an id of the form <millis>_<uuid>.
func NewFeedbackItem(now time.Time, cardID string, lang Lang, kind FeedbackKind, message string) FeedbackItem {
	ms := now.UnixMilli()
	return FeedbackItem{
		ID:        fmt.Sprintf("%d_%s", ms, uuid.New().String()),
		CardID:    cardID,
		Lang:      lang.Code(),
		Kind:      kind,
		Message:   message,
		CreatedAt: ms,
	}
}

package optimizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/tracker"
)

// SuggestionType represents the kind of content change suggested for a card
type SuggestionType string

const (
	SuggestFixTypo     SuggestionType = "fix_typo"
	SuggestVerifyFacts SuggestionType = "verify_facts"
	SuggestClarify     SuggestionType = "clarify"
	SuggestRetireCard  SuggestionType = "retire_card"
)

const retireMinReports = 3

// Suggestion is a content change derived from the feedback on one card.
type Suggestion struct {
	CardID      string         `json:"card_id"`
	Type        SuggestionType `json:"type"`
	Reason      string         `json:"reason"`
	Reports     int            `json:"reports"`
	FeedbackIDs []string       `json:"feedback_ids"`
}

// FeedbackAnalyzer turns queued card reports into editorial suggestions.
type FeedbackAnalyzer struct {
	queue    *tracker.FeedbackQueue
	unuseful *tracker.Set
}

func NewFeedbackAnalyzer(queue *tracker.FeedbackQueue, unuseful *tracker.Set) *FeedbackAnalyzer {
	return &FeedbackAnalyzer{queue: queue, unuseful: unuseful}
}

// AnalyzeCard looks at the reports for one card (newest first) and returns
// the suggestions they support. Only the most recent limit reports count when
// limit is positive.
func AnalyzeCard(cardID string, reports []models.FeedbackItem, markedUnuseful bool, limit int) []Suggestion {
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	if len(reports) == 0 {
		return nil
	}

	counts := make(map[models.FeedbackKind]int)
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		counts[r.Kind]++
		ids = append(ids, r.ID)
	}
	total := len(reports)
	percent := func(k models.FeedbackKind) float64 {
		return float64(counts[k]) / float64(total) * 100
	}

	var out []Suggestion
	add := func(t SuggestionType, reason string) {
		out = append(out, Suggestion{CardID: cardID, Type: t, Reason: reason, Reports: total, FeedbackIDs: ids})
	}

	if total >= retireMinReports && markedUnuseful {
		add(SuggestRetireCard, fmt.Sprintf("%d reports and marked not useful", total))
	}
	if counts[models.FeedbackWrong] >= 2 || percent(models.FeedbackWrong) > 40 {
		add(SuggestVerifyFacts, fmt.Sprintf("%.0f%% of recent reports say the content is wrong", percent(models.FeedbackWrong)))
	}
	if percent(models.FeedbackTypo) > 50 {
		add(SuggestFixTypo, fmt.Sprintf("%.0f%% of recent reports point at typos", percent(models.FeedbackTypo)))
	}
	if percent(models.FeedbackUnclear) > 50 {
		add(SuggestClarify, fmt.Sprintf("%.0f%% of recent reports say the card is unclear", percent(models.FeedbackUnclear)))
	}
	return out
}

// AnalyzeAll groups the queue by card and analyzes each card. Suggestions are
// ordered by report count, then card id.
func (fa *FeedbackAnalyzer) AnalyzeAll(ctx context.Context, limit int) ([]Suggestion, error) {
	items, err := fa.queue.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback queue: %w", err)
	}
	unuseful, err := fa.unuseful.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read unuseful cards: %w", err)
	}

	// The queue is oldest first.
	byCard := make(map[string][]models.FeedbackItem)
	for i := len(items) - 1; i >= 0; i-- {
		byCard[items[i].CardID] = append(byCard[items[i].CardID], items[i])
	}

	var all []Suggestion
	for cardID, reports := range byCard {
		_, marked := unuseful[cardID]
		all = append(all, AnalyzeCard(cardID, reports, marked, limit)...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Reports != all[j].Reports {
			return all[i].Reports > all[j].Reports
		}
		if all[i].CardID != all[j].CardID {
			return all[i].CardID < all[j].CardID
		}
		return all[i].Type < all[j].Type
	})
	logger.Debug("Analyzed feedback", "reports", len(items), "cards", len(byCard), "suggestions", len(all))
	return all, nil
}

// Resolve removes the reports behind s from the queue.
func (fa *FeedbackAnalyzer) Resolve(ctx context.Context, s Suggestion) (int, error) {
	n, err := fa.queue.Remove(ctx, s.FeedbackIDs...)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve feedback for %s: %w", s.CardID, err)
	}
	return n, nil
}

package tracker

import (
	"context"
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/storage"
)

// FeedbackQueue holds user reports until they are sent, newest first.
type FeedbackQueue struct {
	store storage.Provider
	now   func() time.Time
}

func NewFeedbackQueue(store storage.Provider) *FeedbackQueue {
	return &FeedbackQueue{store: store, now: time.Now}
}

// Submit builds a report and enqueues it.
func (q *FeedbackQueue) Submit(ctx context.Context, cardID string, lang models.Lang, kind models.FeedbackKind, message string) (models.FeedbackItem, error) {
	item := models.NewFeedbackItem(q.now(), cardID, lang, kind, message)
	return item, q.Enqueue(ctx, item)
}

// Enqueue puts item at the front of the queue.
func (q *FeedbackQueue) Enqueue(ctx context.Context, item models.FeedbackItem) error {
	err := storage.UpdateJSON(ctx, q.store, constants.KeyFeedbackQueue, func(items *[]models.FeedbackItem, _ bool) (bool, error) {
		*items = append([]models.FeedbackItem{item}, *items...)
		return true, nil
	})
	if err == nil {
		logger.Info("Feedback queued", "card_id", item.CardID, "kind", item.Kind)
	}
	return err
}

func (q *FeedbackQueue) List(ctx context.Context) ([]models.FeedbackItem, error) {
	var items []models.FeedbackItem
	if _, err := storage.GetJSON(ctx, q.store, constants.KeyFeedbackQueue, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *FeedbackQueue) Clear(ctx context.Context) error {
	return q.store.Remove(ctx, constants.KeyFeedbackQueue)
}

// Remove drops the items with the given ids and reports how many were removed.
func (q *FeedbackQueue) Remove(ctx context.Context, ids ...string) (int, error) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	removed := 0
	err := storage.UpdateJSON(ctx, q.store, constants.KeyFeedbackQueue, func(items *[]models.FeedbackItem, found bool) (bool, error) {
		if !found {
			return false, storage.ErrUnchanged
		}
		kept := (*items)[:0]
		for _, it := range *items {
			if _, ok := drop[it.ID]; ok {
				removed++
				continue
			}
			kept = append(kept, it)
		}
		if removed == 0 {
			return false, storage.ErrUnchanged
		}
		*items = kept
		return len(kept) > 0, nil
	})
	return removed, err
}

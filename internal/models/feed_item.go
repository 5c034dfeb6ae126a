package models

import "github.com/julianstephens/lessfeed/internal/constants"

// FeedItem is one entry of a composed feed. The set of implementations is
// closed: ContentItem, SystemItem and OpeningItem.
type FeedItem interface {
	ID() string
	feedItem()
}

// ContentItem wraps a content card.
type ContentItem struct {
	Card Card
}

// SystemItem is the support message shown once a day.
type SystemItem struct {
	Card SystemCard
}

// OpeningItem opens the daily ritual.
type OpeningItem struct {
	Card OpeningCard
}

func (i ContentItem) ID() string { return i.Card.ID }
func (i SystemItem) ID() string  { return constants.SystemCardID }
func (i OpeningItem) ID() string { return constants.OpeningCardID }

func (ContentItem) feedItem() {}
func (SystemItem) feedItem()  {}
func (OpeningItem) feedItem() {}

// IsSentinelID reports whether id belongs to a system or opening item.
func IsSentinelID(id string) bool {
	return id == constants.SystemCardID || id == constants.OpeningCardID
}

// ContentCards returns the cards of the content items in items, in order.
func ContentCards(items []FeedItem) []Card {
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		if c, ok := it.(ContentItem); ok {
			cards = append(cards, c.Card)
		}
	}
	return cards
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf(items []FeedItem, id string) int {
	for i, it := range items {
		if it.ID() == id {
			return i
		}
	}
	return -1
}

package models

import (
	"strings"

	"github.com/julianstephens/lessfeed/internal/constants"
)

// Card is an immutable unit of learning content.
// Cards are only built through NewCard, so every text field is non-empty.
type Card struct {
	ID         string   `json:"id" yaml:"id"`
	Topic      string   `json:"topic" yaml:"topic"`
	Difficulty int      `json:"difficulty" yaml:"difficulty"`
	CreatedAt  string   `json:"created_at" yaml:"created_at"` // ISO-8601, sort key
	Title      string   `json:"title" yaml:"title"`
	Hook       string   `json:"hook" yaml:"hook"`
	Bullets    []string `json:"bullets" yaml:"bullets"`
	Why        string   `json:"why" yaml:"why"`
}

// CardInput holds the raw, possibly dirty fields a Card is built from.
type CardInput struct {
	ID         string   `json:"id" yaml:"id"`
	Topic      string   `json:"topic" yaml:"topic"`
	Difficulty int      `json:"difficulty" yaml:"difficulty"`
	CreatedAt  string   `json:"created_at" yaml:"created_at"`
	Title      string   `json:"title" yaml:"title"`
	Hook       string   `json:"hook" yaml:"hook"`
	Bullets    []string `json:"bullets" yaml:"bullets"`
	Why        string   `json:"why" yaml:"why"`
}

// NewCard trims and validates in, returning false if any required field is
// blank. Blank bullets are dropped while the order of the rest is kept.
func NewCard(in CardInput) (Card, bool) {
	id := strings.TrimSpace(in.ID)
	title := strings.TrimSpace(in.Title)
	hook := strings.TrimSpace(in.Hook)
	why := strings.TrimSpace(in.Why)
	if id == "" || title == "" || hook == "" || why == "" {
		return Card{}, false
	}

	bullets := make([]string, 0, len(in.Bullets))
	for _, b := range in.Bullets {
		if b = strings.TrimSpace(b); b != "" {
			bullets = append(bullets, b)
		}
	}
	if len(bullets) == 0 {
		return Card{}, false
	}

	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		topic = constants.DefaultTopic
	}

	return Card{
		ID:         id,
		Topic:      topic,
		Difficulty: clampDifficulty(in.Difficulty),
		CreatedAt:  strings.TrimSpace(in.CreatedAt),
		Title:      title,
		Hook:       hook,
		Bullets:    bullets,
		Why:        why,
	}, true
}

// Input returns the fields of c as a CardInput.
func (c Card) Input() CardInput {
	return CardInput{
		ID:         c.ID,
		Topic:      c.Topic,
		Difficulty: c.Difficulty,
		CreatedAt:  c.CreatedAt,
		Title:      c.Title,
		Hook:       c.Hook,
		Bullets:    append([]string(nil), c.Bullets...),
		Why:        c.Why,
	}
}

// BuildCards runs every input through NewCard and keeps only the valid ones.
func BuildCards(inputs []CardInput) []Card {
	cards := make([]Card, 0, len(inputs))
	for _, in := range inputs {
		if c, ok := NewCard(in); ok {
			cards = append(cards, c)
		}
	}
	return cards
}

func clampDifficulty(d int) int {
	switch {
	case d < 1:
		return 1
	case d > 3:
		return 3
	default:
		return d
	}
}

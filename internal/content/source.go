// Package content fetches cards from a content source and keeps the last good
// set per language in the store.
package content

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/julianstephens/lessfeed/internal/models"
)

// Source returns the published cards for a language.
type Source interface {
	FetchCards(ctx context.Context, lang models.Lang) ([]models.Card, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, lang models.Lang) ([]models.Card, error)

func (f SourceFunc) FetchCards(ctx context.Context, lang models.Lang) ([]models.Card, error) {
	return f(ctx, lang)
}

// Translation is the text of a card in one language.
type Translation struct {
	Lang    string  `json:"lang" yaml:"lang"`
	Title   string  `json:"title" yaml:"title"`
	Hook    string  `json:"hook" yaml:"hook"`
	Bullets Bullets `json:"bullets" yaml:"bullets"`
	Why     string  `json:"why" yaml:"why"`
}

// Bullets decodes either a JSON array of strings or anything else as empty.
type Bullets []string

func (b *Bullets) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		*b = nil
		return nil
	}
	*b = list
	return nil
}

// RawCard is a card record as stored by a source, with every translation.
type RawCard struct {
	ID           string        `json:"id" yaml:"id"`
	Topic        string        `json:"topic" yaml:"topic"`
	Difficulty   int           `json:"difficulty" yaml:"difficulty"`
	CreatedAt    string        `json:"created_at" yaml:"created_at"`
	IsPublished  *bool         `json:"is_published" yaml:"is_published"`
	Translations []Translation `json:"card_translations" yaml:"translations"`
}

// Resolve builds the card for lang. The translation for lang is used, else
// English, else the first one; blank fields fall back to English.
func (r RawCard) Resolve(lang models.Lang, clean func(string) string) (models.Card, bool) {
	if len(r.Translations) == 0 {
		return models.Card{}, false
	}
	if clean == nil {
		clean = func(s string) string { return s }
	}

	en, hasEN := r.translation(models.LangEN.Code())
	tr, ok := r.translation(lang.Code())
	if !ok {
		tr, ok = en, hasEN
	}
	if !ok {
		tr = r.Translations[0]
	}

	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" && hasEN {
			return fallback
		}
		return v
	}
	bullets := []string(tr.Bullets)
	if len(bullets) == 0 && hasEN {
		bullets = en.Bullets
	}
	cleaned := make([]string, len(bullets))
	for i, b := range bullets {
		cleaned[i] = clean(b)
	}

	return models.NewCard(models.CardInput{
		ID:         r.ID,
		Topic:      r.Topic,
		Difficulty: r.Difficulty,
		CreatedAt:  r.CreatedAt,
		Title:      clean(pick(tr.Title, en.Title)),
		Hook:       clean(pick(tr.Hook, en.Hook)),
		Bullets:    cleaned,
		Why:        clean(pick(tr.Why, en.Why)),
	})
}

func (r RawCard) translation(code string) (Translation, bool) {
	for _, t := range r.Translations {
		if t.Lang == code {
			return t, true
		}
	}
	return Translation{}, false
}

// BuildDeck resolves every raw card for lang, drops the invalid ones and
// sorts the rest newest first.
func BuildDeck(raw []RawCard, lang models.Lang, clean func(string) string) []models.Card {
	cards := make([]models.Card, 0, len(raw))
	for _, r := range raw {
		if r.IsPublished != nil && !*r.IsPublished {
			continue
		}
		if c, ok := r.Resolve(lang, clean); ok {
			cards = append(cards, c)
		}
	}
	slices.SortStableFunc(cards, func(a, b models.Card) int {
		return strings.Compare(b.CreatedAt, a.CreatedAt)
	})
	return cards
}

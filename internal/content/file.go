package content

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/lessfeed/internal/models"
)

// Deck is the on-disk layout of a YAML card deck.
type Deck struct {
	Cards []RawCard `yaml:"cards"`
}

// FileSource serves cards from a YAML deck, for offline use and seeding.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// FetchCards implements Source. The file is read on every call so edits show
// up on the next refresh.
func (s *FileSource) FetchCards(_ context.Context, lang models.Lang) ([]models.Card, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck: %w", err)
	}
	deck, err := ParseDeck(data)
	if err != nil {
		return nil, err
	}
	return BuildDeck(deck.Cards, lang, StripHTML), nil
}

// ParseDeck decodes a YAML deck.
func ParseDeck(data []byte) (Deck, error) {
	var deck Deck
	if err := yaml.Unmarshal(data, &deck); err != nil {
		return Deck{}, fmt.Errorf("invalid deck: %w", err)
	}
	return deck, nil
}

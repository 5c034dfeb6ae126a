// Package card renders a single feed item.
package card

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/lessfeed/internal/feed"
	"github.com/julianstephens/lessfeed/internal/models"
)

const (
	normalWidth = 60
	largeWidth  = 72
)

// Theme holds the colors used for one appearance.
type Theme struct {
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Border lipgloss.Color
}

var (
	LightTheme = Theme{Accent: "205", Text: "236", Muted: "244", Border: "62"}
	DarkTheme  = Theme{Accent: "212", Text: "252", Muted: "240", Border: "99"}
)

// ThemeFor picks the theme matching the dark mode preference.
func ThemeFor(s models.UISettings) Theme {
	if s.DarkMode {
		return DarkTheme
	}
	return LightTheme
}

// Width returns the card width for the text scale, capped at maxWidth when
// it is positive.
func Width(s models.UISettings, maxWidth int) int {
	w := normalWidth
	if s.Scale() == models.TextScaleLarge {
		w = largeWidth
	}
	if maxWidth > 0 && w > maxWidth-4 {
		w = max(maxWidth-4, 20)
	}
	return w
}

// Render draws item. status may be nil for items without memberships.
func Render(item models.FeedItem, status *feed.CardStatus, s models.UISettings, maxWidth int) string {
	theme := ThemeFor(s)
	width := Width(s, maxWidth)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(1, 2).
		Width(width)

	var body string
	switch v := item.(type) {
	case models.ContentItem:
		body = renderContent(v.Card, status, s, theme)
	case models.SystemItem:
		body = renderSystem(v.Card, theme)
	case models.OpeningItem:
		body = renderOpening(v.Card, theme)
	}
	return box.Render(body)
}

func renderContent(c models.Card, status *feed.CardStatus, s models.UISettings, theme Theme) string {
	title := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	text := lipgloss.NewStyle().Foreground(theme.Text)
	muted := lipgloss.NewStyle().Foreground(theme.Muted)
	if s.Scale() == models.TextScaleLarge {
		text = text.Bold(true)
	}

	lines := []string{
		muted.Render(fmt.Sprintf("%s · %s", c.Topic, strings.Repeat("●", c.Difficulty))),
		title.Render(c.Title),
		"",
		text.Render(c.Hook),
		"",
	}
	for _, b := range c.Bullets {
		lines = append(lines, text.Render("• "+b))
	}
	lines = append(lines, "", muted.Italic(true).Render(c.Why))

	if badges := Badges(status); badges != "" {
		lines = append(lines, "", muted.Render(badges))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Badges summarizes the memberships of a card.
func Badges(status *feed.CardStatus) string {
	if status == nil {
		return ""
	}
	var parts []string
	if status.IsNew {
		parts = append(parts, "new")
	}
	if status.Learned {
		parts = append(parts, "✓ learned")
	}
	if status.Favorite {
		parts = append(parts, "★ favorite")
	}
	if status.Unuseful {
		parts = append(parts, "✗ not useful")
	}
	if status.InReview {
		if status.Due {
			parts = append(parts, fmt.Sprintf("↻ review due (stage %d)", status.Stage))
		} else {
			parts = append(parts, fmt.Sprintf("↻ review %s", status.NextDueAt.Local().Format("Jan 2")))
		}
	}
	return strings.Join(parts, "  ")
}

func renderSystem(c models.SystemCard, theme Theme) string {
	title := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	text := lipgloss.NewStyle().Foreground(theme.Text)
	muted := lipgloss.NewStyle().Foreground(theme.Muted)

	lines := []string{title.Render(c.Title), "", text.Render(c.Hook), ""}
	for _, b := range c.Bullets {
		lines = append(lines, text.Render("• "+b))
	}
	lines = append(lines,
		"",
		title.Render(c.SupportTitle),
		text.Render(c.SupportDescription),
		"",
		muted.Render(fmt.Sprintf("[enter] %s · %s", c.WatchVideoLabel, c.DonateLabel)),
		muted.Italic(true).Render(c.FinePrint),
	)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderOpening(c models.OpeningCard, theme Theme) string {
	title := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	text := lipgloss.NewStyle().Foreground(theme.Text)
	muted := lipgloss.NewStyle().Foreground(theme.Muted).Italic(true)
	return lipgloss.JoinVertical(lipgloss.Center,
		title.Render(c.Title),
		"",
		text.Render(c.Message),
		"",
		muted.Render(c.Footer),
	)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/lessfeed/internal/daily"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/tui/components/card"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateSettings:
		content = m.settingsModel.View()
	case StateFeedback:
		content = docStyle.Render(m.form.View())
	default:
		content = m.viewReading()
	}

	focus := m.feed.Settings.FocusMode && m.state == StateReading
	var parts []string
	if !focus {
		parts = append(parts, m.viewTabs())
	}
	parts = append(parts, content, m.viewFooter())
	if !focus {
		parts = append(parts, m.help.View(m))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	current := m.feed.Settings.Mode()
	var tabs []string
	for _, mode := range models.ListModes {
		title := strings.ToUpper(string(mode[:1])) + string(mode[1:])
		if mode == current {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	info := mutedStyle.Render(fmt.Sprintf("  %s · 🔥 %d · ✓ %d", m.feed.Settings.LangValue().Code(), m.feed.Streak, m.feed.LearnedCount))
	return lipgloss.JoinHorizontal(lipgloss.Top, append(tabs, info)...)
}

func (m Model) viewReading() string {
	st := m.feed
	if st.ShowDailyCompletion {
		return m.viewDailyCompletion()
	}

	if len(st.Items) == 0 {
		switch {
		case st.Loading:
			msg := m.spinner.View() + " Loading cards..."
			if st.SlowHint {
				msg += "\n" + warningStyle.Render("This is taking longer than usual.")
			}
			return m.center(msg)
		case st.Err != nil:
			return m.center(dangerStyle.Render(fmt.Sprintf("Could not load cards: %v", st.Err)) + "\n\n[R] Retry")
		default:
			return m.center(m.emptyMessage())
		}
	}

	cur, ok := st.Current()
	if !ok {
		return m.center(m.emptyMessage())
	}

	var header string
	if st.Settings.Mode() == models.ListModeDaily {
		header = viewProgress(st.Daily)
	} else {
		header = mutedStyle.Render(fmt.Sprintf("%d / %d", st.CurrentIndex+1, len(st.Items)))
	}
	if st.Refreshing {
		header += "  " + m.spinner.View()
	}

	status := m.status
	if m.statusFor != cur.ID() {
		status = nil
	}
	body := card.Render(cur, status, st.Settings, m.width)
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body))
}

func (m Model) emptyMessage() string {
	switch m.feed.Settings.Mode() {
	case models.ListModeLearned:
		return "No learned cards yet. Press 'l' on a card you know."
	case models.ListModeUnuseful:
		return "Nothing marked as not useful."
	case models.ListModeReview:
		return "No cards to review right now."
	case models.ListModeFavorites:
		return "No favorites yet. Press '*' on a card you like."
	case models.ListModeDaily:
		return "No cards for today's ritual."
	default:
		return "You've seen everything for now. Come back later."
	}
}

func viewProgress(p daily.Progress) string {
	if p.Complete {
		return activeTabStyle.Render("Daily ritual complete")
	}
	filled := min(p.Viewed, p.Total)
	bar := strings.Repeat("■", filled) + strings.Repeat("□", p.Total-filled)
	return mutedStyle.Render(fmt.Sprintf("%s  %d/%d", bar, filled, p.Total))
}

func (m Model) viewDailyCompletion() string {
	return m.center(lipgloss.JoinVertical(lipgloss.Center,
		activeTabStyle.Render("Daily ritual complete"),
		"",
		fmt.Sprintf("Streak: %d day(s)", m.feed.Streak),
		"",
		"[enter] Continue",
	))
}

func (m Model) viewFooter() string {
	switch {
	case m.err != nil:
		return dangerStyle.Render(m.err.Error())
	case m.feed.Undo != nil:
		return toastStyle.Render(fmt.Sprintf("Marked %s · [u] undo", m.feed.Undo.Kind))
	case m.notice != "":
		return warningStyle.Render(m.notice)
	}
	return ""
}

func (m Model) center(s string) string {
	if m.width == 0 || m.height == 0 {
		return docStyle.Render(s)
	}
	return lipgloss.Place(m.width, max(m.height-4, 1), lipgloss.Center, lipgloss.Center, s)
}

package settings

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/lessfeed/internal/models"
)

// Setting names a preference that can be flipped from the settings view.
type Setting int

const (
	TextScale Setting = iota
	FocusMode
	ContinuousReading
	Gestures
	DarkMode
)

// ToggleMsg asks the parent model to flip a setting.
type ToggleMsg struct {
	Setting Setting
}

type Model struct {
	settings models.UISettings
	width    int
	height   int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(25)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			MarginTop(1).
			MarginBottom(1)
)

var toggleKeys = map[string]Setting{
	"t": TextScale,
	"f": FocusMode,
	"c": ContinuousReading,
	"g": Gestures,
	"n": DarkMode,
}

func New(settings models.UISettings, width, height int) Model {
	return Model{
		settings: settings,
		width:    width,
		height:   height,
	}
}

func (m *Model) SetSettings(settings models.UISettings) {
	m.settings = settings
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if s, ok := toggleKeys[msg.String()]; ok {
			return m, func() tea.Msg { return ToggleMsg{Setting: s} }
		}
	}
	return m, nil
}

func row(label, key string, value any) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("[%s] %s:", key, label)), valueStyle.Render(fmt.Sprint(value)))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	s := m.settings

	var sections []string

	readingTitle := titleStyle.Render("Reading")
	readingContent := lipgloss.JoinVertical(
		lipgloss.Left,
		row("Text size", "t", s.Scale()),
		row("Focus mode", "f", onOff(s.FocusMode)),
		row("Continuous reading", "c", onOff(s.ContinuousReading)),
		row("Gestures", "g", onOff(s.GesturesEnabled)),
		row("Dark mode", "n", onOff(s.DarkMode)),
	)
	sections = append(sections, sectionStyle.Render(readingTitle+"\n"+readingContent))

	feedTitle := titleStyle.Render("Feed")
	feedContent := lipgloss.JoinVertical(
		lipgloss.Left,
		fmt.Sprintf("%s %s", labelStyle.Render("Language:"), valueStyle.Render(s.LangValue().Code())),
		fmt.Sprintf("%s %s", labelStyle.Render("List:"), valueStyle.Render(string(s.Mode()))),
	)
	sections = append(sections, sectionStyle.Render(feedTitle+"\n"+feedContent))

	notifTitle := titleStyle.Render("Daily Reminder")
	notifContent := lipgloss.JoinVertical(
		lipgloss.Left,
		fmt.Sprintf("%s %s", labelStyle.Render("Enabled:"), valueStyle.Render(onOff(s.NotificationsEnabled))),
		fmt.Sprintf("%s %s", labelStyle.Render("Time:"), valueStyle.Render(fmt.Sprintf("%02d:%02d", s.NotificationHour, s.NotificationMinute))),
	)
	sections = append(sections, sectionStyle.Render(notifTitle+"\n"+notifContent))

	helpText := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true).
		MarginTop(2).
		Render("Press a key to toggle · reminder time is set with 'lessfeed settings' · esc to go back")

	sections = append(sections, helpText)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Left,
		lipgloss.Top,
		lipgloss.NewStyle().Padding(2, 4).Render(content),
	)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

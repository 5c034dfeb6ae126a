package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/lessfeed/internal/feed"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/tui/components/settings"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Handle Feedback Form State
	if m.state == StateFeedback {
		if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
			m.state = StateReading
			m.form = nil
			return m, nil
		}
		if _, isKey := msg.(tea.KeyMsg); isKey {
			form, cmd := m.form.Update(msg)
			if f, ok := form.(*huh.Form); ok {
				m.form = f
			}
			cmds = append(cmds, cmd)

			switch m.form.State {
			case huh.StateCompleted:
				cmds = append(cmds, m.submitFeedback(*m.feedbackForm))
				m.state = StateReading
				m.form = nil
			case huh.StateAborted:
				m.state = StateReading
				m.form = nil
			}
			return m, tea.Batch(cmds...)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.settingsModel.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case startedMsg:
		m.refreshState()
		return m, m.syncVisible()

	case stateMsg:
		m.refreshState()
		return m, tea.Batch(m.listen(), m.syncVisible())

	case errMsg:
		m.err = msg.err
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case cardStatusMsg:
		m.setStatus(msg)
		return m, nil

	case toggledMsg:
		m.notice = msg.notice
		m.setStatus(msg.cardStatusMsg)
		m.refreshState()
		return m, m.syncVisible()

	case settings.ToggleMsg:
		return m, m.toggleSetting(msg.Setting)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.finishViewing()
			m.quitting = true
			return m, tea.Quit
		}
		if m.state == StateSettings {
			if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Settings) {
				m.state = StateReading
				return m, nil
			}
			var cmd tea.Cmd
			m.settingsModel, cmd = m.settingsModel.Update(msg)
			return m, cmd
		}
		return m.handleReadingKey(msg)
	}

	return m, nil
}

func (m *Model) setStatus(msg cardStatusMsg) {
	if msg.id != m.visibleID {
		return
	}
	st := msg.status
	m.status = &st
	m.statusFor = msg.id
}

func (m *Model) refreshState() {
	m.feed = m.engine.State()
	m.settingsModel.SetSettings(m.feed.Settings)
	if m.feed.Err == nil && m.err != nil && !m.feed.Loading {
		m.err = nil
	}
}

func (m Model) handleReadingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.feed.ShowDailyCompletion {
		if key.Matches(msg, m.keys.Support) || key.Matches(msg, m.keys.Back) {
			m.engine.DismissDailyCompletion()
			m.refreshState()
		}
		return m, nil
	}

	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.engine.Next()
		m.refreshState()
		return m, m.syncVisible()

	case key.Matches(msg, m.keys.Prev):
		m.engine.Prev()
		m.refreshState()
		return m, m.syncVisible()

	case key.Matches(msg, m.keys.Learned):
		return m, m.toggle(feed.ToggleLearned)
	case key.Matches(msg, m.keys.Unuseful):
		return m, m.toggle(feed.ToggleUnuseful)
	case key.Matches(msg, m.keys.Review):
		return m, m.toggle(feed.ToggleReview)
	case key.Matches(msg, m.keys.Favorite):
		return m, m.toggle(feed.ToggleFavorite)

	case key.Matches(msg, m.keys.Undo):
		engine, ctx, id := m.engine, m.ctx, m.visibleID
		return m, func() tea.Msg {
			undone, err := engine.Undo(ctx)
			if err != nil {
				return errMsg{err}
			}
			if !undone || id == "" || models.IsSentinelID(id) {
				return nil
			}
			st, err := engine.CardStatus(ctx, id)
			if err != nil {
				return errMsg{err}
			}
			return cardStatusMsg{id: id, status: st}
		}

	case key.Matches(msg, m.keys.Back):
		if m.feed.Undo != nil {
			m.engine.DismissUndo()
			m.refreshState()
		}
		return m, nil

	case key.Matches(msg, m.keys.Mode):
		next := m.feed.Settings.Mode().Next()
		engine := m.engine
		return m, m.intent(func(ctx context.Context) error {
			return engine.SetListMode(ctx, next)
		})

	case key.Matches(msg, m.keys.Daily):
		engine := m.engine
		return m, m.intent(engine.EnterDailyMode)

	case key.Matches(msg, m.keys.Lang):
		next := m.feed.Settings.LangValue().Next()
		engine := m.engine
		return m, m.intent(func(ctx context.Context) error {
			return engine.SetLang(ctx, next)
		})

	case key.Matches(msg, m.keys.Refresh):
		engine := m.engine
		return m, m.intent(engine.Refresh)

	case key.Matches(msg, m.keys.Feedback):
		cardID, ok := m.currentCardID()
		if !ok {
			return m, nil
		}
		m.openFeedbackForm(cardID)
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Support):
		cur, ok := m.feed.Current()
		if !ok {
			return m, nil
		}
		if _, isSystem := cur.(models.SystemItem); !isSystem {
			return m, nil
		}
		engine := m.engine
		return m, func() tea.Msg {
			if err := engine.MarkSupportUsed(m.ctx); err != nil {
				return errMsg{err}
			}
			return noticeMsg("Thank you for supporting Less!")
		}

	case key.Matches(msg, m.keys.Settings):
		m.state = StateSettings
		return m, nil
	}
	return m, nil
}

// toggle flips kind on the focused content card and reloads its status.
func (m Model) toggle(kind feed.ToggleKind) tea.Cmd {
	cardID, ok := m.currentCardID()
	if !ok {
		return nil
	}
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		on, err := engine.Toggle(ctx, kind, cardID)
		if err != nil {
			return errMsg{err}
		}
		st, err := engine.CardStatus(ctx, cardID)
		if err != nil {
			return errMsg{err}
		}
		notice := fmt.Sprintf("Removed %s", kind)
		if on {
			notice = fmt.Sprintf("Marked %s", kind)
		}
		return toggledMsg{cardStatusMsg: cardStatusMsg{id: cardID, status: st}, notice: notice}
	}
}

func (m Model) toggleSetting(s settings.Setting) tea.Cmd {
	engine := m.engine
	var fn func(context.Context) (models.UISettings, error)
	switch s {
	case settings.TextScale:
		fn = engine.ToggleTextScale
	case settings.FocusMode:
		fn = engine.ToggleFocusMode
	case settings.ContinuousReading:
		fn = engine.ToggleContinuousReading
	case settings.Gestures:
		fn = engine.ToggleGestures
	case settings.DarkMode:
		fn = engine.ToggleDarkMode
	default:
		return nil
	}
	return m.intent(func(ctx context.Context) error {
		_, err := fn(ctx)
		return err
	})
}

func (m *Model) openFeedbackForm(cardID string) {
	m.feedbackForm = &FeedbackFormModel{CardID: cardID, Kind: models.FeedbackTypo}

	options := make([]huh.Option[models.FeedbackKind], 0, len(models.FeedbackKinds))
	for _, k := range models.FeedbackKinds {
		options = append(options, huh.NewOption(string(k), k))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[models.FeedbackKind]().
				Title("What is wrong with this card?").
				Options(options...).
				Value(&m.feedbackForm.Kind),
			huh.NewText().
				Title("Details").
				Placeholder("Optional").
				CharLimit(500).
				Value(&m.feedbackForm.Message),
		),
	).WithTheme(huh.ThemeDracula())
	m.state = StateFeedback
}

func (m Model) submitFeedback(f FeedbackFormModel) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		if _, err := engine.SubmitFeedback(ctx, f.CardID, f.Kind, f.Message); err != nil {
			return errMsg{err}
		}
		return noticeMsg("Thanks, your report was saved")
	}
}

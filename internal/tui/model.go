package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/lessfeed/internal/feed"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/tui/components/settings"
)

type SessionState int

const (
	StateReading SessionState = iota
	StateSettings
	StateFeedback
)

type FeedbackFormModel struct {
	CardID  string
	Kind    models.FeedbackKind
	Message string
}

type Model struct {
	ctx     context.Context
	engine  *feed.Engine
	updates <-chan struct{}
	now     func() time.Time

	feed          feed.State
	status        *feed.CardStatus
	statusFor     string
	visibleID     string
	visibleSince  time.Time
	state         SessionState
	keys          KeyMap
	help          help.Model
	spinner       spinner.Model
	settingsModel settings.Model
	form          *huh.Form
	feedbackForm  *FeedbackFormModel
	notice        string
	err           error
	quitting      bool
	width         int
	height        int
}

// NewModel builds the reader over engine. The engine is started by Init.
func NewModel(ctx context.Context, engine *feed.Engine) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	st := engine.State()
	return Model{
		ctx:           ctx,
		engine:        engine,
		updates:       engine.Updates(),
		now:           time.Now,
		feed:          st,
		state:         StateReading,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		spinner:       sp,
		settingsModel: settings.New(st.Settings, 0, 0),
	}
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case StateSettings, StateFeedback:
		return []key.Binding{m.keys.Back, m.keys.Quit}
	}
	keys := m.keys.ShortHelp()
	if m.feed.Undo != nil {
		keys = append(keys, m.keys.Undo)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

type startedMsg struct{}

type stateMsg struct{}

type errMsg struct{ err error }

type noticeMsg string

type cardStatusMsg struct {
	id     string
	status feed.CardStatus
}

type toggledMsg struct {
	cardStatusMsg
	notice string
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.listen(), m.spinner.Tick)
}

func (m Model) start() tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		if err := engine.Start(ctx); err != nil {
			return errMsg{err}
		}
		return startedMsg{}
	}
}

// listen waits for the next engine change. It stops once the engine closes.
func (m Model) listen() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch := m.updates
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateMsg{}
	}
}

// intent runs fn off the update loop and reports failures.
func (m Model) intent(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) loadStatus(id string) tea.Cmd {
	if id == "" || models.IsSentinelID(id) {
		return nil
	}
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		st, err := engine.CardStatus(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return cardStatusMsg{id: id, status: st}
	}
}

// syncVisible reports the time spent on the previous card and the newly
// visible one when the focused item changed.
func (m *Model) syncVisible() tea.Cmd {
	id := ""
	if cur, ok := m.feed.Current(); ok {
		id = cur.ID()
	}
	if id == m.visibleID {
		return nil
	}

	prev, since := m.visibleID, m.visibleSince
	now := m.now()
	m.visibleID = id
	m.visibleSince = now
	if m.statusFor != id {
		m.status = nil
		m.statusFor = ""
	}

	engine := m.engine
	var cmds []tea.Cmd
	if prev != "" {
		elapsed := now.Sub(since)
		cmds = append(cmds, m.intent(func(ctx context.Context) error {
			return engine.CardViewDuration(ctx, prev, elapsed)
		}))
	}
	if id != "" {
		cmds = append(cmds, m.intent(func(ctx context.Context) error {
			return engine.CardBecameVisible(ctx, id)
		}), m.loadStatus(id))
	}
	return tea.Batch(cmds...)
}

// finishViewing records the reading time of the visible card.
func (m *Model) finishViewing() {
	if m.visibleID == "" {
		return
	}
	if err := m.engine.CardViewDuration(m.ctx, m.visibleID, m.now().Sub(m.visibleSince)); err != nil {
		m.err = err
	}
	m.visibleID = ""
}

func (m Model) currentCardID() (string, bool) {
	cur, ok := m.feed.Current()
	if !ok {
		return "", false
	}
	if _, isContent := cur.(models.ContentItem); !isContent {
		return "", false
	}
	return cur.ID(), true
}

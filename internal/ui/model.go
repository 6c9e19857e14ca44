// Package ui is the terminal presentation layer: it renders the session
// list and active transcript, and turns key presses into store, transcript
// and gateway actions. All chat-protocol rules live below this package; the
// UI only subscribes to state changes and redraws.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/syncoria/assistant-go/internal/config"
	"github.com/syncoria/assistant-go/internal/gateway"
	"github.com/syncoria/assistant-go/internal/session"
	"github.com/syncoria/assistant-go/internal/stream"
)

const sidebarWidth = 28

type (
	// progressMsg carries one reconciler snapshot into the update loop.
	progressMsg struct{ snap stream.Snapshot }
	// submitDoneMsg signals the end of one submission flow.
	submitDoneMsg struct{ err error }
	// sessionCreatedMsg signals a finished create-session call; query, when
	// set, is the submission that triggered the implicit create.
	sessionCreatedMsg struct {
		err   error
		query string
	}
	// sessionSwitchedMsg signals a finished switch + history load.
	sessionSwitchedMsg struct{ err error }
)

// Model is the bubbletea model for the assistant client.
type Model struct {
	cfg   config.BackendConfig
	gw    *gateway.Client
	store *session.Store

	input textinput.Model
	spin  spinner.Model
	vp    viewport.Model

	renderer *glamour.TermRenderer

	// events carries progress snapshots from the submission goroutine.
	events    chan tea.Msg
	listening bool

	// creating guards the implicit create-session window, during which no
	// pending placeholder exists yet to block input.
	creating bool

	width  int
	height int
	ready  bool

	status    string
	lastEvent string
	banner    string
}

// New creates the UI model.
func New(cfg config.BackendConfig, gw *gateway.Client, store *session.Store) Model {
	in := textinput.New()
	in.Placeholder = "Ask about your Odoo data..."
	in.Prompt = "> "
	in.CharLimit = 0
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#875A7B"))

	return Model{
		cfg:    cfg,
		gw:     gw,
		store:  store,
		input:  in,
		spin:   sp,
		events: make(chan tea.Msg, 32),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		mainWidth := max(m.width-sidebarWidth-2, 20)
		vpHeight := max(m.height-6, 3)
		if !m.ready {
			m.vp = viewport.New(mainWidth, vpHeight)
			m.ready = true
		} else {
			m.vp.Width = mainWidth
			m.vp.Height = vpHeight
		}
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(mainWidth-2)); err == nil {
			m.renderer = r
		}
		m.input.Width = max(mainWidth-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.store.Transcript().HasPending() {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			m.refresh()
			return m, cmd
		}
		return m, nil

	case progressMsg:
		m.status = msg.snap.Status
		m.lastEvent = msg.snap.EventType
		m.refresh()
		return m, m.waitEvent()

	case submitDoneMsg:
		m.status = ""
		m.lastEvent = ""
		if msg.err != nil {
			m.banner = "API Error: " + msg.err.Error()
		}
		m.refresh()
		return m, nil

	case sessionCreatedMsg:
		m.creating = false
		if msg.err != nil {
			m.banner = "Failed to create new session: " + msg.err.Error()
			// Hand the query back instead of dropping it.
			if msg.query != "" {
				m.input.SetValue(msg.query)
				m.input.CursorEnd()
			}
			m.refresh()
			return m, nil
		}
		m.refresh()
		if msg.query != "" {
			return m, m.startSubmit(msg.query)
		}
		return m, nil

	case sessionSwitchedMsg:
		if msg.err != nil {
			m.banner = "Failed to get chat history: " + msg.err.Error()
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "ctrl+n":
		// New chat. Ignored while a query is in flight.
		if m.creating || m.store.Transcript().HasPending() {
			return m, nil
		}
		m.banner = ""
		m.creating = true
		return m, m.createSessionCmd("")

	case "tab":
		// Cycle through recent sessions.
		if m.creating || m.store.Transcript().HasPending() {
			return m, nil
		}
		next := m.nextSessionID()
		if next == "" {
			return m, nil
		}
		m.banner = ""
		return m, m.switchSessionCmd(next)

	case "up", "pgup":
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case "down", "pgdown":
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		// Single-flight: a pending placeholder, or an in-flight session
		// create, disables submission.
		if m.creating || m.store.Transcript().HasPending() {
			return m, nil
		}
		m.input.Reset()
		if m.store.ActiveID() == "" {
			m.creating = true
			return m, m.createSessionCmd(query)
		}
		return m, m.startSubmit(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startSubmit appends the user message and placeholder, then dispatches the
// submission flow in the background.
func (m *Model) startSubmit(query string) tea.Cmd {
	tr := m.store.Transcript()
	tr.AppendUser(query)
	tr.AppendPending()
	m.banner = ""
	m.status = "Waiting for API response..."
	m.lastEvent = ""
	m.refresh()

	cmds := []tea.Cmd{m.submitCmd(m.store.ActiveID(), query), m.spin.Tick}
	if !m.listening {
		m.listening = true
		cmds = append(cmds, m.waitEvent())
	}
	return tea.Batch(cmds...)
}

func (m *Model) submitCmd(sessionID, query string) tea.Cmd {
	return func() tea.Msg {
		err := stream.Submit(context.Background(), m.gw, m.store, sessionID, query, m.cfg.Streaming, func(s stream.Snapshot) {
			select {
			case m.events <- progressMsg{snap: s}:
			default: // progress is ephemeral; drop when the UI lags
			}
		})
		return submitDoneMsg{err: err}
	}
}

func (m *Model) createSessionCmd(query string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.store.Create(context.Background())
		return sessionCreatedMsg{err: err, query: query}
	}
}

func (m *Model) switchSessionCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return sessionSwitchedMsg{err: m.store.SwitchActive(context.Background(), id)}
	}
}

func (m *Model) waitEvent() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

// nextSessionID returns the session after the active one in most-recent
// order, or empty when there is nothing to cycle to.
func (m *Model) nextSessionID() string {
	list := m.store.List()
	if len(list) < 2 {
		return ""
	}
	active := m.store.ActiveID()
	for i, s := range list {
		if s.ID == active {
			return list[(i+1)%len(list)].ID
		}
	}
	return list[0].ID
}

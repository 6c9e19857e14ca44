package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/syncoria/assistant-go/internal/chat"
)

var (
	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#875A7B")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			PaddingRight(1)

	sidebarTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#875A7B"))
	activeChatStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#875A7B"))
	chatItemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	youStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4D617A"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#875A7B"))
	timeStyle      = lipgloss.NewStyle().Faint(true)
	statusStyle    = lipgloss.NewStyle().Faint(true).Italic(true)
	linkStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Underline(true)
	bannerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := headerStyle.Width(m.width).Render("Syncoria Odoo Assistant" + m.sessionSuffix())

	main := m.vp.View()
	var bottom []string
	if m.banner != "" {
		bottom = append(bottom, bannerStyle.Render(m.banner))
	}
	bottom = append(bottom, m.input.View())
	bottom = append(bottom, helpStyle.Render("enter send · ctrl+n new chat · tab switch chat · ctrl+c quit"))

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.sidebar(),
		lipgloss.JoinVertical(lipgloss.Left, main, strings.Join(bottom, "\n")),
	)

	return header + "\n" + body
}

func (m Model) sessionSuffix() string {
	if id := m.store.ActiveID(); id != "" {
		return "  ·  Session: " + id
	}
	return "  ·  No active session"
}

// sidebar renders the recent-chat list, most recent first.
func (m Model) sidebar() string {
	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Recent Chats"))
	b.WriteString("\n")

	sessions := m.store.List()
	if len(sessions) == 0 {
		b.WriteString(helpStyle.Render("(none yet)"))
	}
	active := m.store.ActiveID()
	for _, s := range sessions {
		title := truncate(s.Title, sidebarWidth-4)
		if s.ID == active {
			b.WriteString(activeChatStyle.Render("> " + title))
		} else {
			b.WriteString(chatItemStyle.Render("  " + title))
		}
		b.WriteString("\n")
	}
	return sidebarStyle.Height(max(m.height-2, 3)).Render(b.String())
}

// refresh rebuilds the transcript pane.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.vp.SetContent(m.transcriptView())
	m.vp.GotoBottom()
}

func (m *Model) transcriptView() string {
	msgs := m.store.Transcript().Messages()
	if len(msgs) == 0 {
		return statusStyle.Render("Hello! I'm your Syncoria Odoo Assistant. How can I help you today?")
	}

	var parts []string
	for _, msg := range msgs {
		switch v := msg.(type) {
		case chat.UserMessage:
			parts = append(parts, m.renderUser(v))
		case chat.AssistantMessage:
			if v.Pending {
				parts = append(parts, m.renderPending())
			} else {
				parts = append(parts, m.renderAssistant(v))
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderUser(v chat.UserMessage) string {
	head := youStyle.Render("You")
	if ts := FormatTimestamp(v.Timestamp); ts != "" {
		head += " " + timeStyle.Render(ts)
	}
	return head + "\n" + v.Content
}

func (m *Model) renderPending() string {
	line := m.spin.View() + " " + statusStyle.Render(m.statusText())
	if m.lastEvent != "" {
		line += " " + timeStyle.Render("[event: "+m.lastEvent+"]")
	}
	return assistantStyle.Render("Syncoria Assistant") + "\n" + line
}

func (m *Model) statusText() string {
	if m.status != "" {
		return m.status
	}
	return "Analyzing..."
}

func (m *Model) renderAssistant(v chat.AssistantMessage) string {
	head := assistantStyle.Render("Syncoria Assistant")
	if ts := FormatTimestamp(v.Timestamp); ts != "" {
		head += " " + timeStyle.Render(ts)
	}

	parts := []string{head, m.renderMarkdown(v.Analysis)}
	if v.Dataframe != nil {
		parts = append(parts, RenderTable(v.Dataframe, 10))
	}
	if v.ChartURL != "" {
		parts = append(parts, linkStyle.Render("Chart: "+v.ChartURL))
	}
	if v.CSVURL != "" {
		parts = append(parts, linkStyle.Render("CSV: "+v.CSVURL))
	}
	if v.XLSXURL != "" {
		parts = append(parts, linkStyle.Render("XLSX: "+v.XLSXURL))
	}
	return strings.Join(parts, "\n")
}

// renderMarkdown renders analysis text, falling back to the raw string when
// the renderer is unavailable or chokes.
func (m *Model) renderMarkdown(s string) string {
	if m.renderer == nil {
		return s
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s
	}
	return strings.TrimRight(out, "\n")
}

// Package tui is the terminal chat surface. It drives the same send
// controller as the web surface; controller notifications are pumped
// into the Bubble Tea loop through a channel.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gemchat/pkg/attachment"
	"gemchat/pkg/chat"
	"gemchat/pkg/session"
	"gemchat/pkg/transcript"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

const (
	inputHeight = 3
	// viewport + separator + textarea + status line
	chromeHeight = inputHeight + 2
)

// transcriptChangedMsg signals that the transcript gained or updated
// an entry.
type transcriptChangedMsg struct{}

// sendFinishedMsg signals that the in-flight send completed, on
// success and failure alike.
type sendFinishedMsg struct{}

// teaNotifier forwards controller events into the program loop. The
// channel is buffered; a fast stream backpressures the send goroutine
// instead of dropping updates.
type teaNotifier struct {
	ch chan tea.Msg
}

func (n *teaNotifier) UserMessage(string) { n.ch <- transcriptChangedMsg{} }
func (n *teaNotifier) AIUpdate(string)    { n.ch <- transcriptChangedMsg{} }
func (n *teaNotifier) Error(string)       { n.ch <- transcriptChangedMsg{} }
func (n *teaNotifier) Done()              { n.ch <- sendFinishedMsg{} }

var _ session.Notifier = (*teaNotifier)(nil)

// Model is the Bubble Tea application state.
type Model struct {
	controller *session.Controller
	notify     chan tea.Msg

	textarea textarea.Model
	viewport viewport.Model

	width     int
	height    int
	ready     bool
	streaming bool
	status    string
}

// NewModel builds the terminal chat model around its own controller.
// chatSession may be nil when no API key is configured; sends then
// render an error entry.
func NewModel(chatSession chat.Session, tr *transcript.Transcript, attachments *attachment.Manager) Model {
	n := &teaNotifier{ch: make(chan tea.Msg, 64)}

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.SetHeight(inputHeight)
	ta.Focus()

	return Model{
		controller: session.NewController(chatSession, tr, attachments, n),
		notify:     n.ch,
		textarea:   ta,
		viewport:   viewport.New(),
	}
}

// Controller exposes the underlying send controller, mainly for tests.
func (m Model) Controller() *session.Controller {
	return m.controller
}

// Init arms the notification pump.
func (m Model) Init() tea.Cmd {
	return waitForNotify(m.notify)
}

func waitForNotify(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Update handles messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(max(msg.Height-chromeHeight, 1))
		m.textarea.SetWidth(msg.Width)
		m.refreshTranscript()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case transcriptChangedMsg:
		m.refreshTranscript()
		return m, waitForNotify(m.notify)

	case sendFinishedMsg:
		m.streaming = false
		m.status = ""
		m.refreshTranscript()
		return m, waitForNotify(m.notify)

	case tea.PasteMsg:
		m.textarea.InsertString(msg.Content)
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "enter":
		if m.streaming {
			return m, nil
		}
		return m.submit()

	case "ctrl+y":
		return m, m.copyLastReply()

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit sends the textarea content, or runs a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}

	_, hasAttachment := m.controller.Attachments().Current()
	if text == "" && !hasAttachment {
		return m, nil
	}

	m.textarea.Reset()
	m.streaming = true
	m.status = "Waiting for response..."

	controller := m.controller
	send := func() tea.Msg {
		// Failures surface as transcript entries via the notifier.
		_ = controller.Send(context.Background(), text)
		return nil
	}
	return m, send
}

// runCommand handles /attach, /detach and /quit.
func (m Model) runCommand(text string) (tea.Model, tea.Cmd) {
	name, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "/attach":
		if rest == "" {
			m.status = "Usage: /attach <path>"
			return m, nil
		}
		file, err := m.controller.Attachments().AttachPath(rest)
		if err != nil {
			m.status = "Attach failed: " + err.Error()
			return m, nil
		}
		m.textarea.Reset()
		m.status = "Attached " + file.Name
		return m, nil

	case "/detach":
		m.controller.Attachments().Clear()
		m.textarea.Reset()
		m.status = "Attachment removed"
		return m, nil

	case "/quit":
		return m, tea.Quit
	}

	m.status = "Unknown command: " + name
	return m, nil
}

// copyLastReply copies the most recent AI reply to the system
// clipboard via OSC 52.
func (m Model) copyLastReply() tea.Cmd {
	entries := m.controller.Transcript().Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Sender == transcript.SenderAI {
			text := entries[i].Text
			return func() tea.Msg {
				_, _ = fmt.Fprint(os.Stdout, osc52.New(text))
				return nil
			}
		}
	}
	return nil
}

func (m *Model) refreshTranscript() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderTranscript(m.controller.Transcript().Entries(), m.width))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// View renders the full-screen chat layout.
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("Starting gemchat...")
		v.AltScreen = true
		return v
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	v := tea.NewView(b.String())
	v.AltScreen = true
	return v
}

func (m Model) statusLine() string {
	if m.status != "" {
		return statusStyle.Render(truncateToWidth(m.status, m.width))
	}

	hints := "Enter Send | /attach <path> | Ctrl+Y Copy | Ctrl+C Quit"
	if file, ok := m.controller.Attachments().Current(); ok {
		prefix := "[file: " + file.Name + "]"
		rest := truncateToWidth(" "+hints, m.width-len(prefix))
		return attachmentStyle.Render(truncateToWidth(prefix, m.width)) + statusStyle.Render(rest)
	}
	return statusStyle.Render(truncateToWidth(hints, m.width))
}

// Run starts the terminal surface and blocks until it exits.
func Run(ctx context.Context, chatSession chat.Session, tr *transcript.Transcript, attachments *attachment.Manager) error {
	p := tea.NewProgram(
		NewModel(chatSession, tr, attachments),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal ui failed: %w", err)
	}
	return nil
}

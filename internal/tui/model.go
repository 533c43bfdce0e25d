// Package tui renders a tray session in the terminal: the transcript with
// assistant messages on the left and the user's on the right, the
// open/closed and mute state, and key gestures reported back to the session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	tray "github.com/koscakluka/ema-tray/core"
	"github.com/koscakluka/ema-tray/core/events"
)

// Session is the part of a tray view model the terminal drives.
type Session interface {
	Listen(ctx context.Context) error
	Open()
	Close()
	Activate()
	IsOpen() bool
	IsSilent() bool
	SetSilent(silent bool)
	Messages() []tray.Message
}

type setupDoneMsg struct {
	err error
}

type Model struct {
	ctx     context.Context
	session Session
	queue   *EventQueue

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int

	settingUp bool
	setupErr  error
	lastErr   string

	open      bool
	silent    bool
	listening bool
	speaking  bool
	messages  []tray.Message
}

func NewModel(ctx context.Context, session Session, queue *EventQueue) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	const width, height = 80, 24
	m := Model{
		ctx:       ctx,
		session:   session,
		queue:     queue,
		keys:      defaultKeyMap(),
		help:      help.New(),
		viewport:  viewport.New(width, height-chromeHeight),
		spinner:   s,
		width:     width,
		height:    height,
		settingUp: true,
		open:      session.IsOpen(),
		silent:    session.IsSilent(),
	}
	m.refreshMessages()
	return m
}

// Lines taken by the header, status line and help.
const chromeHeight = 6

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.queue.wait(), m.listen())
}

func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		return setupDoneMsg{err: m.session.Listen(m.ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.help.Width = msg.Width
		m.refreshMessages()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.handleEvent(msg.event)
		return m, m.queue.wait()

	case setupDoneMsg:
		m.settingUp = false
		m.setupErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Open):
		m.session.Open()
	case key.Matches(msg, m.keys.Close):
		m.session.Close()
	case key.Matches(msg, m.keys.Mute):
		m.session.SetSilent(!m.silent)
	case key.Matches(msg, m.keys.Listen):
		m.session.Activate()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleEvent(event events.Event) {
	switch e := event.(type) {
	case events.Opened:
		m.open = true
	case events.Closed:
		m.open = false
	case events.MuteChanged:
		m.silent = e.Silent
	case events.Activated:
		m.listening = true
		m.lastErr = ""
	case events.Deactivated:
		m.listening = false
	case events.BeganSpeaking:
		m.speaking = true
	case events.FinishedSpeaking:
		m.speaking = false
	case events.MessageAdded:
		m.refreshMessages()
	case events.SetupCompleted:
		m.settingUp = false
	case events.SetupFailed:
		m.settingUp = false
		m.setupErr = e.Err
	case events.SpeechError:
		m.lastErr = failure(e.Kind(), e.Message)
	case events.NLUError:
		m.lastErr = failure(e.Kind(), e.Message)
	case events.TTSError:
		m.lastErr = failure(e.Kind(), e.Message)
	}
}

func failure(kind events.Kind, message string) string {
	return fmt.Sprintf("%s: %s", kind.Source(), message)
}

func (m *Model) refreshMessages() {
	m.messages = m.session.Messages()
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	if len(m.messages) == 0 {
		return closedStyle.Render("Nothing said yet.")
	}

	width := max(m.viewport.Width, 20)
	wrapAt := width * 2 / 3

	var b strings.Builder
	for i, message := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		text := wordwrap.String(message.Text, wrapAt)
		switch message.Alignment {
		case tray.AlignRight:
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, userStyle.Render(text)))
		default:
			b.WriteString(assistantStyle.Render(text))
		}
	}
	return b.String()
}

func (m Model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("ema tray"), "  ", m.stateView())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		panelStyle.Width(max(m.width-2, 1)).Render(m.viewport.View()),
		m.statusView(),
		m.help.View(m.keys),
	)
}

func (m Model) stateView() string {
	var parts []string
	if m.open {
		parts = append(parts, openStyle.Render("● open"))
	} else {
		parts = append(parts, closedStyle.Render("○ closed"))
	}
	if m.silent {
		parts = append(parts, mutedStyle.Render("muted"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) statusView() string {
	switch {
	case m.setupErr != nil:
		return errorStyle.Render(fmt.Sprintf("setup failed: %v", m.setupErr))
	case m.settingUp:
		return m.spinner.View() + " setting up"
	case m.lastErr != "":
		return errorStyle.Render(m.lastErr)
	case m.speaking:
		return "speaking"
	case m.listening:
		return m.spinner.View() + " listening"
	default:
		return closedStyle.Render("idle")
	}
}

package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	tray "github.com/koscakluka/ema-tray/core"
	"github.com/koscakluka/ema-tray/core/events"
)

type fakeSession struct {
	mu        sync.Mutex
	opens     int
	closes    int
	activates int
	open      bool
	silent    bool
	messages  []tray.Message
	listenErr error
}

func (s *fakeSession) Listen(context.Context) error { return s.listenErr }

func (s *fakeSession) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	s.open = true
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	s.open = false
}

func (s *fakeSession) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activates++
}

func (s *fakeSession) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *fakeSession) IsSilent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.silent
}

func (s *fakeSession) SetSilent(silent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = silent
}

func (s *fakeSession) Messages() []tray.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tray.Message(nil), s.messages...)
}

func (s *fakeSession) add(alignment tray.Alignment, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, tray.Message{ID: text, Alignment: alignment, Text: text})
}

func newTestModel(t *testing.T, session *fakeSession) Model {
	t.Helper()
	m := NewModel(context.Background(), session, NewEventQueue(8))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	return updated.(Model)
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return updated.(Model), cmd
}

func deliver(t *testing.T, m Model, event events.Event) Model {
	t.Helper()
	updated, cmd := m.Update(eventMsg{event: event})
	if cmd == nil {
		t.Fatal("event handling should keep waiting for events")
	}
	return updated.(Model)
}

func TestKeysReportGestures(t *testing.T) {
	session := &fakeSession{}
	m := newTestModel(t, session)

	m, _ = press(t, m, "o")
	m, _ = press(t, m, "c")
	m, _ = press(t, m, "l")
	m, _ = press(t, m, "m")

	if session.opens != 1 || session.closes != 1 || session.activates != 1 {
		t.Errorf("opens/closes/activates = %d/%d/%d, want 1/1/1", session.opens, session.closes, session.activates)
	}
	if !session.IsSilent() {
		t.Error("m should mute the session")
	}

	// The model toggles from its own mute state, which only follows events.
	m = deliver(t, m, events.NewMuteChanged(true))
	press(t, m, "m")
	if session.IsSilent() {
		t.Error("second m should unmute the session")
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t, &fakeSession{})

	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s: no command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: command does not quit", msg)
		}
	}
}

func TestViewFollowsTrayEvents(t *testing.T) {
	session := &fakeSession{}
	m := newTestModel(t, session)

	if !strings.Contains(m.View(), "closed") {
		t.Fatalf("initial view should be closed:\n%s", m.View())
	}

	m = deliver(t, m, events.NewOpened())
	if !strings.Contains(m.View(), "open") || strings.Contains(m.View(), "closed") {
		t.Errorf("view should be open:\n%s", m.View())
	}

	m = deliver(t, m, events.NewMuteChanged(true))
	if !strings.Contains(m.View(), "muted") {
		t.Errorf("view should show muted:\n%s", m.View())
	}

	m = deliver(t, m, events.NewClosed())
	if !strings.Contains(m.View(), "closed") {
		t.Errorf("view should be closed again:\n%s", m.View())
	}
}

func TestMessagesRenderInOrder(t *testing.T) {
	session := &fakeSession{}
	m := newTestModel(t, session)

	session.add(tray.AlignLeft, "hello there")
	m = deliver(t, m, events.NewMessageAdded("1", string(tray.AlignLeft), "hello there"))
	session.add(tray.AlignRight, "lights on")
	m = deliver(t, m, events.NewMessageAdded("2", string(tray.AlignRight), "lights on"))

	view := m.View()
	first := strings.Index(view, "hello there")
	second := strings.Index(view, "lights on")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("messages missing or out of order:\n%s", view)
	}
}

func TestSetupFailureIsShown(t *testing.T) {
	m := newTestModel(t, &fakeSession{})
	if !strings.Contains(m.View(), "setting up") {
		t.Fatalf("view should show setup in progress:\n%s", m.View())
	}

	updated, _ := m.Update(setupDoneMsg{err: errors.New("microphone denied")})
	m = updated.(Model)
	if !strings.Contains(m.View(), "microphone denied") {
		t.Errorf("view should show the setup error:\n%s", m.View())
	}
}

func TestListenCommandRunsSetup(t *testing.T) {
	session := &fakeSession{listenErr: errors.New("boom")}
	m := newTestModel(t, session)

	msg := m.listen()()
	done, ok := msg.(setupDoneMsg)
	if !ok || done.err == nil {
		t.Fatalf("listen produced %#v", msg)
	}
}

func TestEventQueueDropsWhenFull(t *testing.T) {
	queue := NewEventQueue(1)
	queue.Publish(events.NewOpened())
	queue.Publish(events.NewClosed())

	msg := queue.wait()().(eventMsg)
	if msg.event.Kind() != events.KindOpened {
		t.Errorf("first event = %s, want %s", msg.event.Kind(), events.KindOpened)
	}
	select {
	case event := <-queue.events:
		t.Errorf("unexpected queued event %s", event.Kind())
	default:
	}
}

func TestEngineErrorNamesItsSource(t *testing.T) {
	m := newTestModel(t, &fakeSession{})
	updated, _ := m.Update(setupDoneMsg{})
	m = updated.(Model)

	m = deliver(t, m, events.NewTTSError(errors.New("voice unavailable")))
	if !strings.Contains(m.View(), "tts: voice unavailable") {
		t.Fatalf("view should show the tts error:\n%s", m.View())
	}

	m = deliver(t, m, events.NewActivated())
	if strings.Contains(m.View(), "voice unavailable") {
		t.Fatalf("activation should clear the error:\n%s", m.View())
	}
}

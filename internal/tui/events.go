package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-tray/core/events"
)

// EventQueue carries session events from the tray callback onto the
// program loop.
type EventQueue struct {
	events chan events.Event
}

func NewEventQueue(size int) *EventQueue {
	return &EventQueue{events: make(chan events.Event, size)}
}

// Publish never blocks. Events arriving while the buffer is full are
// dropped; the next rendered event re-reads the transcript anyway.
func (q *EventQueue) Publish(event events.Event) {
	select {
	case q.events <- event:
	default:
		logger.Warn("tui event queue full, dropping event", "kind", event.Kind().String())
	}
}

type eventMsg struct {
	event events.Event
}

func (q *EventQueue) wait() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{event: <-q.events}
	}
}

package tray

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Alignment string

const (
	// AlignLeft marks assistant messages.
	AlignLeft Alignment = "left"
	// AlignRight marks user messages.
	AlignRight Alignment = "right"
)

type Message struct {
	ID        string
	Alignment Alignment
	Text      string
	CreatedAt time.Time
}

// MessageStore is the append-only transcript shown in the tray.
type MessageStore struct {
	mu       sync.RWMutex
	messages []Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) Add(alignment Alignment, text string) Message {
	message := Message{
		ID:        uuid.NewString(),
		Alignment: alignment,
		Text:      text,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()

	return message
}

// Messages returns a copy of the transcript in insertion order.
func (s *MessageStore) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)
	return messages
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

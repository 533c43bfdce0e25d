package events

const (
	// KindShouldOpenChanged identifies an open/close decision.
	KindShouldOpenChanged Kind = "tray.should_open_changed"
	// KindOpened identifies the tray opening.
	KindOpened Kind = "tray.opened"
	// KindClosed identifies the tray closing.
	KindClosed Kind = "tray.closed"
	// KindMessageAdded identifies a transcript message append.
	KindMessageAdded Kind = "tray.message_added"
	// KindMuteChanged identifies a mute toggle.
	KindMuteChanged Kind = "tray.mute_changed"
	// KindSetupCompleted identifies a finished setup sequence.
	KindSetupCompleted Kind = "setup.completed"
	// KindSetupFailed identifies an aborted setup sequence.
	KindSetupFailed Kind = "setup.failed"
)

// ShouldOpenChanged carries the session decision on whether the tray should
// be open.
type ShouldOpenChanged struct {
	Base
	Open bool
}

// NewShouldOpenChanged creates an open/close decision event.
func NewShouldOpenChanged(open bool) ShouldOpenChanged {
	return ShouldOpenChanged{Base: NewBase(KindShouldOpenChanged), Open: open}
}

// Opened marks the tray moving to the open state.
type Opened struct{ Base }

// NewOpened creates a tray opened event.
func NewOpened() Opened {
	return Opened{Base: NewBase(KindOpened)}
}

// Closed marks the tray moving to the closed state.
type Closed struct{ Base }

// NewClosed creates a tray closed event.
func NewClosed() Closed {
	return Closed{Base: NewBase(KindClosed)}
}

// MessageAdded carries a message appended to the tray transcript.
//
// Alignment is "left" for assistant messages and "right" for user messages.
type MessageAdded struct {
	Base
	MessageID string
	Alignment string
	Text      string
}

// NewMessageAdded creates a message appended event.
func NewMessageAdded(messageID, alignment, text string) MessageAdded {
	return MessageAdded{Base: NewBase(KindMessageAdded), MessageID: messageID, Alignment: alignment, Text: text}
}

// MuteChanged carries the new mute state.
type MuteChanged struct {
	Base
	Silent bool
}

// NewMuteChanged creates a mute toggle event.
func NewMuteChanged(silent bool) MuteChanged {
	return MuteChanged{Base: NewBase(KindMuteChanged), Silent: silent}
}

// SetupCompleted marks a finished setup sequence.
type SetupCompleted struct{ Base }

// NewSetupCompleted creates a setup completed event.
func NewSetupCompleted() SetupCompleted {
	return SetupCompleted{Base: NewBase(KindSetupCompleted)}
}

// SetupFailed carries the reason a setup sequence was aborted.
type SetupFailed struct {
	Base
	Err error
}

// NewSetupFailed creates a setup failed event.
func NewSetupFailed(err error) SetupFailed {
	return SetupFailed{Base: NewBase(KindSetupFailed), Err: err}
}

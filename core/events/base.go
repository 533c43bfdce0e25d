package events

import (
	"strings"
	"time"
)

// Kind is "<source>.<name>", for example "pipeline.recognized".
type Kind string

func (k Kind) String() string { return string(k) }

// Source names the part of the tray session that reports events of this
// kind.
func (k Kind) Source() Source {
	source, _, _ := strings.Cut(string(k), ".")
	return Source(source)
}

type Source string

const (
	SourcePipeline Source = "pipeline"
	SourceNLU      Source = "nlu"
	SourceTTS      Source = "tts"
	SourceTray     Source = "tray"
	SourceSetup    Source = "setup"
)

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind Kind
	at   time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, at: time.Now()}
}

func (b Base) Kind() Kind { return b.kind }

func (b Base) Timestamp() time.Time { return b.at }

package tray

import (
	"strings"

	"github.com/koscakluka/ema-tray/core/events"
	"github.com/koscakluka/ema-tray/core/models"
	"github.com/koscakluka/ema-tray/core/texttospeech"
)

const (
	DefaultGreeting = "Welcome to the voice tray"
	DefaultVoice    = "aura-asteria-en"
)

// Configuration is frozen when the session is built and shared read-only by
// the view model and the speech controller.
type Configuration struct {
	Greeting    string
	SayGreeting bool
	// Silent is the initial mute state.
	Silent    bool
	ExitNodes []string

	IntentHandler  IntentHandler
	EditTranscript func(transcript string) string
	OnEvent        func(events.Event)
	OnOpen         func()
	OnClose        func()

	ModelURLs models.URLs
	Voice     string
	Format    texttospeech.Format
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Greeting:    DefaultGreeting,
		SayGreeting: true,
		ModelURLs:   models.DefaultWakewordURLs(),
		Voice:       DefaultVoice,
		Format:      texttospeech.FormatText,
	}
}

// IsExitNode reports whether node is one of the exit nodes, ignoring case.
func (c *Configuration) IsExitNode(node string) bool {
	node = strings.TrimSpace(node)
	if node == "" {
		return false
	}
	for _, exitNode := range c.ExitNodes {
		if strings.EqualFold(strings.TrimSpace(exitNode), node) {
			return true
		}
	}
	return false
}

func (c *Configuration) clone() Configuration {
	cloned := *c
	cloned.ExitNodes = append([]string(nil), c.ExitNodes...)
	cloned.ModelURLs = models.URLs{}.Merge(c.ModelURLs)
	return cloned
}

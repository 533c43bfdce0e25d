// Package hostconfig handles reading and writing the terminal tray's
// config.yaml.
package hostconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	tray "github.com/koscakluka/ema-tray/core"
	"github.com/koscakluka/ema-tray/core/models"
	"github.com/koscakluka/ema-tray/core/nlu"
	"github.com/koscakluka/ema-tray/core/texttospeech"
	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Greeting GreetingConfig `yaml:"greeting"`
	Silent   bool           `yaml:"silent"`
	Voice    string         `yaml:"voice"`
	Format   string         `yaml:"format"` // "text" | "ssml" | "markdown"

	// ExitNodes end the conversation once their prompt has been spoken.
	ExitNodes []string                `yaml:"exit_nodes"`
	Intents   map[string]IntentConfig `yaml:"intents"`
	// Fallback answers intents missing from Intents. Empty drops them.
	Fallback IntentConfig `yaml:"fallback"`

	Models  ModelsConfig  `yaml:"models"`
	Speech  SpeechConfig  `yaml:"speech"`
	NLU     NLUConfig     `yaml:"nlu"`
	Storage StorageConfig `yaml:"storage"`
}

// GreetingConfig controls the first-open greeting.
type GreetingConfig struct {
	Text    string `yaml:"text"`
	Enabled bool   `yaml:"enabled"`
}

// IntentConfig is one row of the intent table. Prompt may reference slots
// as {slot_name}.
type IntentConfig struct {
	Node   string `yaml:"node"`
	Prompt string `yaml:"prompt"`
}

// ModelsConfig locates the model files. Empty URLs keep the built-in
// defaults.
type ModelsConfig struct {
	Dir           string `yaml:"dir"`
	NLUModel      string `yaml:"nlu_model"`
	NLUMetadata   string `yaml:"nlu_metadata"`
	NLUVocabulary string `yaml:"nlu_vocabulary"`
	WakeFilter    string `yaml:"wake_filter"`
	WakeEncode    string `yaml:"wake_encode"`
	WakeDetect    string `yaml:"wake_detect"`
}

// SpeechConfig configures the speech pipeline.
type SpeechConfig struct {
	Model             string `yaml:"model"`
	Language          string `yaml:"language"`
	ActivationTimeout int    `yaml:"activation_timeout"` // ms
	SampleRate        int    `yaml:"sample_rate"`
}

// NLUConfig configures the classification engine.
type NLUConfig struct {
	Model string `yaml:"model"`
}

// StorageConfig selects where the durable session flags live.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "json" | "memory"
	Path   string `yaml:"path"`
}

const configFile = "config.yaml"

// DefaultDir is the directory config.yaml and the flag store live in by
// default.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ema-tray")
}

// ReadConfig reads path. A missing file yields DefaultConfig; fields absent
// from the file keep their defaults.
func ReadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to path, creating its directory if needed.
func WriteConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultPath is the config file inside DefaultDir.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), configFile)
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	defaults := tray.DefaultConfiguration()
	return &Config{
		Version: 1,
		Greeting: GreetingConfig{
			Text:    defaults.Greeting,
			Enabled: true,
		},
		Voice:     defaults.Voice,
		Format:    defaults.Format.String(),
		ExitNodes: []string{"exit"},
		Intents: map[string]IntentConfig{
			"greet":    {Node: "greet", Prompt: "Hi there. What can I do for you?"},
			"help":     {Node: "help", Prompt: "You can ask me to do things, or say goodbye to close the tray."},
			"goodbye":  {Node: "exit", Prompt: "Goodbye."},
			"navigate": {Node: "navigate", Prompt: "Opening {location}."},
		},
		Fallback: IntentConfig{Node: "fallback", Prompt: "Sorry, I didn't get that."},
		Speech: SpeechConfig{
			ActivationTimeout: 5000,
			SampleRate:        16000,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   filepath.Join(DefaultDir(), "flags.db"),
		},
	}
}

// ActivationTimeout is Speech.ActivationTimeout as a duration.
func (c *Config) ActivationTimeout() time.Duration {
	return time.Duration(c.Speech.ActivationTimeout) * time.Millisecond
}

// ModelURLs returns the URLs set in the file, keyed for models.URLs. Keys
// left empty are omitted so the session defaults apply.
func (c *Config) ModelURLs() models.URLs {
	urls := models.URLs{}
	for key, value := range map[string]string{
		models.KeyNLUModel:       c.Models.NLUModel,
		models.KeyNLUMetadata:    c.Models.NLUMetadata,
		models.KeyNLUVocabulary:  c.Models.NLUVocabulary,
		models.KeyWakewordFilter: c.Models.WakeFilter,
		models.KeyWakewordEncode: c.Models.WakeEncode,
		models.KeyWakewordDetect: c.Models.WakeDetect,
	} {
		if value != "" {
			urls[key] = value
		}
	}
	return urls
}

// TrayOptions translates the file into session options.
func (c *Config) TrayOptions() []tray.Option {
	opts := []tray.Option{
		tray.WithSilent(c.Silent),
		tray.WithExitNodes(c.ExitNodes...),
		tray.WithIntentHandler(c.IntentHandler()),
		tray.WithTTSFormat(texttospeech.ParseFormat(c.Format)),
	}
	if c.Voice != "" {
		opts = append(opts, tray.WithVoice(c.Voice))
	}
	if c.Greeting.Enabled {
		opts = append(opts, tray.WithGreeting(c.Greeting.Text))
	} else {
		opts = append(opts, tray.WithoutGreeting())
	}
	if urls := c.ModelURLs(); len(urls) > 0 {
		opts = append(opts, tray.WithModelURLs(urls))
	}
	return opts
}

// IntentHandler answers classifications from the intent table.
func (c *Config) IntentHandler() tray.IntentHandler {
	intents := make(map[string]IntentConfig, len(c.Intents))
	for name, intent := range c.Intents {
		intents[name] = intent
	}
	fallback := c.Fallback

	return func(intent string, slots map[string]nlu.Slot, utterance string) *tray.IntentResult {
		row, ok := intents[intent]
		if !ok {
			row = fallback
		}
		if row.Prompt == "" && row.Node == "" {
			return nil
		}

		return &tray.IntentResult{
			Node:   row.Node,
			Prompt: fillSlots(row.Prompt, slots),
			Data:   utterance,
		}
	}
}

func fillSlots(prompt string, slots map[string]nlu.Slot) string {
	if len(slots) == 0 || !strings.Contains(prompt, "{") {
		return prompt
	}

	pairs := make([]string, 0, 2*len(slots))
	for name, slot := range slots {
		value := slot.RawValue
		if value == "" && slot.Value != nil {
			value = fmt.Sprint(slot.Value)
		}
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(prompt)
}

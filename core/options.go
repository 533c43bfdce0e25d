package tray

import (
	"context"
	"os"
	"path/filepath"

	"github.com/koscakluka/ema-tray/core/events"
	"github.com/koscakluka/ema-tray/core/models"
	"github.com/koscakluka/ema-tray/core/nlu"
	"github.com/koscakluka/ema-tray/core/permissions"
	"github.com/koscakluka/ema-tray/core/pipeline"
	"github.com/koscakluka/ema-tray/core/store"
	"github.com/koscakluka/ema-tray/core/texttospeech"
)

type Option func(*settings)

type settings struct {
	config      Configuration
	baseContext context.Context

	pipeline     SpeechPipeline
	nlu          NLU
	textToSpeech TextToSpeech

	flags      store.FlagStore
	gate       PermissionGate
	downloader ModelDownloader
}

func newSettings(opts ...Option) settings {
	s := settings{
		config:      DefaultConfiguration(),
		baseContext: context.Background(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	if s.flags == nil {
		s.flags = store.NewMemoryStore()
	}
	if s.gate == nil {
		s.gate = permissions.NewGate(nil, nil)
	}
	if s.downloader == nil {
		s.downloader = models.NewCoordinator(defaultModelDir())
	}
	return s
}

func defaultModelDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ema-tray", "models")
}

// SpeechPipeline performs wake-word detection and speech recognition.
// Results are reported through the callbacks passed to Configure.
type SpeechPipeline interface {
	Configure(opts ...pipeline.Option) error
	Start(ctx context.Context) error
	Stop() error
	Activate() error
	Deactivate() error
}

func WithSpeechPipeline(client SpeechPipeline) Option {
	return func(s *settings) {
		s.pipeline = client
	}
}

// NLU classifies utterances. Classify returns once the request is accepted;
// the result arrives through the classification callback.
type NLU interface {
	Initialize(ctx context.Context, paths nlu.ModelPaths, opts ...nlu.Option) error
	Classify(ctx context.Context, utterance string) error
}

func WithNLU(client NLU) Option {
	return func(s *settings) {
		s.nlu = client
	}
}

// TextToSpeech synthesizes and plays prompts. Speak returns once the request
// is accepted.
type TextToSpeech interface {
	Speak(ctx context.Context, input texttospeech.Input, opts ...texttospeech.Option) error
}

func WithTextToSpeech(client TextToSpeech) Option {
	return func(s *settings) {
		s.textToSpeech = client
	}
}

type PermissionGate interface {
	Request(ctx context.Context) permissions.Outcome
}

func WithPermissionGate(gate PermissionGate) Option {
	return func(s *settings) {
		s.gate = gate
	}
}

type ModelDownloader interface {
	DownloadAll(ctx context.Context, urls models.URLs) (models.DownloadedModelSet, error)
	Resolve(urls models.URLs) (models.DownloadedModelSet, error)
}

func WithModelDownloader(downloader ModelDownloader) Option {
	return func(s *settings) {
		s.downloader = downloader
	}
}

// WithFlagStore sets where onboarding, greeting and download flags persist.
// Without it flags only last for the process.
func WithFlagStore(flags store.FlagStore) Option {
	return func(s *settings) {
		s.flags = flags
	}
}

// WithContext sets the context engine calls run under.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		if ctx != nil {
			s.baseContext = ctx
		}
	}
}

func WithGreeting(greeting string) Option {
	return func(s *settings) {
		s.config.Greeting = greeting
		s.config.SayGreeting = true
	}
}

func WithoutGreeting() Option {
	return func(s *settings) {
		s.config.SayGreeting = false
	}
}

func WithSilent(silent bool) Option {
	return func(s *settings) {
		s.config.Silent = silent
	}
}

func WithExitNodes(nodes ...string) Option {
	return func(s *settings) {
		s.config.ExitNodes = append(s.config.ExitNodes, nodes...)
	}
}

func WithIntentHandler(handler IntentHandler) Option {
	return func(s *settings) {
		s.config.IntentHandler = handler
	}
}

func WithTranscriptEditor(edit func(transcript string) string) Option {
	return func(s *settings) {
		s.config.EditTranscript = edit
	}
}

func WithEventCallback(callback func(events.Event)) Option {
	return func(s *settings) {
		s.config.OnEvent = callback
	}
}

func WithOpenCallback(callback func()) Option {
	return func(s *settings) {
		s.config.OnOpen = callback
	}
}

func WithCloseCallback(callback func()) Option {
	return func(s *settings) {
		s.config.OnClose = callback
	}
}

// WithModelURLs layers urls over the configured model locations.
func WithModelURLs(urls models.URLs) Option {
	return func(s *settings) {
		s.config.ModelURLs = s.config.ModelURLs.Merge(urls)
	}
}

func WithNLUModelURLs(model, metadata, vocabulary string) Option {
	return WithModelURLs(models.URLs{
		models.KeyNLUModel:      model,
		models.KeyNLUMetadata:   metadata,
		models.KeyNLUVocabulary: vocabulary,
	})
}

func WithWakewordModelURLs(filter, encode, detect string) Option {
	return WithModelURLs(models.URLs{
		models.KeyWakewordFilter: filter,
		models.KeyWakewordEncode: encode,
		models.KeyWakewordDetect: detect,
	})
}

func WithVoice(voice string) Option {
	return func(s *settings) {
		if voice != "" {
			s.config.Voice = voice
		}
	}
}

func WithTTSFormat(format texttospeech.Format) Option {
	return func(s *settings) {
		s.config.Format = format
	}
}

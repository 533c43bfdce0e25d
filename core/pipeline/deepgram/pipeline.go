// Package deepgram is a speech pipeline that streams captured audio to
// Deepgram while the tray is listening.
//
// Listening only starts through Activate. Wake-word models are checked to be
// on disk but detection itself is left to the host.
package deepgram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-tray/core/audio"
	"github.com/koscakluka/ema-tray/core/pipeline"
)

const (
	defaultListenURL         = "wss://api.deepgram.com/v1/listen"
	defaultModel             = "nova-3"
	defaultLanguage          = "en-US"
	defaultActivationTimeout = 5 * time.Second
)

var (
	ErrNotConfigured = errors.New("pipeline not configured")
	ErrNotStarted    = errors.New("pipeline not started")
	ErrMissingAPIKey = errors.New("deepgram api key not found")
)

// AudioSource delivers microphone audio.
type AudioSource interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

type Pipeline struct {
	source            AudioSource
	apiKey            string
	listenURL         string
	model             string
	language          string
	activationTimeout time.Duration
	dialer            *websocket.Dialer

	mu         sync.Mutex
	options    pipeline.Options
	encoding   encodingInfo
	configured bool
	running    bool
	baseCtx    context.Context
	activation *activation
}

type PipelineOption func(*Pipeline)

// WithAPIKey overrides the DEEPGRAM_API_KEY environment variable.
func WithAPIKey(apiKey string) PipelineOption {
	return func(p *Pipeline) {
		p.apiKey = apiKey
	}
}

func WithListenURL(listenURL string) PipelineOption {
	return func(p *Pipeline) {
		p.listenURL = listenURL
	}
}

func WithModel(model string) PipelineOption {
	return func(p *Pipeline) {
		p.model = model
	}
}

func WithLanguage(language string) PipelineOption {
	return func(p *Pipeline) {
		p.language = language
	}
}

// WithActivationTimeout sets how long an activation waits for speech before
// it times out.
func WithActivationTimeout(timeout time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.activationTimeout = timeout
		}
	}
}

func WithDialer(dialer *websocket.Dialer) PipelineOption {
	return func(p *Pipeline) {
		if dialer != nil {
			p.dialer = dialer
		}
	}
}

func NewPipeline(source AudioSource, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source:            source,
		apiKey:            os.Getenv("DEEPGRAM_API_KEY"),
		listenURL:         defaultListenURL,
		model:             defaultModel,
		language:          defaultLanguage,
		activationTimeout: defaultActivationTimeout,
		dialer:            websocket.DefaultDialer,
		options:           pipeline.NewOptions(),
		baseCtx:           context.Background(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Configure binds the callbacks and checks the wake-word models exist.
func (p *Pipeline) Configure(opts ...pipeline.Option) error {
	options := pipeline.NewOptions(opts...)
	if p.source != nil {
		options.EncodingInfo = p.source.EncodingInfo()
	}

	for _, path := range []string{options.WakewordModels.Filter, options.WakewordModels.Encode, options.WakewordModels.Detect} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("wake-word model unavailable: %w", err)
		}
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	p.mu.Lock()
	p.options = options
	p.encoding = encoding
	p.configured = true
	p.mu.Unlock()

	options.InitializedCallback()
	return nil
}

func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if !p.configured {
		p.mu.Unlock()
		return ErrNotConfigured
	}
	if p.running {
		p.mu.Unlock()
		return nil
	}
	if p.source == nil {
		p.mu.Unlock()
		return errors.New("no audio source")
	}
	p.mu.Unlock()

	if err := p.source.StartCapture(ctx, p.onAudio); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	p.mu.Lock()
	p.running = true
	p.baseCtx = ctx
	options := p.options
	p.mu.Unlock()

	options.StartedCallback()
	return nil
}

func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	current := p.activation
	options := p.options
	p.mu.Unlock()

	if current != nil {
		p.finish(current, activationResult{})
	}

	var err error
	if stopErr := p.source.StopCapture(); stopErr != nil {
		err = fmt.Errorf("failed to stop capture: %w", stopErr)
	}
	options.StoppedCallback()
	return err
}

// Activate opens a recognition stream. It ends with a transcript, a timeout
// or Deactivate.
func (p *Pipeline) Activate() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrNotStarted
	}
	if p.activation != nil {
		p.mu.Unlock()
		return nil
	}
	encoding := p.encoding
	ctx := p.baseCtx
	options := p.options
	p.mu.Unlock()

	conn, err := p.connect(ctx, encoding)
	if err != nil {
		return err
	}

	current := newActivation(conn, p.activationTimeout)
	current.timer = time.AfterFunc(p.activationTimeout, func() {
		p.finish(current, activationResult{timedOut: true})
	})

	p.mu.Lock()
	if p.activation != nil || !p.running {
		p.mu.Unlock()
		current.close()
		return nil
	}
	p.activation = current
	p.mu.Unlock()

	go p.readMessages(current)

	options.ActivatedCallback()
	return nil
}

func (p *Pipeline) Deactivate() error {
	p.mu.Lock()
	current := p.activation
	p.mu.Unlock()

	if current != nil {
		p.finish(current, activationResult{})
	}
	return nil
}

func (p *Pipeline) onAudio(chunk []byte) {
	p.mu.Lock()
	current := p.activation
	p.mu.Unlock()

	if current == nil {
		return
	}
	if err := current.send(chunk); err != nil {
		logger.Debug("failed to stream audio", "error", err)
	}
}

func (p *Pipeline) connect(ctx context.Context, encoding encodingInfo) (*websocket.Conn, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	listenURL, err := url.Parse(p.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format)
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", p.model)
	queryParams.Set("language", p.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := p.dialer.DialContext(ctx, listenURL.String(), http.Header{"Authorization": {"Token " + p.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

type activationResult struct {
	transcript *string
	timedOut   bool
	err        error
}

// finish ends current exactly once and reports how it ended.
func (p *Pipeline) finish(current *activation, result activationResult) {
	p.mu.Lock()
	if p.activation != current {
		p.mu.Unlock()
		return
	}
	p.activation = nil
	options := p.options
	p.mu.Unlock()

	current.close()

	switch {
	case result.err != nil:
		options.ErrorCallback(result.err)
	case result.timedOut:
		options.TimeoutCallback()
	case result.transcript != nil:
		options.RecognizedCallback(*result.transcript)
	}
	options.DeactivatedCallback()
}

// Package deepgram synthesizes prompts over the Deepgram speak websocket,
// keeps the audio on disk and plays it back.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-tray/core/audio"
	"github.com/koscakluka/ema-tray/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultSpeakURL = "wss://api.deepgram.com/v1/speak"

var (
	ErrInvalidVoice  = errors.New("invalid voice")
	ErrEmptyPrompt   = errors.New("nothing to speak")
	ErrMissingAPIKey = errors.New("deepgram api key not found")
)

// Player plays raw audio and returns once it finished.
type Player interface {
	Play(ctx context.Context, pcm []byte) error
}

// encodedPlayer is a Player whose device runs at a fixed encoding.
type encodedPlayer interface {
	EncodingInfo() audio.EncodingInfo
}

type Engine struct {
	apiKey    string
	speakURL  string
	dialer    *websocket.Dialer
	outputDir string
	player    Player
	// encodingInfo is requested unless a Speak call overrides it.
	encodingInfo audio.EncodingInfo

	// playMu keeps prompts from talking over each other.
	playMu sync.Mutex
}

type EngineOption func(*Engine)

// WithAPIKey overrides the DEEPGRAM_API_KEY environment variable.
func WithAPIKey(apiKey string) EngineOption {
	return func(e *Engine) {
		e.apiKey = apiKey
	}
}

func WithSpeakURL(speakURL string) EngineOption {
	return func(e *Engine) {
		if speakURL != "" {
			e.speakURL = speakURL
		}
	}
}

func WithDialer(dialer *websocket.Dialer) EngineOption {
	return func(e *Engine) {
		if dialer != nil {
			e.dialer = dialer
		}
	}
}

// WithOutputDir sets where synthesized audio files are written.
func WithOutputDir(dir string) EngineOption {
	return func(e *Engine) {
		if dir != "" {
			e.outputDir = dir
		}
	}
}

// WithPlayer plays every synthesized prompt. Without a player prompts are
// only written to disk. A player reporting its encoding is synthesized for
// at that encoding.
func WithPlayer(player Player) EngineOption {
	return func(e *Engine) {
		e.player = player
		if encoded, ok := player.(encodedPlayer); ok {
			if info := encoded.EncodingInfo(); !info.IsZero() {
				e.encodingInfo = info
			}
		}
	}
}

// WithEncodingInfo sets the encoding audio is synthesized at.
func WithEncodingInfo(encodingInfo audio.EncodingInfo) EngineOption {
	return func(e *Engine) {
		if !encodingInfo.IsZero() {
			e.encodingInfo = encodingInfo
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		apiKey:    os.Getenv("DEEPGRAM_API_KEY"),
		speakURL:  defaultSpeakURL,
		dialer:    websocket.DefaultDialer,
		outputDir: filepath.Join(os.TempDir(), "ema-tray", "speech"),

		encodingInfo: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Speak accepts the prompt and reports through the callbacks once the audio
// was synthesized and while it plays.
func (e *Engine) Speak(ctx context.Context, input texttospeech.Input, opts ...texttospeech.Option) error {
	voice, ok := resolveVoice(input.Voice)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidVoice, input.Voice)
	}
	text := input.PlainText()
	if text == "" {
		return ErrEmptyPrompt
	}
	options := texttospeech.NewOptions(append([]texttospeech.Option{texttospeech.WithEncodingInfo(e.encodingInfo)}, opts...)...)

	go e.speak(ctx, voice, text, options)
	return nil
}

func (e *Engine) speak(ctx context.Context, voice Voice, text string, options texttospeech.Options) {
	pcm, path, err := e.synthesize(ctx, voice, text, options.EncodingInfo)
	if err != nil {
		options.ErrorCallback(err)
		return
	}
	options.SuccessCallback(texttospeech.Result{URL: (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()})

	e.playMu.Lock()
	defer e.playMu.Unlock()

	options.SpeechStartedCallback()
	if e.player != nil {
		if err := e.player.Play(ctx, pcm); err != nil {
			options.ErrorCallback(fmt.Errorf("failed to play speech: %w", err))
			return
		}
	}
	options.SpeechFinishedCallback()
}

func (e *Engine) synthesize(ctx context.Context, voice Voice, text string, encodingInfo audio.EncodingInfo) ([]byte, string, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.String("request.voice", string(voice)), attribute.Int("request.length", len(text)))

	pcm, err := e.stream(ctx, voice, text, encodingInfo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesis failed")
		return nil, "", err
	}

	path, err := e.write(pcm)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store speech")
		return nil, "", err
	}

	span.SetAttributes(attribute.Int("response.bytes", len(pcm)))
	return pcm, path, nil
}

func (e *Engine) stream(ctx context.Context, voice Voice, text string, encodingInfo audio.EncodingInfo) ([]byte, error) {
	conn, err := e.connect(ctx, voice, encodingInfo)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = conn.WriteJSON(closeMsg)
		_ = conn.Close()
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(speakMsg{Type: "Speak", Text: text}); err != nil {
		return nil, fmt.Errorf("failed to send text to deepgram: %w", err)
	}
	if err := conn.WriteJSON(flushMsg); err != nil {
		return nil, fmt.Errorf("failed to flush deepgram buffer: %w", err)
	}

	var pcm []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to read deepgram speech: %w", err)
		}

		if msgType == websocket.BinaryMessage {
			pcm = append(pcm, msg...)
			continue
		}

		var parsedMsg struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			logger.Debug("failed to unmarshal deepgram message", "error", err)
			continue
		}
		switch parsedMsg.Type {
		case "Flushed":
			return pcm, nil
		case "Error":
			return nil, fmt.Errorf("deepgram reported an error: %s", parsedMsg.Description)
		}
	}
}

func (e *Engine) connect(ctx context.Context, voice Voice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	if e.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	speakURL, err := url.Parse(e.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}
	urlValues := speakURL.Query()
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := e.dialer.DialContext(ctx, speakURL.String(), http.Header{"Authorization": {"token " + e.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func (e *Engine) write(pcm []byte) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create speech directory: %w", err)
	}

	path := filepath.Join(e.outputDir, uuid.NewString()+".pcm")
	if err := os.WriteFile(path, pcm, 0o644); err != nil {
		return "", fmt.Errorf("failed to write speech: %w", err)
	}
	return path, nil
}

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-tray/core/audio"
	"github.com/koscakluka/ema-tray/core/texttospeech"
)

type recordingPlayer struct {
	mu     sync.Mutex
	played [][]byte
}

func (p *recordingPlayer) Play(_ context.Context, pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, pcm)
	return nil
}

type speakLog struct {
	mu    sync.Mutex
	calls []string
	url   string
	err   error
	done  chan struct{}
}

func newSpeakLog() *speakLog {
	return &speakLog{done: make(chan struct{}, 1)}
}

func (l *speakLog) add(call string) {
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
}

func (l *speakLog) options() []texttospeech.Option {
	return []texttospeech.Option{
		texttospeech.WithSuccessCallback(func(result texttospeech.Result) {
			l.mu.Lock()
			l.url = result.URL
			l.mu.Unlock()
			l.add("success")
		}),
		texttospeech.WithSpeechStartedCallback(func() { l.add("started") }),
		texttospeech.WithSpeechFinishedCallback(func() {
			l.add("finished")
			l.done <- struct{}{}
		}),
		texttospeech.WithErrorCallback(func(err error) {
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
			l.add("error")
			l.done <- struct{}{}
		}),
	}
}

func (l *speakLog) wait(t *testing.T) {
	t.Helper()
	select {
	case <-l.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("speech never finished")
	}
}

type speakServer struct {
	*httptest.Server
	texts   chan string
	queries chan url.Values
}

// newSpeakServer answers every flush with audio followed by Flushed, unless
// dropAfterText is set.
func newSpeakServer(t *testing.T, dropAfterText bool) *speakServer {
	t.Helper()

	s := &speakServer{texts: make(chan string, 4), queries: make(chan url.Values, 4)}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token test-key" || r.URL.Query().Get("model") == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		s.queries <- r.URL.Query()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var msg struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "Speak":
				s.texts <- msg.Text
				if dropAfterText {
					return
				}
			case "Flush":
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2})
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{3, 4})
				_ = conn.WriteJSON(map[string]any{"type": "Flushed", "sequence_id": 0})
			case "Close":
				return
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *speakServer) engine(t *testing.T, opts ...EngineOption) *Engine {
	baseOpts := []EngineOption{
		WithAPIKey("test-key"),
		WithSpeakURL("ws" + strings.TrimPrefix(s.URL, "http")),
		WithOutputDir(t.TempDir()),
	}
	return NewEngine(append(baseOpts, opts...)...)
}

func TestSpeakWritesAndPlaysAudio(t *testing.T) {
	server := newSpeakServer(t, false)
	player := &recordingPlayer{}
	engine := server.engine(t, WithPlayer(player))

	log := newSpeakLog()
	input := texttospeech.Input{Text: "<speak>Hello <break/>there</speak>", Voice: string(VoiceOrion), Format: texttospeech.FormatSSML}
	if err := engine.Speak(context.Background(), input, log.options()...); err != nil {
		t.Fatalf("failed to speak: %v", err)
	}
	log.wait(t)

	if text := <-server.texts; text != "Hello there" {
		t.Fatalf("expected markup to be stripped, got %q", text)
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	if strings.Join(log.calls, ",") != "success,started,finished" {
		t.Fatalf("unexpected callbacks %v", log.calls)
	}

	parsed, err := url.Parse(log.url)
	if err != nil || parsed.Scheme != "file" || !strings.HasSuffix(parsed.Path, ".pcm") {
		t.Fatalf("unexpected audio url %q", log.url)
	}
	content, err := os.ReadFile(parsed.Path)
	if err != nil {
		t.Fatalf("failed to read audio: %v", err)
	}
	if string(content) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("unexpected audio %v", content)
	}

	player.mu.Lock()
	defer player.mu.Unlock()
	if len(player.played) != 1 || len(player.played[0]) != 4 {
		t.Fatalf("expected audio to be played once, got %v", player.played)
	}
}

type devicePlayer struct {
	recordingPlayer
	encodingInfo audio.EncodingInfo
}

func (p *devicePlayer) EncodingInfo() audio.EncodingInfo {
	return p.encodingInfo
}

func TestSpeakRequestsPlaybackSampleRate(t *testing.T) {
	at := func(sampleRate int) audio.EncodingInfo {
		return audio.EncodingInfo{SampleRate: sampleRate, Format: audio.EncodingLinear16}
	}

	tests := []struct {
		name     string
		engine   []EngineOption
		speak    []texttospeech.Option
		expected string
	}{
		{
			name:     "default",
			expected: "16000",
		},
		{
			name:     "follows the player device",
			engine:   []EngineOption{WithPlayer(&devicePlayer{encodingInfo: at(24000)})},
			expected: "24000",
		},
		{
			name:     "explicit engine encoding",
			engine:   []EngineOption{WithEncodingInfo(at(48000))},
			expected: "48000",
		},
		{
			name:     "speak option wins",
			engine:   []EngineOption{WithPlayer(&devicePlayer{encodingInfo: at(24000)})},
			speak:    []texttospeech.Option{texttospeech.WithEncodingInfo(at(8000))},
			expected: "8000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newSpeakServer(t, false)
			engine := server.engine(t, tt.engine...)

			log := newSpeakLog()
			if err := engine.Speak(context.Background(), texttospeech.Input{Text: "hello"}, append(log.options(), tt.speak...)...); err != nil {
				t.Fatalf("failed to speak: %v", err)
			}
			log.wait(t)

			query := <-server.queries
			if got := query.Get("sample_rate"); got != tt.expected {
				t.Fatalf("expected sample_rate %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestSpeakReportsBrokenStream(t *testing.T) {
	server := newSpeakServer(t, true)
	engine := server.engine(t)

	log := newSpeakLog()
	if err := engine.Speak(context.Background(), texttospeech.Input{Text: "hello"}, log.options()...); err != nil {
		t.Fatalf("failed to speak: %v", err)
	}
	log.wait(t)

	log.mu.Lock()
	defer log.mu.Unlock()
	if strings.Join(log.calls, ",") != "error" || log.err == nil {
		t.Fatalf("expected a single error, got %v", log.calls)
	}
}

func TestSpeakRejectsInvalidInput(t *testing.T) {
	engine := NewEngine(WithAPIKey("test-key"))

	if err := engine.Speak(context.Background(), texttospeech.Input{Text: "hi", Voice: "robot"}); !errors.Is(err, ErrInvalidVoice) {
		t.Fatalf("expected invalid voice, got %v", err)
	}
	if err := engine.Speak(context.Background(), texttospeech.Input{Text: "  "}); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected empty prompt, got %v", err)
	}
}

func TestSpeakWithoutAPIKeyFails(t *testing.T) {
	engine := NewEngine(WithAPIKey(""), WithOutputDir(t.TempDir()))

	log := newSpeakLog()
	if err := engine.Speak(context.Background(), texttospeech.Input{Text: "hello"}, log.options()...); err != nil {
		t.Fatalf("failed to speak: %v", err)
	}
	log.wait(t)

	log.mu.Lock()
	defer log.mu.Unlock()
	if !errors.Is(log.err, ErrMissingAPIKey) {
		t.Fatalf("expected missing api key, got %v", log.err)
	}
}

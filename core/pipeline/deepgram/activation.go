package deepgram

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
)

// activation is one recognition stream.
type activation struct {
	conn    *websocket.Conn
	connMu  sync.Mutex
	timer   *time.Timer
	timeout time.Duration

	// Only touched by the read loop.
	segments      []string
	unendedSpeech bool

	closeOnce sync.Once
	closed    chan struct{}
}

func newActivation(conn *websocket.Conn, timeout time.Duration) *activation {
	return &activation{conn: conn, timeout: timeout, closed: make(chan struct{})}
}

func (a *activation) send(chunk []byte) error {
	a.connMu.Lock()
	defer a.connMu.Unlock()

	select {
	case <-a.closed:
		return nil
	default:
	}
	if err := a.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("failed to write to deepgram: %w", err)
	}
	return nil
}

func (a *activation) isClosed() bool {
	select {
	case <-a.closed:
		return true
	default:
		return false
	}
}

func (a *activation) close() {
	a.closeOnce.Do(func() {
		if a.timer != nil {
			a.timer.Stop()
		}

		a.connMu.Lock()
		defer a.connMu.Unlock()
		close(a.closed)

		if err := a.conn.WriteJSON(struct {
			Type string `json:"type"`
		}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
			logger.Debug("failed to close deepgram stream", "error", err)
		}
		_ = a.conn.Close()
	})
}

// heardSpeech gives the speaker another full timeout. The activation still
// times out if nothing is ever recognized.
func (a *activation) heardSpeech() {
	if a.timer != nil && !a.isClosed() {
		a.timer.Reset(a.timeout)
	}
}

func (a *activation) transcript() string {
	return strings.TrimSpace(strings.Join(a.segments, " "))
}

func (p *Pipeline) readMessages(current *activation) {
	for {
		msgType, msg, err := current.conn.ReadMessage()
		if err != nil {
			if current.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				transcript := current.transcript()
				if !current.isClosed() && transcript != "" {
					p.finish(current, activationResult{transcript: &transcript})
					return
				}
				p.finish(current, activationResult{})
				return
			}
			p.finish(current, activationResult{err: fmt.Errorf("failed to read deepgram message: %w", err)})
			return
		}
		if msgType == websocket.BinaryMessage {
			continue
		}

		if done := p.processMessage(current, msg); done {
			return
		}
	}
}

// processMessage reports whether the activation ended.
func (p *Pipeline) processMessage(current *activation, msg []byte) bool {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return false
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram results", "error", err)
			return false
		}
		if !msgResp.IsFinal {
			return false
		}

		if len(msgResp.Channel.Alternatives) > 0 {
			if segment := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript); segment != "" {
				current.segments = append(current.segments, segment)
				current.unendedSpeech = true
				current.heardSpeech()
			}
		}
		if msgResp.SpeechFinal {
			return p.speechEnded(current)
		}

	case api.TypeUtteranceEndResponse:
		return p.speechEnded(current)

	case api.TypeSpeechStartedResponse:
		current.heardSpeech()

	case api.TypeResponse("Error"):
		p.finish(current, activationResult{err: errors.New("deepgram reported an error: " + string(msg))})
		return true
	}
	return false
}

// speechEnded ends the activation with what was recognized. Speech that
// produced no words counts as a timeout.
func (p *Pipeline) speechEnded(current *activation) bool {
	if !current.unendedSpeech {
		p.finish(current, activationResult{timedOut: true})
		return true
	}
	transcript := current.transcript()
	p.finish(current, activationResult{transcript: &transcript})
	return true
}

// Package miniaudio captures microphone audio and plays synthesized prompts
// through the default devices.
package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-tray/core/audio"
)

// Client owns one capture and one playback device on a shared malgo
// context. Capture feeds the speech pipeline; playback speaks prompts.
type Client struct {
	// audioContext is kept only to uninitialize it.
	audioContext *malgo.AllocatedContext
	encodingInfo audio.EncodingInfo

	playbackClient
	captureClient
}

type ClientOption func(*Client)

// WithSampleRate sets the rate both devices run at.
func WithSampleRate(sampleRate int) ClientOption {
	return func(c *Client) {
		if sampleRate > 0 {
			c.encodingInfo.SampleRate = sampleRate
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{encodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(client)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	client.audioContext = audioCtx

	if err := client.playbackClient.Init(audioCtx, client.encodingInfo); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	// A missing microphone is reported through the authorizer rather than
	// failing the client, so playback keeps working.
	if err := client.captureClient.Init(audioCtx, client.encodingInfo); err != nil {
		logger.Warn("capture device unavailable", "error", err)
	}

	return client, nil
}

// StartCapture streams microphone audio to onAudio until StopCapture.
func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

// Play blocks until pcm finished playing or ctx is done, in which case the
// remaining audio is dropped.
func (c *Client) Play(ctx context.Context, pcm []byte) error {
	if err := c.playbackClient.Start(); err != nil {
		return err
	}
	if err := c.playbackClient.SendAudio(pcm); err != nil {
		return err
	}

	played := make(chan struct{})
	c.playbackClient.Mark("prompt", func(string) { close(played) })

	select {
	case <-played:
		return nil
	case <-ctx.Done():
		c.playbackClient.ClearBuffer()
		return ctx.Err()
	}
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
}

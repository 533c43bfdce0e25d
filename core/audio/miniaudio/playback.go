package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-tray/core/audio"
)

type playbackClient struct {
	device *malgo.Device

	pending []byte
	marks   []playbackMark

	mu       sync.Mutex
	bufferMu sync.Mutex
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, encodingInfo audio.EncodingInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format)

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(encodingInfo.SampleRate)
	config.Playback.Format = format
	config.Playback.Channels = 1
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = uint32(encodingInfo.SampleRate / 10)
	config.Periods = 4

	device, err := malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{
		Data: c.processAudio(bytesPerFrame),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	c.device = device
	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return errDeviceNotInitialized
	}
	if c.device.IsStarted() {
		return nil
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

func (c *playbackClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return errDeviceNotInitialized
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}
	c.ClearBuffer()
	return nil
}

func (c *playbackClient) SendAudio(pcm []byte) error {
	c.mu.Lock()
	started := c.device != nil && c.device.IsStarted()
	c.mu.Unlock()
	if !started {
		return fmt.Errorf("playback device not started")
	}

	c.queue(pcm)
	return nil
}

func (c *playbackClient) queue(pcm []byte) {
	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()
	c.pending = append(c.pending, pcm...)
}

// ClearBuffer drops queued audio. Pending marks are released so nobody waits
// on audio that will never play.
func (c *playbackClient) ClearBuffer() {
	c.bufferMu.Lock()
	marks := c.marks
	c.pending = nil
	c.marks = nil
	c.bufferMu.Unlock()

	for _, mark := range marks {
		mark.callback(mark.name)
	}
}

// Mark calls callback once everything queued so far has been played.
func (c *playbackClient) Mark(name string, callback func(string)) {
	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()
	c.marks = append(c.marks, playbackMark{
		name:     name,
		position: len(c.pending),
		callback: callback,
	})
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil
	}
	c.device.Uninit()
	c.device = nil
	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.bufferMu.Lock()
		n := copy(pOutput[:min(need, len(pOutput))], c.pending)
		c.pending = c.pending[n:]
		passed := c.advanceMarks(n)
		c.bufferMu.Unlock()

		if len(passed) > 0 {
			go func() {
				for _, mark := range passed {
					mark.callback(mark.name)
				}
			}()
		}
	}
}

// advanceMarks moves marks by played bytes and returns the ones reached.
// It expects bufferMu to be held.
func (c *playbackClient) advanceMarks(played int) []playbackMark {
	var passed []playbackMark
	remaining := c.marks[:0]
	for _, mark := range c.marks {
		mark.position -= played
		if mark.position <= 0 {
			passed = append(passed, mark)
			continue
		}
		remaining = append(remaining, mark)
	}
	c.marks = remaining
	return passed
}

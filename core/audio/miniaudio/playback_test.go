package miniaudio

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestProcessAudioPlaysQueuedAudioAndReleasesMarks(t *testing.T) {
	c := &playbackClient{}
	c.queue([]byte{1, 2, 3, 4, 5, 6})

	reached := make(chan string, 1)
	c.Mark("prompt", func(name string) { reached <- name })

	process := c.processAudio(2)
	output := make([]byte, 4)
	process(output, nil, 2)

	if output[0] != 1 || output[3] != 4 {
		t.Fatalf("unexpected output %v", output)
	}
	select {
	case <-reached:
		t.Fatalf("expected mark to wait for the remaining audio")
	case <-time.After(20 * time.Millisecond):
	}

	output = make([]byte, 4)
	process(output, nil, 2)
	if output[0] != 5 || output[1] != 6 || output[2] != 0 {
		t.Fatalf("expected remaining audio followed by silence, got %v", output)
	}

	select {
	case name := <-reached:
		if name != "prompt" {
			t.Fatalf("unexpected mark %q", name)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected mark to be reached")
	}
}

func TestClearBufferReleasesPendingMarks(t *testing.T) {
	c := &playbackClient{}
	c.queue(make([]byte, 100))

	var released atomic.Int32
	c.Mark("first", func(string) { released.Add(1) })
	c.Mark("second", func(string) { released.Add(1) })

	c.ClearBuffer()

	if got := released.Load(); got != 2 {
		t.Fatalf("expected both marks released, got %d", got)
	}
	if len(c.pending) != 0 || len(c.marks) != 0 {
		t.Fatalf("expected empty buffer")
	}
}

func TestSendAudioRequiresStartedDevice(t *testing.T) {
	c := &playbackClient{}
	if err := c.SendAudio([]byte{1}); err == nil {
		t.Fatalf("expected error without a device")
	}
}

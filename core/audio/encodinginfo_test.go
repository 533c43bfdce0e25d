package audio

import (
	"testing"
	"time"
)

func TestDurationOfLinear16(t *testing.T) {
	info := GetDefaultEncodingInfo()
	if got := info.Duration(32000); got != time.Second {
		t.Fatalf("expected one second, got %s", got)
	}
	if got := len(info.Silence(50 * time.Millisecond)); got != 1600 {
		t.Fatalf("expected 1600 bytes of silence, got %d", got)
	}
}

func TestSilenceUsesFormatValue(t *testing.T) {
	info := EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}
	chunk := info.Silence(10 * time.Millisecond)
	if len(chunk) != 80 || chunk[0] != 0xFF {
		t.Fatalf("unexpected mulaw silence %d bytes, first %x", len(chunk), chunk[0])
	}
}

func TestUnknownFormatIsZero(t *testing.T) {
	info := EncodingInfo{SampleRate: 16000}
	if !info.IsZero() || info.Duration(100) != 0 {
		t.Fatalf("expected unknown format to be zero")
	}
}

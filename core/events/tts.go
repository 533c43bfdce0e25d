package events

const (
	// KindTTSSuccess identifies successful synthesis.
	KindTTSSuccess Kind = "tts.success"
	// KindBeganSpeaking identifies the start of playback.
	KindBeganSpeaking Kind = "tts.began_speaking"
	// KindFinishedSpeaking identifies the end of playback.
	KindFinishedSpeaking Kind = "tts.finished_speaking"
	// KindTTSError identifies a synthesis or playback failure.
	KindTTSError Kind = "tts.error"
)

// TTSSuccess carries the location of synthesized audio.
type TTSSuccess struct {
	Base
	AudioURL string
}

// NewTTSSuccess creates a synthesis success event.
func NewTTSSuccess(audioURL string) TTSSuccess {
	return TTSSuccess{Base: NewBase(KindTTSSuccess), AudioURL: audioURL}
}

// BeganSpeaking marks the start of playback.
type BeganSpeaking struct{ Base }

// NewBeganSpeaking creates a playback started event.
func NewBeganSpeaking() BeganSpeaking {
	return BeganSpeaking{Base: NewBase(KindBeganSpeaking)}
}

// FinishedSpeaking marks the end of playback.
type FinishedSpeaking struct{ Base }

// NewFinishedSpeaking creates a playback finished event.
func NewFinishedSpeaking() FinishedSpeaking {
	return FinishedSpeaking{Base: NewBase(KindFinishedSpeaking)}
}

// TTSError carries a synthesis or playback failure.
type TTSError struct {
	Base
	Message string
	Err     error
}

// NewTTSError creates a synthesis failure event.
func NewTTSError(err error) TTSError {
	return TTSError{Base: NewBase(KindTTSError), Message: errorMessage(err), Err: err}
}

package events

const (
	// KindInitialized identifies pipeline initialization.
	KindInitialized Kind = "pipeline.initialized"
	// KindStarted identifies the pipeline starting.
	KindStarted Kind = "pipeline.started"
	// KindStopped identifies the pipeline stopping.
	KindStopped Kind = "pipeline.stopped"
	// KindActivated identifies activation of speech recognition.
	KindActivated Kind = "pipeline.activated"
	// KindDeactivated identifies deactivation of speech recognition.
	KindDeactivated Kind = "pipeline.deactivated"
	// KindRecognized identifies a recognized transcript.
	KindRecognized Kind = "pipeline.recognized"
	// KindTimedOut identifies a pipeline timeout.
	KindTimedOut Kind = "pipeline.timed_out"
	// KindSpeechError identifies a pipeline error.
	KindSpeechError Kind = "pipeline.error"
)

// Initialized marks that the speech pipeline finished initializing.
type Initialized struct{ Base }

// NewInitialized creates a pipeline initialized event.
func NewInitialized() Initialized {
	return Initialized{Base: NewBase(KindInitialized)}
}

// Started marks that the speech pipeline started.
type Started struct{ Base }

// NewStarted creates a pipeline started event.
func NewStarted() Started {
	return Started{Base: NewBase(KindStarted)}
}

// Stopped marks that the speech pipeline stopped.
type Stopped struct{ Base }

// NewStopped creates a pipeline stopped event.
func NewStopped() Stopped {
	return Stopped{Base: NewBase(KindStopped)}
}

// Activated marks that speech recognition is listening.
type Activated struct{ Base }

// NewActivated creates a pipeline activated event.
func NewActivated() Activated {
	return Activated{Base: NewBase(KindActivated)}
}

// Deactivated marks that speech recognition stopped listening.
type Deactivated struct{ Base }

// NewDeactivated creates a pipeline deactivated event.
func NewDeactivated() Deactivated {
	return Deactivated{Base: NewBase(KindDeactivated)}
}

// Recognized carries the transcript recognized by the pipeline.
//
// Transcript is what the pipeline heard. Edited is the transcript after the
// host transcript editor ran and is what was sent to classification.
type Recognized struct {
	Base
	Transcript string
	Edited     string
}

// NewRecognized creates a recognized transcript event.
func NewRecognized(transcript, edited string) Recognized {
	return Recognized{Base: NewBase(KindRecognized), Transcript: transcript, Edited: edited}
}

// TimedOut marks a timeout in one of the pipeline components.
type TimedOut struct{ Base }

// NewTimedOut creates a pipeline timeout event.
func NewTimedOut() TimedOut {
	return TimedOut{Base: NewBase(KindTimedOut)}
}

// SpeechError carries an error reported by the speech pipeline.
type SpeechError struct {
	Base
	Message string
	Err     error
}

// NewSpeechError creates a pipeline error event.
func NewSpeechError(err error) SpeechError {
	return SpeechError{Base: NewBase(KindSpeechError), Message: errorMessage(err), Err: err}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

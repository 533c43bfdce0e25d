package events

const (
	// KindClassified identifies a handled NLU classification.
	KindClassified Kind = "nlu.classified"
	// KindIntentUnhandled identifies a dropped NLU classification.
	KindIntentUnhandled Kind = "nlu.unhandled"
	// KindNLUError identifies an NLU failure.
	KindNLUError Kind = "nlu.error"
	// KindNLUTraced identifies an NLU diagnostic trace.
	KindNLUTraced Kind = "nlu.traced"
)

// Classified carries the intent result the host produced for a
// classification.
type Classified struct {
	Base
	Intent    string
	Utterance string
	Node      string
	Prompt    string
	Data      any
}

// NewClassified creates a classification event.
func NewClassified(intent, utterance, node, prompt string, data any) Classified {
	return Classified{
		Base:      NewBase(KindClassified),
		Intent:    intent,
		Utterance: utterance,
		Node:      node,
		Prompt:    prompt,
		Data:      data,
	}
}

// IntentUnhandled carries a classification nobody produced a result for.
type IntentUnhandled struct {
	Base
	Intent    string
	Utterance string
}

// NewIntentUnhandled creates a dropped classification event.
func NewIntentUnhandled(intent, utterance string) IntentUnhandled {
	return IntentUnhandled{Base: NewBase(KindIntentUnhandled), Intent: intent, Utterance: utterance}
}

// NLUError carries an NLU failure.
type NLUError struct {
	Base
	Message string
	Err     error
}

// NewNLUError creates an NLU failure event.
func NewNLUError(err error) NLUError {
	return NLUError{Base: NewBase(KindNLUError), Message: errorMessage(err), Err: err}
}

// NLUTraced carries an NLU diagnostic trace line.
type NLUTraced struct {
	Base
	Message string
}

// NewNLUTraced creates an NLU trace event.
func NewNLUTraced(message string) NLUTraced {
	return NLUTraced{Base: NewBase(KindNLUTraced), Message: message}
}

// Package nlu describes the natural language understanding engine a tray
// session classifies transcripts with.
package nlu

// Slot is a single value extracted from an utterance.
type Slot struct {
	Type     string
	Value    any
	RawValue string
}

// Result is one classified utterance.
type Result struct {
	Intent     string
	Slots      map[string]Slot
	Utterance  string
	Confidence float64
}

// ModelPaths locates the NLU model files on disk.
type ModelPaths struct {
	Model      string
	Metadata   string
	Vocabulary string
}

type Options struct {
	ClassificationCallback func(Result)
	TraceCallback          func(message string)
	ErrorCallback          func(error)
}

type Option func(*Options)

func NewOptions(opts ...Option) Options {
	options := Options{
		ClassificationCallback: func(Result) {},
		TraceCallback:          func(string) {},
		ErrorCallback:          func(error) {},
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithClassificationCallback(callback func(Result)) Option {
	return func(o *Options) {
		if callback != nil {
			o.ClassificationCallback = callback
		}
	}
}

func WithTraceCallback(callback func(message string)) Option {
	return func(o *Options) {
		if callback != nil {
			o.TraceCallback = callback
		}
	}
}

func WithErrorCallback(callback func(error)) Option {
	return func(o *Options) {
		if callback != nil {
			o.ErrorCallback = callback
		}
	}
}

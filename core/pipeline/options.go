// Package pipeline describes how a speech pipeline reports back to the tray
// session.
package pipeline

import "github.com/koscakluka/ema-tray/core/audio"

// WakewordModels holds the local wake-word model files a pipeline loads.
type WakewordModels struct {
	Filter string
	Encode string
	Detect string
}

func (m WakewordModels) IsZero() bool {
	return m.Filter == "" && m.Encode == "" && m.Detect == ""
}

type Options struct {
	InitializedCallback func()
	StartedCallback     func()
	StoppedCallback     func()
	ActivatedCallback   func()
	DeactivatedCallback func()
	// RecognizedCallback receives the final transcript of one activation.
	// The transcript may be empty when nothing was understood.
	RecognizedCallback func(transcript string)
	TimeoutCallback    func()
	ErrorCallback      func(error)

	WakewordModels WakewordModels
	EncodingInfo   audio.EncodingInfo
}

type Option func(*Options)

// NewOptions applies opts on top of no-op callbacks so adapters can call
// every callback unconditionally.
func NewOptions(opts ...Option) Options {
	options := Options{
		InitializedCallback: func() {},
		StartedCallback:     func() {},
		StoppedCallback:     func() {},
		ActivatedCallback:   func() {},
		DeactivatedCallback: func() {},
		RecognizedCallback:  func(string) {},
		TimeoutCallback:     func() {},
		ErrorCallback:       func(error) {},
		EncodingInfo:        audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithInitializedCallback(callback func()) Option {
	return func(o *Options) {
		if callback != nil {
			o.InitializedCallback = callback
		}
	}
}

func WithStartedCallback(callback func()) Option {
	return func(o *Options) {
		if callback != nil {
			o.StartedCallback = callback
		}
	}
}

func WithStoppedCallback(callback func()) Option {
	return func(o *Options) {
		if callback != nil {
			o.StoppedCallback = callback
		}
	}
}

func WithActivatedCallback(callback func()) Option {
	return func(o *Options) {
		if callback != nil {
			o.ActivatedCallback = callback
		}
	}
}

func WithDeactivatedCallback(callback func()) Option {
	return func(o *Options) {
		if callback != nil {
			o.DeactivatedCallback = callback
		}
	}
}

func WithRecognizedCallback(callback func(transcript string)) Option {
	return func(o *Options) {
		if callback != nil {
			o.RecognizedCallback = callback
		}
	}
}

func WithTimeoutCallback(callback func()) Option {
	return func(o *Options) {
		if callback != nil {
			o.TimeoutCallback = callback
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

func WithWakewordModels(models WakewordModels) Option {
	return func(o *Options) {
		o.WakewordModels = models
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) Option {
	return func(o *Options) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}

// Package texttospeech describes the speech synthesis engine a tray session
// speaks prompts with.
package texttospeech

import (
	"regexp"
	"strings"

	"github.com/koscakluka/ema-tray/core/audio"
)

// Format is the markup of the text handed to synthesis.
type Format int

const (
	FormatText Format = iota
	FormatSSML
	FormatMarkdown
)

func (f Format) String() string {
	switch f {
	case FormatSSML:
		return "ssml"
	case FormatMarkdown:
		return "markdown"
	default:
		return "text"
	}
}

// ParseFormat maps a configuration value to a Format, falling back to text.
func ParseFormat(value string) Format {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ssml":
		return FormatSSML
	case "markdown", "md":
		return FormatMarkdown
	default:
		return FormatText
	}
}

type Input struct {
	Text   string
	Voice  string
	Format Format
}

var (
	ssmlTagPattern      = regexp.MustCompile(`<[^>]+>`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	markdownMarkPattern = regexp.MustCompile("[*_`#~>]+")
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// PlainText strips the input markup for engines that only speak plain text.
func (i Input) PlainText() string {
	text := i.Text
	switch i.Format {
	case FormatSSML:
		text = ssmlTagPattern.ReplaceAllString(text, " ")
	case FormatMarkdown:
		text = markdownLinkPattern.ReplaceAllString(text, "$1")
		text = markdownMarkPattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// Result locates synthesized audio.
type Result struct {
	URL string
}

type Options struct {
	SuccessCallback        func(Result)
	SpeechStartedCallback  func()
	SpeechFinishedCallback func()
	ErrorCallback          func(error)

	EncodingInfo audio.EncodingInfo
}

type Option func(*Options)

func NewOptions(opts ...Option) Options {
	options := Options{
		SuccessCallback:        func(Result) {},
		SpeechStartedCallback:  func() {},
		SpeechFinishedCallback: func() {},
		ErrorCallback:          func(error) {},
		EncodingInfo:           audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithSuccessCallback(callback func(Result)) Option {
	return func(o *Options) {
		if callback != nil {
			o.SuccessCallback = callback
		}
	}
}

func WithSpeechStartedCallback(callback func()) Option {
	return func(o *Options) {
		if callback != nil {
			o.SpeechStartedCallback = callback
		}
	}
}

func WithSpeechFinishedCallback(callback func()) Option {
	return func(o *Options) {
		if callback != nil {
			o.SpeechFinishedCallback = callback
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

func WithEncodingInfo(encodingInfo audio.EncodingInfo) Option {
	return func(o *Options) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}

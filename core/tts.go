package tray

import (
	"context"

	"github.com/koscakluka/ema-tray/core/texttospeech"
)

type textToSpeech struct {
	client TextToSpeech
}

func (t *textToSpeech) isConfigured() bool {
	return t != nil && t.client != nil
}

func (t *textToSpeech) Speak(ctx context.Context, input texttospeech.Input, opts ...texttospeech.Option) error {
	if !t.isConfigured() {
		return nil
	}
	return t.client.Speak(ctx, input, opts...)
}

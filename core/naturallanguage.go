package tray

import (
	"context"

	"github.com/koscakluka/ema-tray/core/nlu"
)

type naturalLanguage struct {
	client NLU
}

func (n *naturalLanguage) isConfigured() bool {
	return n != nil && n.client != nil
}

func (n *naturalLanguage) Initialize(ctx context.Context, paths nlu.ModelPaths, opts ...nlu.Option) error {
	if !n.isConfigured() {
		return nil
	}
	return n.client.Initialize(ctx, paths, opts...)
}

func (n *naturalLanguage) Classify(ctx context.Context, utterance string) error {
	if !n.isConfigured() {
		return nil
	}
	return n.client.Classify(ctx, utterance)
}

package tray

import (
	"context"

	"github.com/koscakluka/ema-tray/core/pipeline"
)

// speechPipeline tolerates a session built without a pipeline.
type speechPipeline struct {
	client SpeechPipeline
}

func (p *speechPipeline) isConfigured() bool {
	return p != nil && p.client != nil
}

func (p *speechPipeline) Configure(opts ...pipeline.Option) error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Configure(opts...)
}

func (p *speechPipeline) Start(ctx context.Context) error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Start(ctx)
}

func (p *speechPipeline) Stop() error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Stop()
}

func (p *speechPipeline) Activate() error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Activate()
}

func (p *speechPipeline) Deactivate() error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Deactivate()
}

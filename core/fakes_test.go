package tray

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-tray/core/events"
	"github.com/koscakluka/ema-tray/core/models"
	"github.com/koscakluka/ema-tray/core/nlu"
	"github.com/koscakluka/ema-tray/core/permissions"
	"github.com/koscakluka/ema-tray/core/pipeline"
	"github.com/koscakluka/ema-tray/core/texttospeech"
)

type fakePipeline struct {
	mu      sync.Mutex
	options pipeline.Options

	// holdStart keeps Start from reporting started.
	holdStart bool

	configureCalls  atomic.Int32
	startCalls      atomic.Int32
	stopCalls       atomic.Int32
	activateCalls   atomic.Int32
	deactivateCalls atomic.Int32

	running atomic.Bool
	active  atomic.Bool
}

func (p *fakePipeline) Configure(opts ...pipeline.Option) error {
	p.configureCalls.Add(1)
	p.mu.Lock()
	p.options = pipeline.NewOptions(opts...)
	p.mu.Unlock()
	p.callbacks().InitializedCallback()
	return nil
}

func (p *fakePipeline) callbacks() pipeline.Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.options
}

func (p *fakePipeline) Start(context.Context) error {
	p.startCalls.Add(1)
	if p.holdStart {
		return nil
	}
	p.running.Store(true)
	p.callbacks().StartedCallback()
	return nil
}

func (p *fakePipeline) Stop() error {
	p.stopCalls.Add(1)
	if !p.running.Swap(false) {
		return nil
	}
	if p.active.Swap(false) {
		p.callbacks().DeactivatedCallback()
	}
	p.callbacks().StoppedCallback()
	return nil
}

func (p *fakePipeline) Activate() error {
	p.activateCalls.Add(1)
	p.active.Store(true)
	p.callbacks().ActivatedCallback()
	return nil
}

func (p *fakePipeline) Deactivate() error {
	p.deactivateCalls.Add(1)
	p.active.Store(false)
	p.callbacks().DeactivatedCallback()
	return nil
}

func (p *fakePipeline) recognize(transcript string) {
	p.active.Store(false)
	p.callbacks().RecognizedCallback(transcript)
}

func (p *fakePipeline) fail(err error) {
	p.callbacks().ErrorCallback(err)
}

func (p *fakePipeline) timeout() {
	p.callbacks().TimeoutCallback()
	p.active.Store(false)
	p.callbacks().DeactivatedCallback()
}

type fakeNLU struct {
	mu         sync.Mutex
	options    nlu.Options
	paths      nlu.ModelPaths
	utterances []string

	initializeErr error
	classifyErr   error
	// intent answers every classification when set.
	intent string

	initializeCalls atomic.Int32
}

func (n *fakeNLU) Initialize(_ context.Context, paths nlu.ModelPaths, opts ...nlu.Option) error {
	n.initializeCalls.Add(1)
	if n.initializeErr != nil {
		return n.initializeErr
	}
	n.mu.Lock()
	n.paths = paths
	n.options = nlu.NewOptions(opts...)
	n.mu.Unlock()
	return nil
}

func (n *fakeNLU) Classify(_ context.Context, utterance string) error {
	n.mu.Lock()
	n.utterances = append(n.utterances, utterance)
	options := n.options
	intent := n.intent
	n.mu.Unlock()

	if n.classifyErr != nil {
		return n.classifyErr
	}
	if intent != "" {
		options.ClassificationCallback(nlu.Result{Intent: intent, Utterance: utterance, Confidence: 1})
	}
	return nil
}

func (n *fakeNLU) classified() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.utterances...)
}

func (n *fakeNLU) fail(err error) {
	n.mu.Lock()
	options := n.options
	n.mu.Unlock()
	options.ErrorCallback(err)
}

type fakeTTS struct {
	mu      sync.Mutex
	inputs  []texttospeech.Input
	pending []texttospeech.Options

	// autoFinish plays every prompt to completion immediately.
	autoFinish bool
	speakErr   error
}

func (t *fakeTTS) Speak(_ context.Context, input texttospeech.Input, opts ...texttospeech.Option) error {
	if t.speakErr != nil {
		return t.speakErr
	}
	options := texttospeech.NewOptions(opts...)

	t.mu.Lock()
	t.inputs = append(t.inputs, input)
	if !t.autoFinish {
		t.pending = append(t.pending, options)
	}
	t.mu.Unlock()

	options.SuccessCallback(texttospeech.Result{URL: "file:///tmp/prompt.pcm"})
	options.SpeechStartedCallback()
	if t.autoFinish {
		options.SpeechFinishedCallback()
	}
	return nil
}

func (t *fakeTTS) spoken() []texttospeech.Input {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]texttospeech.Input(nil), t.inputs...)
}

// finish completes the oldest prompt still playing.
func (t *fakeTTS) finish() bool {
	t.mu.Lock()
	if len(t.pending) == 0 {
		t.mu.Unlock()
		return false
	}
	options := t.pending[0]
	t.pending = t.pending[1:]
	t.mu.Unlock()

	options.SpeechFinishedCallback()
	return true
}

func (t *fakeTTS) fail(err error) {
	t.mu.Lock()
	if len(t.pending) == 0 {
		t.mu.Unlock()
		return
	}
	options := t.pending[0]
	t.pending = t.pending[1:]
	t.mu.Unlock()

	options.ErrorCallback(err)
}

type fakeGate struct {
	outcome permissions.Outcome
	calls   atomic.Int32
	// release blocks Request until closed when set.
	release chan struct{}
}

func (g *fakeGate) Request(ctx context.Context) permissions.Outcome {
	g.calls.Add(1)
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return permissions.Outcome{}
		}
	}
	return g.outcome
}

type fakeDownloader struct {
	set          models.DownloadedModelSet
	err          error
	downloadCall atomic.Int32
	resolveCall  atomic.Int32
}

func (d *fakeDownloader) DownloadAll(context.Context, models.URLs) (models.DownloadedModelSet, error) {
	d.downloadCall.Add(1)
	if d.err != nil {
		return models.DownloadedModelSet{}, d.err
	}
	return d.set, nil
}

func (d *fakeDownloader) Resolve(models.URLs) (models.DownloadedModelSet, error) {
	d.resolveCall.Add(1)
	return d.set, nil
}

// modelSetOnDisk creates the six model files in a temporary directory.
func modelSetOnDisk(t *testing.T) models.DownloadedModelSet {
	t.Helper()

	dir := t.TempDir()
	set := models.DownloadedModelSet{
		NLUModel:       filepath.Join(dir, "nlu.tflite"),
		NLUMetadata:    filepath.Join(dir, "metadata.json"),
		NLUVocabulary:  filepath.Join(dir, "vocab.txt"),
		WakewordFilter: filepath.Join(dir, "filter.tflite"),
		WakewordEncode: filepath.Join(dir, "encode.tflite"),
		WakewordDetect: filepath.Join(dir, "detect.tflite"),
	}
	for _, path := range []string{set.NLUModel, set.NLUMetadata, set.NLUVocabulary, set.WakewordFilter, set.WakewordEncode, set.WakewordDetect} {
		if err := os.WriteFile(path, []byte("model"), 0o644); err != nil {
			t.Fatalf("failed to write model file: %v", err)
		}
	}
	return set
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
	// observe runs for every event on the session goroutine.
	observe func(events.Event)
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	observe := r.observe
	r.mu.Unlock()

	if observe != nil {
		observe(event)
	}
}

func (r *eventRecorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]events.Kind, 0, len(r.events))
	for _, event := range r.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func (r *eventRecorder) count(kind events.Kind) int {
	count := 0
	for _, recorded := range r.kinds() {
		if recorded == kind {
			count++
		}
	}
	return count
}

func (r *eventRecorder) last(kind events.Kind) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind() == kind {
			return r.events[i], true
		}
	}
	return nil, false
}

func (r *eventRecorder) indexOf(kind events.Kind) int {
	for i, recorded := range r.kinds() {
		if recorded == kind {
			return i
		}
	}
	return -1
}

func settle(t *testing.T, runtime *sessionRuntime) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := runtime.drain(ctx); err != nil {
		t.Fatalf("session did not settle: %v", err)
	}
}

var errEngine = errors.New("engine failure")

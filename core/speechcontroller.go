package tray

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/koscakluka/ema-tray/core/events"
	"github.com/koscakluka/ema-tray/core/models"
	"github.com/koscakluka/ema-tray/core/nlu"
	"github.com/koscakluka/ema-tray/core/pipeline"
	"github.com/koscakluka/ema-tray/core/texttospeech"
)

// SpeechController owns the speech pipeline, NLU and TTS engines of one
// session and republishes everything they report as events.
//
// Exported methods are safe to call from any goroutine. They queue work on
// the session goroutine and return without waiting for the engines.
type SpeechController struct {
	config      *Configuration
	runtime     *sessionRuntime
	baseContext context.Context

	pipeline     speechPipeline
	nlu          naturalLanguage
	textToSpeech textToSpeech

	emitEvent eventEmitter

	initialized atomic.Bool
	started     atomic.Bool
	starting    atomic.Bool
	listening   atomic.Bool
	stopOnError atomic.Bool
	speaking    atomic.Bool
	timedOut    atomic.Bool
	silent      atomic.Bool

	nluReady       atomic.Bool
	wakewordModels atomic.Pointer[pipeline.WakewordModels]

	// pipelineConfigured is only touched on the session goroutine.
	pipelineConfigured bool
	// onListeningChanged observes every listening write, repeated values
	// included.
	onListeningChanged func(listening bool)
}

// NewSpeechController builds a controller that runs on its own session
// goroutine. Use NewViewModel for the full tray session.
func NewSpeechController(opts ...Option) *SpeechController {
	s := newSettings(opts...)
	config := s.config.clone()

	runtime := newSessionRuntime()
	runtime.start()

	c := newSpeechController(&config, s, runtime)
	c.emitEvent = newHostEventEmitter(config.OnEvent)
	return c
}

func newSpeechController(config *Configuration, s settings, runtime *sessionRuntime) *SpeechController {
	c := &SpeechController{
		config:             config,
		runtime:            runtime,
		baseContext:        s.baseContext,
		pipeline:           speechPipeline{client: s.pipeline},
		nlu:                naturalLanguage{client: s.nlu},
		textToSpeech:       textToSpeech{client: s.textToSpeech},
		emitEvent:          noopEventEmitter,
		onListeningChanged: func(bool) {},
	}
	c.silent.Store(config.Silent)

	if config.IntentHandler == nil {
		logger.Warn("no intent handler configured, classifications will be dropped")
	}
	return c
}

// Start starts the pipeline unless it is already started, starting or
// listening.
func (c *SpeechController) Start() {
	c.dispatch("start", c.start)
}

// Stop always asks the pipeline to stop.
func (c *SpeechController) Stop() {
	c.dispatch("stop", c.stop)
}

// Activate starts listening unless already listening.
func (c *SpeechController) Activate() {
	c.dispatch("activate", c.activate)
}

// Deactivate stops listening if currently listening.
func (c *SpeechController) Deactivate() {
	c.dispatch("deactivate", c.deactivate)
}

// SynthesizeSpeech speaks text with the configured voice and format. Nothing
// is spoken while the session is silent.
func (c *SpeechController) SynthesizeSpeech(text string) {
	c.dispatch("synthesize speech", func() { c.synthesizeSpeech(text) })
}

// InitializeNLU binds the NLU engine to the downloaded NLU models and keeps
// the wake-word models for the pipeline. It blocks while the engine loads
// and must complete before the first classification.
func (c *SpeechController) InitializeNLU(ctx context.Context, set models.DownloadedModelSet) error {
	paths := nlu.ModelPaths{
		Model:      set.NLUModel,
		Metadata:   set.NLUMetadata,
		Vocabulary: set.NLUVocabulary,
	}

	if err := c.nlu.Initialize(ctx, paths, c.nluOptions()...); err != nil {
		return fmt.Errorf("failed to initialize nlu: %w", err)
	}

	c.wakewordModels.Store(&pipeline.WakewordModels{
		Filter: set.WakewordFilter,
		Encode: set.WakewordEncode,
		Detect: set.WakewordDetect,
	})
	c.nluReady.Store(true)
	return nil
}

func (c *SpeechController) SetSilent(silent bool) {
	c.silent.Store(silent)
}

func (c *SpeechController) IsSilent() bool {
	return c.silent.Load()
}

// SessionState is a snapshot of the independent session flags.
type SessionState struct {
	Initialized      bool
	Started          bool
	Listening        bool
	StopOnErrorArmed bool
	Speaking         bool
	TimedOut         bool
}

func (c *SpeechController) State() SessionState {
	return SessionState{
		Initialized:      c.initialized.Load(),
		Started:          c.started.Load(),
		Listening:        c.listening.Load(),
		StopOnErrorArmed: c.stopOnError.Load(),
		Speaking:         c.speaking.Load(),
		TimedOut:         c.timedOut.Load(),
	}
}

// Shutdown stops the pipeline and ends the session goroutine.
func (c *SpeechController) Shutdown() {
	if err := c.pipeline.Stop(); err != nil {
		logger.Warn("failed to stop pipeline on shutdown", "error", err)
	}
	c.runtime.end()
	c.runtime.waitUntilEnded()
}

func (c *SpeechController) dispatch(name string, handle func()) {
	if !c.runtime.enqueue(name, handle) {
		logger.Debug("session closed, dropping task", "task", name)
	}
}

func (c *SpeechController) setListening(listening bool) {
	c.listening.Store(listening)
	c.onListeningChanged(listening)
}

func (c *SpeechController) start() {
	if c.started.Load() || c.listening.Load() {
		return
	}
	if !c.pipeline.isConfigured() {
		logger.Warn("no speech pipeline configured")
		return
	}
	if !c.starting.CompareAndSwap(false, true) {
		return
	}

	if !c.pipelineConfigured {
		wakewordModels := c.wakewordModels.Load()
		if wakewordModels == nil {
			c.starting.Store(false)
			c.onSpeechError(ErrModelsNotInitialized)
			return
		}

		if err := c.pipeline.Configure(c.pipelineOptions(*wakewordModels)...); err != nil {
			c.starting.Store(false)
			c.onSpeechError(fmt.Errorf("failed to configure pipeline: %w", err))
			return
		}
		c.pipelineConfigured = true
	}

	if err := c.pipeline.Start(c.baseContext); err != nil {
		c.starting.Store(false)
		c.onSpeechError(fmt.Errorf("failed to start pipeline: %w", err))
	}
}

func (c *SpeechController) stop() {
	if err := c.pipeline.Stop(); err != nil {
		c.onSpeechError(fmt.Errorf("failed to stop pipeline: %w", err))
	}
}

func (c *SpeechController) activate() {
	if c.listening.Load() {
		return
	}
	if err := c.pipeline.Activate(); err != nil {
		c.onSpeechError(fmt.Errorf("failed to activate pipeline: %w", err))
	}
}

func (c *SpeechController) deactivate() {
	if !c.listening.Load() {
		return
	}
	if err := c.pipeline.Deactivate(); err != nil {
		c.onSpeechError(fmt.Errorf("failed to deactivate pipeline: %w", err))
	}
}

func (c *SpeechController) synthesizeSpeech(text string) {
	if c.silent.Load() {
		return
	}
	if strings.TrimSpace(text) == "" {
		logger.Debug("skipping empty prompt")
		return
	}

	input := texttospeech.Input{Text: text, Voice: c.config.Voice, Format: c.config.Format}
	if err := c.textToSpeech.Speak(c.baseContext, input, c.ttsOptions()...); err != nil {
		c.onTTSError(fmt.Errorf("failed to synthesize speech: %w", err))
	}
}

func (c *SpeechController) classify(utterance string) {
	if !c.nlu.isConfigured() {
		logger.Warn("no nlu configured, dropping utterance", "utterance", utterance)
		return
	}
	if !c.nluReady.Load() {
		c.onNLUError(ErrModelsNotInitialized)
		return
	}
	if err := c.nlu.Classify(c.baseContext, utterance); err != nil {
		c.onNLUError(fmt.Errorf("failed to classify utterance: %w", err))
	}
}

func (c *SpeechController) pipelineOptions(wakewordModels pipeline.WakewordModels) []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithInitializedCallback(func() { c.dispatch("pipeline initialized", c.onInitialized) }),
		pipeline.WithStartedCallback(func() { c.dispatch("pipeline started", c.onStarted) }),
		pipeline.WithStoppedCallback(func() { c.dispatch("pipeline stopped", c.onStopped) }),
		pipeline.WithActivatedCallback(func() { c.dispatch("pipeline activated", c.onActivated) }),
		pipeline.WithDeactivatedCallback(func() { c.dispatch("pipeline deactivated", c.onDeactivated) }),
		pipeline.WithRecognizedCallback(func(transcript string) {
			c.dispatch("pipeline recognized", func() { c.onRecognized(transcript) })
		}),
		pipeline.WithTimeoutCallback(func() { c.dispatch("pipeline timeout", c.onTimeout) }),
		pipeline.WithErrorCallback(func(err error) {
			c.dispatch("pipeline error", func() { c.onSpeechError(err) })
		}),
		pipeline.WithWakewordModels(wakewordModels),
	}
}

func (c *SpeechController) nluOptions() []nlu.Option {
	return []nlu.Option{
		nlu.WithClassificationCallback(func(result nlu.Result) {
			c.dispatch("nlu classification", func() { c.onClassified(result) })
		}),
		nlu.WithTraceCallback(func(message string) {
			c.dispatch("nlu trace", func() { c.onNLUTrace(message) })
		}),
		nlu.WithErrorCallback(func(err error) {
			c.dispatch("nlu error", func() { c.onNLUError(err) })
		}),
	}
}

func (c *SpeechController) ttsOptions() []texttospeech.Option {
	return []texttospeech.Option{
		texttospeech.WithSuccessCallback(func(result texttospeech.Result) {
			c.dispatch("tts success", func() { c.onTTSSuccess(result) })
		}),
		texttospeech.WithSpeechStartedCallback(func() { c.dispatch("tts began speaking", c.onBeganSpeaking) }),
		texttospeech.WithSpeechFinishedCallback(func() { c.dispatch("tts finished speaking", c.onFinishedSpeaking) }),
		texttospeech.WithErrorCallback(func(err error) {
			c.dispatch("tts error", func() { c.onTTSError(err) })
		}),
	}
}

func (c *SpeechController) onInitialized() {
	c.initialized.Store(true)
	c.emitEvent(events.NewInitialized())
}

func (c *SpeechController) onStarted() {
	c.started.Store(true)
	c.starting.Store(false)
	c.emitEvent(events.NewStarted())
}

func (c *SpeechController) onStopped() {
	c.started.Store(false)
	c.starting.Store(false)
	c.emitEvent(events.NewStopped())
}

func (c *SpeechController) onActivated() {
	c.timedOut.Store(false)
	c.setListening(true)
	c.emitEvent(events.NewActivated())
}

func (c *SpeechController) onDeactivated() {
	c.setListening(false)
	c.emitEvent(events.NewDeactivated())
}

func (c *SpeechController) onRecognized(transcript string) {
	c.stopOnError.Store(true)

	if strings.TrimSpace(transcript) == "" {
		logger.Debug("ignoring empty transcript")
		return
	}

	c.setListening(false)
	edited := c.editTranscript(transcript)
	c.classify(edited)
	c.emitEvent(events.NewRecognized(transcript, edited))
}

func (c *SpeechController) editTranscript(transcript string) string {
	if c.config.EditTranscript == nil {
		return transcript
	}

	edited := transcript
	if panicked := invokeHostCallback("edit transcript", func() {
		edited = c.config.EditTranscript(transcript)
	}); panicked {
		return transcript
	}
	return edited
}

func (c *SpeechController) onTimeout() {
	logger.Info("speech pipeline timed out")
	c.timedOut.Store(true)
	c.emitEvent(events.NewTimedOut())
}

func (c *SpeechController) onSpeechError(err error) {
	logger.Error("speech pipeline error", "error", err)
	c.emitEvent(events.NewSpeechError(err))
}

func (c *SpeechController) onClassified(result nlu.Result) {
	intentResult := c.resolveIntent(result)
	if intentResult == nil {
		logger.Info("classification dropped", "intent", result.Intent, "utterance", result.Utterance)
		c.emitEvent(events.NewIntentUnhandled(result.Intent, result.Utterance))
		return
	}

	c.emitEvent(events.NewClassified(result.Intent, result.Utterance, intentResult.Node, intentResult.Prompt, intentResult.Data))
	c.synthesizeSpeech(intentResult.Prompt)
}

func (c *SpeechController) resolveIntent(result nlu.Result) *IntentResult {
	if c.config.IntentHandler == nil {
		return nil
	}

	var intentResult *IntentResult
	invokeHostCallback("intent handler", func() {
		intentResult = c.config.IntentHandler(result.Intent, result.Slots, result.Utterance)
	})
	return intentResult
}

func (c *SpeechController) onNLUTrace(message string) {
	logger.Debug("nlu trace", "message", message)
	c.emitEvent(events.NewNLUTraced(message))
}

func (c *SpeechController) onNLUError(err error) {
	logger.Error("nlu failure", "error", err)
	if !c.stopOnError.CompareAndSwap(true, false) {
		return
	}

	c.stop()
	c.emitEvent(events.NewNLUError(err))
}

func (c *SpeechController) onTTSSuccess(result texttospeech.Result) {
	logger.Debug("speech synthesized", "url", result.URL)
	c.emitEvent(events.NewTTSSuccess(result.URL))
}

func (c *SpeechController) onBeganSpeaking() {
	c.speaking.Store(true)
	c.emitEvent(events.NewBeganSpeaking())
}

func (c *SpeechController) onFinishedSpeaking() {
	c.speaking.Store(false)
	c.emitEvent(events.NewFinishedSpeaking())
}

func (c *SpeechController) onTTSError(err error) {
	logger.Error("tts failure", "error", err)
	c.speaking.Store(false)
	if !c.stopOnError.CompareAndSwap(true, false) {
		return
	}

	c.stop()
	c.emitEvent(events.NewTTSError(err))
}

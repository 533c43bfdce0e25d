// Package tray is the session core of a voice assistant tray: it sequences
// first-use setup, drives the speech pipeline, NLU and TTS engines, keeps the
// transcript and decides when the tray opens and closes.
//
// A presentation layer renders Messages, follows the Opened/Closed and
// ShouldOpenChanged events, and reports user gestures through Open and Close.
package tray

import (
	"context"
	"sync/atomic"

	"github.com/koscakluka/ema-tray/core/events"
)

type ViewModel struct {
	config     *Configuration
	runtime    *sessionRuntime
	controller *SpeechController
	messages   *MessageStore
	cache      *SetupCache

	gate       PermissionGate
	downloader ModelDownloader

	emitEvent eventEmitter

	setupInProgress atomic.Bool
	open            atomic.Bool

	// Only touched on the session goroutine.
	hasChosenToExit bool
}

func NewViewModel(opts ...Option) *ViewModel {
	s := newSettings(opts...)
	config := s.config.clone()

	runtime := newSessionRuntime()
	controller := newSpeechController(&config, s, runtime)

	vm := &ViewModel{
		config:     &config,
		runtime:    runtime,
		controller: controller,
		messages:   NewMessageStore(),
		cache:      NewSetupCache(s.flags),
		gate:       s.gate,
		downloader: s.downloader,
		emitEvent:  newHostEventEmitter(config.OnEvent),
	}

	controller.emitEvent = chainEventEmitters(vm.emitEvent, vm.handleControllerEvent)
	controller.onListeningChanged = vm.shouldOpen

	runtime.start()
	return vm
}

func (vm *ViewModel) Messages() []Message {
	return vm.messages.Messages()
}

func (vm *ViewModel) State() SessionState {
	return vm.controller.State()
}

func (vm *ViewModel) IsOpen() bool {
	return vm.open.Load()
}

func (vm *ViewModel) HasGreeted() bool {
	return vm.cache.HasGreeted()
}

func (vm *ViewModel) HasOnboarded() bool {
	return vm.cache.HasOnboarded()
}

func (vm *ViewModel) IsSilent() bool {
	return vm.controller.IsSilent()
}

func (vm *ViewModel) SetSilent(silent bool) {
	vm.runtime.enqueue("set silent", func() {
		if vm.controller.IsSilent() == silent {
			return
		}
		vm.controller.SetSilent(silent)
		vm.emitEvent(events.NewMuteChanged(silent))
	})
}

// StopListening stops the speech pipeline.
func (vm *ViewModel) StopListening() {
	vm.controller.Stop()
}

func (vm *ViewModel) Activate() {
	vm.controller.Activate()
}

func (vm *ViewModel) Deactivate() {
	vm.controller.Deactivate()
}

// Initialize greets the user if they were never greeted and greeting is
// enabled.
func (vm *ViewModel) Initialize() {
	vm.runtime.enqueue("initialize", func() {
		if vm.config.SayGreeting {
			vm.greetIfNecessary()
		}
	})
}

// Open reports the user gesture to open the tray.
func (vm *ViewModel) Open() {
	vm.runtime.enqueue("open tray", vm.openTray)
}

// Close reports the user gesture to close the tray.
func (vm *ViewModel) Close() {
	vm.runtime.enqueue("close tray", vm.closeTray)
}

// Shutdown stops the pipeline and ends the session. Events still queued are
// delivered first.
func (vm *ViewModel) Shutdown(ctx context.Context) {
	if err := vm.runtime.drain(ctx); err != nil {
		logger.Debug("session not drained before shutdown", "error", err)
	}
	vm.controller.Shutdown()
}

func (vm *ViewModel) handleControllerEvent(event events.Event) {
	switch typedEvent := event.(type) {
	case events.Recognized:
		vm.addMessage(AlignRight, typedEvent.Transcript)
	case events.SpeechError:
		// Shown where the transcript would have been.
		vm.addMessage(AlignRight, typedEvent.Message)
	case events.Classified:
		vm.onClassified(typedEvent)
	case events.FinishedSpeaking:
		vm.onFinishedSpeaking()
	case events.TimedOut:
		vm.onTimeout()
	}
}

func (vm *ViewModel) shouldOpen(open bool) {
	vm.emitEvent(events.NewShouldOpenChanged(open))

	if open {
		vm.openTray()
		if !vm.cache.HasGreeted() && vm.config.SayGreeting {
			vm.greetIfNecessary()
		}
		return
	}

	if vm.hasChosenToExit {
		vm.closeTray()
	}
}

func (vm *ViewModel) openTray() {
	if !vm.open.CompareAndSwap(false, true) {
		return
	}

	vm.controller.activate()
	vm.emitEvent(events.NewOpened())
	invokeHostCallback("open callback", vm.config.OnOpen)
}

func (vm *ViewModel) closeTray() {
	if !vm.open.CompareAndSwap(true, false) {
		return
	}

	vm.controller.deactivate()
	vm.emitEvent(events.NewClosed())
	invokeHostCallback("close callback", vm.config.OnClose)
}

func (vm *ViewModel) greetIfNecessary() {
	if vm.cache.HasGreeted() {
		return
	}

	if !vm.controller.IsSilent() {
		// Listening resumes once the greeting finished playing.
		vm.controller.deactivate()
		vm.controller.synthesizeSpeech(vm.config.Greeting)
	}
	vm.addMessage(AlignLeft, vm.config.Greeting)

	if err := vm.cache.SetGreeted(true); err != nil {
		logger.Warn("failed to persist greeting flag", "error", err)
	}
}

func (vm *ViewModel) onClassified(event events.Classified) {
	vm.addMessage(AlignLeft, event.Prompt)

	if !vm.config.IsExitNode(event.Node) {
		return
	}

	vm.hasChosenToExit = true
	if vm.controller.IsSilent() {
		vm.shouldOpen(false)
		vm.hasChosenToExit = false
	}
}

func (vm *ViewModel) onFinishedSpeaking() {
	if !vm.hasChosenToExit {
		vm.controller.activate()
		return
	}

	vm.shouldOpen(false)
	vm.hasChosenToExit = false
}

func (vm *ViewModel) onTimeout() {
	vm.hasChosenToExit = true
	vm.shouldOpen(false)
	vm.hasChosenToExit = false
}

func (vm *ViewModel) addMessage(alignment Alignment, text string) {
	if text == "" {
		return
	}
	message := vm.messages.Add(alignment, text)
	vm.emitEvent(events.NewMessageAdded(message.ID, string(message.Alignment), message.Text))
}

package tray

import "github.com/koscakluka/ema-tray/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// newHostEventEmitter wraps the host callback so a panicking host cannot take
// down the session goroutine.
func newHostEventEmitter(onEvent func(events.Event)) eventEmitter {
	if onEvent == nil {
		return noopEventEmitter
	}
	return func(event events.Event) {
		invokeHostCallback("event callback", func() { onEvent(event) })
	}
}

// chainEventEmitters delivers every event to each emitter in order.
func chainEventEmitters(emitters ...eventEmitter) eventEmitter {
	active := make([]eventEmitter, 0, len(emitters))
	for _, emitter := range emitters {
		if emitter != nil {
			active = append(active, emitter)
		}
	}
	return func(event events.Event) {
		for _, emit := range active {
			emit(event)
		}
	}
}

package tray

import (
	"context"
	"fmt"
)

type workerRun func(context.Context) error

func panicSafeNamedWorker(name string, run func(context.Context) error) workerRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s worker panicked: %v", name, recovered)
			}
		}()

		if err = run(ctx); err != nil {
			return fmt.Errorf("%s worker failed: %w", name, err)
		}

		return nil
	}
}

// invokeHostCallback runs host supplied code, logging instead of propagating
// a panic.
func invokeHostCallback(name string, callback func()) (panicked bool) {
	if callback == nil {
		return false
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("host callback panicked", "callback", name, "panic", recovered)
			panicked = true
		}
	}()
	callback()
	return false
}

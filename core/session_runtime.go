package tray

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type queuedTask struct {
	name     string
	run      func()
	queuedAt time.Time
}

// sessionRuntime is the single goroutine every session state transition runs
// on. Tasks run in the order they were enqueued. The queue is unbounded so
// engines may report synchronously from inside a running task.
type sessionRuntime struct {
	mu      sync.Mutex
	pending []queuedTask
	wake    chan struct{}

	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newSessionRuntime() *sessionRuntime {
	return &sessionRuntime{
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (r *sessionRuntime) start() {
	r.startOnce.Do(func() {
		if r.isClosed() {
			return
		}

		r.started.Store(true)
		go func() {
			defer close(r.done)

			for {
				select {
				case <-r.closeCh:
					return
				case <-r.wake:
				}

				for {
					task, ok := r.next()
					if !ok {
						break
					}
					if r.isClosed() {
						return
					}
					r.run(task)
				}
			}
		}()
	})
}

func (r *sessionRuntime) end() {
	r.endOnce.Do(func() {
		close(r.closeCh)
	})
}

func (r *sessionRuntime) waitUntilEnded() {
	if r.started.Load() {
		<-r.done
	}
}

func (r *sessionRuntime) isClosed() bool {
	select {
	case <-r.closeCh:
		return true
	default:
		return false
	}
}

func (r *sessionRuntime) enqueue(name string, run func()) bool {
	if r.isClosed() {
		return false
	}

	r.mu.Lock()
	r.pending = append(r.pending, queuedTask{name: name, run: run, queuedAt: time.Now()})
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return true
}

// call runs fn on the session goroutine and waits for it to return. It must
// not be used from inside a task.
func (r *sessionRuntime) call(ctx context.Context, name string, fn func()) error {
	done := make(chan struct{})
	if !r.enqueue(name, func() {
		defer close(done)
		fn()
	}) {
		return ErrSessionClosed
	}

	select {
	case <-done:
		return nil
	case <-r.closeCh:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain waits until the queue is empty, including tasks enqueued by the tasks
// it waited for.
func (r *sessionRuntime) drain(ctx context.Context) error {
	for {
		empty := false
		if err := r.call(ctx, "drain", func() { empty = r.queued() == 0 }); err != nil {
			return err
		}
		if empty {
			return nil
		}
	}
}

func (r *sessionRuntime) queued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *sessionRuntime) next() (queuedTask, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		return queuedTask{}, false
	}
	task := r.pending[0]
	r.pending[0] = queuedTask{}
	r.pending = r.pending[1:]
	return task, true
}

func (r *sessionRuntime) run(task queuedTask) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("session task panicked", "task", task.name, "panic", recovered)
		}
	}()

	if waited := time.Since(task.queuedAt); waited > time.Second {
		logger.Debug("session task waited in queue", "task", task.name, "waited", waited)
	}
	task.run()
}

// Package mainloop runs closures one at a time on a single goroutine.
//
// Everything that posts notifications in the demo goes through the loop
// (button presses, delayed posts, heartbeat ticks), so observers updating
// the screen never run concurrently.
package mainloop

import (
	"context"
	"errors"
	"sync"
	"time"

	logx "typednotify/pkg/logx"
)

var ErrStopped = errors.New("mainloop: stopped")

type Loop struct {
	log   logx.Logger
	queue chan func()

	mu      sync.Mutex
	stopped bool
	timers  map[*time.Timer]struct{}
}

// New returns a loop with a queue of the given size (default 64).
func New(size int, log logx.Logger) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{log: log, queue: make(chan func(), size), timers: map[*time.Timer]struct{}{}}
}

// Run executes queued closures until ctx is done. A panicking closure is
// logged and does not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.queue:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("main loop task panicked", logx.Any("panic", r))
		}
	}()
	fn()
}

// Do enqueues fn. It blocks while the queue is full and fails once the loop stopped
// or ctx is done.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if fn == nil {
		return nil
	}
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped {
		return ErrStopped
	}
	select {
	case l.queue <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// After enqueues fn once d elapsed. The returned func cancels it if it has
// not been queued yet.
func (l *Loop) After(d time.Duration, fn func()) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || fn == nil {
		return func() {}
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, t)
		stopped := l.stopped
		l.mu.Unlock()
		if stopped {
			return
		}
		select {
		case l.queue <- fn:
		default:
			l.log.Warn("main loop queue full; delayed task dropped", logx.Duration("delay", d))
		}
	})
	l.timers[t] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()
		t.Stop()
	}
}

// Pending reports how many delayed tasks have not fired yet.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	for t := range l.timers {
		t.Stop()
	}
	clear(l.timers)
}

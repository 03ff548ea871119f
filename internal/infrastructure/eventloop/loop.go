package eventloop

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned when work is submitted to a closed loop
var ErrClosed = errors.New("event loop closed")

// Loop executes posted tasks one at a time, in posting order
type Loop struct {
	logger *zap.Logger
	clock  Clock

	mu     sync.Mutex
	tasks  []func()
	closed bool

	signal chan struct{}
	done   chan struct{}
}

// New creates a loop and starts its goroutine
func New(logger *zap.Logger, clock Clock) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = RealClock()
	}

	l := &Loop{
		logger: logger.Named("eventloop"),
		clock:  clock,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

// Clock returns the loop's clock
func (l *Loop) Clock() Clock {
	return l.clock
}

// Post enqueues fn. It never blocks, so tasks may post follow-up work.
// Returns false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
	return true
}

// After runs fn on the loop once d has elapsed on the loop's clock
func (l *Loop) After(d time.Duration, fn func()) Timer {
	return l.clock.AfterFunc(d, func() {
		l.Post(fn)
	})
}

// Do runs fn on the loop and waits for it to finish.
// Must not be called from a task, which would deadlock.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		// Close drains the queue, but fn may have been the task that panicked
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Sync waits until every task posted so far, and every task those tasks
// posted in turn, has run
func (l *Loop) Sync() {
	for {
		if err := l.Do(func() {}); err != nil {
			return
		}
		l.mu.Lock()
		idle := len(l.tasks) == 0
		l.mu.Unlock()
		if idle {
			return
		}
	}
}

// Close stops accepting work, runs what is already queued and waits for the
// loop goroutine to exit
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		batch := l.tasks
		l.tasks = nil
		closed := l.closed
		l.mu.Unlock()

		for _, task := range batch {
			l.execute(task)
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-l.signal
	}
}

func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Task panicked", zap.String("panic", fmt.Sprint(r)), zap.Stack("stack"))
		}
	}()
	task()
}

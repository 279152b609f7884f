package ui

import (
	"context"
	"fmt"
	"sync"
)

// Loop is a serial executor standing in for a UI thread when there is no
// terminal UI. Functions passed to Schedule run one at a time, in order, on
// the loop's goroutine.
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	running  bool
	signal   chan struct{}
	stopChan chan struct{}
	workerWg sync.WaitGroup
}

// NewLoop creates a stopped loop
func NewLoop() *Loop {
	return &Loop{
		signal:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
}

// Start starts the loop goroutine. Cancelling ctx stops it like Stop. A
// stopped loop cannot be started again.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("ui loop already running")
	}
	l.running = true
	l.mu.Unlock()

	l.workerWg.Add(1)
	go l.process(ctx)
	return nil
}

// Stop runs whatever is still queued, then stops the loop
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return fmt.Errorf("ui loop not running")
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopChan)
	l.workerWg.Wait()
	return nil
}

// Schedule queues fn. It never blocks, so it may be called from fn itself.
func (l *Loop) Schedule(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it to return
func (l *Loop) Do(fn func()) {
	done := make(chan struct{})
	l.Schedule(func() {
		defer close(done)
		fn()
	})
	<-done
}

func (l *Loop) process(ctx context.Context) {
	defer l.workerWg.Done()

	for {
		select {
		case <-l.signal:
			l.runQueued()
		case <-ctx.Done():
			l.runQueued()
			return
		case <-l.stopChan:
			l.runQueued()
			return
		}
	}
}

func (l *Loop) runQueued() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

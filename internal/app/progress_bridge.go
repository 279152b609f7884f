package app

import (
	"sync"
	"time"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// ProgressBridge carries events from a task's worker goroutine to a single
// consumer. Emit never blocks; Poll waits at most the given timeout.
// Events are delivered in emission order and nothing is accepted after
// the terminal event.
type ProgressBridge struct {
	mu         sync.Mutex
	queue      []domain.ProgressEvent
	terminated bool
	signal     chan struct{}
}

// NewProgressBridge creates an empty bridge
func NewProgressBridge() *ProgressBridge {
	return &ProgressBridge{
		signal: make(chan struct{}, 1),
	}
}

// Emit enqueues an event. It returns false if a terminal event was
// already emitted, in which case the event is dropped.
func (b *ProgressBridge) Emit(event domain.ProgressEvent) bool {
	b.mu.Lock()
	if b.terminated {
		b.mu.Unlock()
		return false
	}
	b.queue = append(b.queue, event)
	if event.IsTerminal() {
		b.terminated = true
	}
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
	return true
}

// Poll returns the next event, or false if none arrived within timeout
func (b *ProgressBridge) Poll(timeout time.Duration) (domain.ProgressEvent, bool) {
	if event, ok := b.pop(); ok {
		return event, true
	}
	if timeout <= 0 {
		return domain.ProgressEvent{}, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-b.signal:
			if event, ok := b.pop(); ok {
				return event, true
			}
		case <-timer.C:
			return b.pop()
		}
	}
}

// Terminated reports whether the terminal event has been emitted
func (b *ProgressBridge) Terminated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminated
}

func (b *ProgressBridge) pop() (domain.ProgressEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return domain.ProgressEvent{}, false
	}
	event := b.queue[0]
	b.queue[0] = domain.ProgressEvent{}
	b.queue = b.queue[1:]
	return event, true
}

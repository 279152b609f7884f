package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boombae/ytdl-desk/internal/domain"
)

func TestProgressBridge_FIFO(t *testing.T) {
	bridge := NewProgressBridge()

	assert.True(t, bridge.Emit(domain.ProgressOf(10)))
	assert.True(t, bridge.Emit(domain.ProgressOf(50)))
	assert.True(t, bridge.Emit(domain.DoneOf("/tmp/a.mp4", 42)))

	var got []domain.ProgressEvent
	for i := 0; i < 3; i++ {
		event, ok := bridge.Poll(0)
		require.True(t, ok)
		got = append(got, event)
	}

	assert.Equal(t, []domain.ProgressEvent{
		domain.ProgressOf(10),
		domain.ProgressOf(50),
		domain.DoneOf("/tmp/a.mp4", 42),
	}, got)
}

func TestProgressBridge_PollEmpty(t *testing.T) {
	bridge := NewProgressBridge()

	_, ok := bridge.Poll(0)
	assert.False(t, ok)

	start := time.Now()
	_, ok = bridge.Poll(20 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestProgressBridge_DropsAfterTerminal(t *testing.T) {
	bridge := NewProgressBridge()

	require.True(t, bridge.Emit(domain.FailedOf(errors.New("boom"))))
	assert.True(t, bridge.Terminated())

	assert.False(t, bridge.Emit(domain.ProgressOf(99)))
	assert.False(t, bridge.Emit(domain.DoneOf("/tmp/x", 1)))

	event, ok := bridge.Poll(0)
	require.True(t, ok)
	assert.Equal(t, domain.EventFailed, event.Kind)
	assert.Equal(t, "boom", event.Message)

	_, ok = bridge.Poll(10 * time.Millisecond)
	assert.False(t, ok)
}

func TestProgressBridge_WakesBlockedPoll(t *testing.T) {
	bridge := NewProgressBridge()

	go func() {
		time.Sleep(10 * time.Millisecond)
		bridge.Emit(domain.ProgressOf(5))
	}()

	event, ok := bridge.Poll(time.Second)
	require.True(t, ok)
	assert.Equal(t, 5, event.Percent)
}

func TestProgressBridge_ConcurrentProducerKeepsOrder(t *testing.T) {
	bridge := NewProgressBridge()
	const n = 500

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			bridge.Emit(domain.ProgressOf(i % 101))
		}
		bridge.Emit(domain.DoneOf("/tmp/done", n))
	}()

	received := 0
	for {
		event, ok := bridge.Poll(100 * time.Millisecond)
		if !ok {
			continue
		}
		if event.IsTerminal() {
			assert.Equal(t, domain.EventDone, event.Kind)
			break
		}
		assert.Equal(t, received%101, event.Percent)
		received++
	}
	wg.Wait()

	assert.Equal(t, n, received)
}

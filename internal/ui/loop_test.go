package ui

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInOrder(t *testing.T) {
	loop := NewLoop()
	require.NoError(t, loop.Start(context.Background()))

	var got []int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			i := i
			loop.Schedule(func() { got = append(got, i) })
		}
	}()
	wg.Wait()
	require.NoError(t, loop.Stop())

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_ScheduleFromInsideLoop(t *testing.T) {
	loop := NewLoop()
	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop()

	done := make(chan string, 1)
	loop.Do(func() {
		loop.Schedule(func() { done <- "nested" })
	})
	assert.Equal(t, "nested", <-done)
}

func TestLoop_StartStopErrors(t *testing.T) {
	loop := NewLoop()
	assert.Error(t, loop.Stop())

	require.NoError(t, loop.Start(context.Background()))
	assert.Error(t, loop.Start(context.Background()))
	require.NoError(t, loop.Stop())
	assert.Error(t, loop.Stop())
}

func TestLoop_ContextCancelDrains(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop()
	require.NoError(t, loop.Start(ctx))

	ran := make(chan struct{})
	loop.Do(func() {})
	loop.Schedule(func() { close(ran) })
	cancel()
	<-ran
}

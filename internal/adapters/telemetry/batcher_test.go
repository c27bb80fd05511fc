package telemetry_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/kiln/internal/adapters/telemetry"
)

// collector records every batch handed to onFlush.
type collector struct {
	mu      sync.Mutex
	batches []string
}

func (c *collector) add(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, string(data))
}

func (c *collector) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.batches...)
}

func TestOutputBatcher_SizeFlushStopsAtLineBoundary(t *testing.T) {
	var c collector
	b := telemetry.NewOutputBatcher(8, time.Hour, c.add)

	_, err := b.Write([]byte("one\ntwo\nthr"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one\ntwo\n"}, c.get())

	_, err = b.Write([]byte("ee\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one\ntwo\n"}, c.get(), "below the limit nothing is flushed")

	require.NoError(t, b.Close())
	assert.Equal(t, []string{"one\ntwo\n", "three\n"}, c.get())
}

func TestOutputBatcher_LongLineFlushedWhole(t *testing.T) {
	var c collector
	b := telemetry.NewOutputBatcher(4, time.Hour, c.add)
	defer func() { _ = b.Close() }()

	_, err := b.Write([]byte("no newline here"))
	require.NoError(t, err)
	assert.Equal(t, []string{"no newline here"}, c.get())
}

func TestOutputBatcher_DelayFlush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c collector
		b := telemetry.NewOutputBatcher(1024, 50*time.Millisecond, c.add)
		defer func() { _ = b.Close() }()

		_, err := b.Write([]byte("partial"))
		require.NoError(t, err)

		time.Sleep(49 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, c.get())

		time.Sleep(2 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"partial"}, c.get())

		// The timer is re-armed by the next write only.
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Len(t, c.get(), 1)
	})
}

func TestOutputBatcher_Flush(t *testing.T) {
	var c collector
	b := telemetry.NewOutputBatcher(0, time.Hour, c.add)
	defer func() { _ = b.Close() }()

	b.Flush()
	assert.Empty(t, c.get(), "empty flush is a no-op")

	_, err := b.Write([]byte("hello"))
	require.NoError(t, err)
	b.Flush()
	assert.Equal(t, []string{"hello"}, c.get())
}

func TestOutputBatcher_WriteAfterClose(t *testing.T) {
	var c collector
	b := telemetry.NewOutputBatcher(0, 0, c.add)

	_, err := b.Write([]byte("pending"))
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, []string{"pending"}, c.get())

	_, err = b.Write([]byte("late"))
	require.Error(t, err)
}

func TestOutputBatcher_ConcurrentWriters(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c collector
		b := telemetry.NewOutputBatcher(16, 10*time.Millisecond, c.add)

		const workers, lines = 8, 50
		var wg sync.WaitGroup
		for range workers {
			wg.Go(func() {
				for j := range lines {
					_, _ = b.Write([]byte("x\n"))
					if j%10 == 0 {
						time.Sleep(5 * time.Millisecond)
					}
				}
			})
		}
		wg.Wait()
		require.NoError(t, b.Close())

		total := 0
		for _, batch := range c.get() {
			total += len(batch)
		}
		assert.Equal(t, workers*lines*2, total)
	})
}

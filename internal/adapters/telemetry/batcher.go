// Package telemetry bridges rule spans to OpenTelemetry and to the build renderers.
package telemetry

import (
	"bytes"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultSizeLimit is the buffered output size that triggers a flush.
	DefaultSizeLimit = 4096
	// DefaultDelay is how long output may stay buffered.
	DefaultDelay = 50 * time.Millisecond
)

var errBatcherClosed = zerr.New("output batcher is closed")

// OutputBatcher coalesces the output a rule's steps write into fewer renderer updates.
// Size-triggered flushes stop at the last complete line so that renderers rarely see a
// line split in two; the delay flush and Close hand over everything. It is safe for
// concurrent use.
type OutputBatcher struct {
	sizeLimit int
	delay     time.Duration
	onFlush   func([]byte)

	mu     sync.Mutex
	buf    bytes.Buffer
	timer  *time.Timer
	closed bool
}

// NewOutputBatcher creates a batcher calling onFlush with each batch. Non-positive limits
// select the defaults.
func NewOutputBatcher(sizeLimit int, delay time.Duration, onFlush func([]byte)) *OutputBatcher {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &OutputBatcher{sizeLimit: sizeLimit, delay: delay, onFlush: onFlush}
}

// Write buffers p. The first write after a flush arms the delay timer.
func (b *OutputBatcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errBatcherClosed
	}
	n, _ := b.buf.Write(p)

	if b.buf.Len() >= b.sizeLimit {
		b.flushLinesLocked()
	}
	if b.buf.Len() > 0 && b.timer == nil {
		b.timer = time.AfterFunc(b.delay, b.Flush)
	}
	return n, nil
}

// Flush hands over everything buffered.
func (b *OutputBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushAllLocked()
}

// Close flushes and rejects further writes.
func (b *OutputBatcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.flushAllLocked()
	return nil
}

func (b *OutputBatcher) flushAllLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.emitLocked(b.buf.Len())
}

// flushLinesLocked emits up to the last newline, or everything when a single line
// outgrows the limit.
func (b *OutputBatcher) flushLinesLocked() {
	n := bytes.LastIndexByte(b.buf.Bytes(), '\n') + 1
	if n == 0 {
		n = b.buf.Len()
	}
	b.emitLocked(n)
	if b.buf.Len() == 0 && b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// emitLocked calls onFlush with a copy of the first n buffered bytes. Calling it under
// the lock keeps batches in write order; onFlush must not block.
func (b *OutputBatcher) emitLocked(n int) {
	if n == 0 {
		return
	}
	data := bytes.Clone(b.buf.Next(n))
	if b.buf.Len() == 0 {
		b.buf.Reset()
	}
	if b.onFlush != nil {
		b.onFlush(data)
	}
}

package db

import (
	"context"
	"sync"
	"time"
)

// DefaultQueueCapacity bounds the number of generation records waiting to
// be persisted.
const DefaultQueueCapacity = 100

// WriteHandler persists one queued generation record. Implementations
// handle their own error logging.
type WriteHandler func(record *GenerationRecord) error

// AsyncWriter persists generation records on a background goroutine so a
// slow disk never stalls the image pipeline. Writes are non-blocking; a
// full queue is reported to the caller, which falls back to a synchronous
// insert.
type AsyncWriter struct {
	queue   chan *GenerationRecord
	handler WriteHandler
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// AsyncWriterConfig holds configuration for the async writer.
type AsyncWriterConfig struct {
	// QueueCapacity bounds pending records (default: DefaultQueueCapacity)
	QueueCapacity int
}

// NewAsyncWriter creates an async writer with the default queue capacity.
func NewAsyncWriter(handler WriteHandler) *AsyncWriter {
	return NewAsyncWriterWithConfig(handler, AsyncWriterConfig{QueueCapacity: DefaultQueueCapacity})
}

// NewAsyncWriterWithConfig creates an async writer with a custom queue
// capacity. Call Start before queueing records.
func NewAsyncWriterWithConfig(handler WriteHandler, config AsyncWriterConfig) *AsyncWriter {
	if config.QueueCapacity < 1 {
		config.QueueCapacity = DefaultQueueCapacity
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &AsyncWriter{
		queue:   make(chan *GenerationRecord, config.QueueCapacity),
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the background goroutine. Idempotent.
func (w *AsyncWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return
	}
	w.started = true

	w.wg.Add(1)
	go w.process()
}

func (w *AsyncWriter) process() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case record := <-w.queue:
			_ = w.handler(record)
		}
	}
}

// drain persists whatever is still queued when the writer stops.
func (w *AsyncWriter) drain() {
	for {
		select {
		case record := <-w.queue:
			_ = w.handler(record)
		default:
			return
		}
	}
}

// Write queues a record without blocking. Returns false when the queue is
// full, in which case the caller should write synchronously.
func (w *AsyncWriter) Write(record *GenerationRecord) bool {
	select {
	case w.queue <- record:
		return true
	default:
		return false
	}
}

// Stop stops the background goroutine after draining the queue.
func (w *AsyncWriter) Stop() {
	w.cancel()
	w.wg.Wait()
}

// StopWithTimeout stops the writer, waiting at most timeout for the drain.
// Returns false when the deadline hit first.
func (w *AsyncWriter) StopWithTimeout(timeout time.Duration) bool {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// IsStarted reports whether the background goroutine is running.
func (w *AsyncWriter) IsStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

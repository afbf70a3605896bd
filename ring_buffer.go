package match

import (
	"context"
	"runtime"
	"sync/atomic"
)

// EventHandler consumes events from a RingBuffer on a single goroutine.
type EventHandler[T any] interface {
	OnEvent(event *T)
}

// RingBuffer is a multi-producer single-consumer ring buffer.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_                [56]byte
	producerSequence atomic.Int64
	_                [56]byte
	consumerSequence atomic.Int64
	_                [56]byte

	buffer     []T
	bufferMask int64
	capacity   int64

	// published[i] holds the sequence last written to slot i
	published []int64

	handler    EventHandler[T]
	isShutdown atomic.Bool
	stopped    chan struct{}
}

// NewRingBuffer creates a ring buffer. capacity must be a power of 2.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("size must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
		stopped:    make(chan struct{}),
	}

	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)

	for i := range rb.published {
		atomic.StoreInt64(&rb.published[i], -1)
	}

	return rb
}

// Publish writes event to the next slot, waiting while the buffer is full.
// It is safe for concurrent use and returns false once Shutdown was called.
func (rb *RingBuffer[T]) Publish(event T) bool {
	if rb.isShutdown.Load() {
		return false
	}

	var nextSeq int64
	for {
		currentProducerSeq := rb.producerSequence.Load()
		nextSeq = currentProducerSeq + 1

		// the producer may not lap the consumer
		wrapPoint := nextSeq - rb.capacity
		if wrapPoint > rb.consumerSequence.Load() {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(currentProducerSeq, nextSeq) {
			break
		}
		runtime.Gosched()
	}

	index := nextSeq & rb.bufferMask
	rb.buffer[index] = event
	atomic.StoreInt64(&rb.published[index], nextSeq)

	return true
}

// Start runs the consumer on its own goroutine.
func (rb *RingBuffer[T]) Start() {
	go rb.consumerLoop()
}

// Shutdown stops accepting events and waits until every claimed event has
// been handled. It returns ErrDisruptorTimeout if ctx ends first.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	select {
	case <-rb.stopped:
		return nil
	case <-ctx.Done():
		return ErrDisruptorTimeout
	}
}

func (rb *RingBuffer[T]) consumerLoop() {
	defer close(rb.stopped)

	nextConsumerSeq := rb.consumerSequence.Load() + 1

	for {
		// read the flag first so nothing claimed before it is missed
		shutdown := rb.isShutdown.Load()
		availableSeq := rb.producerSequence.Load()

		if nextConsumerSeq > availableSeq {
			if shutdown {
				return
			}
			runtime.Gosched()
			continue
		}

		for nextConsumerSeq <= availableSeq {
			index := nextConsumerSeq & rb.bufferMask

			// the slot is claimed but may not be written yet
			for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
				runtime.Gosched()
			}

			rb.handler.OnEvent(&rb.buffer[index])

			rb.consumerSequence.Store(nextConsumerSeq)
			nextConsumerSeq++
		}
	}
}

// ConsumerSequence returns the last handled sequence.
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the last claimed sequence.
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

// PendingEvents returns how many claimed events are not handled yet.
func (rb *RingBuffer[T]) PendingEvents() int64 {
	return rb.producerSequence.Load() - rb.consumerSequence.Load()
}

// AsyncPublishLog hands book logs to a downstream PublishLog on a separate
// goroutine, so a slow sink does not hold the book lock. Logs are copied
// into the ring buffer before Publish returns.
type AsyncPublishLog struct {
	rb *RingBuffer[BookLog]
}

type publishHandler struct {
	downstream PublishLog
}

func (h publishHandler) OnEvent(log *BookLog) {
	h.downstream.Publish(log)
}

// NewAsyncPublishLog starts forwarding to downstream. capacity must be a
// power of 2.
func NewAsyncPublishLog(capacity int64, downstream PublishLog) *AsyncPublishLog {
	rb := NewRingBuffer[BookLog](capacity, publishHandler{downstream: downstream})
	rb.Start()
	return &AsyncPublishLog{rb: rb}
}

func (p *AsyncPublishLog) Publish(logs ...*BookLog) {
	for _, log := range logs {
		if !p.rb.Publish(*log) {
			logger.Warn("book log dropped after shutdown", "book_id", log.BookID, "seq_id", log.SequenceID)
		}
	}
}

// Shutdown flushes queued logs to the downstream sink.
func (p *AsyncPublishLog) Shutdown(ctx context.Context) error {
	return p.rb.Shutdown(ctx)
}

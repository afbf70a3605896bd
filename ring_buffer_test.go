package match

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	ID    int64
	Value int64
}

// simpleHandler is a test helper that wraps a function.
type simpleHandler[T any] struct {
	fn func(*T)
}

func (h *simpleHandler[T]) OnEvent(e *T) {
	h.fn(e)
}

func shutdownRingBuffer[T any](t *testing.T, rb *RingBuffer[T]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))
}

func TestRingBuffer_BasicOperations(t *testing.T) {
	var processed []int64
	var mu sync.Mutex

	handler := &simpleHandler[testEvent]{
		fn: func(e *testEvent) {
			mu.Lock()
			processed = append(processed, e.ID)
			mu.Unlock()
		},
	}

	rb := NewRingBuffer[testEvent](16, handler)
	rb.Start()

	for i := int64(1); i <= 10; i++ {
		assert.True(t, rb.Publish(testEvent{ID: i}))
	}

	shutdownRingBuffer(t, rb)

	// events are handled in publish order
	require.Len(t, processed, 10)
	for i := int64(1); i <= 10; i++ {
		assert.Equal(t, i, processed[i-1])
	}
}

func TestRingBuffer_PublishAfterShutdown(t *testing.T) {
	var count atomic.Int64
	rb := NewRingBuffer[testEvent](16, &simpleHandler[testEvent]{fn: func(*testEvent) { count.Add(1) }})
	rb.Start()

	shutdownRingBuffer(t, rb)

	assert.False(t, rb.Publish(testEvent{ID: 1}))
	assert.Equal(t, int64(0), count.Load())
	assert.Equal(t, int64(-1), rb.ProducerSequence())
}

func TestRingBuffer_PendingEvents(t *testing.T) {
	blockCh := make(chan struct{})
	handler := &simpleHandler[testEvent]{
		fn: func(*testEvent) {
			<-blockCh
		},
	}

	rb := NewRingBuffer[testEvent](16, handler)
	rb.Start()

	for i := 0; i < 5; i++ {
		rb.Publish(testEvent{ID: int64(i)})
	}

	// the first event may already be in the handler
	assert.GreaterOrEqual(t, rb.PendingEvents(), int64(4))

	close(blockCh)
	shutdownRingBuffer(t, rb)

	assert.Equal(t, int64(0), rb.PendingEvents())
}

func TestRingBuffer_SequenceMonitoring(t *testing.T) {
	rb := NewRingBuffer[testEvent](16, &simpleHandler[testEvent]{fn: func(*testEvent) {}})

	assert.Equal(t, int64(-1), rb.ProducerSequence())
	assert.Equal(t, int64(-1), rb.ConsumerSequence())

	rb.Start()
	for i := 0; i < 3; i++ {
		rb.Publish(testEvent{ID: int64(i)})
	}
	shutdownRingBuffer(t, rb)

	assert.Equal(t, int64(2), rb.ProducerSequence())
	assert.Equal(t, int64(2), rb.ConsumerSequence())
}

func TestRingBuffer_ShutdownTimeout(t *testing.T) {
	blockCh := make(chan struct{})
	rb := NewRingBuffer[testEvent](16, &simpleHandler[testEvent]{fn: func(*testEvent) { <-blockCh }})
	rb.Start()

	rb.Publish(testEvent{ID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rb.Shutdown(ctx), ErrDisruptorTimeout)

	close(blockCh)
	shutdownRingBuffer(t, rb)
}

func TestRingBuffer_WrapAround(t *testing.T) {
	var sum atomic.Int64
	rb := NewRingBuffer[testEvent](4, &simpleHandler[testEvent]{fn: func(e *testEvent) { sum.Add(e.Value) }})
	rb.Start()

	for i := 1; i <= 100; i++ {
		rb.Publish(testEvent{ID: int64(i), Value: int64(i)})
	}
	shutdownRingBuffer(t, rb)

	assert.Equal(t, int64(5050), sum.Load())
}

func TestRingBuffer_ConcurrentPublish(t *testing.T) {
	var count atomic.Int64

	rb := NewRingBuffer[testEvent](1024, &simpleHandler[testEvent]{fn: func(*testEvent) { count.Add(1) }})
	rb.Start()

	const numPublishers = 10
	const eventsPerPublisher = 100

	var wg sync.WaitGroup
	wg.Add(numPublishers)
	for i := 0; i < numPublishers; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerPublisher; j++ {
				rb.Publish(testEvent{ID: int64(id*eventsPerPublisher + j)})
			}
		}(i)
	}
	wg.Wait()

	shutdownRingBuffer(t, rb)
	assert.Equal(t, int64(numPublishers*eventsPerPublisher), count.Load())
}

func TestRingBuffer_PowerOf2Validation(t *testing.T) {
	handler := &simpleHandler[testEvent]{fn: func(*testEvent) {}}

	assert.Panics(t, func() { NewRingBuffer[testEvent](15, handler) })
	assert.Panics(t, func() { NewRingBuffer[testEvent](0, handler) })
	assert.Panics(t, func() { NewRingBuffer[testEvent](-1, handler) })
	assert.NotPanics(t, func() { NewRingBuffer[testEvent](16, handler) })
}

func TestAsyncPublishLog(t *testing.T) {
	downstream := NewMemoryPublishLog()
	async := NewAsyncPublishLog(8, downstream)

	book, _ := newTestBook(t, WithPublishLog(async))
	mustAdd(t, book, NewOrder(GoodTillCancel, 1, Buy, 100, 10))
	mustAdd(t, book, NewOrder(GoodTillCancel, 2, Sell, 100, 4))
	book.CancelOrder(1)
	expected := book.GetOrderInfos()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, async.Shutdown(ctx))

	logs := downstream.Logs()
	require.Len(t, logs, 4)
	for i, log := range logs {
		assert.Equal(t, uint64(i+1), log.SequenceID)
		assert.Equal(t, book.ID(), log.BookID)
	}
	assert.Equal(t, LogTypeMatch, logs[2].Type)
	assert.Equal(t, Quantity(4), logs[2].Size)

	aggregated := NewAggregatedBook()
	for _, log := range logs {
		require.NoError(t, aggregated.Replay(log))
	}
	assert.Equal(t, expected, aggregated.Levels())
}

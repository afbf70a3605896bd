package match

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNextPruneTime(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*60*60)

	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		loc    *time.Location
		want   time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
			hour: 16,
			loc:  time.UTC,
			want: time.Date(2024, 3, 4, 16, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the boundary rolls over",
			now:  time.Date(2024, 3, 4, 16, 0, 0, 0, time.UTC),
			hour: 16,
			loc:  time.UTC,
			want: time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC),
		},
		{
			name: "after the boundary rolls over",
			now:  time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC),
			hour: 16,
			loc:  time.UTC,
			want: time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC),
		},
		{
			name: "end of month",
			now:  time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC),
			hour: 16,
			loc:  time.UTC,
			want: time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC),
		},
		{
			name:   "minutes",
			now:    time.Date(2024, 3, 4, 16, 10, 0, 0, time.UTC),
			hour:   16,
			minute: 30,
			loc:    time.UTC,
			want:   time.Date(2024, 3, 4, 16, 30, 0, 0, time.UTC),
		},
		{
			name: "boundary in another zone",
			// 08:00 UTC is 17:00 in UTC+9, past the 16:00 boundary there
			now:  time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC),
			hour: 16,
			loc:  tokyo,
			want: time.Date(2024, 3, 5, 16, 0, 0, 0, tokyo),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextPruneTime(tt.now, tt.hour, tt.minute, tt.loc)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.True(t, got.After(tt.now))
		})
	}
}

// fakeClock starts at base and advances with the wall clock.
func fakeClock(base time.Time) func() time.Time {
	start := time.Now()
	return func() time.Time {
		return base.Add(time.Since(start))
	}
}

func TestPruneGoodForDayOrders(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	SetLogger(slog.New(zapslog.NewHandler(core)))
	defer SetLogger(slog.New(zapslog.NewHandler(newCore(true))))

	// 100ms before the boundary
	base := time.Date(2024, 3, 4, 15, 59, 59, 900_000_000, time.UTC)
	publishLog := NewMemoryPublishLog()
	book := NewOrderBook(
		WithInstrument("ETH-USDT"),
		WithPublishLog(publishLog),
		WithLocation(time.UTC),
		WithPruneTime(16, 0),
		WithClock(fakeClock(base)),
	)

	mustAdd(t, book, NewOrder(GoodForDay, 1, Buy, 90, 1))
	mustAdd(t, book, NewOrder(GoodTillCancel, 2, Buy, 80, 1))
	mustAdd(t, book, NewOrder(GoodForDay, 3, Sell, 110, 2))
	mustAdd(t, book, NewOrder(GoodTillCancel, 4, Sell, 120, 1))

	assert.Eventually(t, func() bool {
		return book.Size() == 2
	}, 2*time.Second, 10*time.Millisecond)

	infos := book.GetOrderInfos()
	assert.Equal(t, levels(80, 1), infos.Bids)
	assert.Equal(t, levels(120, 1), infos.Asks)
	requireBookInvariants(t, book)

	logs := publishLog.Logs()
	require.Len(t, logs, 6)
	assert.Equal(t, LogTypeCancel, logs[4].Type)
	assert.Equal(t, OrderID(1), logs[4].OrderID)
	assert.Equal(t, LogTypeCancel, logs[5].Type)
	assert.Equal(t, OrderID(3), logs[5].OrderID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, book.Shutdown(ctx))
	goleak.VerifyNone(t)

	pruned := recorded.FilterMessage("good for day orders pruned").All()
	require.Len(t, pruned, 1)
	assert.Equal(t, int64(2), pruned[0].ContextMap()["count"])
	assert.Equal(t, book.ID(), pruned[0].ContextMap()["book_id"])
	assert.Equal(t, "ETH-USDT", pruned[0].ContextMap()["instrument"])
	assert.Equal(t, 1, recorded.FilterMessage("order book stopped").Len())
}

func TestPruneGoodForDayOrdersDirect(t *testing.T) {
	book, _ := newTestBook(t)

	mustAdd(t, book, NewOrder(GoodForDay, 1, Buy, 90, 1))
	mustAdd(t, book, NewOrder(GoodForDay, 2, Buy, 90, 2))
	mustAdd(t, book, NewOrder(GoodTillCancel, 3, Buy, 90, 3))
	// partially filled GoodForDay orders are pruned too
	mustAdd(t, book, NewOrder(GoodForDay, 4, Sell, 100, 5))
	mustAdd(t, book, NewOrder(GoodTillCancel, 5, Buy, 100, 1))

	assert.Equal(t, 3, book.pruneGoodForDayOrders())
	assert.Equal(t, 1, book.Size())
	assert.Equal(t, levels(90, 3), book.GetOrderInfos().Bids)
	assert.Empty(t, book.GetOrderInfos().Asks)
	requireBookInvariants(t, book)

	assert.Equal(t, 0, book.pruneGoodForDayOrders())
}

func TestShutdownStopsPrunerImmediately(t *testing.T) {
	book := NewOrderBook()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, book.Shutdown(ctx))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	goleak.VerifyNone(t)
}

package match

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type OrderBookOption func(*OrderBook)

// WithInstrument names the instrument the book trades. It is attached to
// logs, book logs and metrics.
func WithInstrument(instrument string) OrderBookOption {
	return func(book *OrderBook) {
		book.instrument = instrument
	}
}

// WithPublishLog sets the sink receiving book logs.
func WithPublishLog(publishLog PublishLog) OrderBookOption {
	return func(book *OrderBook) {
		if publishLog != nil {
			book.publishLog = publishLog
		}
	}
}

// WithPruneTime sets the daily boundary at which GoodForDay orders are
// cancelled. Out of range values are ignored.
func WithPruneTime(hour, minute int) OrderBookOption {
	return func(book *OrderBook) {
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			logger.Warn("invalid prune time ignored", "hour", hour, "minute", minute)
			return
		}
		book.pruneHour = hour
		book.pruneMinute = minute
	}
}

// WithLocation sets the time zone of the prune boundary.
func WithLocation(loc *time.Location) OrderBookOption {
	return func(book *OrderBook) {
		if loc != nil {
			book.location = loc
		}
	}
}

// WithClock replaces the wall clock used to schedule pruning and to stamp
// book logs.
func WithClock(now func() time.Time) OrderBookOption {
	return func(book *OrderBook) {
		if now != nil {
			book.now = now
		}
	}
}

// WithMetricsRegisterer registers the book collectors with reg.
func WithMetricsRegisterer(reg prometheus.Registerer) OrderBookOption {
	return func(book *OrderBook) {
		book.registerer = reg
	}
}

// WithOrderCapacity pre-allocates room for n resting orders.
func WithOrderCapacity(n int) OrderBookOption {
	return func(book *OrderBook) {
		book.orderCapacity = n
	}
}

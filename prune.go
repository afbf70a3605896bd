package match

import (
	"slices"
	"time"
)

// nextPruneTime returns the first hour:minute boundary in loc strictly after now.
func nextPruneTime(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// runPruner waits for each daily boundary and cancels the GoodForDay orders
// resting at that moment. It exits as soon as the book is shut down.
func (book *OrderBook) runPruner() {
	defer close(book.shutdownComplete)

	for {
		now := book.now()
		next := nextPruneTime(now, book.pruneHour, book.pruneMinute, book.location)
		timer := time.NewTimer(next.Sub(now) + pruneGrace)

		select {
		case <-book.done:
			timer.Stop()
			logger.Info("order book stopped", "book_id", book.id, "instrument", book.instrument)
			return
		case <-timer.C:
		}

		if book.isShutdown.Load() {
			logger.Info("order book stopped", "book_id", book.id, "instrument", book.instrument)
			return
		}

		pruned := book.pruneGoodForDayOrders()
		logger.Info("good for day orders pruned",
			"book_id", book.id,
			"instrument", book.instrument,
			"count", pruned,
			"boundary", next)
	}
}

// pruneGoodForDayOrders cancels every resting GoodForDay order in one
// critical section and returns how many were cancelled.
func (book *OrderBook) pruneGoodForDayOrders() int {
	book.mu.Lock()
	defer book.mu.Unlock()
	defer book.commit()

	ids := make([]OrderID, 0)
	for id, h := range book.index {
		if book.orders.Get(h).orderType == GoodForDay {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	book.metrics.pruneRuns.Inc()
	return book.cancelOrders(ids, cancelCausePrune)
}

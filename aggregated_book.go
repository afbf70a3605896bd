package match

import (
	"fmt"
	"sync"

	"github.com/tidwall/btree"
)

// AggregatedBook maintains a simplified view of the order book,
// tracking only price levels and their aggregated sizes (depth).
// It is designed for downstream services that rebuild order book state
// from the BookLog events of one book.
type AggregatedBook struct {
	mu    sync.RWMutex
	seqID uint64 // last applied SequenceID, for gap detection and deduplication
	ask   btree.Map[Price, Quantity]
	bid   btree.Map[Price, Quantity]
}

func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{}
}

// SequenceID returns the last processed sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return ab.seqID
}

// Replay applies log to the aggregated book. Logs at or below the current
// sequence id are ignored as duplicates. A log that skips a sequence id
// returns ErrSequenceGap and leaves the book untouched; the caller should
// rebuild from a fresh snapshot.
func (ab *AggregatedBook) Replay(log *BookLog) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if log.SequenceID <= ab.seqID {
		return nil
	}
	if log.SequenceID != ab.seqID+1 {
		return fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, ab.seqID+1, log.SequenceID)
	}

	for _, change := range CalculateDepthChange(log) {
		ab.apply(change)
	}
	ab.seqID = log.SequenceID

	return nil
}

func (ab *AggregatedBook) apply(change DepthChange) {
	levels := &ab.bid
	if change.Side == Sell {
		levels = &ab.ask
	}

	current, _ := levels.Get(change.Price)
	size := int64(current) + change.SizeDiff
	if size <= 0 {
		levels.Delete(change.Price)
		return
	}
	levels.Set(change.Price, Quantity(size))
}

// OnRebuild resets the aggregated book from a depth snapshot, typically
// the result of OrderBook.GetOrderInfos. Replay continues from
// snap.UpdateID.
func (ab *AggregatedBook) OnRebuild(snap OrderBookLevelInfos) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ab.bid = btree.Map[Price, Quantity]{}
	ab.ask = btree.Map[Price, Quantity]{}
	for _, level := range snap.Bids {
		ab.bid.Set(level.Price, level.Quantity)
	}
	for _, level := range snap.Asks {
		ab.ask.Set(level.Price, level.Quantity)
	}
	ab.seqID = snap.UpdateID
}

// Depth returns the aggregated size at price on side, or zero.
func (ab *AggregatedBook) Depth(side Side, price Price) Quantity {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	if side == Buy {
		size, _ := ab.bid.Get(price)
		return size
	}
	size, _ := ab.ask.Get(price)
	return size
}

// Levels returns every level in GetOrderInfos order.
func (ab *AggregatedBook) Levels() OrderBookLevelInfos {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	infos := OrderBookLevelInfos{
		UpdateID: ab.seqID,
		Bids:     make(LevelInfos, 0, ab.bid.Len()),
		Asks:     make(LevelInfos, 0, ab.ask.Len()),
	}
	ab.bid.Reverse(func(price Price, size Quantity) bool {
		infos.Bids = append(infos.Bids, LevelInfo{Price: price, Quantity: size})
		return true
	})
	ab.ask.Scan(func(price Price, size Quantity) bool {
		infos.Asks = append(infos.Asks, LevelInfo{Price: price, Quantity: size})
		return true
	})

	return infos
}

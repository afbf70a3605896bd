package match

// DepthChange is the effect of one book log on one price level.
type DepthChange struct {
	Side     Side
	Price    Price
	SizeDiff int64
}

// CalculateDepthChange returns the level changes caused by log.
// A match consumes liquidity from both legs since the incoming order
// entered the book through its own open log before matching.
func CalculateDepthChange(log *BookLog) []DepthChange {
	switch log.Type {
	case LogTypeOpen:
		return []DepthChange{{Side: log.Side, Price: log.Price, SizeDiff: int64(log.Size)}}
	case LogTypeCancel:
		return []DepthChange{{Side: log.Side, Price: log.Price, SizeDiff: -int64(log.Size)}}
	case LogTypeMatch:
		return []DepthChange{
			{Side: Buy, Price: log.Price, SizeDiff: -int64(log.Size)},
			{Side: Sell, Price: log.CounterPrice, SizeDiff: -int64(log.Size)},
		}
	case LogTypeAmend:
		// Modify is cancel plus re-insert, so only the old order leaves here.
		return []DepthChange{{Side: log.Side, Price: log.OldPrice, SizeDiff: -int64(log.OldSize)}}
	}

	// Rejected orders never entered the book.
	return nil
}

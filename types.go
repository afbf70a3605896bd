package match

import "math"

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

func (s Side) valid() bool {
	return s == Buy || s == Sell
}

// opposite returns the side an order of side s matches against.
func (s Side) opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

type OrderType string

const (
	// GoodTillCancel is a plain limit order. It rests until filled or cancelled.
	GoodTillCancel OrderType = "gtc"
	// FillAndKill executes against resting liquidity and cancels any remainder.
	FillAndKill OrderType = "fak"
	// FillOrKill executes its entire quantity immediately or is rejected.
	FillOrKill OrderType = "fok"
	// GoodForDay rests like GoodTillCancel until the daily prune boundary.
	GoodForDay OrderType = "gfd"
	// Market is converted to GoodTillCancel at the worst opposite price on admission.
	Market OrderType = "market"
)

func (t OrderType) valid() bool {
	switch t {
	case GoodTillCancel, FillAndKill, FillOrKill, GoodForDay, Market:
		return true
	}
	return false
}

type (
	OrderID  uint64
	Price    int64
	Quantity uint64
)

// InvalidPrice marks an order without a price. Only Market orders carry it,
// and only until they are converted on admission.
const InvalidPrice Price = math.MinInt64

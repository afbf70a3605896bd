package match

import "github.com/tidwall/btree"

type levelAction int8

const (
	levelActionAdd levelAction = iota + 1
	levelActionRemove
	levelActionMatch
)

// levelData is the running total of one price level on one side.
type levelData struct {
	quantity Quantity
	count    int
}

// levelTable keeps level aggregates per side and price. It is updated on
// every insert, cancel and match and never rebuilt from the queues.
type levelTable struct {
	bids btree.Map[Price, levelData]
	asks btree.Map[Price, levelData]
}

func newLevelTable() *levelTable {
	return &levelTable{}
}

func (t *levelTable) sideMap(side Side) *btree.Map[Price, levelData] {
	if side == Buy {
		return &t.bids
	}
	return &t.asks
}

func (t *levelTable) onOrderAdded(order *Order) {
	t.update(order.side, order.price, order.remainingQuantity, levelActionAdd)
}

func (t *levelTable) onOrderCancelled(order *Order) {
	t.update(order.side, order.price, order.remainingQuantity, levelActionRemove)
}

func (t *levelTable) onOrderMatched(side Side, price Price, quantity Quantity, isFullyFilled bool) {
	action := levelActionMatch
	if isFullyFilled {
		action = levelActionRemove
	}
	t.update(side, price, quantity, action)
}

func (t *levelTable) update(side Side, price Price, quantity Quantity, action levelAction) {
	levels := t.sideMap(side)
	data, _ := levels.Get(price)

	switch action {
	case levelActionAdd:
		data.count++
		data.quantity += quantity
	case levelActionRemove:
		data.count--
		data.quantity -= quantity
	case levelActionMatch:
		data.quantity -= quantity
	}

	if data.count == 0 {
		levels.Delete(price)
		return
	}
	levels.Set(price, data)
}

func (t *levelTable) get(side Side, price Price) (levelData, bool) {
	return t.sideMap(side).Get(price)
}

// canFullyFill walks the opposite side from its best price outward and
// stops at the first level the order cannot reach. A buy ascends the asks
// up to its limit, a sell descends the bids down to its limit.
func (t *levelTable) canFullyFill(side Side, price Price, quantity Quantity) bool {
	var available Quantity
	filled := false

	visit := func(levelPrice Price, data levelData) bool {
		if side == Buy && levelPrice > price || side == Sell && levelPrice < price {
			return false
		}
		available += data.quantity
		if available >= quantity {
			filled = true
			return false
		}
		return true
	}

	if side == Buy {
		t.asks.Scan(visit)
	} else {
		t.bids.Reverse(visit)
	}

	return filled
}

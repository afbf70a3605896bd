package match

import (
	"github.com/0x5487/orderbook/structure"
	"github.com/huandu/skiplist"
)

// priceLevel is the FIFO of resting orders sharing one price on one side.
type priceLevel struct {
	price  Price
	orders structure.List
}

// queue is one side of the book: price levels ordered best first, each
// holding arena handles in arrival order.
type queue struct {
	side      Side
	depthList *skiplist.SkipList
	priceList map[Price]*skiplist.Element
	arena     *structure.Arena[Order]
	orders    int
}

// newBuyerQueue creates the bid side, sorted by descending price.
func newBuyerQueue(arena *structure.Arena[Order]) *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(Price)
			p2, _ := rhs.(Price)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[Price]*skiplist.Element),
		arena:     arena,
	}
}

// newSellerQueue creates the ask side, sorted by ascending price.
func newSellerQueue(arena *structure.Arena[Order]) *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(Price)
			p2, _ := rhs.(Price)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[Price]*skiplist.Element),
		arena:     arena,
	}
}

// insertOrder appends h to the back of its price level, creating the level
// if needed.
func (q *queue) insertOrder(h structure.Handle, price Price) {
	el, ok := q.priceList[price]
	if !ok {
		level := &priceLevel{price: price, orders: structure.NewList()}
		el = q.depthList.Set(price, level)
		q.priceList[price] = el
	}

	level, _ := el.Value.(*priceLevel)
	q.arena.PushBack(&level.orders, h)
	q.orders++
}

// removeOrder unlinks h from its price level and erases the level once it
// is empty. The arena slot itself is left to the caller.
func (q *queue) removeOrder(h structure.Handle, price Price) {
	el, ok := q.priceList[price]
	if !ok {
		return
	}

	level, _ := el.Value.(*priceLevel)
	q.arena.Unlink(&level.orders, h)
	q.orders--

	if level.orders.Empty() {
		q.depthList.RemoveElement(el)
		delete(q.priceList, price)
	}
}

// bestLevel returns the level with the best price, or nil.
func (q *queue) bestLevel() *priceLevel {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}
	level, _ := el.Value.(*priceLevel)
	return level
}

// worstPrice returns the price furthest from the top of the book.
func (q *queue) worstPrice() (Price, bool) {
	el := q.depthList.Back()
	if el == nil {
		return InvalidPrice, false
	}
	level, _ := el.Value.(*priceLevel)
	return level.price, true
}

// peekHeadOrder returns the handle of the oldest order at the best price.
func (q *queue) peekHeadOrder() structure.Handle {
	level := q.bestLevel()
	if level == nil {
		return structure.NullHandle
	}
	return level.orders.Front()
}

func (q *queue) isEmpty() bool {
	return q.depthList.Len() == 0
}

func (q *queue) orderCount() int {
	return q.orders
}

func (q *queue) depthCount() int {
	return q.depthList.Len()
}

// levelInfos sums remaining quantities level by level, best price first.
func (q *queue) levelInfos() LevelInfos {
	infos := make(LevelInfos, 0, q.depthList.Len())

	for el := q.depthList.Front(); el != nil; el = el.Next() {
		level, _ := el.Value.(*priceLevel)

		var total Quantity
		for h := level.orders.Front(); h != structure.NullHandle; h = q.arena.Next(h) {
			total += q.arena.Get(h).remainingQuantity
		}

		infos = append(infos, LevelInfo{Price: level.price, Quantity: total})
	}

	return infos
}

package match

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0x5487/orderbook/structure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
)

// BookStats reports the shape of the book.
type BookStats struct {
	AskDepthCount int `json:"ask_depth_count"`
	AskOrderCount int `json:"ask_order_count"`
	BidDepthCount int `json:"bid_depth_count"`
	BidOrderCount int `json:"bid_order_count"`
}

// OrderBook is a price-time priority limit order book for one instrument.
//
// Every operation runs under a single mutex, so matching, cancellation,
// modification and the end-of-day prune are atomic with respect to each
// other. A background worker started by NewOrderBook cancels GoodForDay
// orders at the daily prune boundary until Shutdown is called.
type OrderBook struct {
	id         string
	instrument string

	mu       sync.Mutex
	orders   *structure.Arena[Order]
	index    map[OrderID]structure.Handle
	bidQueue *queue
	askQueue *queue
	levels   *levelTable

	seqID       uint64 // last published BookLog sequence id
	tradeID     uint64
	publishLog  PublishLog
	pendingLogs []*BookLog

	registerer    prometheus.Registerer
	metrics       *metrics
	orderCapacity int

	pruneHour   int
	pruneMinute int
	location    *time.Location
	now         func() time.Time

	isShutdown       atomic.Bool
	done             chan struct{}
	shutdownComplete chan struct{}
}

// NewOrderBook creates an order book and starts its pruning worker. Call
// Shutdown to stop the worker.
func NewOrderBook(opts ...OrderBookOption) *OrderBook {
	book := &OrderBook{
		id:               xid.New().String(),
		publishLog:       NewDiscardPublishLog(),
		orderCapacity:    defaultOrderCapacity,
		pruneHour:        DefaultPruneHour,
		pruneMinute:      DefaultPruneMinute,
		location:         time.Local,
		now:              time.Now,
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(book)
	}

	book.orders = structure.NewArena[Order](book.orderCapacity)
	book.index = make(map[OrderID]structure.Handle, book.orderCapacity)
	book.bidQueue = newBuyerQueue(book.orders)
	book.askQueue = newSellerQueue(book.orders)
	book.levels = newLevelTable()
	book.metrics = newMetrics(book.registerer, book.instrument)

	go book.runPruner()

	logger.Info("order book started",
		"book_id", book.id,
		"instrument", book.instrument,
		"prune_at", fmt.Sprintf("%02d:%02d", book.pruneHour, book.pruneMinute),
		"location", book.location.String())

	return book
}

// ID returns the identifier generated for this book instance.
func (book *OrderBook) ID() string {
	return book.id
}

// AddOrder admits order and matches it against the book.
// Admission rejections (duplicate id, unmatchable FillAndKill, infeasible
// FillOrKill, Market order against an empty side) return no trades and a
// nil error. ErrInvalidParam reports a malformed order and ErrShutdown a
// stopped book. The book keeps its own copy, so order is never mutated.
func (book *OrderBook) AddOrder(order *Order) (Trades, error) {
	if book.isShutdown.Load() {
		return nil, ErrShutdown
	}

	if err := validateOrder(order); err != nil {
		book.metrics.orders.WithLabelValues(orderResultInvalid).Inc()
		logger.Warn("invalid order", "book_id", book.id, "instrument", book.instrument, "error", err)
		return nil, err
	}

	book.mu.Lock()
	defer book.mu.Unlock()
	defer book.commit()

	return book.addOrder(*order), nil
}

// CancelOrder removes the order with id from the book. Unknown ids are
// ignored. Cancels are still accepted after Shutdown.
func (book *OrderBook) CancelOrder(id OrderID) {
	book.mu.Lock()
	defer book.mu.Unlock()
	defer book.commit()

	book.cancelOrder(id, cancelCauseUser)
}

// CancelOrders cancels every id in ids while holding the lock once.
func (book *OrderBook) CancelOrders(ids []OrderID) {
	book.mu.Lock()
	defer book.mu.Unlock()
	defer book.commit()

	book.cancelOrders(ids, cancelCauseUser)
}

// ModifyOrder replaces a resting order with the one described by m,
// keeping the original order type. The replacement loses its time
// priority. Unknown ids are ignored.
func (book *OrderBook) ModifyOrder(m OrderModify) (Trades, error) {
	if book.isShutdown.Load() {
		return nil, ErrShutdown
	}

	if err := validateModify(m); err != nil {
		logger.Warn("invalid order modify", "book_id", book.id, "instrument", book.instrument, "error", err)
		return nil, err
	}

	book.mu.Lock()
	defer book.mu.Unlock()
	defer book.commit()

	h, ok := book.index[m.ID]
	if !ok {
		return nil, nil
	}

	old := *book.orders.Get(h)
	book.removeOrder(h, &old)
	book.levels.onOrderCancelled(&old)
	book.appendLog(newAmendLog(book.nextHeader(), &old, m))
	book.metrics.cancels.WithLabelValues(cancelCauseModify).Inc()

	return book.addOrder(*m.ToOrder(old.orderType)), nil
}

// Size returns the number of resting orders.
func (book *OrderBook) Size() int {
	book.mu.Lock()
	defer book.mu.Unlock()

	return len(book.index)
}

// GetOrderInfos returns a depth snapshot with the remaining quantity of
// every level, summed from the resting orders.
func (book *OrderBook) GetOrderInfos() OrderBookLevelInfos {
	book.mu.Lock()
	defer book.mu.Unlock()

	return OrderBookLevelInfos{
		UpdateID: book.seqID,
		Bids:     book.bidQueue.levelInfos(),
		Asks:     book.askQueue.levelInfos(),
	}
}

// Stats returns level and order counts per side.
func (book *OrderBook) Stats() BookStats {
	book.mu.Lock()
	defer book.mu.Unlock()

	return BookStats{
		AskDepthCount: book.askQueue.depthCount(),
		AskOrderCount: book.askQueue.orderCount(),
		BidDepthCount: book.bidQueue.depthCount(),
		BidOrderCount: book.bidQueue.orderCount(),
	}
}

// Shutdown stops accepting new orders and waits for the pruning worker to
// exit. It returns ctx.Err() if the context ends first.
func (book *OrderBook) Shutdown(ctx context.Context) error {
	if book.isShutdown.CompareAndSwap(false, true) {
		close(book.done)
	}

	select {
	case <-book.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validateOrder(order *Order) error {
	switch {
	case order == nil:
		return fmt.Errorf("%w: order is nil", ErrInvalidParam)
	case !order.side.valid():
		return fmt.Errorf("%w: order %d has unknown side %d", ErrInvalidParam, order.id, order.side)
	case !order.orderType.valid():
		return fmt.Errorf("%w: order %d has unknown type %q", ErrInvalidParam, order.id, order.orderType)
	case order.initialQuantity == 0:
		return fmt.Errorf("%w: order %d has zero quantity", ErrInvalidParam, order.id)
	case order.remainingQuantity != order.initialQuantity:
		return fmt.Errorf("%w: order %d is already partially filled", ErrInvalidParam, order.id)
	case order.orderType != Market && order.price == InvalidPrice:
		return fmt.Errorf("%w: order %d of type %s has no price", ErrInvalidParam, order.id, order.orderType)
	}
	return nil
}

func validateModify(m OrderModify) error {
	switch {
	case !m.Side.valid():
		return fmt.Errorf("%w: modify of order %d has unknown side %d", ErrInvalidParam, m.ID, m.Side)
	case m.Quantity == 0:
		return fmt.Errorf("%w: modify of order %d has zero quantity", ErrInvalidParam, m.ID)
	case m.Price == InvalidPrice:
		return fmt.Errorf("%w: modify of order %d has no price", ErrInvalidParam, m.ID)
	}
	return nil
}

func (book *OrderBook) queueFor(side Side) *queue {
	if side == Buy {
		return book.bidQueue
	}
	return book.askQueue
}

// addOrder runs admission, inserts the order and matches. Caller holds mu.
func (book *OrderBook) addOrder(order Order) Trades {
	if _, exists := book.index[order.id]; exists {
		book.reject(&order, RejectReasonDuplicateID)
		return nil
	}

	switch order.orderType {
	case Market:
		worst, ok := book.queueFor(order.side.opposite()).worstPrice()
		if !ok {
			book.reject(&order, RejectReasonNoLiquidity)
			return nil
		}
		if err := order.ToGoodTillCancel(worst); err != nil {
			panic(err)
		}
	case FillAndKill:
		if !book.canMatch(order.side, order.price) {
			book.reject(&order, book.noMatchReason(order.side))
			return nil
		}
	case FillOrKill:
		if !book.canMatch(order.side, order.price) {
			book.reject(&order, book.noMatchReason(order.side))
			return nil
		}
		if !book.levels.canFullyFill(order.side, order.price, order.remainingQuantity) {
			book.reject(&order, RejectReasonInsufficientSize)
			return nil
		}
	}

	h := book.orders.Alloc(order)
	book.queueFor(order.side).insertOrder(h, order.price)
	book.index[order.id] = h
	book.levels.onOrderAdded(&order)
	book.appendLog(newOpenLog(book.nextHeader(), &order))
	book.metrics.orders.WithLabelValues(orderResultAccepted).Inc()

	return book.matchOrders()
}

// canMatch reports whether an order at price crosses the best opposite price.
func (book *OrderBook) canMatch(side Side, price Price) bool {
	if side == Buy {
		level := book.askQueue.bestLevel()
		return level != nil && price >= level.price
	}

	level := book.bidQueue.bestLevel()
	return level != nil && price <= level.price
}

func (book *OrderBook) noMatchReason(side Side) RejectReason {
	if book.queueFor(side.opposite()).isEmpty() {
		return RejectReasonNoLiquidity
	}
	return RejectReasonPriceMismatch
}

// matchOrders pairs the best bid with the best ask while prices cross.
// Each trade leg executes at its own order's price. Caller holds mu.
func (book *OrderBook) matchOrders() Trades {
	var trades Trades

	for {
		bidLevel := book.bidQueue.bestLevel()
		askLevel := book.askQueue.bestLevel()
		if bidLevel == nil || askLevel == nil || bidLevel.price < askLevel.price {
			break
		}

		for !bidLevel.orders.Empty() && !askLevel.orders.Empty() {
			bidHandle := bidLevel.orders.Front()
			askHandle := askLevel.orders.Front()
			bid := book.orders.Get(bidHandle)
			ask := book.orders.Get(askHandle)

			quantity := min(bid.remainingQuantity, ask.remainingQuantity)
			if err := bid.Fill(quantity); err != nil {
				panic(err)
			}
			if err := ask.Fill(quantity); err != nil {
				panic(err)
			}

			trade := Trade{
				Bid: TradeInfo{OrderID: bid.id, Price: bid.price, Quantity: quantity},
				Ask: TradeInfo{OrderID: ask.id, Price: ask.price, Quantity: quantity},
			}
			trades = append(trades, trade)

			book.tradeID++
			book.appendLog(newMatchLog(book.nextHeader(), book.tradeID, trade, bid.orderType))
			book.metrics.trades.Inc()
			book.metrics.tradedQuantity.Add(float64(quantity))

			bidFilled := bid.IsFilled()
			askFilled := ask.IsFilled()
			book.levels.onOrderMatched(Buy, trade.Bid.Price, quantity, bidFilled)
			book.levels.onOrderMatched(Sell, trade.Ask.Price, quantity, askFilled)

			// Removing an emptied level drops it from the skiplist, so the
			// outer loop picks up the next best price.
			if bidFilled {
				book.removeOrder(bidHandle, bid)
			}
			if askFilled {
				book.removeOrder(askHandle, ask)
			}
		}
	}

	book.cancelFillAndKillHead(book.bidQueue)
	book.cancelFillAndKillHead(book.askQueue)

	return trades
}

// cancelFillAndKillHead cancels a FillAndKill remainder left at the top of q.
func (book *OrderBook) cancelFillAndKillHead(q *queue) {
	h := q.peekHeadOrder()
	if h == structure.NullHandle {
		return
	}

	if order := book.orders.Get(h); order.orderType == FillAndKill {
		book.cancelOrder(order.id, cancelCauseFillAndKill)
	}
}

// removeOrder drops the order at h from its queue, the index and the arena.
// order must point at the slot and is invalid afterwards.
func (book *OrderBook) removeOrder(h structure.Handle, order *Order) {
	id, side, price := order.id, order.side, order.price
	book.queueFor(side).removeOrder(h, price)
	delete(book.index, id)
	book.orders.Free(h)
}

func (book *OrderBook) cancelOrder(id OrderID, cause string) bool {
	h, ok := book.index[id]
	if !ok {
		return false
	}

	order := *book.orders.Get(h)
	book.removeOrder(h, &order)
	book.levels.onOrderCancelled(&order)
	book.appendLog(newCancelLog(book.nextHeader(), &order))
	book.metrics.cancels.WithLabelValues(cause).Inc()

	return true
}

func (book *OrderBook) cancelOrders(ids []OrderID, cause string) int {
	cancelled := 0
	for _, id := range ids {
		if book.cancelOrder(id, cause) {
			cancelled++
		}
	}
	return cancelled
}

func (book *OrderBook) reject(order *Order, reason RejectReason) {
	book.appendLog(newRejectLog(book.nextHeader(), order, reason))
	book.metrics.orders.WithLabelValues(orderResultRejected).Inc()
	book.metrics.rejections.WithLabelValues(string(reason)).Inc()

	logger.Debug("order rejected",
		"book_id", book.id,
		"instrument", book.instrument,
		"order_id", order.id,
		"order_type", order.orderType,
		"reason", reason)
}

func (book *OrderBook) nextHeader() logHeader {
	book.seqID++
	return logHeader{
		seqID:      book.seqID,
		bookID:     book.id,
		instrument: book.instrument,
		createdAt:  book.now().UTC(),
	}
}

func (book *OrderBook) appendLog(log *BookLog) {
	book.pendingLogs = append(book.pendingLogs, log)
}

// commit publishes the logs of the current operation and refreshes the
// resting order gauge. Caller holds mu, so logs leave in sequence order.
func (book *OrderBook) commit() {
	book.metrics.restingOrders.Set(float64(len(book.index)))

	if len(book.pendingLogs) == 0 {
		return
	}

	book.publishLog.Publish(book.pendingLogs...)
	for i, log := range book.pendingLogs {
		releaseBookLog(log)
		book.pendingLogs[i] = nil
	}
	book.pendingLogs = book.pendingLogs[:0]
}

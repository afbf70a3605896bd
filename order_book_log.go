package match

import (
	"sync"
	"time"
)

type LogType string

const (
	LogTypeOpen   LogType = "open"
	LogTypeMatch  LogType = "match"
	LogTypeCancel LogType = "cancel"
	LogTypeAmend  LogType = "amend"
	LogTypeReject LogType = "reject"
)

type RejectReason string

const (
	RejectReasonNone             RejectReason = ""
	RejectReasonDuplicateID      RejectReason = "duplicate_order_id"
	RejectReasonNoLiquidity      RejectReason = "no_liquidity"
	RejectReasonPriceMismatch    RejectReason = "price_mismatch"
	RejectReasonInsufficientSize RejectReason = "insufficient_size"
)

// BookLog represents an event in the order book.
// SequenceID increases by one for every event of a book, so downstream
// consumers can order, deduplicate and detect gaps.
// Open, Match, Cancel and Amend change book state; Reject does not.
//
// A match log is always written from the bid's point of view: OrderID and
// Price belong to the bid leg, CounterOrderID and CounterPrice to the ask leg.
type BookLog struct {
	SequenceID     uint64       `json:"seq_id"`
	TradeID        uint64       `json:"trade_id,omitempty"`
	Type           LogType      `json:"type"`
	BookID         string       `json:"book_id"`
	Instrument     string       `json:"instrument,omitempty"`
	Side           Side         `json:"side"`
	Price          Price        `json:"price"`
	Size           Quantity     `json:"size"`
	OldPrice       Price        `json:"old_price,omitempty"`
	OldSize        Quantity     `json:"old_size,omitempty"`
	OrderID        OrderID      `json:"order_id"`
	OrderType      OrderType    `json:"order_type,omitempty"`
	CounterOrderID OrderID      `json:"counter_order_id,omitempty"`
	CounterPrice   Price        `json:"counter_price,omitempty"`
	RejectReason   RejectReason `json:"reject_reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

var bookLogPool = sync.Pool{
	New: func() any {
		return new(BookLog)
	},
}

func acquireBookLog() *BookLog {
	return bookLogPool.Get().(*BookLog)
}

func releaseBookLog(log *BookLog) {
	*log = BookLog{}
	bookLogPool.Put(log)
}

// logHeader identifies the book a log belongs to.
type logHeader struct {
	seqID      uint64
	bookID     string
	instrument string
	createdAt  time.Time
}

func (h logHeader) fill(log *BookLog, logType LogType) {
	log.SequenceID = h.seqID
	log.Type = logType
	log.BookID = h.bookID
	log.Instrument = h.instrument
	log.CreatedAt = h.createdAt
}

func newOpenLog(h logHeader, order *Order) *BookLog {
	log := acquireBookLog()
	h.fill(log, LogTypeOpen)
	log.Side = order.side
	log.Price = order.price
	log.Size = order.remainingQuantity
	log.OrderID = order.id
	log.OrderType = order.orderType
	return log
}

func newMatchLog(h logHeader, tradeID uint64, trade Trade, orderType OrderType) *BookLog {
	log := acquireBookLog()
	h.fill(log, LogTypeMatch)
	log.TradeID = tradeID
	log.Side = Buy
	log.Price = trade.Bid.Price
	log.Size = trade.Bid.Quantity
	log.OrderID = trade.Bid.OrderID
	log.OrderType = orderType
	log.CounterOrderID = trade.Ask.OrderID
	log.CounterPrice = trade.Ask.Price
	return log
}

func newCancelLog(h logHeader, order *Order) *BookLog {
	log := acquireBookLog()
	h.fill(log, LogTypeCancel)
	log.Side = order.side
	log.Price = order.price
	log.Size = order.remainingQuantity
	log.OrderID = order.id
	log.OrderType = order.orderType
	return log
}

// newAmendLog records the removal of old in favour of the request m. The
// replacement enters the book through its own open log.
func newAmendLog(h logHeader, old *Order, m OrderModify) *BookLog {
	log := acquireBookLog()
	h.fill(log, LogTypeAmend)
	log.Side = old.side
	log.Price = m.Price
	log.Size = m.Quantity
	log.OldPrice = old.price
	log.OldSize = old.remainingQuantity
	log.OrderID = old.id
	log.OrderType = old.orderType
	return log
}

func newRejectLog(h logHeader, order *Order, reason RejectReason) *BookLog {
	log := acquireBookLog()
	h.fill(log, LogTypeReject)
	log.Side = order.side
	log.Price = order.price
	log.Size = order.remainingQuantity
	log.OrderID = order.id
	log.OrderType = order.orderType
	log.RejectReason = reason
	return log
}

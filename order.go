package match

import "fmt"

// Order is a resting or incoming order. Remaining quantity only ever
// decreases, through Fill.
type Order struct {
	orderType         OrderType
	id                OrderID
	side              Side
	price             Price
	initialQuantity   Quantity
	remainingQuantity Quantity
}

func NewOrder(orderType OrderType, id OrderID, side Side, price Price, quantity Quantity) *Order {
	return &Order{
		orderType:         orderType,
		id:                id,
		side:              side,
		price:             price,
		initialQuantity:   quantity,
		remainingQuantity: quantity,
	}
}

// NewMarketOrder creates a Market order. It has no price until the book
// converts it on admission.
func NewMarketOrder(id OrderID, side Side, quantity Quantity) *Order {
	return NewOrder(Market, id, side, InvalidPrice, quantity)
}

func (o *Order) ID() OrderID                 { return o.id }
func (o *Order) Type() OrderType             { return o.orderType }
func (o *Order) Side() Side                  { return o.side }
func (o *Order) Price() Price                { return o.price }
func (o *Order) InitialQuantity() Quantity   { return o.initialQuantity }
func (o *Order) RemainingQuantity() Quantity { return o.remainingQuantity }

func (o *Order) FilledQuantity() Quantity {
	return o.initialQuantity - o.remainingQuantity
}

func (o *Order) IsFilled() bool {
	return o.remainingQuantity == 0
}

// Fill decreases the remaining quantity. Filling more than what remains is
// rejected and leaves the order untouched.
func (o *Order) Fill(quantity Quantity) error {
	if quantity > o.remainingQuantity {
		return fmt.Errorf("%w: order %d cannot be filled for %d, only %d remaining",
			ErrInvalidOperation, o.id, quantity, o.remainingQuantity)
	}
	o.remainingQuantity -= quantity
	return nil
}

// ToGoodTillCancel prices a Market order and turns it into a GoodTillCancel
// order. Any other order type is rejected.
func (o *Order) ToGoodTillCancel(price Price) error {
	if o.orderType != Market {
		return fmt.Errorf("%w: order %d of type %s cannot have its price adjusted",
			ErrInvalidOperation, o.id, o.orderType)
	}
	o.price = price
	o.orderType = GoodTillCancel
	return nil
}

// OrderModify describes the replacement of a resting order.
type OrderModify struct {
	ID       OrderID  `json:"id"`
	Side     Side     `json:"side"`
	Price    Price    `json:"price"`
	Quantity Quantity `json:"quantity"`
}

// ToOrder builds the replacement order. The type comes from the caller so
// a modification never changes it.
func (m OrderModify) ToOrder(orderType OrderType) *Order {
	return NewOrder(orderType, m.ID, m.Side, m.Price, m.Quantity)
}

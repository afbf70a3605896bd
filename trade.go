package match

// TradeInfo is one leg of a trade, executed at the order's own resting price.
type TradeInfo struct {
	OrderID  OrderID  `json:"order_id"`
	Price    Price    `json:"price"`
	Quantity Quantity `json:"quantity"`
}

type Trade struct {
	Bid TradeInfo `json:"bid"`
	Ask TradeInfo `json:"ask"`
}

type Trades []Trade

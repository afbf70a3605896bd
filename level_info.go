package match

type LevelInfo struct {
	Price    Price    `json:"price"`
	Quantity Quantity `json:"quantity"`
}

type LevelInfos []LevelInfo

// OrderBookLevelInfos is a point-in-time depth snapshot. Bids are ordered
// by descending price, asks by ascending price. UpdateID is the sequence id
// of the last book log published before the snapshot was taken.
type OrderBookLevelInfos struct {
	UpdateID uint64     `json:"update_id"`
	Bids     LevelInfos `json:"bids"`
	Asks     LevelInfos `json:"asks"`
}

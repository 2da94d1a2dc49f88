package domain

// Side is the direction of an order.
type Side string

const (
	SideBid    Side = "BID"
	SideAsk    Side = "ASK"
	SideGovAsk Side = "GOV_ASK"
)

// Order is a limit order backed by locked assets.
// All monetary values are strictly int64.
type Order struct {
	PlayerID string `json:"player_id"`
	Side     Side   `json:"side"`
	ItemID   string `json:"item_id"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Seq      uint64 `json:"seq"` // assigned on acceptance
}

// IsBuy reports whether the order locks cash rather than inventory.
func (o *Order) IsBuy() bool {
	return o.Side == SideBid
}

// LockedValue returns the cash a bid locks on acceptance.
func (o *Order) LockedValue() int64 {
	if !o.IsBuy() {
		return 0
	}
	return o.Price * o.Quantity
}

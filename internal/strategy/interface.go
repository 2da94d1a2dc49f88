package strategy

// ActionType defines the type of trading action
type ActionType int

const (
	ActionBuy  ActionType = iota + 1
	ActionSell // Sell
)

// String returns the string representation of ActionType
func (a ActionType) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Action represents a decision made by the strategy
type Action struct {
	Type   ActionType
	ItemID string
	Price  int64
	Qty    int64
}

// MarketView is what a bot sees of one item at the start of trading.
type MarketView struct {
	Turn      int
	ItemID    string
	Price     int64 // reference price
	BasePrice int64 // catalog price
	Held      int64
	Cash      int64
}

// Strategy is the interface that all bot strategies must implement.
// It is called synchronously by the simulation driver, once per item per turn.
type Strategy interface {
	Name() string
	// OnMarketUpdate returns the orders the bot wants to place.
	OnMarketUpdate(view MarketView) []Action
}

// bid and ask return limit prices a step through the reference price,
// which keeps them inside the trading band.
func bid(ref int64) int64 { return ref + ref/20 }
func ask(ref int64) int64 { return max(ref-ref/20, 1) }

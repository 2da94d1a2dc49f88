package strategy

import (
	"github.com/shopspring/decimal"
)

// ValueStrategy buys items trading below their catalog price and sells
// holdings once the market pays a premium over it.
type ValueStrategy struct {
	margin decimal.Decimal
	qty    int64
}

// NewValueStrategy creates a strategy that acts when the price is more than
// margin (e.g. 0.1 for 10%) away from the base price.
func NewValueStrategy(margin decimal.Decimal, qty int64) *ValueStrategy {
	return &ValueStrategy{margin: margin, qty: qty}
}

// Name implements Strategy.
func (s *ValueStrategy) Name() string {
	return "value"
}

// OnMarketUpdate implements Strategy.
func (s *ValueStrategy) OnMarketUpdate(view MarketView) []Action {
	if view.BasePrice <= 0 || view.Price <= 0 {
		return nil
	}
	base := decimal.NewFromInt(view.BasePrice)
	cheap := base.Mul(decimal.NewFromInt(1).Sub(s.margin)).IntPart()
	rich := base.Mul(decimal.NewFromInt(1).Add(s.margin)).IntPart()

	switch {
	case view.Price <= cheap && view.Cash >= view.Price:
		return []Action{{Type: ActionBuy, ItemID: view.ItemID, Price: bid(view.Price), Qty: s.qty}}
	case view.Price >= rich && view.Held > 0:
		return []Action{{Type: ActionSell, ItemID: view.ItemID, Price: ask(view.Price), Qty: min(s.qty, view.Held)}}
	}
	return nil
}

package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Phase is a step of the turn cycle.
type Phase int

const (
	PhaseNews Phase = iota + 1
	PhaseAction
	PhaseTrading
	PhaseSettlement
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseNews:
		return "NEWS"
	case PhaseAction:
		return "ACTION"
	case PhaseTrading:
		return "TRADING"
	case PhaseSettlement:
		return "SETTLEMENT"
	case PhaseEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Next returns the following phase. Settlement wraps to News; Ended is terminal.
func (p Phase) Next() Phase {
	switch p {
	case PhaseNews:
		return PhaseAction
	case PhaseAction:
		return PhaseTrading
	case PhaseTrading:
		return PhaseSettlement
	case PhaseSettlement:
		return PhaseNews
	default:
		return PhaseEnded
	}
}

// Stage is the game era derived from the turn number.
type Stage string

const (
	StageAll   Stage = "All"
	StageEarly Stage = "Early"
	StageMid   Stage = "Mid"
	StageLate  Stage = "Late"
)

// StageForTurn maps a turn number to its stage.
func StageForTurn(turn int) Stage {
	switch {
	case turn < 4:
		return StageEarly
	case turn < 7:
		return StageMid
	default:
		return StageLate
	}
}

// Matches reports whether an event restricted to req may fire in stage s.
func (s Stage) Matches(req Stage) bool {
	return req == "" || req == StageAll || req == s
}

// MarketState holds the reference price of every item.
type MarketState struct {
	Prices map[string]int64 `json:"prices"`
}

// NewMarketState seeds reference prices from catalog base prices.
func NewMarketState(c *Catalog) *MarketState {
	m := &MarketState{Prices: make(map[string]int64, len(c.Items))}
	for id, item := range c.Items {
		m.Prices[id] = item.BasePrice
	}
	return m
}

// Price returns the reference price of an item (0 if unknown).
func (m *MarketState) Price(item string) int64 {
	return m.Prices[item]
}

// MinPrice is the floor of every reference price; a zero price has an
// empty band.
const MinPrice int64 = 1

// SetPrice overwrites the reference price of an item, floored at MinPrice.
func (m *MarketState) SetPrice(item string, price int64) {
	m.Prices[item] = max(price, MinPrice)
}

// Shock multiplies the reference price by mult, truncating toward zero and
// flooring at MinPrice. Returns the old and new price.
func (m *MarketState) Shock(item string, mult decimal.Decimal) (int64, int64) {
	old := m.Prices[item]
	next := max(decimal.NewFromInt(old).Mul(mult).IntPart(), MinPrice)
	m.Prices[item] = next
	return old, next
}

// Snapshot returns a copy of the price table.
func (m *MarketState) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(m.Prices))
	for k, v := range m.Prices {
		out[k] = v
	}
	return out
}

// ItemIDs returns the priced item ids in sorted order.
func (m *MarketState) ItemIDs() []string {
	ids := make([]string, 0, len(m.Prices))
	for id := range m.Prices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package strategy

import (
	"business_war/pkg/safe"
)

// SMACrossStrategy trades one item on short/long moving average crossings.
// It is stateful and deterministic.
// Uses a ring buffer so the per-turn update does not allocate.
type SMACrossStrategy struct {
	itemID      string
	shortPeriod int
	longPeriod  int
	qty         int64

	// State (Ring Buffer)
	prices []int64
	head   int   // Current write position
	count  int   // Number of elements filled
	sum    int64 // Running sum over the long period

	prevShortSMA int64
	prevLongSMA  int64
}

// NewSMACrossStrategy creates a new instance.
func NewSMACrossStrategy(itemID string, shortPeriod, longPeriod int, qty int64) *SMACrossStrategy {
	if shortPeriod >= longPeriod {
		panic("SMACrossStrategy: shortPeriod must be less than longPeriod")
	}
	return &SMACrossStrategy{
		itemID:      itemID,
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		qty:         qty,
		prices:      make([]int64, longPeriod),
	}
}

// Name implements Strategy.
func (s *SMACrossStrategy) Name() string {
	return "momentum"
}

// OnMarketUpdate records the reference price and emits a buy on a golden
// cross and a sell on a dead cross.
func (s *SMACrossStrategy) OnMarketUpdate(view MarketView) []Action {
	if view.ItemID != s.itemID {
		return nil
	}

	current := view.Price

	// If full, subtract the oldest value from sum before overwriting
	if s.count == s.longPeriod {
		s.sum = safe.SafeSub(s.sum, s.prices[s.head])
	}
	s.prices[s.head] = current
	s.sum = safe.SafeAdd(s.sum, current)
	s.head = (s.head + 1) % s.longPeriod
	if s.count < s.longPeriod {
		s.count++
	}

	if s.count < s.longPeriod {
		return nil
	}

	currLongSMA := safe.SafeDiv(s.sum, int64(s.longPeriod))
	currShortSMA := s.calculateShortSMA()

	var actions []Action
	if s.prevShortSMA != 0 && s.prevLongSMA != 0 {
		// Golden Cross: Short goes above Long
		if s.prevShortSMA <= s.prevLongSMA && currShortSMA > currLongSMA {
			actions = append(actions, Action{Type: ActionBuy, ItemID: s.itemID, Price: bid(current), Qty: s.qty})
		}
		// Dead Cross: Short goes below Long
		if s.prevShortSMA >= s.prevLongSMA && currShortSMA < currLongSMA && view.Held > 0 {
			actions = append(actions, Action{Type: ActionSell, ItemID: s.itemID, Price: ask(current), Qty: min(s.qty, view.Held)})
		}
	}

	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA
	return actions
}

// calculateShortSMA calculates the SMA for the short period using the ring buffer.
func (s *SMACrossStrategy) calculateShortSMA() int64 {
	var sum int64
	// head points to the next write slot, so head-1 is the latest
	idx := s.head
	for i := 0; i < s.shortPeriod; i++ {
		idx--
		if idx < 0 {
			idx = s.longPeriod - 1
		}
		sum = safe.SafeAdd(sum, s.prices[idx])
	}
	return safe.SafeDiv(sum, int64(s.shortPeriod))
}

package strategy_test

import (
	"testing"

	"business_war/internal/strategy"
)

func TestSMACrossStrategy(t *testing.T) {
	// Setup: Short=3, Long=5
	strat := strategy.NewSMACrossStrategy("steel", 3, 5, 10)

	push := func(price int64) []strategy.Action {
		return strat.OnMarketUpdate(strategy.MarketView{ItemID: "steel", Price: price, Held: 4})
	}

	// T1-T5: All 100, not enough history for a previous SMA
	for i := 0; i < 5; i++ {
		if actions := push(100); len(actions) > 0 {
			t.Errorf("T%d: Expected no actions, got %v", i+1, actions)
		}
	}

	// T6: Short(3) = 133 > Long(5) = 120 => golden cross
	actions := push(200)
	if len(actions) != 1 {
		t.Fatalf("T6: Expected 1 action (BUY), got %d", len(actions))
	}
	if actions[0].Type != strategy.ActionBuy {
		t.Errorf("T6: Expected BUY, got %s", actions[0].Type)
	}
	if actions[0].Price != 210 || actions[0].Qty != 10 {
		t.Errorf("T6: Expected 10 @ 210, got %d @ %d", actions[0].Qty, actions[0].Price)
	}

	// T7: Short(3) = 116, Long(5) = 110, still above
	if actions = push(50); len(actions) != 0 {
		t.Errorf("T7: Expected no actions, got %v", actions)
	}

	// T8: Short(3) = 83 < Long(5) = 90 => dead cross, capped by holdings
	actions = push(0)
	if len(actions) != 1 {
		t.Fatalf("T8: Expected 1 action (SELL), got %d", len(actions))
	}
	if actions[0].Type != strategy.ActionSell {
		t.Errorf("T8: Expected SELL, got %s", actions[0].Type)
	}
	if actions[0].Qty != 4 {
		t.Errorf("T8: Expected qty 4, got %d", actions[0].Qty)
	}
}

func TestSMACrossStrategy_IgnoresOtherItems(t *testing.T) {
	strat := strategy.NewSMACrossStrategy("steel", 2, 3, 1)
	for i := 0; i < 10; i++ {
		if actions := strat.OnMarketUpdate(strategy.MarketView{ItemID: "sand", Price: int64(100 * (i%2 + 1))}); actions != nil {
			t.Fatalf("expected no actions for another item, got %v", actions)
		}
	}
}

func TestNewSMACrossStrategy_InvalidPeriods(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for short >= long")
		}
	}()
	strategy.NewSMACrossStrategy("steel", 5, 5, 1)
}

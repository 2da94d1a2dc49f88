package strategy_test

import (
	"testing"

	"business_war/internal/strategy"
)

// BenchmarkSMACrossStrategy_OnMarketUpdate measures the steady-state update.
func BenchmarkSMACrossStrategy_OnMarketUpdate(b *testing.B) {
	strat := strategy.NewSMACrossStrategy("steel", 5, 20, 10)

	// Pre-fill buffer to reach steady state
	for i := 0; i < 20; i++ {
		strat.OnMarketUpdate(strategy.MarketView{ItemID: "steel", Price: 1000 + int64(i*10)})
	}

	view := strategy.MarketView{ItemID: "steel", Price: 1100, Held: 50}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		view.Price = 1000 + int64(i%100)*10
		strat.OnMarketUpdate(view)
	}
}

// BenchmarkSMACrossStrategy_ColdStart measures initialization overhead.
func BenchmarkSMACrossStrategy_ColdStart(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		strat := strategy.NewSMACrossStrategy("steel", 5, 20, 10)
		strat.OnMarketUpdate(strategy.MarketView{ItemID: "steel", Price: 1000})
	}
}

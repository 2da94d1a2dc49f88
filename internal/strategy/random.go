package strategy

// Rand is the randomness the random strategy needs.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// RandomStrategy places noise orders around the reference price.
type RandomStrategy struct {
	rng    Rand
	maxQty int64
}

// NewRandomStrategy creates a noise trader placing up to maxQty units.
func NewRandomStrategy(rng Rand, maxQty int64) *RandomStrategy {
	return &RandomStrategy{rng: rng, maxQty: max(maxQty, 1)}
}

// Name implements Strategy.
func (s *RandomStrategy) Name() string {
	return "random"
}

// OnMarketUpdate implements Strategy. Prices stay within ±10% of the
// reference price.
func (s *RandomStrategy) OnMarketUpdate(view MarketView) []Action {
	if view.Price <= 0 {
		return nil
	}
	spread := view.Price / 10
	price := view.Price
	if spread > 0 {
		price += int64(s.rng.IntN(int(2*spread+1))) - spread
	}
	qty := int64(s.rng.IntN(int(s.maxQty))) + 1

	switch s.rng.IntN(3) {
	case 0:
		return []Action{{Type: ActionBuy, ItemID: view.ItemID, Price: price, Qty: qty}}
	case 1:
		if view.Held > 0 {
			return []Action{{Type: ActionSell, ItemID: view.ItemID, Price: price, Qty: min(qty, view.Held)}}
		}
	}
	return nil
}

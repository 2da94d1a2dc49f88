package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"business_war/internal/domain"
)

// ClearingPrice finds the uniform price that maximises matched volume.
// Ties are broken by distance to prev, then by the lower price.
// A volume of 0 means nothing trades and the price should be ignored.
func ClearingPrice(bids, asks []*domain.Order, prev int64) (price, volume int64) {
	seen := make(map[int64]struct{}, len(bids)+len(asks))
	candidates := make([]int64, 0, len(bids)+len(asks))
	for _, o := range bids {
		if _, ok := seen[o.Price]; !ok {
			seen[o.Price] = struct{}{}
			candidates = append(candidates, o.Price)
		}
	}
	for _, o := range asks {
		if _, ok := seen[o.Price]; !ok {
			seen[o.Price] = struct{}{}
			candidates = append(candidates, o.Price)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	bestDist := int64(-1)
	for _, p := range candidates {
		var demand, supply int64
		for _, b := range bids {
			if b.Price >= p {
				demand += b.Quantity
			}
		}
		for _, a := range asks {
			if a.Price <= p {
				supply += a.Quantity
			}
		}
		v := min(demand, supply)
		dist := abs(p - prev)

		// candidates ascend, so strict comparison keeps the lower price on equal distance
		if v > volume || (v == volume && v > 0 && dist < bestDist) {
			price, volume, bestDist = p, v, dist
		}
	}
	return price, volume
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// ClearGeneralMarket runs the call auction for every item in the general book,
// settles the fills and refunds every unfilled remainder.
func (g *Game) ClearGeneralMarket() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clearGeneralMarket()
}

type itemBook struct {
	bids []*domain.Order
	asks []*domain.Order
}

func (g *Game) clearGeneralMarket() ([]string, error) {
	if err := g.checkBook("clear_general_market", g.book); err != nil {
		return nil, err
	}

	books := make(map[string]*itemBook)
	for _, o := range g.book {
		b, ok := books[o.ItemID]
		if !ok {
			b = &itemBook{}
			books[o.ItemID] = b
		}
		if o.IsBuy() {
			b.bids = append(b.bids, o)
		} else {
			b.asks = append(b.asks, o)
		}
	}
	items := make([]string, 0, len(books))
	for id := range books {
		items = append(items, id)
	}
	sort.Strings(items)

	var lines []string
	g.volumes = make(map[string]int64, len(items))
	for _, item := range items {
		b := books[item]
		remaining := make(map[*domain.Order]int64, len(b.bids)+len(b.asks))
		for _, o := range b.bids {
			remaining[o] = o.Quantity
		}
		for _, o := range b.asks {
			remaining[o] = o.Quantity
		}

		if len(b.bids) > 0 && len(b.asks) > 0 {
			prev := g.market.Price(item)
			price, volume := ClearingPrice(b.bids, b.asks, prev)
			if volume > 0 {
				g.fill(item, price, volume, b, remaining)
				g.market.SetPrice(item, price)
				g.volumes[item] = volume
				g.rec.Traded(item, price, volume)
				lines = append(lines, fmt.Sprintf("%s cleared %d units at %d (was %d)", item, volume, price, prev))
				g.logger.Info("📈 Market cleared",
					slog.String("item", item),
					slog.Int64("price", price),
					slog.Int64("volume", volume))
			} else {
				lines = append(lines, fmt.Sprintf("%s: no crossing orders, price stays %d", item, prev))
			}
		}

		// every order with a remainder is unwound, traded or not
		for _, o := range append(b.bids, b.asks...) {
			refund(g.byID[o.PlayerID].p, o, remaining[o])
		}
	}

	g.book = nil
	return lines, nil
}

// fill matches eligible bids and asks in price/time priority at a uniform price.
func (g *Game) fill(item string, price, volume int64, b *itemBook, remaining map[*domain.Order]int64) {
	var bids, asks []*domain.Order
	for _, o := range b.bids {
		if o.Price >= price {
			bids = append(bids, o)
		}
	}
	for _, o := range b.asks {
		if o.Price <= price {
			asks = append(asks, o)
		}
	}
	sort.SliceStable(bids, func(i, j int) bool {
		if bids[i].Price != bids[j].Price {
			return bids[i].Price > bids[j].Price
		}
		return bids[i].Seq < bids[j].Seq
	})
	sort.SliceStable(asks, func(i, j int) bool {
		if asks[i].Price != asks[j].Price {
			return asks[i].Price < asks[j].Price
		}
		return asks[i].Seq < asks[j].Seq
	})

	i, j := 0, 0
	for volume > 0 && i < len(bids) && j < len(asks) {
		bid, ask := bids[i], asks[j]
		q := min(remaining[bid], remaining[ask], volume)

		buyer := g.byID[bid.PlayerID].p
		seller := g.byID[ask.PlayerID].p

		buyer.SpendLocked(q * price)
		buyer.ReleaseCash(q * (bid.Price - price))
		buyer.AddItem(item, q)

		seller.ConsumeLocked(item, q)
		seller.Credit(q * price)

		remaining[bid] -= q
		remaining[ask] -= q
		volume -= q
		if remaining[bid] == 0 {
			i++
		}
		if remaining[ask] == 0 {
			j++
		}
	}
}

// checkBook verifies every order references a registered player and a known
// item before anything is mutated.
func (g *Game) checkBook(op string, book []*domain.Order) error {
	for _, o := range book {
		if _, ok := g.byID[o.PlayerID]; !ok {
			err := &domain.IntegrityError{Op: op, PlayerID: o.PlayerID, ItemID: o.ItemID}
			g.logger.Error("❌ Integrity violation", slog.String("op", op), slog.String("error", err.Error()))
			return err
		}
		if _, ok := g.catalog.Item(o.ItemID); !ok {
			err := &domain.IntegrityError{Op: op, PlayerID: o.PlayerID, ItemID: o.ItemID}
			g.logger.Error("❌ Integrity violation", slog.String("op", op), slog.String("error", err.Error()))
			return err
		}
	}
	return nil
}

package engine

import (
	"testing"

	"business_war/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func order(side domain.Side, price, qty int64, seq uint64) *domain.Order {
	return &domain.Order{Side: side, ItemID: "steel", Price: price, Quantity: qty, Seq: seq}
}

func workedBook() (bids, asks []*domain.Order) {
	bids = []*domain.Order{
		order(domain.SideBid, 100, 10, 1),
		order(domain.SideBid, 110, 5, 2),
	}
	asks = []*domain.Order{
		order(domain.SideAsk, 95, 8, 1),
		order(domain.SideAsk, 105, 10, 2),
	}
	return bids, asks
}

func TestClearingPrice(t *testing.T) {
	t.Run("closest to previous price wins", func(t *testing.T) {
		bids, asks := workedBook()

		price, volume := ClearingPrice(bids, asks, 100)
		assert.Equal(t, int64(100), price)
		assert.Equal(t, int64(8), volume)

		price, volume = ClearingPrice(bids, asks, 97)
		assert.Equal(t, int64(95), price)
		assert.Equal(t, int64(8), volume)
	})

	t.Run("equal distance picks lower price", func(t *testing.T) {
		bids := []*domain.Order{order(domain.SideBid, 110, 10, 1)}
		asks := []*domain.Order{order(domain.SideAsk, 90, 10, 1)}

		price, volume := ClearingPrice(bids, asks, 100)
		assert.Equal(t, int64(90), price)
		assert.Equal(t, int64(10), volume)
	})

	t.Run("no crossing orders", func(t *testing.T) {
		bids := []*domain.Order{order(domain.SideBid, 90, 10, 1)}
		asks := []*domain.Order{order(domain.SideAsk, 100, 10, 1)}

		_, volume := ClearingPrice(bids, asks, 95)
		assert.Equal(t, int64(0), volume)
	})

	t.Run("empty side", func(t *testing.T) {
		_, volume := ClearingPrice(nil, []*domain.Order{order(domain.SideAsk, 100, 1, 1)}, 100)
		assert.Equal(t, int64(0), volume)
	})
}

func volumeAt(bids, asks []*domain.Order, p int64) int64 {
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
	return min(demand, supply)
}

func TestProperty_ClearingPriceMaximisesVolume(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		draw := func(side domain.Side, label string) []*domain.Order {
			n := rapid.IntRange(1, 6).Draw(t, label+"Count")
			out := make([]*domain.Order, n)
			for i := range out {
				out[i] = order(side,
					rapid.Int64Range(80, 120).Draw(t, label+"Price"),
					rapid.Int64Range(1, 20).Draw(t, label+"Qty"),
					uint64(i+1))
			}
			return out
		}
		bids := draw(domain.SideBid, "bid")
		asks := draw(domain.SideAsk, "ask")
		prev := rapid.Int64Range(80, 120).Draw(t, "prev")

		price, volume := ClearingPrice(bids, asks, prev)

		for _, o := range append(append([]*domain.Order{}, bids...), asks...) {
			v := volumeAt(bids, asks, o.Price)
			if v > volume {
				t.Fatalf("price %d trades %d > chosen volume %d at %d", o.Price, v, volume, price)
			}
			if volume > 0 && v == volume && abs(o.Price-prev) < abs(price-prev) {
				t.Fatalf("price %d is closer to %d than chosen %d at equal volume", o.Price, prev, price)
			}
		}
		if volume > 0 && volumeAt(bids, asks, price) != volume {
			t.Fatalf("reported volume %d does not match volume %d at price %d", volume, volumeAt(bids, asks, price), price)
		}
	})
}

func TestClearGeneralMarket_WorkedScenario(t *testing.T) {
	g := newTestGame(t)
	a := addPlayer(t, g, "alice", 5000, nil)
	b := addPlayer(t, g, "bob", 5000, nil)
	c := addPlayer(t, g, "carol", 0, map[string]int64{"steel": 8})
	d := addPlayer(t, g, "dave", 0, map[string]int64{"steel": 10})
	g.phase = domain.PhaseTrading

	submit(t, g, a, domain.SideBid, "steel", 100, 10)
	submit(t, g, c, domain.SideAsk, "steel", 95, 8)
	submit(t, g, b, domain.SideBid, "steel", 110, 5)
	submit(t, g, d, domain.SideAsk, "steel", 105, 10)

	cashBefore, unitsBefore := totals(t, g)

	lines, err := g.ClearGeneralMarket()
	require.NoError(t, err)
	assert.NotEmpty(t, lines)

	assert.Equal(t, int64(100), g.Prices()["steel"])

	bob := mustPlayer(t, g, b)
	assert.Equal(t, int64(5), bob.Held("steel"))
	assert.Equal(t, int64(4500), bob.Cash, "bid at 110 pays the clearing price")

	alice := mustPlayer(t, g, a)
	assert.Equal(t, int64(3), alice.Held("steel"))
	assert.Equal(t, int64(4700), alice.Cash)

	carol := mustPlayer(t, g, c)
	assert.Equal(t, int64(800), carol.Cash)
	assert.Equal(t, int64(0), carol.Held("steel"))

	dave := mustPlayer(t, g, d)
	assert.Equal(t, int64(0), dave.Cash)
	assert.Equal(t, int64(10), dave.Held("steel"), "unfilled ask is returned")

	cashAfter, unitsAfter := totals(t, g)
	assert.Equal(t, cashBefore, cashAfter)
	assert.Equal(t, unitsBefore, unitsAfter)
	requireNothingLocked(t, g)
}

func TestClearGeneralMarket_UnwindsOneSidedAndUncrossed(t *testing.T) {
	g := newTestGame(t)
	a := addPlayer(t, g, "alice", 5000, nil)
	c := addPlayer(t, g, "carol", 0, map[string]int64{"steel": 5, "sand": 3})
	g.phase = domain.PhaseTrading

	submit(t, g, a, domain.SideBid, "steel", 85, 10)
	submit(t, g, c, domain.SideAsk, "steel", 115, 5)
	submit(t, g, c, domain.SideAsk, "sand", 100, 3)

	_, err := g.ClearGeneralMarket()
	require.NoError(t, err)

	assert.Equal(t, int64(100), g.Prices()["steel"], "no trade keeps the reference price")
	assert.Equal(t, int64(5000), mustPlayer(t, g, a).Cash)
	carol := mustPlayer(t, g, c)
	assert.Equal(t, int64(5), carol.Held("steel"))
	assert.Equal(t, int64(3), carol.Held("sand"))
	requireNothingLocked(t, g)
}

func TestClearGeneralMarket_IntegrityViolation(t *testing.T) {
	g := newTestGame(t)
	a := addPlayer(t, g, "alice", 5000, nil)
	g.phase = domain.PhaseTrading
	submit(t, g, a, domain.SideBid, "steel", 100, 1)

	g.book = append(g.book, &domain.Order{PlayerID: "ghost", Side: domain.SideAsk, ItemID: "steel", Price: 100, Quantity: 1})

	_, err := g.ClearGeneralMarket()
	var ie *domain.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "ghost", ie.PlayerID)

	// nothing was mutated
	alice := mustPlayer(t, g, a)
	assert.Equal(t, int64(100), alice.LockedCash)
}

func TestProperty_ClearingConservesAndNeverOverfills(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := NewGame(testRules(), testCatalog(), WithRand(&scriptedRand{}), WithLogger(discardLogger()))
		g.phase = domain.PhaseTrading

		nBuyers := rapid.IntRange(1, 4).Draw(rt, "buyers")
		nSellers := rapid.IntRange(1, 4).Draw(rt, "sellers")

		bidQty := make(map[string]int64)
		askQty := make(map[string]int64)
		var buyers, sellers []string

		for i := 0; i < nBuyers; i++ {
			id, _ := g.RegisterPlayer("buyer" + string(rune('a'+i)))
			_ = g.WithPlayer(id, func(p *domain.Player) error { p.Cash = 100000; return nil })
			buyers = append(buyers, id)
		}
		for i := 0; i < nSellers; i++ {
			id, _ := g.RegisterPlayer("seller" + string(rune('a'+i)))
			_ = g.WithPlayer(id, func(p *domain.Player) error { p.Cash = 0; p.AddItem("steel", 300); return nil })
			sellers = append(sellers, id)
		}

		nOrders := rapid.IntRange(1, 12).Draw(rt, "orders")
		for i := 0; i < nOrders; i++ {
			price := rapid.Int64Range(80, 120).Draw(rt, "price")
			qty := rapid.Int64Range(1, 20).Draw(rt, "qty")
			if rapid.Bool().Draw(rt, "isBid") {
				id := buyers[rapid.IntRange(0, len(buyers)-1).Draw(rt, "buyer")]
				if _, err := g.SubmitOrder(id, domain.Order{Side: domain.SideBid, ItemID: "steel", Price: price, Quantity: qty}); err != nil {
					rt.Fatalf("bid rejected: %v", err)
				}
				bidQty[id] += qty
			} else {
				id := sellers[rapid.IntRange(0, len(sellers)-1).Draw(rt, "seller")]
				if _, err := g.SubmitOrder(id, domain.Order{Side: domain.SideAsk, ItemID: "steel", Price: price, Quantity: qty}); err != nil {
					rt.Fatalf("ask rejected: %v", err)
				}
				askQty[id] += qty
			}
		}

		cashBefore := int64(len(buyers)) * 100000
		if _, err := g.ClearGeneralMarket(); err != nil {
			rt.Fatalf("clear failed: %v", err)
		}

		var cashAfter, bought, sold int64
		for _, id := range buyers {
			p, _ := g.Player(id)
			if p.IsLocked() {
				rt.Fatalf("buyer %s still locked", p.Name)
			}
			if p.Held("steel") > bidQty[id] {
				rt.Fatalf("buyer %s received %d > bid %d", p.Name, p.Held("steel"), bidQty[id])
			}
			bought += p.Held("steel")
			cashAfter += p.Cash
		}
		for _, id := range sellers {
			p, _ := g.Player(id)
			if p.IsLocked() {
				rt.Fatalf("seller %s still locked", p.Name)
			}
			delivered := 300 - p.Held("steel")
			if delivered > askQty[id] {
				rt.Fatalf("seller %s delivered %d > asked %d", p.Name, delivered, askQty[id])
			}
			sold += delivered
			cashAfter += p.Cash
		}
		if bought != sold {
			rt.Fatalf("bought %d != sold %d", bought, sold)
		}
		if bought != g.volumes["steel"] {
			rt.Fatalf("units moved %d != reported volume %d", bought, g.volumes["steel"])
		}
		if cashAfter != cashBefore {
			rt.Fatalf("cash not conserved: %d -> %d", cashBefore, cashAfter)
		}
	})
}

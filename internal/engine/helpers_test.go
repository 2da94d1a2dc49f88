package engine

import (
	"io"
	"log/slog"
	"testing"

	"business_war/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed draws, falling back to zero when exhausted.
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func testCatalog() *domain.Catalog {
	items := []domain.ItemDef{
		{ID: "sand", Label: "Sand", Tier: 0, BasePrice: 100},
		{ID: "steel", Label: "Steel", Tier: 1, BasePrice: 100},
		{ID: "chip", Label: "Chip", Tier: 2, BasePrice: 500},
		{ID: "beam", Label: "Beam", Tier: 2, BasePrice: 2000},
		{ID: "robot", Label: "Robot", Tier: 3, BasePrice: 10000},
	}
	events := []domain.NewsEvent{
		{ID: "N-00", Title: "Calm", Type: domain.EventNone, PhaseReq: domain.StageAll},
		{ID: "N-01", Title: "Sand Rush", Type: domain.EventPriceMod, PhaseReq: domain.StageEarly,
			Target: "sand", PriceMult: decimal.RequireFromString("1.5")},
		{ID: "N-02", Title: "Steel Glut", Type: domain.EventPriceMod, PhaseReq: domain.StageLate,
			Target: "steel", PriceMult: decimal.RequireFromString("0.75")},
	}
	gov := []domain.GovEvent{
		{ID: "E-01", Title: "Early Works", PhaseReq: domain.StageEarly, Targets: []string{"steel"},
			LimitType: domain.LimitGlobal, Limit: 50},
		{ID: "M-01", Title: "Mid Works", PhaseReq: domain.StageMid, Targets: []string{"beam"},
			LimitType: domain.LimitPlayer, Limit: 5},
		{ID: "L-01", Title: "Late Works", PhaseReq: domain.StageLate, Targets: []string{"chip"},
			LimitType: domain.LimitGlobal, Limit: 10},
		{ID: "L-05", Title: "Mobilization", PhaseReq: domain.StageLate, Targets: []string{"robot", "beam"},
			LimitType: domain.LimitMixed, Limits: map[string]int64{"robot": 10}},
	}
	return domain.NewCatalog(items, events, gov)
}

func testRules() domain.Rules {
	r := domain.DefaultRules()
	r.StarterMiner = ""
	return r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGame(t *testing.T, opts ...Option) *Game {
	t.Helper()
	base := []Option{
		WithLogger(discardLogger()),
		WithRand(&scriptedRand{}),
	}
	return NewGame(testRules(), testCatalog(), append(base, opts...)...)
}

// addPlayer registers a player and overwrites its starting ledger.
func addPlayer(t *testing.T, g *Game, name string, cash int64, inv map[string]int64) string {
	t.Helper()
	id, err := g.RegisterPlayer(name)
	require.NoError(t, err)
	require.NoError(t, g.WithPlayer(id, func(p *domain.Player) error {
		p.Cash = cash
		for item, qty := range inv {
			p.AddItem(item, qty)
		}
		return nil
	}))
	return id
}

func mustPlayer(t *testing.T, g *Game, id string) *domain.Player {
	t.Helper()
	p, err := g.Player(id)
	require.NoError(t, err)
	return p
}

func submit(t *testing.T, g *Game, id string, side domain.Side, item string, price, qty int64) domain.Order {
	t.Helper()
	o, err := g.SubmitOrder(id, domain.Order{Side: side, ItemID: item, Price: price, Quantity: qty})
	require.NoError(t, err)
	return o
}

// totals sums cash (free + locked) and units (free + locked) over all players.
func totals(t *testing.T, g *Game) (int64, map[string]int64) {
	t.Helper()
	var cash int64
	units := make(map[string]int64)
	for _, id := range g.PlayerIDs() {
		p := mustPlayer(t, g, id)
		cash += p.Cash + p.LockedCash
		for item, qty := range p.TotalUnits() {
			units[item] += qty
		}
	}
	return cash, units
}

func requireNothingLocked(t *testing.T, g *Game) {
	t.Helper()
	for _, id := range g.PlayerIDs() {
		p := mustPlayer(t, g, id)
		require.Falsef(t, p.IsLocked(), "player %s still has locked assets: cash=%d items=%v", p.Name, p.LockedCash, p.LockedInventory)
	}
}

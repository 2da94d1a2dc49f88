package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"business_war/internal/domain"

	"github.com/shopspring/decimal"
)

// SettleTurn applies end-of-turn effects in a fixed order: redistribution,
// storage tax, defense check, land maintenance, then capital growth.
func (g *Game) SettleTurn() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settleTurn()
}

// effects collects per-player notes so each player gets at most one line.
type effects map[*domain.Player][]string

func (e effects) add(p *domain.Player, format string, args ...any) {
	e[p] = append(e[p], fmt.Sprintf(format, args...))
}

func (g *Game) settleTurn() ([]string, error) {
	players := g.sortedPlayers()
	notes := make(effects, len(players))
	var lines []string

	if g.news != nil && g.news.Type == domain.EventSpecial && g.news.LogicKey == domain.LogicRobinHoodTax {
		lines = append(lines, g.redistribute(players, notes)...)
	}

	for _, p := range players {
		g.storageTax(p, notes)
	}

	if g.news != nil && g.news.Type == domain.EventDefenseCheck {
		for _, p := range players {
			g.defenseCheck(p, g.news, notes)
		}
	}

	if g.news != nil && g.news.LogicKey == domain.LogicLandTaxBeam {
		for _, p := range players {
			g.landMaintenance(p, g.news.Params, notes)
		}
	}

	growth := one.Add(g.rules.GrowthRate)
	for _, p := range players {
		if p.Cash <= 0 {
			continue
		}
		before := p.Cash
		p.Cash = decimal.NewFromInt(p.Cash).Mul(growth).IntPart()
		if gain := p.Cash - before; gain != 0 {
			notes.add(p, "interest %+d", gain)
		}
	}

	for _, p := range players {
		p.VerifyInvariant()
		if n := notes[p]; len(n) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", p.Name, strings.Join(n, "; ")))
		}
	}
	return lines, nil
}

// redistribute takes a share of the richest players' cash and splits it
// evenly among everyone else. The division remainder is dropped.
func (g *Game) redistribute(players []*domain.Player, notes effects) []string {
	ranked := append([]*domain.Player(nil), players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Cash > ranked[j].Cash
	})

	n := min(g.rules.Redistribution.TopN, len(ranked))
	top, others := ranked[:n], ranked[n:]
	if len(others) == 0 {
		return []string{"redistribution skipped: no one to receive"}
	}

	var pool int64
	for _, p := range top {
		tax := p.DebitFloor(decimal.NewFromInt(p.Cash).Mul(g.rules.Redistribution.Rate).IntPart())
		pool += tax
		if tax > 0 {
			notes.add(p, "wealth tax -%d", tax)
		}
	}
	g.rec.CashRemoved("redistribution", pool)

	share := pool / int64(len(others))
	if share > 0 {
		for _, p := range others {
			p.Credit(share)
			notes.add(p, "relief +%d", share)
		}
	}
	return []string{fmt.Sprintf("redistributed %d among %d players (%d each)", pool, len(others), share)}
}

// storageCapacity is the per-item capacity granted by base storage and facilities.
func (g *Game) storageCapacity(p *domain.Player) int64 {
	capacity := g.rules.Storage.BaseCapacity
	for _, f := range p.Facilities {
		if f.Kind == domain.FacilityMiner {
			continue
		}
		capacity += g.rules.Storage.Allowance(f.Tier)
	}
	return capacity
}

func (g *Game) storageTax(p *domain.Player, notes effects) {
	capacity := g.storageCapacity(p)
	var total int64
	for _, item := range p.ItemIDs() {
		total += g.rules.Storage.Tax(p.Held(item) - capacity)
	}
	if total == 0 {
		return
	}
	paid := p.DebitFloor(total)
	g.rec.CashRemoved("storage_tax", paid)
	notes.add(p, "storage tax -%d (capacity %d)", paid, capacity)
}

func (g *Game) defenseCheck(p *domain.Player, ev *domain.NewsEvent, notes effects) {
	req := ev.ReqQty
	if req <= 0 {
		req = 1
	}
	if ev.ReqItem != "" && p.Held(ev.ReqItem) >= req {
		p.RemoveItem(ev.ReqItem, req)
		notes.add(p, "paid %d %s as tribute", req, ev.ReqItem)
		return
	}
	if p.HasDefense() {
		notes.add(p, "defense held")
		return
	}

	switch ev.Penalty {
	case domain.PenaltyShutdownFacilities:
		for _, f := range p.Facilities {
			f.Shutdown = true
		}
		notes.add(p, "%d facilities shut down", len(p.Facilities))
	case domain.PenaltyHalveCash:
		lost := p.Cash - p.Cash/2
		p.Cash /= 2
		g.rec.CashRemoved("halve_cash", lost)
		notes.add(p, "lost %d cash", lost)
	case domain.PenaltyDestroyFactory:
		if f := g.destroyRandomFacility(p); f != nil {
			notes.add(p, "lost %s", f.Name)
		}
	}
}

func (g *Game) landMaintenance(p *domain.Player, params domain.EventParams, notes effects) {
	excess := p.LandLimit - params.LandThreshold
	if excess <= 0 {
		return
	}
	need := params.QtyPerLand * int64(excess)
	if p.Held(params.Material) >= need {
		p.RemoveItem(params.Material, need)
		notes.add(p, "maintenance used %d %s", need, params.Material)
		return
	}
	if f := g.destroyRandomFacility(p); f != nil {
		notes.add(p, "maintenance missed, lost %s", f.Name)
	}
}

func (g *Game) destroyRandomFacility(p *domain.Player) *domain.Facility {
	if len(p.Facilities) == 0 {
		return nil
	}
	f := p.RemoveFacility(g.rng.IntN(len(p.Facilities)))
	g.logger.Info("💥 Facility destroyed",
		slog.String("player_id", p.ID),
		slog.String("facility", f.Name))
	return f
}

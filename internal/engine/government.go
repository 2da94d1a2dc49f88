package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"business_war/internal/domain"
)

// RunGovernmentAuction fills government asks cheapest-first within the active
// event's quota and returns every unsold unit to its owner.
func (g *Game) RunGovernmentAuction() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runGovernmentAuction()
}

func (g *Game) runGovernmentAuction() ([]string, error) {
	if len(g.govBook) == 0 {
		return nil, nil
	}
	if err := g.checkBook("government_auction", g.govBook); err != nil {
		return nil, err
	}

	var lines []string
	if g.gov == nil {
		for _, o := range g.govBook {
			refund(g.byID[o.PlayerID].p, o, o.Quantity)
		}
		lines = append(lines, fmt.Sprintf("no government acquisition, %d orders returned", len(g.govBook)))
		g.govBook = nil
		return lines, nil
	}

	groups := make(map[string][]*domain.Order)
	for _, o := range g.govBook {
		groups[o.ItemID] = append(groups[o.ItemID], o)
	}
	items := make([]string, 0, len(groups))
	for id := range groups {
		items = append(items, id)
	}
	sort.Strings(items)

	ev := g.gov
	for _, item := range items {
		orders := groups[item]
		sort.SliceStable(orders, func(i, j int) bool {
			if orders[i].Price != orders[j].Price {
				return orders[i].Price < orders[j].Price
			}
			return orders[i].Seq < orders[j].Seq
		})

		if !ev.HasTarget(item) {
			for _, o := range orders {
				refund(g.byID[o.PlayerID].p, o, o.Quantity)
			}
			lines = append(lines, fmt.Sprintf("%s: not wanted by %s, %d orders returned", item, ev.Title, len(orders)))
			continue
		}

		var sold int64
		perPlayer := make(map[string]int64)
		for _, o := range orders {
			p := g.byID[o.PlayerID].p
			fill := min(o.Quantity, globalHeadroom(ev, item, sold), playerHeadroom(ev, perPlayer[o.PlayerID]))
			if fill <= 0 {
				refund(p, o, o.Quantity)
				continue
			}

			p.ConsumeLocked(item, fill)
			p.Credit(fill * o.Price)
			refund(p, o, o.Quantity-fill)

			sold += fill
			perPlayer[o.PlayerID] += fill
			g.rec.GovSold(item, fill)
			lines = append(lines, fmt.Sprintf("government bought %d %s from %s at %d", fill, item, p.Name, o.Price))
		}

		if sold > 0 {
			g.logger.Info("🏛️ Government acquisition",
				slog.String("event", ev.ID),
				slog.String("item", item),
				slog.Int64("units", sold))
		}
	}

	g.govBook = nil
	return lines, nil
}

// globalHeadroom is the remaining shared quota for an item.
func globalHeadroom(ev *domain.GovEvent, item string, sold int64) int64 {
	switch ev.LimitType {
	case domain.LimitGlobal:
		return ev.Limit - sold
	case domain.LimitMixed:
		if limit, ok := ev.Limits[item]; ok {
			return limit - sold
		}
	}
	return math.MaxInt64
}

// playerHeadroom is the remaining per-player quota for an item.
func playerHeadroom(ev *domain.GovEvent, sold int64) int64 {
	if ev.LimitType == domain.LimitPlayer {
		return ev.Limit - sold
	}
	return math.MaxInt64
}

package engine

import (
	"fmt"
	"log/slog"

	"business_war/internal/domain"
)

// TurnEvents is the outcome of drawing a turn's events.
type TurnEvents struct {
	Turn  int               `json:"turn"`
	Stage domain.Stage      `json:"stage"`
	News  *domain.NewsEvent `json:"news,omitempty"`
	Gov   *domain.GovEvent  `json:"gov,omitempty"`
}

// GovProbability is the chance that an even turn of the given stage
// starts a government acquisition.
func GovProbability(s domain.Stage) float64 {
	switch s {
	case domain.StageEarly:
		return 0.5
	case domain.StageMid:
		return 0.7
	default:
		return 0.9
	}
}

// AdvanceTurn unwinds leftover orders, draws the news and government events
// for the turn and applies any immediate price shock.
func (g *Game) AdvanceTurn(turn int) (TurnEvents, []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.advanceTurn(turn)
}

func (g *Game) advanceTurn(turn int) (TurnEvents, []string) {
	var lines []string
	if n := g.unwindBooks(); n > 0 {
		lines = append(lines, fmt.Sprintf("%d leftover orders refunded", n))
	}

	g.turn = turn
	stage := domain.StageForTurn(turn)
	g.news = g.drawNews(stage)
	g.gov = g.drawGov(turn, stage)

	if g.news != nil {
		lines = append(lines, fmt.Sprintf("📰 %s: %s", g.news.Title, g.news.Description))
		if g.news.Type == domain.EventPriceMod {
			if _, ok := g.market.Prices[g.news.Target]; ok {
				old, next := g.market.Shock(g.news.Target, g.news.PriceMult)
				lines = append(lines, fmt.Sprintf("%s price moved %d → %d", g.news.Target, old, next))
			}
		}
	}
	if g.gov != nil {
		lines = append(lines, fmt.Sprintf("🏛️ Government acquisition: %s", g.gov.Title))
	} else if turn%2 != 0 {
		lines = append(lines, "rest round, no government acquisition")
	}

	ev := TurnEvents{Turn: turn, Stage: stage, News: g.news, Gov: g.gov}
	attrs := []any{slog.Int("turn", turn), slog.String("stage", string(stage))}
	if g.news != nil {
		attrs = append(attrs, slog.String("news", g.news.ID))
	}
	if g.gov != nil {
		attrs = append(attrs, slog.String("gov", g.gov.ID))
	}
	g.logger.Info("🗞️ Turn events drawn", attrs...)
	return ev, lines
}

func (g *Game) drawNews(stage domain.Stage) *domain.NewsEvent {
	events := g.catalog.Events
	if len(events) == 0 {
		return nil
	}
	var pool []*domain.NewsEvent
	for i := range events {
		if stage.Matches(events[i].PhaseReq) {
			pool = append(pool, &events[i])
		}
	}
	if len(pool) == 0 {
		g.logger.Warn("No news event for stage, using first catalog entry", slog.String("stage", string(stage)))
		return &events[0]
	}
	return pool[g.rng.IntN(len(pool))]
}

func (g *Game) drawGov(turn int, stage domain.Stage) *domain.GovEvent {
	milestone := g.rules.MilestoneGovID
	if g.rules.MilestoneTurn > 0 && turn == g.rules.MilestoneTurn {
		if ev, ok := g.catalog.GovEvent(milestone); ok {
			return ev
		}
	}
	if turn%2 != 0 {
		return nil
	}
	if g.rng.Float64() >= GovProbability(stage) {
		return nil
	}
	var pool []*domain.GovEvent
	for i := range g.catalog.GovEvents {
		ev := &g.catalog.GovEvents[i]
		if ev.PhaseReq == stage && ev.ID != milestone {
			pool = append(pool, ev)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return pool[g.rng.IntN(len(pool))]
}

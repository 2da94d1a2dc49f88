package engine

import (
	"log/slog"
	"sort"

	"business_war/internal/domain"
	"business_war/pkg/safe"
)

// Score is the breakdown of a player's final worth.
type Score struct {
	InventoryValue int64 `json:"inventory_value"`
	FacilityValue  int64 `json:"facility_value"`
	Cash           int64 `json:"cash"`
	TotalScore     int64 `json:"total_score"`
}

// Ranking is one row of the final standings.
type Ranking struct {
	Name  string `json:"name"`
	Score Score  `json:"score"`
}

// ScorePlayer values a player's inventory at reference prices and facilities
// by the tier tables. Locked units count as held.
func ScorePlayer(p *domain.Player, prices map[string]int64, rules domain.ScoringRules) Score {
	var s Score
	for item, qty := range p.TotalUnits() {
		s.InventoryValue = safe.SafeAdd(s.InventoryValue, safe.SafeMul(qty, prices[item]))
	}
	for _, f := range p.Facilities {
		table := rules.Factory
		if f.Kind == domain.FacilityMiner {
			table = rules.Miner
		}
		s.FacilityValue += table[f.Tier]
	}
	s.Cash = p.Cash + p.LockedCash
	s.TotalScore = s.InventoryValue + s.FacilityValue + s.Cash
	return s
}

// FinalScore ranks every player and ends the game.
func (g *Game) FinalScore() []Ranking {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finalScore()
}

func (g *Game) finalScore() []Ranking {
	g.unwindBooks()

	rankings := make([]Ranking, 0, len(g.players))
	for _, p := range g.sortedPlayers() {
		rankings = append(rankings, Ranking{
			Name:  p.Name,
			Score: ScorePlayer(p, g.market.Prices, g.rules.Scoring),
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Score.TotalScore > rankings[j].Score.TotalScore
	})

	g.rankings = rankings
	g.phase = domain.PhaseEnded

	if len(rankings) > 0 {
		g.logger.Info("🏁 Game ended",
			slog.String("game_id", g.id),
			slog.String("winner", rankings[0].Name),
			slog.Int64("score", rankings[0].Score.TotalScore))
	}
	return append([]Ranking(nil), rankings...)
}

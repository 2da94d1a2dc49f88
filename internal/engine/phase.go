package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"business_war/internal/domain"
)

// PhaseReport is everything the outer layer needs to persist or broadcast
// after a phase change. The engine itself performs no I/O.
type PhaseReport struct {
	GameID   string            `json:"game_id"`
	Turn     int               `json:"turn"`
	Phase    domain.Phase      `json:"phase"`
	Lines    []string          `json:"lines"`
	Prices   map[string]int64  `json:"prices"`
	Volumes  map[string]int64  `json:"volumes,omitempty"`
	News     *domain.NewsEvent `json:"news,omitempty"`
	Gov      *domain.GovEvent  `json:"gov,omitempty"`
	Rankings []Ranking         `json:"rankings,omitempty"`
}

// AdvancePhase moves the game to its next phase.
//
// Trading → Settlement runs the government auction, the general market and
// settlement, in that order. Settlement → News resets facilities, starts the
// next turn and draws its events, or ends the game after the last turn.
func (g *Game) AdvancePhase() (report PhaseReport, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == domain.PhaseEnded {
		return PhaseReport{}, domain.ErrGameOver
	}

	from := g.phase
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r), slog.String("phase", from.String()))
			g.dumpOnFailure()
			panic(fmt.Sprintf("HALTED: %v", r))
		}
		g.rec.ObservePhase(from.String(), time.Since(start).Seconds())
	}()

	var lines []string
	switch from {
	case domain.PhaseNews, domain.PhaseAction:
		g.phase = from.Next()

	case domain.PhaseTrading:
		lines, err = g.settleRound()
		if err != nil {
			var ie *domain.IntegrityError
			if errors.As(err, &ie) {
				g.dumpOnFailure()
			}
			return PhaseReport{}, fmt.Errorf("settle turn %d: %w", g.turn, err)
		}
		g.phase = domain.PhaseSettlement

	case domain.PhaseSettlement:
		if g.turn >= g.rules.MaxTurns {
			g.finalScore()
			lines = append(lines, fmt.Sprintf("game over after %d turns", g.turn))
			break
		}
		g.resetFacilities()
		_, lines = g.advanceTurn(g.turn + 1)
		g.volumes = make(map[string]int64)
		g.phase = domain.PhaseNews
	}

	g.journal.AddAll(g.turn, lines)
	g.logger.Info("⏩ Phase advanced",
		slog.Int("turn", g.turn),
		slog.String("from", from.String()),
		slog.String("to", g.phase.String()))

	return g.report(lines), nil
}

// settleRound runs the barrier steps of the Trading → Settlement transition.
func (g *Game) settleRound() ([]string, error) {
	var lines []string

	govLines, err := g.runGovernmentAuction()
	if err != nil {
		return nil, err
	}
	lines = append(lines, govLines...)

	marketLines, err := g.clearGeneralMarket()
	if err != nil {
		return nil, err
	}
	lines = append(lines, marketLines...)

	settleLines, err := g.settleTurn()
	if err != nil {
		return nil, err
	}
	return append(lines, settleLines...), nil
}

// resetFacilities readies facilities for a new turn. A shut down facility
// loses exactly one production opportunity.
func (g *Game) resetFacilities() {
	for _, p := range g.sortedPlayers() {
		for _, f := range p.Facilities {
			if f.Shutdown {
				f.HasActed = true
				f.Shutdown = false
			} else {
				f.HasActed = false
			}
		}
	}
}

func (g *Game) report(lines []string) PhaseReport {
	volumes := make(map[string]int64, len(g.volumes))
	for k, v := range g.volumes {
		volumes[k] = v
	}
	return PhaseReport{
		GameID:   g.id,
		Turn:     g.turn,
		Phase:    g.phase,
		Lines:    lines,
		Prices:   g.market.Snapshot(),
		Volumes:  volumes,
		News:     g.news,
		Gov:      g.gov,
		Rankings: append([]Ranking(nil), g.rankings...),
	}
}

func (g *Game) dumpOnFailure() {
	if g.dumpTo == "" {
		return
	}
	if err := g.dumpState(g.dumpTo); err != nil {
		g.logger.Error("Failed to write state dump", slog.Any("error", err))
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"business_war/internal/domain"
	"business_war/internal/engine"
	"business_war/internal/service"
)

// Publisher fans a phase report out to the price board, the live feed and
// the report repository. Any of them may be nil.
type Publisher struct {
	repo    domain.ReportRepository
	board   *service.PriceBoard
	boardCh chan<- engine.PhaseReport // set by ApplyAsync
	feed    domain.Broadcaster
	logger  *slog.Logger
}

// NewPublisher creates a publisher.
func NewPublisher(repo domain.ReportRepository, board *service.PriceBoard, feed domain.Broadcaster, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{repo: repo, board: board, feed: feed, logger: logger}
}

// ApplyAsync starts the board's report processor and routes later reports
// through its channel instead of applying them inline.
func (p *Publisher) ApplyAsync(ctx context.Context) {
	if p.board == nil {
		return
	}
	p.board.StartProcessor(ctx)
	p.boardCh = p.board.ReportChan()
}

// Publish delivers one report. Persistence errors are returned after the
// in-memory consumers have been updated.
func (p *Publisher) Publish(ctx context.Context, r engine.PhaseReport) error {
	switch {
	case p.boardCh != nil:
		select {
		case p.boardCh <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	case p.board != nil:
		p.board.Apply(r)
	}
	if p.feed != nil {
		p.feed.Broadcast(r)
	}
	if p.repo == nil {
		return nil
	}

	rec := &domain.TurnRecord{
		GameID: r.GameID,
		Turn:   r.Turn,
		Phase:  r.Phase.String(),
		Log:    strings.Join(r.Lines, "\n"),
	}
	if r.News != nil {
		rec.NewsID = r.News.ID
	}
	if r.Gov != nil {
		rec.GovID = r.Gov.ID
	}

	var points []domain.PricePoint
	if r.Phase == domain.PhaseSettlement {
		items := make([]string, 0, len(r.Prices))
		for item := range r.Prices {
			items = append(items, item)
		}
		sort.Strings(items)
		for _, item := range items {
			points = append(points, domain.PricePoint{
				GameID: r.GameID,
				ItemID: item,
				Turn:   r.Turn,
				Price:  r.Prices[item],
				Volume: r.Volumes[item],
			})
		}
	}
	if err := p.repo.SaveTurn(ctx, rec, points); err != nil {
		return fmt.Errorf("save turn %d: %w", r.Turn, err)
	}

	if len(r.Lines) > 0 {
		lines := make([]domain.JournalLine, len(r.Lines))
		for i, msg := range r.Lines {
			lines[i] = domain.JournalLine{GameID: r.GameID, Turn: r.Turn, Message: msg}
		}
		if err := p.repo.AppendJournal(ctx, lines); err != nil {
			return fmt.Errorf("append journal: %w", err)
		}
	}

	if r.Phase == domain.PhaseEnded {
		records := make([]domain.RankingRecord, len(r.Rankings))
		for i, rk := range r.Rankings {
			records[i] = domain.RankingRecord{
				GameID:         r.GameID,
				Place:          i + 1,
				Name:           rk.Name,
				InventoryValue: rk.Score.InventoryValue,
				FacilityValue:  rk.Score.FacilityValue,
				Cash:           rk.Score.Cash,
				TotalScore:     rk.Score.TotalScore,
			}
		}
		if err := p.repo.SaveRankings(ctx, r.GameID, records); err != nil {
			return fmt.Errorf("save rankings: %w", err)
		}
		p.logger.Info("💾 Final rankings saved", slog.String("game_id", r.GameID), slog.Int("players", len(records)))
	}
	return nil
}

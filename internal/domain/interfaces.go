package domain

import (
	"context"
)

// ReportRepository persists the outcome of turn phases.
type ReportRepository interface {
	SaveTurn(ctx context.Context, rec *TurnRecord, prices []PricePoint) error
	SaveRankings(ctx context.Context, gameID string, rankings []RankingRecord) error
	PriceHistory(ctx context.Context, gameID, itemID string) ([]PricePoint, error)
	AppendJournal(ctx context.Context, lines []JournalLine) error
}

// Broadcaster pushes messages to connected spectators.
type Broadcaster interface {
	Broadcast(v any)
}

package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"business_war/internal/domain"

	"github.com/klauspost/compress/zstd"
)

// StateDump is the post-mortem image of a game.
type StateDump struct {
	GameID  string            `json:"game_id"`
	Turn    int               `json:"turn"`
	Phase   string            `json:"phase"`
	NextSeq uint64            `json:"next_seq"`
	Prices  map[string]int64  `json:"prices"`
	News    *domain.NewsEvent `json:"news,omitempty"`
	Gov     *domain.GovEvent  `json:"gov,omitempty"`
	Players []*domain.Player  `json:"players"`
	Book    []domain.Order    `json:"book"`
	GovBook []domain.Order    `json:"gov_book"`
}

// DumpState writes the entire game state to a zstd-compressed JSON file.
func (g *Game) DumpState(path string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dumpState(path)
}

// dumpState must be called with the game lock held.
func (g *Game) dumpState(path string) error {
	g.logger.Info("Dumping internal state...", slog.String("file", path))

	data := StateDump{
		GameID:  g.id,
		Turn:    g.turn,
		Phase:   g.phase.String(),
		NextSeq: g.seq.Load() + 1,
		Prices:  g.market.Snapshot(),
		News:    g.news,
		Gov:     g.gov,
	}
	for _, slot := range g.players {
		slot.mu.Lock()
		data.Players = append(data.Players, slot.p.Clone())
		slot.mu.Unlock()
	}
	g.bookMu.Lock()
	for _, o := range g.book {
		data.Book = append(data.Book, *o)
	}
	for _, o := range g.govBook {
		data.GovBook = append(data.GovBook, *o)
	}
	g.bookMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)
	if err := json.NewEncoder(bw).Encode(&data); err != nil {
		enc.Close()
		return fmt.Errorf("encode state: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadStateDump decodes a file written by DumpState.
func ReadStateDump(path string) (StateDump, error) {
	var dump StateDump
	f, err := os.Open(path)
	if err != nil {
		return dump, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return dump, err
	}
	defer dec.Close()

	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&dump); err != nil {
		return dump, fmt.Errorf("decode state: %w", err)
	}
	return dump, nil
}

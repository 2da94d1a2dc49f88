package app

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"business_war/internal/domain"
	"business_war/internal/engine"
	"business_war/internal/infra"
	"business_war/internal/infra/storage"

	"github.com/stretchr/testify/require"
)

const catalogPath = "../../configs/catalog.yaml"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGame(t *testing.T, maxTurns int) *engine.Game {
	t.Helper()
	catalog, err := infra.LoadCatalog(catalogPath, "L-05")
	require.NoError(t, err)

	rules := domain.DefaultRules()
	rules.MaxTurns = maxTurns
	return engine.NewGame(rules, catalog,
		engine.WithGameID("g-test"),
		engine.WithLogger(discardLogger()),
		engine.WithRand(engine.NewRand(7)),
	)
}

func newStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type recordingFeed struct {
	messages []any
}

func (f *recordingFeed) Broadcast(v any) {
	f.messages = append(f.messages, v)
}

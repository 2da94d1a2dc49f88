package app

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"business_war/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()
	dir := t.TempDir()
	catalog, err := filepath.Abs(catalogPath)
	require.NoError(t, err)

	cfg := fmt.Sprintf(`app:
  version: test
  seed: 42
  dump_dir: %s
catalog_path: %s
game:
  starter_miner: sand
  max_turns: 3
  milestone_turn: 16
  milestone_gov_id: L-05
database:
  path: %q
logging:
  level: warn
  file: %s
`, filepath.Join(dir, "dumps"), catalog, dbPath, filepath.Join(dir, "app.log"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestBootstrap_Initialize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bw.db")
	b := NewBootstrap()
	require.NoError(t, b.Initialize(writeConfig(t, dbPath)))
	t.Cleanup(b.Close)

	assert.Equal(t, uint64(42), b.Seed)
	assert.NotNil(t, b.Storage)
	assert.NotNil(t, b.Repository())
	assert.NotNil(t, b.Board)
	assert.Equal(t, domain.PhaseNews, b.Game.Phase())
	assert.Equal(t, 3, b.Game.Rules().MaxTurns)

	id, ok, err := b.Storage.GetSetting("last_game_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, b.Game.ID(), id)
}

func TestBootstrap_WithoutDatabase(t *testing.T) {
	b := NewBootstrap()
	require.NoError(t, b.Initialize(writeConfig(t, "")))
	t.Cleanup(b.Close)

	assert.Nil(t, b.Storage)
	assert.Nil(t, b.Repository())
}

func TestBootstrap_MissingConfig(t *testing.T) {
	b := NewBootstrap()
	err := b.Initialize(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

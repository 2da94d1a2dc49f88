package app

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"

	"business_war/internal/domain"
	"business_war/internal/engine"
	"business_war/internal/infra"
	"business_war/internal/infra/storage"
	"business_war/internal/service"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Logger   *slog.Logger
	Catalog  *domain.Catalog
	Storage  *storage.Storage // nil when persistence is disabled
	Metrics  *infra.Metrics
	Registry *prometheus.Registry
	Board    *service.PriceBoard
	Game     *engine.Game
	Seed     uint64
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and wires the game with its infrastructure.
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	// 2. Setup Logger
	b.Logger = infra.NewLogger(cfg)
	slog.SetDefault(b.Logger)
	slog.Info("🚀 Bootstrapping Business War...", slog.String("version", cfg.App.Version))

	// 3. Load Catalog
	catalog, err := infra.LoadCatalog(cfg.CatalogPath, cfg.Game.MilestoneGovID)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	b.Catalog = catalog
	slog.Info("✅ Catalog loaded",
		slog.Int("items", len(catalog.Items)),
		slog.Int("events", len(catalog.Events)),
		slog.Int("gov_events", len(catalog.GovEvents)))

	// 4. Initialize Storage (DB)
	if cfg.Database.Path != "" {
		store, err := storage.NewStorage(cfg.Database.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		slog.Info("✅ Database initialized", slog.String("path", cfg.Database.Path))
	}

	// 5. Metrics
	b.Metrics = infra.NewMetrics()
	b.Registry = prometheus.NewRegistry()
	if err := b.Metrics.Register(b.Registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// 6. Game
	b.Seed = cfg.App.Seed
	if b.Seed == 0 {
		b.Seed = rand.Uint64()
	}
	gameID := uuid.NewString()
	b.Game = engine.NewGame(cfg.Game, catalog,
		engine.WithGameID(gameID),
		engine.WithLogger(b.Logger),
		engine.WithRand(engine.NewRand(b.Seed)),
		engine.WithRecorder(b.Metrics),
		engine.WithDumpPath(filepath.Join(cfg.App.DumpDir, gameID+".json.zst")),
	)
	b.Board = service.NewPriceBoard(cfg.Simulation.HistoryLen)

	if b.Storage != nil {
		if err := b.Storage.SaveSetting("last_game_id", gameID); err != nil {
			slog.Warn("Failed to remember game id", slog.Any("error", err))
		}
	}
	slog.Info("✅ Game created", slog.String("game_id", gameID), slog.Uint64("seed", b.Seed))
	return nil
}

// Repository returns the report repository, or nil without persistence.
func (b *Bootstrap) Repository() domain.ReportRepository {
	if b.Storage == nil {
		return nil
	}
	return b.Storage
}

// Close releases the database.
func (b *Bootstrap) Close() {
	if b.Storage == nil {
		return
	}
	if err := b.Storage.Close(); err != nil {
		slog.Error("Failed to close database", slog.Any("error", err))
	}
}

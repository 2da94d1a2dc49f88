package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"business_war/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var one = decimal.NewFromInt(1)

// Config holds every setting of the application.
// Values loaded from YAML are overridden by environment variables (and .env).
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Seed    uint64 `yaml:"seed"` // 0 picks a random seed
		DumpDir string `yaml:"dump_dir"`
	} `yaml:"app"`

	CatalogPath string `yaml:"catalog_path" validate:"required"`

	Game domain.Rules `yaml:"game"`

	Server struct {
		Listen     string `yaml:"listen" validate:"required"`
		FeedBuffer int    `yaml:"feed_buffer" validate:"min=1"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"` // empty disables persistence
	} `yaml:"database"`

	Simulation struct {
		Bots        []string `yaml:"bots" validate:"dive,oneof=momentum value random"`
		MinerOutput int64    `yaml:"miner_output" validate:"min=0"`
		TickMillis  int      `yaml:"tick_ms" validate:"min=0"` // pause between phases when serving
		HistoryLen  int      `yaml:"history_len" validate:"min=1"`
	} `yaml:"simulation"`

	Logging struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// LoadConfig reads, defaults, overrides and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &domain.ConfigError{Field: path, Err: err}
	}

	SetDefaults(&cfg)

	// .env is optional
	_ = godotenv.Load()
	if err := overrideWithEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// SetDefaults fills zero values with the standard settings.
func SetDefaults(cfg *Config) {
	def := domain.DefaultRules()
	g := &cfg.Game

	if cfg.App.Name == "" {
		cfg.App.Name = "business-war"
	}
	if cfg.App.DumpDir == "" {
		cfg.App.DumpDir = "data/dumps"
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = "configs/catalog.yaml"
	}
	if g.StartingCash == 0 {
		g.StartingCash = def.StartingCash
	}
	if g.StartingLand == 0 {
		g.StartingLand = def.StartingLand
	}
	if g.MaxTurns == 0 {
		g.MaxTurns = def.MaxTurns
	}
	if g.MilestoneTurn == 0 {
		g.MilestoneTurn = def.MilestoneTurn
	}
	if g.MilestoneGovID == "" {
		g.MilestoneGovID = def.MilestoneGovID
	}
	if g.PriceBand.IsZero() {
		g.PriceBand = def.PriceBand
	}
	if g.BankBuyRatio.IsZero() {
		g.BankBuyRatio = def.BankBuyRatio
	}
	if g.GovBuyRatio.IsZero() {
		g.GovBuyRatio = def.GovBuyRatio
	}
	if g.GrowthRate.IsZero() {
		g.GrowthRate = def.GrowthRate
	}
	if g.JournalSize == 0 {
		g.JournalSize = def.JournalSize
	}
	if g.Storage.BaseCapacity == 0 {
		g.Storage = def.Storage
	}
	if g.Redistribution.TopN == 0 {
		g.Redistribution = def.Redistribution
	}
	if len(g.Scoring.Miner) == 0 {
		g.Scoring.Miner = def.Scoring.Miner
	}
	if len(g.Scoring.Factory) == 0 {
		g.Scoring.Factory = def.Scoring.Factory
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.FeedBuffer == 0 {
		cfg.Server.FeedBuffer = 64
	}
	if len(cfg.Simulation.Bots) == 0 {
		cfg.Simulation.Bots = []string{"momentum", "value", "random"}
	}
	if cfg.Simulation.MinerOutput == 0 {
		cfg.Simulation.MinerOutput = 4
	}
	if cfg.Simulation.HistoryLen == 0 {
		cfg.Simulation.HistoryLen = 50
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = "logs/app.log"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	v := NewValidator()
	if err := v.Validate(c); err != nil {
		return err
	}

	g := c.Game
	if !g.PriceBand.IsPositive() || g.PriceBand.GreaterThanOrEqual(one) {
		return &domain.ConfigError{Field: "game.price_band", Err: fmt.Errorf("must be in (0, 1), got %s", g.PriceBand)}
	}
	if !g.BankBuyRatio.IsPositive() {
		return &domain.ConfigError{Field: "game.bank_buy_ratio", Err: errors.New("must be positive")}
	}
	if !g.GovBuyRatio.IsPositive() {
		return &domain.ConfigError{Field: "game.gov_buy_ratio", Err: errors.New("must be positive")}
	}
	if g.GrowthRate.IsNegative() {
		return &domain.ConfigError{Field: "game.growth_rate", Err: errors.New("must not be negative")}
	}
	if g.Redistribution.Rate.IsNegative() || g.Redistribution.Rate.GreaterThan(one) {
		return &domain.ConfigError{Field: "game.redistribution.rate", Err: errors.New("must be in [0, 1]")}
	}
	return nil
}

// overrideWithEnv overwrites settings from BW_* environment variables.
func overrideWithEnv(cfg *Config) error {
	if seed := os.Getenv("BW_SEED"); seed != "" {
		n, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return &domain.ConfigError{Field: "BW_SEED", Err: err}
		}
		cfg.App.Seed = n
	}
	if path := os.Getenv("BW_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if level := os.Getenv("BW_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	if listen := os.Getenv("BW_LISTEN"); listen != "" {
		cfg.Server.Listen = listen
	}
	return nil
}

// Validator is a wrapper around go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into a ConfigError naming the first failing field
func (v *Validator) formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}
	var messages []string
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s (value: '%v')",
			e.Namespace(),
			e.Tag(),
			e.Value(),
		))
	}
	return &domain.ConfigError{
		Field: validationErrs[0].Namespace(),
		Err:   fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  ")),
	}
}

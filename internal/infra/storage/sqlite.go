package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"business_war/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists game history in SQLite
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite database at path
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("empty database path")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.TurnRecord{},
		&domain.PricePoint{},
		&domain.JournalLine{},
		&domain.RankingRecord{},
		&domain.AppSetting{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Turn Operations
// ======================================================================================

// SaveTurn stores a phase report and its price points in one transaction
func (s *Storage) SaveTurn(ctx context.Context, rec *domain.TurnRecord, prices []domain.PricePoint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		if len(prices) == 0 {
			return nil
		}
		return tx.Create(&prices).Error
	})
}

// TurnsForGame returns all stored phase reports of a game, oldest first
func (s *Storage) TurnsForGame(ctx context.Context, gameID string) ([]domain.TurnRecord, error) {
	var recs []domain.TurnRecord
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id asc").
		Find(&recs).Error
	return recs, err
}

// PriceHistory returns the recorded prices of one item, oldest first
func (s *Storage) PriceHistory(ctx context.Context, gameID, itemID string) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND item_id = ?", gameID, itemID).
		Order("turn asc, id asc").
		Find(&points).Error
	return points, err
}

// ======================================================================================
// Journal Operations
// ======================================================================================

// AppendJournal stores journal lines
func (s *Storage) AppendJournal(ctx context.Context, lines []domain.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&lines).Error
}

// RecentJournal returns the newest journal lines of a game, newest first
func (s *Storage) RecentJournal(ctx context.Context, gameID string, limit int) ([]domain.JournalLine, error) {
	var lines []domain.JournalLine
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id desc").
		Limit(limit).
		Find(&lines).Error
	return lines, err
}

// ======================================================================================
// Ranking Operations
// ======================================================================================

// SaveRankings replaces the final standings of a game
func (s *Storage) SaveRankings(ctx context.Context, gameID string, rankings []domain.RankingRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", gameID).Delete(&domain.RankingRecord{}).Error; err != nil {
			return err
		}
		if len(rankings) == 0 {
			return nil
		}
		return tx.Create(&rankings).Error
	})
}

// Rankings returns the final standings of a game ordered by place
func (s *Storage) Rankings(ctx context.Context, gameID string) ([]domain.RankingRecord, error) {
	var out []domain.RankingRecord
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("place asc").
		Find(&out).Error
	return out, err
}

// ======================================================================================
// Setting Operations
// ======================================================================================

// SaveSetting saves a key-value setting
func (s *Storage) SaveSetting(key, value string) error {
	setting := domain.AppSetting{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&setting).Error
}

// GetSetting returns a setting value; ok is false when the key is absent
func (s *Storage) GetSetting(key string) (string, bool, error) {
	var setting domain.AppSetting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil // Not found is not an error
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// LoadSettings loads all settings as a map
func (s *Storage) LoadSettings() (map[string]string, error) {
	var settings []domain.AppSetting
	if err := s.db.Find(&settings).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, st := range settings {
		result[st.Key] = st.Value
	}
	return result, nil
}

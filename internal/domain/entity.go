package domain

import (
	"time"
)

// TurnRecord is one persisted phase report.
type TurnRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GameID    string    `gorm:"index" json:"game_id"`
	Turn      int       `gorm:"index" json:"turn"`
	Phase     string    `json:"phase"`
	NewsID    string    `json:"news_id"`
	GovID     string    `json:"gov_id"`
	Log       string    `json:"log"` // newline separated
	CreatedAt time.Time `json:"created_at"`
}

// PricePoint is the reference price and traded volume of an item after a clearing.
type PricePoint struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GameID    string    `gorm:"index:idx_price_item" json:"game_id"`
	ItemID    string    `gorm:"index:idx_price_item" json:"item_id"`
	Turn      int       `json:"turn"`
	Price     int64     `json:"price"`
	Volume    int64     `json:"volume"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalLine is a persisted journal message.
type JournalLine struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GameID    string    `gorm:"index" json:"game_id"`
	Turn      int       `json:"turn"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RankingRecord is a final standing of a finished game.
type RankingRecord struct {
	GameID         string    `gorm:"primaryKey" json:"game_id"`
	Place          int       `gorm:"primaryKey" json:"place"`
	Name           string    `json:"name"`
	InventoryValue int64     `json:"inventory_value"`
	FacilityValue  int64     `json:"facility_value"`
	Cash           int64     `json:"cash"`
	TotalScore     int64     `json:"total_score"`
	CreatedAt      time.Time `json:"created_at"`
}

// AppSetting is a persisted key-value setting (e.g. the last game id)
type AppSetting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

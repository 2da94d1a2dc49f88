package domain

import "github.com/shopspring/decimal"

// StorageRules configures the end-of-turn storage tax.
type StorageRules struct {
	BaseCapacity  int64         `yaml:"base_capacity" json:"base_capacity" validate:"min=0"`
	TierAllowance map[int]int64 `yaml:"tier_allowance" json:"tier_allowance" validate:"dive,min=0"`
	LowUnits      int64         `yaml:"low_units" json:"low_units" validate:"min=0"`
	LowRate       int64         `yaml:"low_rate" json:"low_rate" validate:"min=0"`
	MidUnits      int64         `yaml:"mid_units" json:"mid_units" validate:"min=0"`
	MidRate       int64         `yaml:"mid_rate" json:"mid_rate" validate:"min=0"`
	HighRate      int64         `yaml:"high_rate" json:"high_rate" validate:"min=0"`
}

// Allowance returns the extra capacity granted by a non-miner facility of the
// given tier. Tiers above the highest configured tier use the highest value.
func (s StorageRules) Allowance(tier int) int64 {
	if v, ok := s.TierAllowance[tier]; ok {
		return v
	}
	best, bestTier := int64(0), -1
	for t, v := range s.TierAllowance {
		if t <= tier && t > bestTier {
			best, bestTier = v, t
		}
	}
	return best
}

// Tax returns the marginal tax on excess units.
func (s StorageRules) Tax(excess int64) int64 {
	if excess <= 0 {
		return 0
	}
	low := min(excess, s.LowUnits)
	mid := min(excess-low, s.MidUnits)
	high := excess - low - mid
	return low*s.LowRate + mid*s.MidRate + high*s.HighRate
}

// RedistributionRules configures the wealth redistribution event.
type RedistributionRules struct {
	TopN int             `yaml:"top_n" json:"top_n" validate:"min=0"`
	Rate decimal.Decimal `yaml:"rate" json:"rate" validate:"-"`
}

// ScoringRules maps facility tier to final score value.
type ScoringRules struct {
	Miner   map[int]int64 `yaml:"miner" json:"miner"`
	Factory map[int]int64 `yaml:"factory" json:"factory"`
}

// Rules holds every tunable constant of the engine.
type Rules struct {
	StartingCash   int64               `yaml:"starting_cash" json:"starting_cash" validate:"min=0"`
	StartingLand   int                 `yaml:"starting_land" json:"starting_land" validate:"min=0"`
	StarterMiner   string              `yaml:"starter_miner" json:"starter_miner"` // product of the free miner; empty disables it
	MaxTurns       int                 `yaml:"max_turns" json:"max_turns" validate:"min=1"`
	PriceBand      decimal.Decimal     `yaml:"price_band" json:"price_band" validate:"-"`
	BankBuyRatio   decimal.Decimal     `yaml:"bank_buy_ratio" json:"bank_buy_ratio" validate:"-"`
	GovBuyRatio    decimal.Decimal     `yaml:"gov_buy_ratio" json:"gov_buy_ratio" validate:"-"`
	GrowthRate     decimal.Decimal     `yaml:"growth_rate" json:"growth_rate" validate:"-"`
	MilestoneTurn  int                 `yaml:"milestone_turn" json:"milestone_turn" validate:"min=0"`
	MilestoneGovID string              `yaml:"milestone_gov_id" json:"milestone_gov_id"`
	JournalSize    int                 `yaml:"journal_size" json:"journal_size" validate:"min=0"`
	Storage        StorageRules        `yaml:"storage" json:"storage"`
	Redistribution RedistributionRules `yaml:"redistribution" json:"redistribution"`
	Scoring        ScoringRules        `yaml:"scoring" json:"scoring"`
}

// DefaultRules returns the standard game constants.
func DefaultRules() Rules {
	return Rules{
		StartingCash:   10000,
		StartingLand:   5,
		StarterMiner:   "sand",
		MaxTurns:       20,
		PriceBand:      decimal.RequireFromString("0.2"),
		BankBuyRatio:   decimal.RequireFromString("0.85"),
		GovBuyRatio:    decimal.RequireFromString("1.5"),
		GrowthRate:     decimal.RequireFromString("0.2"),
		MilestoneTurn:  16,
		MilestoneGovID: "L-05",
		JournalSize:    100,
		Storage: StorageRules{
			BaseCapacity:  5,
			TierAllowance: map[int]int64{1: 3, 2: 6, 3: 12},
			LowUnits:      3,
			LowRate:       100,
			MidUnits:      4,
			MidRate:       200,
			HighRate:      500,
		},
		Redistribution: RedistributionRules{
			TopN: 3,
			Rate: decimal.RequireFromString("0.3"),
		},
		Scoring: ScoringRules{
			Miner:   map[int]int64{0: 200, 1: 500, 2: 2000, 3: 5000},
			Factory: map[int]int64{0: 0, 1: 500, 2: 8000, 3: 18000},
		},
	}
}

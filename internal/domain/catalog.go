package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EventType selects how a news event affects the turn.
type EventType string

const (
	EventNone         EventType = "NONE"
	EventPriceMod     EventType = "PRICE_MOD"
	EventDefenseCheck EventType = "DEFENSE_CHECK"
	EventSpecial      EventType = "SPECIAL"
	EventTradeBan     EventType = "TRADE_BAN"
	EventBoost        EventType = "BOOST"
)

// Penalty applied when a defense check is failed.
type Penalty string

const (
	PenaltyShutdownFacilities Penalty = "SHUTDOWN_FACILITIES"
	PenaltyHalveCash          Penalty = "HALVE_CASH"
	PenaltyDestroyFactory     Penalty = "DESTROY_FACTORY"
)

// Logic keys for events whose effect is not captured by the type alone.
const (
	LogicRobinHoodTax = "ROBIN_HOOD_TAX"
	LogicLandTaxBeam  = "LAND_TAX_BEAM"
)

// LimitType selects the quota policy of a government acquisition.
type LimitType string

const (
	LimitGlobal LimitType = "GLOBAL"
	LimitPlayer LimitType = "PLAYER"
	LimitMixed  LimitType = "MIXED"
)

// ItemDef is an immutable catalog entry.
type ItemDef struct {
	ID        string           `yaml:"id" json:"id" validate:"required"`
	Label     string           `yaml:"label" json:"label" validate:"required"`
	Tier      int              `yaml:"tier" json:"tier" validate:"min=0,max=4"`
	Series    string           `yaml:"series" json:"series,omitempty"`
	BasePrice int64            `yaml:"base_price" json:"base_price" validate:"gt=0"`
	Recipe    map[string]int64 `yaml:"recipe" json:"recipe,omitempty" validate:"omitempty,dive,gt=0"`
}

// IsRaw reports whether the item is a tier-0 raw material.
func (d ItemDef) IsRaw() bool {
	return d.Tier == 0
}

// EventParams carries logic-key specific parameters.
type EventParams struct {
	LandThreshold int    `yaml:"land_threshold" json:"land_threshold,omitempty" validate:"min=0"`
	Material      string `yaml:"material" json:"material,omitempty"`
	QtyPerLand    int64  `yaml:"qty_per_land" json:"qty_per_land,omitempty" validate:"min=0"`
}

// NewsEvent is a per-turn news entry drawn by the event controller.
type NewsEvent struct {
	ID          string          `yaml:"id" json:"id" validate:"required"`
	Title       string          `yaml:"title" json:"title" validate:"required"`
	Description string          `yaml:"description" json:"description"`
	Type        EventType       `yaml:"type" json:"type" validate:"oneof=NONE PRICE_MOD DEFENSE_CHECK SPECIAL TRADE_BAN BOOST"`
	PhaseReq    Stage           `yaml:"phase_req" json:"phase_req" validate:"omitempty,oneof=All Early Mid Late"`
	Target      string          `yaml:"target" json:"target,omitempty"`
	PriceMult   decimal.Decimal `yaml:"price_mult" json:"price_mult" validate:"-"`
	ReqItem     string          `yaml:"req_item" json:"req_item,omitempty"`
	ReqQty      int64           `yaml:"req_qty" json:"req_qty,omitempty" validate:"min=0"`
	Penalty     Penalty         `yaml:"penalty" json:"penalty,omitempty" validate:"omitempty,oneof=SHUTDOWN_FACILITIES HALVE_CASH DESTROY_FACTORY"`
	LogicKey    string          `yaml:"logic_key" json:"logic_key,omitempty"`
	Params      EventParams     `yaml:"params" json:"params"`
}

// GovEvent is a government acquisition offer.
type GovEvent struct {
	ID        string           `yaml:"id" json:"id" validate:"required"`
	Title     string           `yaml:"title" json:"title" validate:"required"`
	PhaseReq  Stage            `yaml:"phase_req" json:"phase_req" validate:"omitempty,oneof=All Early Mid Late"`
	Targets   []string         `yaml:"targets" json:"targets" validate:"min=1,dive,required"`
	LimitType LimitType        `yaml:"limit_type" json:"limit_type" validate:"oneof=GLOBAL PLAYER MIXED"`
	Limit     int64            `yaml:"limit" json:"limit" validate:"min=0"`
	Limits    map[string]int64 `yaml:"limits" json:"limits,omitempty" validate:"omitempty,dive,min=0"`
}

// HasTarget reports whether item is bought by this event.
func (g *GovEvent) HasTarget(item string) bool {
	for _, t := range g.Targets {
		if t == item {
			return true
		}
	}
	return false
}

// Catalog is the validated, read-only game content.
type Catalog struct {
	Items     map[string]ItemDef
	Events    []NewsEvent
	GovEvents []GovEvent
}

// NewCatalog indexes items by id.
func NewCatalog(items []ItemDef, events []NewsEvent, gov []GovEvent) *Catalog {
	c := &Catalog{
		Items:     make(map[string]ItemDef, len(items)),
		Events:    events,
		GovEvents: gov,
	}
	for _, it := range items {
		c.Items[it.ID] = it
	}
	return c
}

// Item looks up an item definition.
func (c *Catalog) Item(id string) (ItemDef, bool) {
	it, ok := c.Items[id]
	return it, ok
}

// GovEvent looks up a government event by id.
func (c *Catalog) GovEvent(id string) (*GovEvent, bool) {
	for i := range c.GovEvents {
		if c.GovEvents[i].ID == id {
			return &c.GovEvents[i], true
		}
	}
	return nil, false
}

// ItemIDs returns all item ids in sorted order.
func (c *Catalog) ItemIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

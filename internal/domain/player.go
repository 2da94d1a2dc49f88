package domain

import (
	"fmt"
	"sort"

	"business_war/pkg/safe"

	"github.com/google/uuid"
)

// FacilityKind classifies a facility for storage allowance and scoring.
type FacilityKind string

const (
	FacilityMiner   FacilityKind = "MINER"
	FacilityFactory FacilityKind = "FACTORY"
	FacilitySpecial FacilityKind = "SPECIAL"
)

// Special facility names.
const (
	FacilityNameDefense = "Defense"
	FacilityNameDiamond = "Diamond Mine"
)

// Facility is a production building owned by a player.
type Facility struct {
	ID       string       `json:"id"`
	Kind     FacilityKind `json:"kind"`
	Tier     int          `json:"tier"`
	Name     string       `json:"name"`
	Product  string       `json:"product,omitempty"`
	HasActed bool         `json:"has_acted"`
	Shutdown bool         `json:"shutdown"`
}

// NewFacility creates a facility with a short random id.
func NewFacility(kind FacilityKind, tier int, name string) *Facility {
	return &Facility{
		ID:   uuid.NewString()[:8],
		Kind: kind,
		Tier: tier,
		Name: name,
	}
}

// IsDefense reports whether the facility averts defense checks.
func (f *Facility) IsDefense() bool {
	return f.Kind == FacilitySpecial && f.Name == FacilityNameDefense
}

// Player is a participant's asset ledger.
// Cash and inventory are split into free and locked parts; locking moves value
// between the two and never creates or destroys it.
type Player struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Cash            int64            `json:"cash"`
	LockedCash      int64            `json:"locked_cash"`
	Inventory       map[string]int64 `json:"inventory"`
	LockedInventory map[string]int64 `json:"locked_inventory"`
	Facilities      []*Facility      `json:"facilities"`
	LandLimit       int              `json:"land_limit"`
}

// NewPlayer creates an empty player with the given starting cash and land.
func NewPlayer(id, name string, cash int64, landLimit int) *Player {
	return &Player{
		ID:              id,
		Name:            name,
		Cash:            cash,
		Inventory:       make(map[string]int64),
		LockedInventory: make(map[string]int64),
		LandLimit:       landLimit,
	}
}

// Held returns the free quantity of an item (missing is 0).
func (p *Player) Held(item string) int64 {
	return p.Inventory[item]
}

// LockedQty returns the locked quantity of an item.
func (p *Player) LockedQty(item string) int64 {
	return p.LockedInventory[item]
}

// Credit adds cash. Panics on overflow.
func (p *Player) Credit(amount int64) {
	p.Cash = safe.SafeAdd(p.Cash, amount)
}

// Debit removes cash. Panics if insufficient.
func (p *Player) Debit(amount int64) {
	if amount > p.Cash {
		panic(fmt.Sprintf("LEDGER_DEBIT_INSUFFICIENT: %s need %d, cash %d", p.ID, amount, p.Cash))
	}
	p.Cash = safe.SafeSub(p.Cash, amount)
}

// DebitFloor removes up to amount from cash, never going below zero.
// Returns the amount actually removed.
func (p *Player) DebitFloor(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if amount > p.Cash {
		amount = p.Cash
	}
	p.Cash -= amount
	return amount
}

// LockCash moves cash into the locked pool for a bid.
func (p *Player) LockCash(amount int64) {
	if amount > p.Cash {
		panic(fmt.Sprintf("LEDGER_LOCK_CASH_INSUFFICIENT: %s need %d, cash %d", p.ID, amount, p.Cash))
	}
	p.Cash = safe.SafeSub(p.Cash, amount)
	p.LockedCash = safe.SafeAdd(p.LockedCash, amount)
}

// ReleaseCash returns locked cash to the free pool.
func (p *Player) ReleaseCash(amount int64) {
	if amount > p.LockedCash {
		panic(fmt.Sprintf("LEDGER_RELEASE_CASH_EXCEEDS_LOCKED: %s release %d, locked %d", p.ID, amount, p.LockedCash))
	}
	p.LockedCash = safe.SafeSub(p.LockedCash, amount)
	p.Cash = safe.SafeAdd(p.Cash, amount)
}

// SpendLocked pays amount out of locked cash (the counterparty is credited separately).
func (p *Player) SpendLocked(amount int64) {
	if amount > p.LockedCash {
		panic(fmt.Sprintf("LEDGER_SPEND_EXCEEDS_LOCKED: %s spend %d, locked %d", p.ID, amount, p.LockedCash))
	}
	p.LockedCash = safe.SafeSub(p.LockedCash, amount)
}

// AddItem adds free inventory.
func (p *Player) AddItem(item string, qty int64) {
	if qty == 0 {
		return
	}
	p.Inventory[item] = safe.SafeAdd(p.Inventory[item], qty)
}

// RemoveItem removes free inventory. Panics if insufficient.
func (p *Player) RemoveItem(item string, qty int64) {
	held := p.Inventory[item]
	if qty > held {
		panic(fmt.Sprintf("LEDGER_REMOVE_ITEM_INSUFFICIENT: %s %s need %d, held %d", p.ID, item, qty, held))
	}
	setQty(p.Inventory, item, held-qty)
}

// LockItem moves free inventory into the locked pool for an ask.
func (p *Player) LockItem(item string, qty int64) {
	held := p.Inventory[item]
	if qty > held {
		panic(fmt.Sprintf("LEDGER_LOCK_ITEM_INSUFFICIENT: %s %s need %d, held %d", p.ID, item, qty, held))
	}
	setQty(p.Inventory, item, held-qty)
	p.LockedInventory[item] = safe.SafeAdd(p.LockedInventory[item], qty)
}

// ReleaseItem returns locked inventory to the free pool.
func (p *Player) ReleaseItem(item string, qty int64) {
	locked := p.LockedInventory[item]
	if qty > locked {
		panic(fmt.Sprintf("LEDGER_RELEASE_ITEM_EXCEEDS_LOCKED: %s %s release %d, locked %d", p.ID, item, qty, locked))
	}
	setQty(p.LockedInventory, item, locked-qty)
	p.AddItem(item, qty)
}

// ConsumeLocked removes sold units from locked inventory.
func (p *Player) ConsumeLocked(item string, qty int64) {
	locked := p.LockedInventory[item]
	if qty > locked {
		panic(fmt.Sprintf("LEDGER_CONSUME_EXCEEDS_LOCKED: %s %s consume %d, locked %d", p.ID, item, qty, locked))
	}
	setQty(p.LockedInventory, item, locked-qty)
}

func setQty(m map[string]int64, item string, qty int64) {
	if qty == 0 {
		delete(m, item)
		return
	}
	m[item] = qty
}

// HasDefense reports whether the player owns a defense facility.
func (p *Player) HasDefense() bool {
	for _, f := range p.Facilities {
		if f.IsDefense() {
			return true
		}
	}
	return false
}

// RemoveFacility deletes the facility at index i and returns it.
func (p *Player) RemoveFacility(i int) *Facility {
	f := p.Facilities[i]
	p.Facilities = append(p.Facilities[:i], p.Facilities[i+1:]...)
	return f
}

// IsLocked reports whether any cash or inventory is still locked.
func (p *Player) IsLocked() bool {
	return p.LockedCash != 0 || len(p.LockedInventory) != 0
}

// TotalUnits returns free plus locked units of every item.
func (p *Player) TotalUnits() map[string]int64 {
	out := make(map[string]int64, len(p.Inventory))
	for item, qty := range p.Inventory {
		out[item] += qty
	}
	for item, qty := range p.LockedInventory {
		out[item] += qty
	}
	return out
}

// ItemIDs returns the sorted ids of items held in free inventory.
func (p *Player) ItemIDs() []string {
	ids := make([]string, 0, len(p.Inventory))
	for id := range p.Inventory {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VerifyInvariant checks that the ledger satisfies its invariants.
// Call this after any state change to ensure data integrity.
func (p *Player) VerifyInvariant() {
	if p.Cash < 0 {
		panic(fmt.Sprintf("LEDGER_INVARIANT_NEGATIVE_CASH: %s = %d", p.ID, p.Cash))
	}
	if p.LockedCash < 0 {
		panic(fmt.Sprintf("LEDGER_INVARIANT_NEGATIVE_LOCKED_CASH: %s = %d", p.ID, p.LockedCash))
	}
	for item, qty := range p.Inventory {
		if qty < 0 {
			panic(fmt.Sprintf("LEDGER_INVARIANT_NEGATIVE_INVENTORY: %s %s = %d", p.ID, item, qty))
		}
	}
	for item, qty := range p.LockedInventory {
		if qty < 0 {
			panic(fmt.Sprintf("LEDGER_INVARIANT_NEGATIVE_LOCKED: %s %s = %d", p.ID, item, qty))
		}
	}
}

// Clone returns a deep copy (for snapshots and state dumps).
func (p *Player) Clone() *Player {
	c := *p
	c.Inventory = make(map[string]int64, len(p.Inventory))
	for k, v := range p.Inventory {
		c.Inventory[k] = v
	}
	c.LockedInventory = make(map[string]int64, len(p.LockedInventory))
	for k, v := range p.LockedInventory {
		c.LockedInventory[k] = v
	}
	c.Facilities = make([]*Facility, len(p.Facilities))
	for i, f := range p.Facilities {
		fc := *f
		c.Facilities[i] = &fc
	}
	return &c
}

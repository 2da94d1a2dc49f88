package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"business_war/internal/domain"
	"business_war/internal/event"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type playerSlot struct {
	mu sync.Mutex // serialises access to one player's ledger
	p  *domain.Player
}

// Game is the aggregate that owns all market and player state.
//
// Order intake and collaborator access hold the read lock plus the player's
// own mutex. Round-barrier operations (phase advance, clearing, settlement,
// scoring, reset) hold the write lock and run to completion.
type Game struct {
	mu sync.RWMutex

	id      string
	rules   domain.Rules
	catalog *domain.Catalog
	rng     Rand
	logger  *slog.Logger
	rec     Recorder
	journal *event.Journal
	dumpTo  string

	turn   int
	phase  domain.Phase
	market *domain.MarketState
	news   *domain.NewsEvent
	gov    *domain.GovEvent

	players []*playerSlot // registration order
	byID    map[string]*playerSlot
	byName  map[string]*playerSlot

	bookMu  sync.Mutex
	book    []*domain.Order
	govBook []*domain.Order
	seq     atomic.Uint64

	volumes  map[string]int64 // traded units of the last clearing
	rankings []Ranking
}

// Option configures a Game.
type Option func(*Game)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(g *Game) { g.logger = l }
}

// WithRand sets the randomness source.
func WithRand(r Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(g *Game) { g.rec = r }
}

// WithDumpPath enables a compressed state dump when a barrier operation fails.
func WithDumpPath(path string) Option {
	return func(g *Game) { g.dumpTo = path }
}

// WithGameID overrides the generated game id.
func WithGameID(id string) Option {
	return func(g *Game) { g.id = id }
}

// NewGame creates a game at turn 1, News phase, with no players.
// No event is drawn until AdvanceTurn or Reset is called.
func NewGame(rules domain.Rules, catalog *domain.Catalog, opts ...Option) *Game {
	g := &Game{
		id:      uuid.NewString(),
		rules:   rules,
		catalog: catalog,
		logger:  slog.Default(),
		rec:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = NewRand(0)
	}
	g.journal = event.NewJournal(rules.JournalSize)
	g.resetState()
	return g
}

func (g *Game) resetState() {
	g.turn = 1
	g.phase = domain.PhaseNews
	g.market = domain.NewMarketState(g.catalog)
	g.news = nil
	g.gov = nil
	g.players = nil
	g.byID = make(map[string]*playerSlot)
	g.byName = make(map[string]*playerSlot)
	g.book = nil
	g.govBook = nil
	g.volumes = make(map[string]int64)
	g.rankings = nil
	g.journal.Clear()
}

// ID returns the game id.
func (g *Game) ID() string {
	return g.id
}

// Rules returns the game constants.
func (g *Game) Rules() domain.Rules {
	return g.rules
}

// Catalog returns the content catalog.
func (g *Game) Catalog() *domain.Catalog {
	return g.catalog
}

// Turn returns the current turn number.
func (g *Game) Turn() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.turn
}

// Phase returns the current phase.
func (g *Game) Phase() domain.Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// Prices returns a copy of the reference prices.
func (g *Game) Prices() map[string]int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.market.Snapshot()
}

// Events returns the active news and government events (either may be nil).
func (g *Game) Events() (*domain.NewsEvent, *domain.GovEvent) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.news, g.gov
}

// Journal returns the retained journal entries, newest first.
func (g *Game) Journal() []event.Entry {
	return g.journal.Entries()
}

// Rankings returns the final standings once the game has ended.
func (g *Game) Rankings() []Ranking {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Ranking(nil), g.rankings...)
}

// Reset returns the game to turn 1 with no players and draws turn 1's events.
func (g *Game) Reset() (TurnEvents, []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.unwindBooks()
	g.resetState()
	g.logger.Info("🔄 Game reset", slog.String("game_id", g.id))
	return g.advanceTurn(1)
}

// RegisterPlayer adds a player, or returns the existing id for a known name.
func (g *Game) RegisterPlayer(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("player name is empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == domain.PhaseEnded {
		return "", domain.ErrGameOver
	}
	if slot, ok := g.byName[name]; ok {
		return slot.p.ID, nil
	}

	p := domain.NewPlayer(uuid.NewString(), name, g.rules.StartingCash, g.rules.StartingLand)
	if g.rules.StarterMiner != "" {
		miner := domain.NewFacility(domain.FacilityMiner, 0, "Miner")
		miner.Product = g.rules.StarterMiner
		p.Facilities = append(p.Facilities, miner)
	}

	slot := &playerSlot{p: p}
	g.players = append(g.players, slot)
	g.byID[p.ID] = slot
	g.byName[name] = slot

	g.journal.Add(g.turn, fmt.Sprintf("%s joined the game", name))
	g.logger.Info("👤 Player registered", slog.String("player_id", p.ID), slog.String("name", name))
	return p.ID, nil
}

// Player returns a copy of a player's ledger.
func (g *Game) Player(id string) (*domain.Player, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	slot, ok := g.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.p.Clone(), nil
}

// PlayerIDs returns player ids in registration order.
func (g *Game) PlayerIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, len(g.players))
	for i, s := range g.players {
		ids[i] = s.p.ID
	}
	return ids
}

// WithPlayer runs fn against a single player's ledger under that player's
// lock. It is the entry point for production and construction rules.
func (g *Game) WithPlayer(id string, fn func(p *domain.Player) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	slot, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if err := fn(slot.p); err != nil {
		return err
	}
	slot.p.VerifyInvariant()
	return nil
}

// SellToBank sells raw materials at a discount to the reference price.
// Only allowed in the Action phase. Returns the cash received.
func (g *Game) SellToBank(playerID, item string, qty int64) (int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.phase != domain.PhaseAction {
		return 0, domain.Reject(domain.RejectWrongPhase, "bank only buys during %s, now %s", domain.PhaseAction, g.phase)
	}
	def, ok := g.catalog.Item(item)
	if !ok {
		return 0, domain.Reject(domain.RejectUnknownItem, "unknown item %q", item)
	}
	if !def.IsRaw() {
		return 0, domain.Reject(domain.RejectNotRawMaterial, "bank only buys raw materials, %s is tier %d", item, def.Tier)
	}
	if qty <= 0 {
		return 0, domain.Reject(domain.RejectInvalidQuantity, "quantity must be positive, got %d", qty)
	}
	slot, ok := g.byID[playerID]
	if !ok {
		return 0, domain.Reject(domain.RejectUnknownPlayer, "unknown player %q", playerID)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if held := slot.p.Held(item); held < qty {
		return 0, domain.Reject(domain.RejectInsufficientInventory, "need %d %s, hold %d", qty, item, held)
	}
	unit := ratioOf(g.market.Price(item), g.rules.BankBuyRatio)
	proceeds := unit * qty
	slot.p.RemoveItem(item, qty)
	slot.p.Credit(proceeds)

	g.journal.Add(g.turn, fmt.Sprintf("%s sold %d %s to the bank for %d", slot.p.Name, qty, item, proceeds))
	return proceeds, nil
}

// ratioOf returns trunc(price × ratio).
func ratioOf(price int64, ratio decimal.Decimal) int64 {
	return decimal.NewFromInt(price).Mul(ratio).IntPart()
}

// sortedPlayers returns the players in registration order.
func (g *Game) sortedPlayers() []*domain.Player {
	out := make([]*domain.Player, len(g.players))
	for i, s := range g.players {
		out[i] = s.p
	}
	return out
}

// PlayerView is one row of the admin snapshot.
type PlayerView struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Cash       int64            `json:"cash"`
	LandUsed   int              `json:"land_used"`
	LandLimit  int              `json:"land_limit"`
	Inventory  map[string]int64 `json:"inventory"`
	Facilities int              `json:"facilities"`
}

// Snapshot is a read-only view of the whole game.
type Snapshot struct {
	GameID   string            `json:"game_id"`
	Turn     int               `json:"turn"`
	Phase    string            `json:"phase"`
	News     *domain.NewsEvent `json:"news,omitempty"`
	Gov      *domain.GovEvent  `json:"gov,omitempty"`
	Prices   map[string]int64  `json:"prices"`
	Players  []PlayerView      `json:"players"` // richest first
	Journal  []event.Entry     `json:"journal"`
	Rankings []Ranking         `json:"rankings,omitempty"`
}

// Snapshot returns the admin view of the game.
func (g *Game) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	views := make([]PlayerView, 0, len(g.players))
	for _, slot := range g.players {
		slot.mu.Lock()
		p := slot.p.Clone()
		slot.mu.Unlock()
		views = append(views, PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Cash:       p.Cash,
			LandUsed:   len(p.Facilities),
			LandLimit:  p.LandLimit,
			Inventory:  p.Inventory,
			Facilities: len(p.Facilities),
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Cash > views[j].Cash
	})

	return Snapshot{
		GameID:   g.id,
		Turn:     g.turn,
		Phase:    g.phase.String(),
		News:     g.news,
		Gov:      g.gov,
		Prices:   g.market.Snapshot(),
		Players:  views,
		Journal:  g.journal.Entries(),
		Rankings: append([]Ranking(nil), g.rankings...),
	}
}

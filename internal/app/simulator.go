package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"business_war/internal/domain"
	"business_war/internal/engine"
	"business_war/internal/strategy"

	"github.com/shopspring/decimal"
)

// Bot is a simulated player driven by one or more strategies.
type Bot struct {
	ID         string
	Name       string
	Kind       string
	strategies []strategy.Strategy
}

// Simulator plays a game with bots, publishing every phase report.
type Simulator struct {
	mu          sync.Mutex // serialises Step and Restart
	game        *engine.Game
	rng         strategy.Rand
	restarted   chan struct{}
	pub         *Publisher
	logger      *slog.Logger
	bots        []*Bot
	minerOutput int64
	bankAbove   int64 // raw units kept before selling to the bank
}

// NewSimulator registers one bot per entry of kinds (momentum, value, random).
func NewSimulator(game *engine.Game, kinds []string, minerOutput int64, rng strategy.Rand, pub *Publisher, logger *slog.Logger) (*Simulator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulator{
		game:        game,
		rng:         rng,
		restarted:   make(chan struct{}, 1),
		pub:         pub,
		logger:      logger,
		minerOutput: minerOutput,
		bankAbove:   3 * game.Rules().Storage.BaseCapacity,
	}

	for i, kind := range kinds {
		strats, err := s.newStrategies(kind)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("%s-%d", kind, i+1)
		id, err := game.RegisterPlayer(name)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
		s.bots = append(s.bots, &Bot{ID: id, Name: name, Kind: kind, strategies: strats})
	}
	return s, nil
}

func (s *Simulator) newStrategies(kind string) ([]strategy.Strategy, error) {
	var strats []strategy.Strategy
	switch kind {
	case "momentum":
		for _, item := range s.game.Catalog().ItemIDs() {
			strats = append(strats, strategy.NewSMACrossStrategy(item, 2, 4, 5))
		}
	case "value":
		strats = append(strats, strategy.NewValueStrategy(decimal.RequireFromString("0.1"), 5))
	case "random":
		strats = append(strats, strategy.NewRandomStrategy(s.rng, 5))
	default:
		return nil, fmt.Errorf("unknown bot kind %q", kind)
	}
	return strats, nil
}

// Restart resets the game to turn 1 and registers the bots again with
// fresh strategy state. A finished Run can then be started again; see
// Restarted.
func (s *Simulator) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, lines := s.game.Reset()
	for _, bot := range s.bots {
		strats, err := s.newStrategies(bot.Kind)
		if err != nil {
			return err
		}
		id, err := s.game.RegisterPlayer(bot.Name)
		if err != nil {
			return fmt.Errorf("register %s: %w", bot.Name, err)
		}
		bot.ID, bot.strategies = id, strats
	}
	s.logger.Info("🔄 Simulation restarted", slog.String("game_id", s.game.ID()), slog.Int("bots", len(s.bots)))

	if s.pub != nil {
		news, gov := s.game.Events()
		r := engine.PhaseReport{
			GameID: s.game.ID(),
			Turn:   s.game.Turn(),
			Phase:  s.game.Phase(),
			Lines:  lines,
			Prices: s.game.Prices(),
			News:   news,
			Gov:    gov,
		}
		if err := s.pub.Publish(ctx, r); err != nil {
			s.logger.Error("Failed to publish reset report", slog.Any("error", err))
		}
	}

	select {
	case s.restarted <- struct{}{}:
	default:
	}
	return nil
}

// Restarted signals every Restart.
func (s *Simulator) Restarted() <-chan struct{} {
	return s.restarted
}

// Bots returns the registered bots.
func (s *Simulator) Bots() []*Bot {
	return s.bots
}

// Run advances the game until it ends or ctx is cancelled, pausing tick
// between phases.
func (s *Simulator) Run(ctx context.Context, tick time.Duration) ([]engine.Ranking, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.Step(ctx)
		if err != nil {
			return nil, err
		}
		if r.Phase == domain.PhaseEnded {
			return r.Rankings, nil
		}
		if tick > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(tick):
			}
		}
	}
}

// Step lets the bots act for the current phase, then advances it.
func (s *Simulator) Step(ctx context.Context) (engine.PhaseReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.game.Phase() {
	case domain.PhaseAction:
		s.produce()
	case domain.PhaseTrading:
		s.trade()
	}

	r, err := s.game.AdvancePhase()
	if err != nil {
		return r, err
	}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, r); err != nil {
			s.logger.Error("Failed to publish phase report", slog.Int("turn", r.Turn), slog.Any("error", err))
		}
	}
	return r, nil
}

// produce runs every idle miner and sells surplus raw materials to the bank.
func (s *Simulator) produce() {
	catalog := s.game.Catalog()
	for _, bot := range s.bots {
		err := s.game.WithPlayer(bot.ID, func(p *domain.Player) error {
			for _, f := range p.Facilities {
				if f.Kind != domain.FacilityMiner || f.HasActed || f.Shutdown || f.Product == "" {
					continue
				}
				p.AddItem(f.Product, s.minerOutput*int64(f.Tier+1))
				f.HasActed = true
			}
			return nil
		})
		if err != nil {
			s.logger.Warn("Production failed", slog.String("bot", bot.Name), slog.Any("error", err))
			continue
		}

		p, err := s.game.Player(bot.ID)
		if err != nil {
			continue
		}
		for _, item := range p.ItemIDs() {
			def, ok := catalog.Item(item)
			if !ok || !def.IsRaw() {
				continue
			}
			if surplus := p.Held(item) - s.bankAbove; surplus > 0 {
				if _, err := s.game.SellToBank(bot.ID, item, surplus); err != nil {
					s.logger.Debug("Bank sale rejected", slog.String("bot", bot.Name), slog.Any("error", err))
				}
			}
		}
	}
}

// trade asks every strategy for orders and submits them, then offers
// holdings to an active government acquisition.
func (s *Simulator) trade() {
	catalog := s.game.Catalog()
	prices := s.game.Prices()
	turn := s.game.Turn()
	_, gov := s.game.Events()

	for _, bot := range s.bots {
		p, err := s.game.Player(bot.ID)
		if err != nil {
			continue
		}
		cash := p.Cash

		for _, item := range catalog.ItemIDs() {
			def, _ := catalog.Item(item)
			view := strategy.MarketView{
				Turn:      turn,
				ItemID:    item,
				Price:     prices[item],
				BasePrice: def.BasePrice,
				Held:      p.Held(item),
				Cash:      cash,
			}
			for _, st := range bot.strategies {
				for _, a := range st.OnMarketUpdate(view) {
					o, ok := toOrder(a, view)
					if !ok {
						continue
					}
					if _, err := s.game.SubmitOrder(bot.ID, o); err != nil {
						s.logger.Debug("Bot order rejected",
							slog.String("bot", bot.Name),
							slog.String("reason", err.Error()))
						continue
					}
					if o.IsBuy() {
						cash -= o.Price * o.Quantity
						view.Cash = cash
					} else {
						view.Held -= o.Quantity
					}
				}
			}
		}

		if gov != nil {
			s.offerToGovernment(bot, gov, prices)
		}
	}
}

func (s *Simulator) offerToGovernment(bot *Bot, gov *domain.GovEvent, prices map[string]int64) {
	p, err := s.game.Player(bot.ID)
	if err != nil {
		return
	}
	for _, item := range gov.Targets {
		held := p.Held(item)
		if held <= 0 || prices[item] <= 0 {
			continue
		}
		o := domain.Order{Side: domain.SideGovAsk, ItemID: item, Price: prices[item], Quantity: held}
		if _, err := s.game.SubmitOrder(bot.ID, o); err != nil {
			var rej *domain.RejectionError
			if !errors.As(err, &rej) {
				s.logger.Warn("Government offer failed", slog.String("bot", bot.Name), slog.Any("error", err))
			}
		}
	}
}

// toOrder clamps an action to what the bot can afford or holds.
func toOrder(a strategy.Action, view strategy.MarketView) (domain.Order, bool) {
	if a.Price <= 0 || a.Qty <= 0 {
		return domain.Order{}, false
	}
	o := domain.Order{ItemID: a.ItemID, Price: a.Price}
	switch a.Type {
	case strategy.ActionBuy:
		o.Side = domain.SideBid
		o.Quantity = min(a.Qty, view.Cash/a.Price)
	case strategy.ActionSell:
		o.Side = domain.SideAsk
		o.Quantity = min(a.Qty, view.Held)
	default:
		return domain.Order{}, false
	}
	return o, o.Quantity > 0
}

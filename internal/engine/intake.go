package engine

import (
	"fmt"
	"log/slog"

	"business_war/internal/domain"

	"github.com/shopspring/decimal"
)

// LockOrder validates an order against the player's free assets and, if
// valid, locks the assets, stamps the order with a sequence number and places
// a copy in the book it belongs to, so the next barrier either fills or
// refunds it. A rejection leaves all state untouched.
func (g *Game) LockOrder(playerID string, o *domain.Order) (bool, string) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	slot, ok := g.byID[playerID]
	if !ok {
		return false, domain.Reject(domain.RejectUnknownPlayer, "unknown player %q", playerID).Message
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if err := g.lockOrder(slot.p, o); err != nil {
		g.rec.OrderRejected(err.Kind.String())
		return false, err.Message
	}
	g.place(*o)
	return true, fmt.Sprintf("%s %d %s @ %d locked", o.Side, o.Quantity, o.ItemID, o.Price)
}

// SubmitOrder runs the Trading-phase checks, locks the order's assets and
// places it in the general or government book. It returns the stamped order.
func (g *Game) SubmitOrder(playerID string, o domain.Order) (domain.Order, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	o.PlayerID = playerID
	if err := g.checkSubmission(&o); err != nil {
		g.rec.OrderRejected(err.Kind.String())
		return o, err
	}

	slot, ok := g.byID[playerID]
	if !ok {
		err := domain.Reject(domain.RejectUnknownPlayer, "unknown player %q", playerID)
		g.rec.OrderRejected(err.Kind.String())
		return o, err
	}

	slot.mu.Lock()
	err := g.lockOrder(slot.p, &o)
	slot.mu.Unlock()
	if err != nil {
		g.rec.OrderRejected(err.Kind.String())
		g.logger.Debug("Order rejected",
			slog.String("player_id", playerID),
			slog.String("reason", err.Error()))
		return o, err
	}

	g.place(o)
	return o, nil
}

// place appends an accepted order to its book.
// Must be called with the read lock held.
func (g *Game) place(o domain.Order) {
	g.bookMu.Lock()
	if o.Side == domain.SideGovAsk {
		g.govBook = append(g.govBook, &o)
	} else {
		g.book = append(g.book, &o)
	}
	g.bookMu.Unlock()

	g.rec.OrderAccepted(string(o.Side))
}

// checkSubmission applies the rules that depend on the turn's events.
// Must be called with the read lock held.
func (g *Game) checkSubmission(o *domain.Order) *domain.RejectionError {
	if g.phase != domain.PhaseTrading {
		return domain.Reject(domain.RejectWrongPhase, "orders are accepted during %s, now %s", domain.PhaseTrading, g.phase)
	}
	if g.news != nil && g.news.Type == domain.EventTradeBan && g.news.Target == o.ItemID {
		return domain.Reject(domain.RejectTradeBanned, "%s cannot be traded this turn (%s)", o.ItemID, g.news.Title)
	}
	if o.Side != domain.SideGovAsk {
		return nil
	}
	if g.gov == nil {
		return domain.Reject(domain.RejectNoGovEvent, "no government acquisition this turn")
	}
	if !g.gov.HasTarget(o.ItemID) {
		return domain.Reject(domain.RejectNotGovTarget, "%s does not buy %s", g.gov.Title, o.ItemID)
	}
	if ceiling := ratioOf(g.market.Price(o.ItemID), g.rules.GovBuyRatio); o.Price > ceiling {
		return domain.Reject(domain.RejectGovPriceTooHigh, "government pays at most %d for %s, asked %d", ceiling, o.ItemID, o.Price)
	}
	return nil
}

// lockOrder is the validate-then-apply core of intake.
// Must be called with the read lock and the player's mutex held.
func (g *Game) lockOrder(p *domain.Player, o *domain.Order) *domain.RejectionError {
	if o.Quantity <= 0 {
		return domain.Reject(domain.RejectInvalidQuantity, "quantity must be positive, got %d", o.Quantity)
	}
	if o.Price <= 0 {
		return domain.Reject(domain.RejectInvalidPrice, "price must be positive, got %d", o.Price)
	}
	if _, ok := g.catalog.Item(o.ItemID); !ok {
		return domain.Reject(domain.RejectUnknownItem, "unknown item %q", o.ItemID)
	}

	switch o.Side {
	case domain.SideBid, domain.SideAsk:
		lo, hi := priceBand(g.market.Price(o.ItemID), g.rules.PriceBand)
		if o.Price < lo || o.Price > hi {
			return domain.Reject(domain.RejectPriceOutOfBand, "price %d outside %d..%d", o.Price, lo, hi)
		}
	case domain.SideGovAsk:
		// government asks are capped at submission, not banded
	default:
		return domain.Reject(domain.RejectInvalidPrice, "unknown side %q", o.Side)
	}

	if o.IsBuy() {
		// price × qty > cash, without overflowing
		if o.Quantity > p.Cash/o.Price {
			return domain.Reject(domain.RejectInsufficientCash, "need %d × %d, cash %d", o.Price, o.Quantity, p.Cash)
		}
		p.LockCash(o.Price * o.Quantity)
	} else {
		if held := p.Held(o.ItemID); held < o.Quantity {
			return domain.Reject(domain.RejectInsufficientInventory, "need %d %s, hold %d", o.Quantity, o.ItemID, held)
		}
		p.LockItem(o.ItemID, o.Quantity)
	}

	o.PlayerID = p.ID
	o.Seq = g.seq.Add(1)
	return nil
}

// priceBand returns the inclusive [trunc(ref×(1−band)), trunc(ref×(1+band))] range.
func priceBand(ref int64, band decimal.Decimal) (int64, int64) {
	r := decimal.NewFromInt(ref)
	lo := r.Mul(one.Sub(band)).IntPart()
	hi := r.Mul(one.Add(band)).IntPart()
	return lo, hi
}

var one = decimal.NewFromInt(1)

// unwindBooks refunds every resting order and empties both books.
// Must be called with the write lock held.
func (g *Game) unwindBooks() int {
	n := 0
	for _, o := range append(g.book, g.govBook...) {
		slot, ok := g.byID[o.PlayerID]
		if !ok {
			continue
		}
		refund(slot.p, o, o.Quantity)
		n++
	}
	g.book = nil
	g.govBook = nil
	return n
}

// refund returns rem units of an order's locked assets to the player.
func refund(p *domain.Player, o *domain.Order, rem int64) {
	if rem <= 0 {
		return
	}
	if o.IsBuy() {
		p.ReleaseCash(rem * o.Price)
	} else {
		p.ReleaseItem(o.ItemID, rem)
	}
}

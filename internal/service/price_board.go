package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"business_war/internal/engine"

	"github.com/shopspring/decimal"
)

// PricePoint is one observed reference price.
type PricePoint struct {
	Turn   int   `json:"turn"`
	Price  int64 `json:"price"`
	Volume int64 `json:"volume"`
}

// ItemQuote is the board entry of one item.
type ItemQuote struct {
	ItemID    string           `json:"item_id"`
	Price     int64            `json:"price"`
	PrevPrice int64            `json:"prev_price"`
	Volume    int64            `json:"volume"`
	Change    *decimal.Decimal `json:"change,omitempty"` // percent vs previous price
	History   []PricePoint     `json:"history"`
}

// PriceBoard keeps the latest reference prices and a bounded history per
// item, built from phase reports.
type PriceBoard struct {
	mu         sync.RWMutex
	quotes     map[string]*ItemQuote
	historyLen int
	reportChan chan engine.PhaseReport
}

// NewPriceBoard creates a board retaining historyLen points per item.
func NewPriceBoard(historyLen int) *PriceBoard {
	if historyLen <= 0 {
		historyLen = 1
	}
	return &PriceBoard{
		quotes:     make(map[string]*ItemQuote),
		historyLen: historyLen,
		reportChan: make(chan engine.PhaseReport, 64),
	}
}

// GetAll returns copies of every quote sorted by item id.
func (b *PriceBoard) GetAll() []ItemQuote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]ItemQuote, 0, len(b.quotes))
	for _, q := range b.quotes {
		result = append(result, copyQuote(q))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ItemID < result[j].ItemID
	})
	return result
}

// Get returns the quote of one item.
func (b *PriceBoard) Get(itemID string) (ItemQuote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q, ok := b.quotes[itemID]
	if !ok {
		return ItemQuote{}, false
	}
	return copyQuote(q), true
}

// ReportChan returns the channel for asynchronous report delivery. Reports
// sent on it are applied by the goroutine started with StartProcessor.
func (b *PriceBoard) ReportChan() chan<- engine.PhaseReport {
	return b.reportChan
}

// StartProcessor applies reports from the channel until ctx is done.
func (b *PriceBoard) StartProcessor(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-b.reportChan:
				b.Apply(r)
			}
		}
	}()
}

// Apply folds a phase report into the board. A point is recorded when the
// price moves or the item traded.
func (b *PriceBoard) Apply(r engine.PhaseReport) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for item, price := range r.Prices {
		q, exists := b.quotes[item]
		if !exists {
			q = &ItemQuote{ItemID: item, Price: price, PrevPrice: price}
			q.History = append(q.History, PricePoint{Turn: r.Turn, Price: price})
			b.quotes[item] = q
			continue
		}

		volume := r.Volumes[item]
		if price == q.Price && volume == 0 {
			continue
		}
		q.PrevPrice = q.Price
		q.Price = price
		q.Volume = volume
		q.History = append(q.History, PricePoint{Turn: r.Turn, Price: price, Volume: volume})
		if over := len(q.History) - b.historyLen; over > 0 {
			q.History = append(q.History[:0:0], q.History[over:]...)
		}
		b.calculateChange(q)
	}
	slog.Debug("Price board updated", slog.Int("turn", r.Turn), slog.Int("items", len(b.quotes)))
}

// calculateChange sets Change to 100 × (price − prev) / prev.
// Must be called with lock held.
func (b *PriceBoard) calculateChange(q *ItemQuote) {
	if q.PrevPrice == 0 {
		q.Change = nil
		return
	}
	prev := decimal.NewFromInt(q.PrevPrice)
	change := decimal.NewFromInt(q.Price).Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
	q.Change = &change
}

func copyQuote(q *ItemQuote) ItemQuote {
	c := *q
	c.History = append([]PricePoint(nil), q.History...)
	if q.Change != nil {
		ch := *q.Change
		c.Change = &ch
	}
	return c
}

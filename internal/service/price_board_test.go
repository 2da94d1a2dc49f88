package service

import (
	"context"
	"testing"
	"time"

	"business_war/internal/domain"
	"business_war/internal/engine"

	"github.com/shopspring/decimal"
)

func report(turn int, prices, volumes map[string]int64) engine.PhaseReport {
	return engine.PhaseReport{Turn: turn, Phase: domain.PhaseSettlement, Prices: prices, Volumes: volumes}
}

func TestPriceBoard_Apply(t *testing.T) {
	b := NewPriceBoard(10)

	b.Apply(report(1, map[string]int64{"steel": 100, "sand": 50}, nil))
	b.Apply(report(1, map[string]int64{"steel": 110, "sand": 50}, map[string]int64{"steel": 8}))

	steel, ok := b.Get("steel")
	if !ok {
		t.Fatal("steel should exist")
	}
	if steel.Price != 110 || steel.PrevPrice != 100 || steel.Volume != 8 {
		t.Errorf("unexpected quote %+v", steel)
	}
	if steel.Change == nil || !steel.Change.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected change 10%%, got %v", steel.Change)
	}
	if len(steel.History) != 2 {
		t.Errorf("expected 2 points, got %d", len(steel.History))
	}

	sand, _ := b.Get("sand")
	if len(sand.History) != 1 {
		t.Errorf("unchanged price without volume should not add a point, got %d", len(sand.History))
	}
}

func TestPriceBoard_HistoryBounded(t *testing.T) {
	b := NewPriceBoard(3)
	for turn := 1; turn <= 6; turn++ {
		b.Apply(report(turn, map[string]int64{"chip": int64(100 + turn)}, nil))
	}

	q, _ := b.Get("chip")
	want := []int64{104, 105, 106}
	if len(q.History) != len(want) {
		t.Fatalf("expected %v, got %v", want, q.History)
	}
	for i := range want {
		if q.History[i].Price != want[i] {
			t.Errorf("point %d: expected %d, got %d", i, want[i], q.History[i].Price)
		}
	}
}

func TestPriceBoard_GetAll_Sorted(t *testing.T) {
	b := NewPriceBoard(5)
	b.Apply(report(1, map[string]int64{"steel": 1, "beam": 2, "robot": 3}, nil))

	all := b.GetAll()
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	if all[0].ItemID != "beam" || all[1].ItemID != "robot" || all[2].ItemID != "steel" {
		t.Errorf("not sorted: %s, %s, %s", all[0].ItemID, all[1].ItemID, all[2].ItemID)
	}
}

func TestPriceBoard_ReturnsCopies(t *testing.T) {
	b := NewPriceBoard(5)
	b.Apply(report(1, map[string]int64{"steel": 100}, nil))

	q, _ := b.Get("steel")
	q.History[0].Price = 999

	again, _ := b.Get("steel")
	if again.History[0].Price != 100 {
		t.Error("board history was mutated through a returned quote")
	}
	if _, ok := b.Get("missing"); ok {
		t.Error("unknown item should have no quote")
	}
}

func TestPriceBoard_AsyncReports(t *testing.T) {
	b := NewPriceBoard(5)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b.StartProcessor(ctx)
	b.ReportChan() <- report(2, map[string]int64{"steel": 120}, nil)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if q, ok := b.Get("steel"); ok && q.Price == 120 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("report from channel was not applied")
}

package event

import (
	"fmt"
	"sync"
	"testing"
)

func TestJournal_NewestFirst(t *testing.T) {
	j := NewJournal(3)

	j.Add(1, "a")
	j.Add(1, "b")
	entries := j.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "b" || entries[1].Message != "a" {
		t.Errorf("Expected [b a], got [%s %s]", entries[0].Message, entries[1].Message)
	}
}

func TestJournal_Bounded(t *testing.T) {
	j := NewJournal(3)

	j.AddAll(2, []string{"1", "2", "3", "4", "5"})

	entries := j.Entries()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	want := []string{"5", "4", "3"}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], e.Message)
		}
		if e.Turn != 2 {
			t.Errorf("entry %d: expected turn 2, got %d", i, e.Turn)
		}
	}
}

func TestJournal_Clear(t *testing.T) {
	j := NewJournal(2)
	j.Add(1, "x")
	j.Clear()

	if j.Len() != 0 || len(j.Entries()) != 0 {
		t.Error("Expected empty journal after Clear")
	}
	j.Add(1, "y")
	if got := j.Entries()[0].Message; got != "y" {
		t.Errorf("Expected y, got %s", got)
	}
}

func TestJournal_Concurrent(t *testing.T) {
	j := NewJournal(100)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				j.Add(w, fmt.Sprintf("%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	if j.Len() != 100 {
		t.Errorf("Expected journal capped at 100, got %d", j.Len())
	}
}

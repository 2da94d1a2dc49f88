package event

import (
	"sync"
	"time"
)

// Entry is one journal message.
type Entry struct {
	Turn    int       `json:"turn"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Journal is a bounded, thread-safe log of game messages.
// Old entries are dropped once the capacity is reached.
type Journal struct {
	mu      sync.Mutex
	entries []Entry // ring buffer
	head    int     // next write position
	count   int
	clock   func() time.Time
}

// NewJournal creates a journal holding at most size entries.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = 1
	}
	return &Journal{
		entries: make([]Entry, size),
		clock:   time.Now,
	}
}

// Add appends a message.
func (j *Journal) Add(turn int, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[j.head] = Entry{Turn: turn, Message: message, At: j.clock()}
	j.head = (j.head + 1) % len(j.entries)
	if j.count < len(j.entries) {
		j.count++
	}
}

// AddAll appends messages in order.
func (j *Journal) AddAll(turn int, messages []string) {
	for _, m := range messages {
		j.Add(turn, m)
	}
}

// Entries returns the retained messages, newest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Entry, 0, j.count)
	idx := j.head
	for i := 0; i < j.count; i++ {
		idx--
		if idx < 0 {
			idx = len(j.entries) - 1
		}
		out = append(out, j.entries[idx])
	}
	return out
}

// Len returns the number of retained entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// Clear drops every entry.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	clear(j.entries)
	j.head = 0
	j.count = 0
}

package faults

import (
	"sync"
	"time"
)

// Record is one entry in the error history.
type Record struct {
	Time        time.Time
	Message     string
	Category    Category
	Suggestions []string
}

// History keeps failures in arrival order. It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	records []Record
	now     func() time.Time
}

// NewHistory constructs an empty history. now may be nil to use the wall clock.
func NewHistory(now func() time.Time) *History {
	if now == nil {
		now = time.Now
	}
	return &History{now: now}
}

// Add classifies message, appends it, and returns the stored record.
func (h *History) Add(message string) Record {
	category := Classify(message)
	rec := Record{
		Time:        h.now(),
		Message:     message,
		Category:    category,
		Suggestions: Suggestions(message),
	}
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	return rec
}

// Entries returns a copy of the recorded failures, oldest first.
func (h *History) Entries() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	for i, rec := range h.records {
		rec.Suggestions = append([]string(nil), rec.Suggestions...)
		out[i] = rec
	}
	return out
}

// Len reports the number of recorded failures.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Clear drops every record.
func (h *History) Clear() {
	h.mu.Lock()
	h.records = nil
	h.mu.Unlock()
}

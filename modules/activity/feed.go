package activity

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept when no capacity is given.
const DefaultCapacity = 100

// Entry is a single task activity record.
type Entry struct {
	Type      string    `json:"type"`
	TaskID    string    `json:"taskId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed keeps the most recent entries up to a fixed capacity.
type Feed struct {
	entries  []Entry
	capacity int
	mu       sync.RWMutex
}

// NewFeed creates a feed holding at most capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Record appends an entry, dropping the oldest one when full.
func (f *Feed) Record(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.entries) == f.capacity {
		copy(f.entries, f.entries[1:])
		f.entries = f.entries[:len(f.entries)-1]
	}
	f.entries = append(f.entries, e)
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (f *Feed) Recent(limit int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	result := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, f.entries[i])
	}
	return result
}

// Len returns the number of stored entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

package logging

import (
	"sync"
	"time"
)

// LogEntry is one captured record. The buffer keeps entries below the
// configured output level too, so the lead-up to a failure is available
// even when stdout only shows warnings.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer holds the most recent log entries. Safe for concurrent use.
type RingBuffer struct {
	entries []LogEntry
	size    int
	head    int
	count   int
	mu      sync.RWMutex
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		entries: make([]LogEntry, size),
		size:    size,
	}
}

// Write stores an entry, evicting the oldest once full.
func (rb *RingBuffer) Write(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.head] = entry
	rb.head = (rb.head + 1) % rb.size

	if rb.count < rb.size {
		rb.count++
	}
}

// ReadAll returns every held entry in chronological order.
func (rb *RingBuffer) ReadAll() []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.read(rb.count)
}

// Tail returns the most recent n entries in chronological order.
func (rb *RingBuffer) Tail(n int) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if n > rb.count {
		n = rb.count
	}
	return rb.read(n)
}

// read copies the newest n entries; caller holds the lock.
func (rb *RingBuffer) read(n int) []LogEntry {
	if n <= 0 {
		return nil
	}

	result := make([]LogEntry, 0, n)
	start := rb.head - n
	if rb.count < rb.size {
		// Not wrapped yet: head is also the write count.
		start = rb.count - n
	}
	for i := 0; i < n; i++ {
		result = append(result, rb.entries[((start+i)%rb.size+rb.size)%rb.size])
	}
	return result
}

// Count returns the number of held entries.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

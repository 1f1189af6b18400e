// Package history provides a small, thread-safe cache of the most recent
// accepted webhook requests and the responses they produced. It backs the
// /recent diagnostic page.
//
// The cache is an explicitly constructed value injected into the HTTP layer
// (no package-level state), so tests can run isolated instances. Entries are
// immutable after insertion and owned exclusively by the cache; once capacity
// is exceeded the oldest entry is dropped silently. The internal mutex is
// held only for the duration of a push or a snapshot copy, never across
// parsing, logging, or persistence I/O.
package history

import (
	"sync"

	"github.com/tbourn/go-sms-webhook/internal/domain"
)

// DefaultCapacity is the number of entries retained when no explicit
// capacity is configured.
const DefaultCapacity = 5

// Entry is one retained request/response pair.
type Entry struct {
	// ReceivedAt is the receipt time recorded for the request.
	ReceivedAt string `json:"received_at"`
	// Request is the snapshot of the inbound fields (form or JSON).
	Request map[string]string `json:"request"`
	// Parsed is the transaction extracted from the message.
	Parsed domain.ParsedTransaction `json:"parsed"`
	// Response is the body returned to the sender.
	Response any `json:"response"`
}

// Recent is a fixed-capacity, insertion-ordered buffer of Entry values.
// It is safe for concurrent use.
type Recent struct {
	mu      sync.Mutex
	entries []Entry // oldest first; Snapshot reverses
	max     int
}

// New creates a Recent cache holding up to capacity entries.
// Capacities <= 0 fall back to DefaultCapacity.
func New(capacity int) *Recent {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recent{max: capacity}
}

// Push records an entry as the newest, evicting the oldest entry when the
// buffer is full. O(1).
func (r *Recent) Push(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= r.max {
		r.entries = r.entries[1:]
	}
	r.entries = append(r.entries, e)
}

// Snapshot returns a copy of the current contents, newest first. The copy is
// safe to read concurrently with further pushes; later mutations never alter
// a previously returned slice.
func (r *Recent) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[len(r.entries)-1-i] = e
	}
	return out
}

// Len reports the number of retained entries.
func (r *Recent) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

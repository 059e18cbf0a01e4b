package loom

import (
	"fmt"
	"sync"
	"time"
)

// Entry is one raw stage response captured by the audit tap.
type Entry struct {
	// Stage is the name of the stage that produced the response.
	Stage string

	// Raw is the unmodified stage response.
	Raw any

	// At is when the entry was appended.
	At time.Time
}

// Text returns the entry's response as a string.
func (e Entry) Text() string {
	if s, ok := e.Raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", e.Raw)
}

// Snippet returns at most n runes of the entry's text, with an ellipsis
// when truncated.
func (e Entry) Snippet(n int) string {
	text := e.Text()
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// AuditLog is the append-only, ordered record of raw stage responses for a
// single pipeline invocation. The driver appends each free-text stage's
// response before the next stage is invoked; there is no deferral,
// batching, or size bound. A fresh log is created per invocation, so no
// state leaks across runs.
type AuditLog struct {
	mu      sync.Mutex
	entries []Entry
}

// NewAuditLog creates an empty audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// Append records an entry. Appends are atomic.
func (l *AuditLog) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log in append order.
func (l *AuditLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries in the log.
func (l *AuditLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

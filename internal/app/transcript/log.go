package transcript

import (
	"sync"

	"github.com/dkeye/Scribe/internal/domain"
)

// Log is an append-only, arrival-ordered transcript for one room session.
// It never reorders, deduplicates or evicts entries.
type Log struct {
	mu      sync.RWMutex
	entries []domain.TranscriptEntry
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(e domain.TranscriptEntry) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return len(l.entries)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a copy safe to hold after further appends.
func (l *Log) Entries() []domain.TranscriptEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.TranscriptEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns the entries appended after the first n.
func (l *Log) Since(n int) []domain.TranscriptEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n >= len(l.entries) {
		return nil
	}
	out := make([]domain.TranscriptEntry, len(l.entries)-n)
	copy(out, l.entries[n:])
	return out
}

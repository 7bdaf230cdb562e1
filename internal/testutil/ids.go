package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs generates "<prefix>-1", "<prefix>-2", ... without ever
// running out, for tests that do not care about exact counts.
//
// Thread-safety: SequenceIDs is safe for concurrent use.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs creates a generator. An empty prefix defaults to "change".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "change"
	}
	return &SequenceIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

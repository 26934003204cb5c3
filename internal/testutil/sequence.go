package testutil

import (
	"fmt"
	"sync"
)

// Sequence hands out deterministic item identities: PREFIX-1, PREFIX-2, ...
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequence creates a sequence. The first call to Next() returns
// prefix + "-1".
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next increments the counter and returns the next identity.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

// Current returns the number of identities handed out.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Reset restarts the sequence. After Reset(), Next() returns prefix + "-1".
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}

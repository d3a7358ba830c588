package services

import (
	"sync"

	"github.com/google/uuid"
)

type latchKey struct {
	challengeID uuid.UUID
	userID      uuid.UUID
	process     string
}

// processLatch is a keyed non-reentrant guard. A process (sync, finalize)
// acquires the key for its challenge before running and releases it when done,
// so a second trigger while a storage round-trip is outstanding becomes a
// no-op instead of a concurrent re-entry. It guards a single process instance
// only; cross-process safety comes from the storage layer's uniqueness
// constraint and status transitions.
type processLatch struct {
	mu   sync.Mutex
	held map[latchKey]bool
}

func newProcessLatch() *processLatch {
	return &processLatch{held: make(map[latchKey]bool)}
}

func (l *processLatch) tryAcquire(k latchKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[k] {
		return false
	}
	l.held[k] = true
	return true
}

func (l *processLatch) release(k latchKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, k)
}

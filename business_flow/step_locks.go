package businessflow

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// stepLocks serializes saves per (application, step). Concurrent saves to the
// same step must be ordered so version checks observe a consistent store;
// saves to different steps stay independent.
type stepLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newStepLocks() *stepLocks {
	return &stepLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *stepLocks) lock(applicationUUID uuid.UUID, stepNumber int) func() {
	key := fmt.Sprintf("%s:%d", applicationUUID, stepNumber)

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

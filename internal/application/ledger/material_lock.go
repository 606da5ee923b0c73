package ledger

import (
	"sync"

	"github.com/google/uuid"
)

// materialLock serializes postings per material/plant. The moving-average
// recalculation is a read-modify-write over the price records, so two
// postings to the same material must not interleave within this process;
// cross-process writers are caught by the repository version check.
type materialLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMaterialLock() *materialLock {
	return &materialLock{locks: make(map[string]*sync.Mutex)}
}

func (l *materialLock) key(materialID, plantID uuid.UUID) string {
	return materialID.String() + ":" + plantID.String()
}

// Lock acquires the mutex for one material/plant and returns its unlock func
func (l *materialLock) Lock(materialID, plantID uuid.UUID) func() {
	key := l.key(materialID, plantID)

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

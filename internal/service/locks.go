package service

import (
	"sync"

	"github.com/google/uuid"
)

// lockRegistry serializes adjudication per solicitation. Entries are
// created on first acquire and removed once no holder remains, so the map
// does not grow with the number of solicitations ever seen.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	held bool
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[uuid.UUID]*lockEntry)}
}

// TryAcquire attempts to take the exclusive lock for the given id without
// blocking. It returns false when another adjudication holds it.
func (r *lockRegistry) TryAcquire(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.locks[id]
	if !ok {
		r.locks[id] = &lockEntry{held: true}
		return true
	}
	if entry.held {
		return false
	}
	entry.held = true
	return true
}

func (r *lockRegistry) Release(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, id)
}

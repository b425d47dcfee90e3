package blobstore

import "sync"

// Backend is the keyed collection of live pages. It holds no eviction
// policy of its own: it is purely a map behind a single RWMutex.
// Reclamation is driven entirely by the decay protocol in Store.
type Backend struct {
	mu    sync.RWMutex
	pages map[uint32]*Page
}

func newBackend() *Backend {
	return &Backend{pages: make(map[uint32]*Page)}
}

// Allocate installs a fresh page at id if one isn't already present.
// It is idempotent: if a live page already holds id, the call leaves
// that page (and its generation) in place and does nothing.
func (b *Backend) Allocate(id, capacity, generation uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.pages[id]; exists {
		return
	}
	b.pages[id] = newPage(id, capacity, generation)
}

// Get returns the page at id, if any.
func (b *Backend) Get(id uint32) (*Page, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.pages[id]
	return p, ok
}

// Remove deletes the page at id, reporting whether one was present.
func (b *Backend) Remove(id uint32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.pages[id]; !ok {
		return false
	}
	delete(b.pages, id)
	return true
}

// PageCount returns the number of live pages.
func (b *Backend) PageCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pages)
}

// ActiveIDs returns a snapshot of every live page id, in no particular
// order. Used by the lifecycle driver's sweep.
func (b *Backend) ActiveIDs() []uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]uint32, 0, len(b.pages))
	for id := range b.pages {
		ids = append(ids, id)
	}
	return ids
}

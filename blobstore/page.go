package blobstore

import (
	"sync"
	"sync/atomic"
)

// Page is a fixed-size byte buffer with a lock-free bump allocator and
// a short entry list guarded by an RWMutex. The buffer is allocated
// zeroed (make([]byte, capacity)) rather than left uninitialised: Go
// has no MaybeUninit escape hatch, and the correctness of Get only
// ever depends on reads staying inside the region committed through
// used, which holds either way.
type Page struct {
	id         uint32
	generation uint32
	capacity   uint32
	data       []byte

	used       atomic.Uint32
	emptySince atomic.Int64 // unix ms; 0 means not retired

	mu      sync.RWMutex
	entries []*entryMetadata
}

func newPage(id, capacity, generation uint32) *Page {
	return &Page{
		id:         id,
		generation: generation,
		capacity:   capacity,
		data:       make([]byte, capacity),
	}
}

// TryAppend reserves capacity for the whole of payload via a single
// fetch-add and copies it in place. It never partially writes: either
// the full payload lands, or the reservation is rolled back with a
// matching fetch-sub and errPageFull is returned.
func (p *Page) TryAppend(payload []byte) (offset, size uint32, err error) {
	n := uint32(len(payload))
	if n > p.capacity {
		return 0, 0, &DataTooLargeError{Size: uint64(len(payload)), Max: uint64(p.capacity)}
	}

	reserved := p.used.Add(n) - n
	if reserved+n > p.capacity {
		p.used.Add(^(n - 1)) // fetch-sub n
		return 0, 0, errPageFull
	}

	copy(p.data[reserved:reserved+n], payload)
	p.addEntry(reserved, n)
	p.emptySince.Store(0)

	return reserved, n, nil
}

// TryAppendPartial writes as much of payload as the remaining capacity
// allows and reports how much it actually wrote. It returns errPageFull
// only when the page has no space left at all.
func (p *Page) TryAppendPartial(payload []byte) (offset, written uint32, err error) {
	available := p.AvailableSpace()
	if available == 0 {
		return 0, 0, errPageFull
	}

	toWrite := uint32(len(payload))
	if toWrite > available {
		toWrite = available
	}

	reserved := p.used.Add(toWrite) - toWrite
	copy(p.data[reserved:reserved+toWrite], payload[:toWrite])
	p.addEntry(reserved, toWrite)
	p.emptySince.Store(0)

	return reserved, toWrite, nil
}

func (p *Page) addEntry(offset, size uint32) {
	e := newEntryMetadata(offset, size)
	p.mu.Lock()
	p.entries = append(p.entries, e)
	p.mu.Unlock()
}

// Get returns the byte range [offset, offset+size) of the page's data,
// or ok=false if that range runs past the allocated buffer.
func (p *Page) Get(offset, size uint32) (data []byte, ok bool) {
	end := uint64(offset) + uint64(size)
	if end > uint64(p.capacity) {
		return nil, false
	}
	return p.data[offset:end], true
}

// AvailableSpace reports how many bytes remain before the page is full.
func (p *Page) AvailableSpace() uint32 {
	used := p.used.Load()
	if used >= p.capacity {
		return 0
	}
	return p.capacity - used
}

// Usage returns current fill level as a fraction in [0, 1].
func (p *Page) Usage() float64 {
	return float64(p.used.Load()) / float64(p.capacity)
}

// isFull reports whether usage has reached threshold, a fraction in
// [0, 1]. Store does not call it: the hot page rotates only when
// TryAppend returns errPageFull.
func (p *Page) isFull(threshold float64) bool {
	return p.Usage() >= threshold
}

// IsEmpty reports whether every entry in the page is acknowledged or
// TTL-expired. A page with no entries at all counts as empty.
func (p *Page) IsEmpty(ttlMs uint64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.entries) == 0 {
		return true
	}
	for _, e := range p.entries {
		if !e.isRetired(ttlMs) {
			return false
		}
	}
	return true
}

// MarkEmptyIfNeeded is phase one of decay-based reclamation: if the
// page is currently empty and hasn't been marked yet, it stamps
// emptySince with the current time via compare-and-swap so a
// concurrent caller can't double-stamp it. If the page is no longer
// empty (new data landed after a previous mark), the mark is cleared.
func (p *Page) MarkEmptyIfNeeded(ttlMs uint64) {
	if p.IsEmpty(ttlMs) {
		p.emptySince.CompareAndSwap(0, int64(nowMillis()))
	} else {
		p.emptySince.Store(0)
	}
}

// ShouldDecay is phase two: a page decays once it has been empty for
// longer than decayTimeoutMs since MarkEmptyIfNeeded last stamped it.
func (p *Page) ShouldDecay(decayTimeoutMs, ttlMs uint64) bool {
	if !p.IsEmpty(ttlMs) {
		return false
	}
	emptySince := p.emptySince.Load()
	if emptySince == 0 {
		return false
	}
	return nowMillis()-uint64(emptySince) > decayTimeoutMs
}

// Acknowledge marks the entry at offset as processed, returning false
// if no entry starts at that offset.
func (p *Page) Acknowledge(offset uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, e := range p.entries {
		if e.offset == offset {
			e.acknowledge()
			return true
		}
	}
	return false
}

// ActiveEntryCount reports how many entries are neither acknowledged
// nor TTL-expired.
func (p *Page) ActiveEntryCount(ttlMs uint64) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0
	for _, e := range p.entries {
		if !e.isRetired(ttlMs) {
			count++
		}
	}
	return count
}

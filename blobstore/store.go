// Package blobstore implements the arena: an in-process, append-only
// store that hands out 32-byte Handles for byte payloads of arbitrary
// size and reclaims pages in bulk via decay-based cleanup.
package blobstore

import (
	"container/heap"
	"sync"
	"sync/atomic"

	"github.com/zhukovaskychina/blobarena/logger"
)

// Store is the arena. It owns a Backend of pages, a hot page cursor,
// a high-water mark for fresh allocation, a min-heap of recycled page
// identifiers, a monotonic generation counter, and a lock-free
// Profiler. All fields beyond the backend and free-list mutex are
// single machine words updated with atomics; there is no store-wide
// lock.
type Store struct {
	backend *Backend
	config  Config

	currentPage   atomic.Uint32
	highWaterMark atomic.Uint32

	freeMu    sync.Mutex
	freePages freePageHeap

	generationCounter atomic.Uint32

	profiler *Profiler
}

// New builds an arena and eagerly allocates page 0, its initial hot
// page.
func New(config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		backend:  newBackend(),
		config:   config,
		profiler: newProfiler(),
	}
	heap.Init(&s.freePages)

	if err := s.allocatePage(0); err != nil {
		return nil, wrapErr("New", err)
	}
	return s, nil
}

// allocatePage installs a fresh page at id with a freshly minted
// generation, recording the allocation in the profiler.
func (s *Store) allocatePage(id uint32) error {
	generation := s.generationCounter.Add(1) - 1
	s.backend.Allocate(id, s.config.PageSize, generation)
	s.profiler.RecordPageAllocated(s.config.PageSize)
	return nil
}

// allocateNextAvailablePage prefers recycling a hole from freePages;
// failing that it expands the high-water mark by one and allocates
// fresh space there.
func (s *Store) allocateNextAvailablePage() (uint32, error) {
	s.freeMu.Lock()
	if s.freePages.Len() > 0 {
		recycled := heap.Pop(&s.freePages).(uint32)
		s.freeMu.Unlock()

		if err := s.allocatePage(recycled); err != nil {
			return 0, err
		}
		return recycled, nil
	}
	s.freeMu.Unlock()

	nextID := s.highWaterMark.Add(1)
	if err := s.allocatePage(nextID); err != nil {
		return 0, err
	}
	return nextID, nil
}

// Append stores payload and returns a stable Handle identifying it.
// Payloads no larger than the configured page size take the
// single-page fast path; larger payloads span a freshly allocated
// contiguous run of pages at the high-water mark (multi-page spans
// never draw from the recycled free list, since a contiguous run
// across scattered holes isn't guaranteed to exist).
func (s *Store) Append(payload []byte) (Handle, error) {
	if len(payload) == 0 {
		return Handle{}, &DataTooLargeError{Size: 0, Max: uint64(s.config.PageSize)}
	}

	if uint64(len(payload)) > uint64(s.config.PageSize) {
		return s.appendMultiPage(payload)
	}

	for {
		currentID := s.currentPage.Load()

		page, ok := s.backend.Get(currentID)
		if !ok {
			if err := s.rotateHotPage(currentID); err != nil {
				return Handle{}, err
			}
			continue
		}

		offset, size, err := page.TryAppend(payload)
		switch {
		case err == nil:
			s.profiler.RecordAppend(len(payload))
			return newHandle(currentID, offset, size, page.generation), nil
		case err == errPageFull:
			if err := s.rotateHotPage(currentID); err != nil {
				return Handle{}, err
			}
			continue
		default:
			return Handle{}, err
		}
	}
}

// rotateHotPage allocates a fresh (possibly recycled) page and tries
// to install it as the hot page via compare-and-swap. If another
// goroutine already rotated past currentID, the CAS harmlessly loses
// and the caller's next loop iteration picks up whatever is current.
func (s *Store) rotateHotPage(currentID uint32) error {
	nextID, err := s.allocateNextAvailablePage()
	if err != nil {
		logger.Warnf("blobstore: failed to allocate next page: %v", err)
		return err
	}
	s.currentPage.CompareAndSwap(currentID, nextID)
	return nil
}

// appendMultiPage reserves a contiguous run of fresh page ids at the
// high-water mark sized to fit payload, allocates every page in the
// run, and writes payload across them in order.
func (s *Store) appendMultiPage(payload []byte) (Handle, error) {
	chunkSize := uint64(s.config.PageSize)
	numPages := uint32((uint64(len(payload)) + chunkSize - 1) / chunkSize)

	startID := s.highWaterMark.Add(numPages) - numPages + 1
	endID := startID + numPages - 1

	for id := startID; id <= endID; id++ {
		if err := s.allocatePage(id); err != nil {
			return Handle{}, err
		}
	}

	remaining := payload
	var startOffset uint32
	var firstGeneration uint32

	for id := startID; id <= endID; id++ {
		page, ok := s.backend.Get(id)
		if !ok {
			return Handle{}, wrapErr("appendMultiPage", errPageFull)
		}
		if id == startID {
			firstGeneration = page.generation
		}

		offset, written, err := page.TryAppendPartial(remaining)
		if err != nil {
			return Handle{}, err
		}
		if id == startID {
			startOffset = offset
		}
		remaining = remaining[written:]
	}

	s.profiler.RecordAppend(len(payload))
	s.profiler.RecordMultiPageSpan()

	return newMultiPageHandle(startID, startOffset, endID, uint64(len(payload)), firstGeneration), nil
}

// Get returns the payload referenced by h, or ok=false if the handle
// is TTL-expired, its page is gone, or the page's current generation
// no longer matches the handle's (the page was recycled since).
func (s *Store) Get(h Handle) (data []byte, ok bool) {
	if h.IsExpired(s.config.DefaultTTLMs) {
		return nil, false
	}

	if h.IsMultiPage() {
		return s.getMultiPage(h)
	}

	page, found := s.backend.Get(h.StartPage)
	if !found || page.generation != h.Generation {
		return nil, false
	}

	out, found := page.Get(h.StartOffset, h.Size)
	if !found {
		return nil, false
	}

	result := make([]byte, len(out))
	copy(result, out)
	s.profiler.RecordRead(len(result))
	return result, true
}

// getMultiPage reads every page of [StartPage, EndPage]. A missing page
// anywhere in the range, or a starting page whose generation differs
// from h.Generation, invalidates the whole read. Only the starting
// page's generation is carried in the handle, so only that page is
// checked for recycling.
func (s *Store) getMultiPage(h Handle) ([]byte, bool) {
	result := make([]byte, 0, h.TotalSize)

	for id := h.StartPage; id <= h.EndPage; id++ {
		page, found := s.backend.Get(id)
		if !found {
			return nil, false
		}
		if id == h.StartPage && page.generation != h.Generation {
			return nil, false
		}

		var chunk []byte
		var ok bool
		switch {
		case id == h.StartPage:
			used := page.capacity - page.AvailableSpace()
			toRead := used - h.StartOffset
			chunk, ok = page.Get(h.StartOffset, toRead)
		case id == h.EndPage:
			remaining := h.TotalSize - uint64(len(result))
			chunk, ok = page.Get(0, uint32(remaining))
		default:
			used := page.capacity - page.AvailableSpace()
			chunk, ok = page.Get(0, used)
		}
		if !ok {
			return nil, false
		}
		result = append(result, chunk...)
	}

	s.profiler.RecordRead(len(result))
	s.profiler.RecordMultiPageSpan()
	return result, true
}

// Acknowledge marks h's payload as processed so cleanup can reclaim
// it once retired. For a multi-page handle, every page in
// [StartPage, EndPage] is acknowledged at its respective offset (0 for
// every page but the first), so no tail page is left dangling.
func (s *Store) Acknowledge(h Handle) bool {
	if !h.IsMultiPage() {
		page, found := s.backend.Get(h.StartPage)
		if !found || page.generation != h.Generation {
			return false
		}
		return page.Acknowledge(h.StartOffset)
	}

	acked := false
	for id := h.StartPage; id <= h.EndPage; id++ {
		page, found := s.backend.Get(id)
		if !found {
			continue
		}
		offset := uint32(0)
		if id == h.StartPage {
			offset = h.StartOffset
		}
		if page.Acknowledge(offset) {
			acked = true
		}
	}
	return acked
}

// Cleanup runs one sweep of the two-phase decay protocol: every live
// page except the current hot page is marked empty if eligible, and
// pages that have been empty for longer than DecayTimeoutMs are
// removed and their ids pushed back onto the recycled free list. It
// returns the number of pages removed.
func (s *Store) Cleanup() int {
	currentID := s.currentPage.Load()
	freed := 0

	for _, id := range s.backend.ActiveIDs() {
		if id == currentID {
			continue
		}

		page, found := s.backend.Get(id)
		if !found {
			continue
		}

		page.MarkEmptyIfNeeded(s.config.DefaultTTLMs)
		if !page.ShouldDecay(s.config.DecayTimeoutMs, s.config.DefaultTTLMs) {
			continue
		}

		usedBytes := page.capacity - page.AvailableSpace()
		if !s.backend.Remove(id) {
			continue
		}

		freed++
		s.freeMu.Lock()
		heap.Push(&s.freePages, id)
		s.freeMu.Unlock()

		s.profiler.RecordPageFreed(page.capacity, usedBytes)
		logger.Debugf("blobstore: page %d decayed and recycled", id)
	}

	if freed > 0 {
		s.profiler.RecordCleanup()
	}
	return freed
}

// Profiler returns the arena's live profiler for direct polling
// outside the Stats snapshot.
func (s *Store) Profiler() *Profiler {
	return s.profiler
}

// Stats reports the live page count and the current hot page id.
func (s *Store) Stats() (pageCount int, currentPageID uint32) {
	return s.backend.PageCount(), s.currentPage.Load()
}

// ProfilerStats computes the derived profiler snapshot.
func (s *Store) ProfilerStats() Stats {
	return s.profiler.stats()
}

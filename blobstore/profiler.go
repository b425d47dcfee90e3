package blobstore

import (
	"sync/atomic"
	"time"
)

// Profiler is a flat set of monotonically-increasing lock-free
// counters. It never blocks the data plane and never fails: every
// Record method is one to three independent atomic adds.
type Profiler struct {
	pagesAllocated    atomic.Uint64
	pagesFreed        atomic.Uint64
	appends           atomic.Uint64
	reads             atomic.Uint64
	cleanupsRun       atomic.Uint64
	multiPageSpans    atomic.Uint64
	bytesWritten      atomic.Uint64
	bytesRead         atomic.Uint64
	bytesDiscarded    atomic.Uint64
	capacityAllocated atomic.Uint64
	capacityFreed     atomic.Uint64

	startTime time.Time
}

func newProfiler() *Profiler {
	return &Profiler{startTime: time.Now()}
}

// RecordPageAllocated records a newly allocated page of the given
// capacity.
func (p *Profiler) RecordPageAllocated(capacity uint32) {
	p.pagesAllocated.Add(1)
	p.capacityAllocated.Add(uint64(capacity))
}

// RecordPageFreed records a page removed by cleanup, along with the
// capacity it returns and the bytes it was still holding when freed
// (those bytes become bytesDiscarded, since no reader will see them).
func (p *Profiler) RecordPageFreed(capacity, usedBytes uint32) {
	p.pagesFreed.Add(1)
	p.capacityFreed.Add(uint64(capacity))
	p.bytesDiscarded.Add(uint64(usedBytes))
}

// RecordAppend records a single-page or multi-page append of n bytes.
func (p *Profiler) RecordAppend(n int) {
	p.appends.Add(1)
	p.bytesWritten.Add(uint64(n))
}

// RecordMultiPageSpan records that an append or a read spanned more
// than one page; Store calls it from both appendMultiPage and
// getMultiPage.
func (p *Profiler) RecordMultiPageSpan() {
	p.multiPageSpans.Add(1)
}

// RecordRead records a successful get of n bytes.
func (p *Profiler) RecordRead(n int) {
	p.reads.Add(1)
	p.bytesRead.Add(uint64(n))
}

// RecordCleanup records one completed cleanup sweep.
func (p *Profiler) RecordCleanup() {
	p.cleanupsRun.Add(1)
}

// Stats is the derived, point-in-time snapshot returned by Stats().
type Stats struct {
	PagesAllocated     uint64
	PagesFreed         uint64
	Appends            uint64
	Reads              uint64
	CleanupsRun        uint64
	MultiPageSpans     uint64
	BytesWritten       uint64
	BytesRead          uint64
	BytesDiscarded     uint64
	ActivePages        uint64
	ActiveCapacity     uint64
	ActiveData         uint64
	FreeSpace          uint64
	FragmentationRatio float64
	Uptime             time.Duration
}

// satSub is a saturating subtraction: a-b clamped to 0 rather than
// wrapping, since allocation and free counters are drained
// concurrently and a transient snapshot can briefly see freed >
// allocated between two independent atomic loads.
func satSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// stats computes the derived snapshot entirely from saturating
// differences between this profiler's own counters, with no page scan
// and no lock, keeping the profiler entirely lock-free. ActiveData is
// bytes written minus the used bytes RecordPageFreed reported for each
// removed page, clamped to ActiveCapacity; the counters are loaded one
// by one, so a snapshot taken during concurrent updates may mix them.
func (p *Profiler) stats() Stats {
	pagesAllocated := p.pagesAllocated.Load()
	pagesFreed := p.pagesFreed.Load()
	capacityAllocated := p.capacityAllocated.Load()
	capacityFreed := p.capacityFreed.Load()
	bytesWritten := p.bytesWritten.Load()
	bytesDiscarded := p.bytesDiscarded.Load()

	activeCapacity := satSub(capacityAllocated, capacityFreed)
	activeData := satSub(bytesWritten, bytesDiscarded)
	if activeData > activeCapacity {
		activeData = activeCapacity
	}
	freeSpace := satSub(activeCapacity, activeData)

	var fragmentation float64
	if activeCapacity > 0 {
		fragmentation = float64(freeSpace) / float64(activeCapacity)
	}

	return Stats{
		PagesAllocated:     pagesAllocated,
		PagesFreed:         pagesFreed,
		Appends:            p.appends.Load(),
		Reads:              p.reads.Load(),
		CleanupsRun:        p.cleanupsRun.Load(),
		MultiPageSpans:     p.multiPageSpans.Load(),
		BytesWritten:       bytesWritten,
		BytesRead:          p.bytesRead.Load(),
		BytesDiscarded:     bytesDiscarded,
		ActivePages:        satSub(pagesAllocated, pagesFreed),
		ActiveCapacity:     activeCapacity,
		ActiveData:         activeData,
		FreeSpace:          freeSpace,
		FragmentationRatio: fragmentation,
		Uptime:             time.Since(p.startTime),
	}
}

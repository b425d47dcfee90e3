package blobstore

import "sync/atomic"

// entryMetadata is one payload's worth of bookkeeping inside a page:
// where it lives, when it arrived, and whether the consumer is done
// with it. Entries never outlive their owning page.
type entryMetadata struct {
	offset       uint32
	size         uint32
	timestampMs  uint64
	acknowledged atomic.Bool
}

func newEntryMetadata(offset, size uint32) *entryMetadata {
	return &entryMetadata{
		offset:      offset,
		size:        size,
		timestampMs: nowMillis(),
	}
}

// isExpired reports whether the entry has outlived ttlMs.
func (e *entryMetadata) isExpired(ttlMs uint64) bool {
	return nowMillis()-e.timestampMs > ttlMs
}

// acknowledge marks the entry as processed. The store synchronises
// with this release store via an acquire load in cleanup.
func (e *entryMetadata) acknowledge() {
	e.acknowledged.Store(true)
}

// isRetired reports whether the entry is acknowledged or TTL-expired.
// Either condition makes it eligible for page-level cleanup.
func (e *entryMetadata) isRetired(ttlMs uint64) bool {
	return e.acknowledged.Load() || e.isExpired(ttlMs)
}

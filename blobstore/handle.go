package blobstore

import (
	"encoding/binary"
	"time"
)

// HandleSize is the wire size of a Handle in bytes. It is the only part
// of the layout callers may rely on: the handle must fit a small message
// envelope alongside a narrow control channel.
const HandleSize = 32

// Handle is an opaque, copyable, value-typed reference to a payload
// stored in the arena. Two handles compare equal by value; equal
// handles identify the same stored payload.
//
// EndPage equals StartPage for a payload that fit on a single page.
// TotalSize is the full payload length; Size is the single-page size,
// or a saturated projection of TotalSize for multi-page payloads.
type Handle struct {
	StartPage   uint32
	StartOffset uint32
	Size        uint32
	Generation  uint32
	EndPage     uint32
	TotalSize   uint64
	TimestampMs uint64
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

// newHandle builds a single-page handle.
func newHandle(pageID, offset, size, generation uint32) Handle {
	return Handle{
		StartPage:   pageID,
		StartOffset: offset,
		Size:        size,
		Generation:  generation,
		EndPage:     pageID,
		TotalSize:   uint64(size),
		TimestampMs: nowMillis(),
	}
}

// newMultiPageHandle builds a handle spanning [startPage, endPage].
func newMultiPageHandle(startPage, startOffset, endPage uint32, totalSize uint64, generation uint32) Handle {
	size := totalSize
	if size > uint64(^uint32(0)) {
		size = uint64(^uint32(0))
	}
	return Handle{
		StartPage:   startPage,
		StartOffset: startOffset,
		Size:        uint32(size),
		Generation:  generation,
		EndPage:     endPage,
		TotalSize:   totalSize,
		TimestampMs: nowMillis(),
	}
}

// IsMultiPage reports whether the payload spans more than one page.
func (h Handle) IsMultiPage() bool {
	return h.EndPage != h.StartPage
}

// IsExpired reports whether the handle is older than ttlMs.
func (h Handle) IsExpired(ttlMs uint64) bool {
	return nowMillis()-h.TimestampMs > ttlMs
}

// AgeMillis returns how long ago the handle was issued.
func (h Handle) AgeMillis() uint64 {
	return nowMillis() - h.TimestampMs
}

// MarshalBinary encodes the handle in a 32-byte little-endian layout:
// start_page, start_offset, size, generation, end_page, 4 bytes of
// padding, timestamp_ms.
func (h Handle) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HandleSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.StartPage)
	binary.LittleEndian.PutUint32(buf[4:8], h.StartOffset)
	binary.LittleEndian.PutUint32(buf[8:12], h.Size)
	binary.LittleEndian.PutUint32(buf[12:16], h.Generation)
	binary.LittleEndian.PutUint32(buf[16:20], h.EndPage)
	// bytes [20:24] are padding, left zero.
	binary.LittleEndian.PutUint64(buf[24:32], h.TimestampMs)
	return buf, nil
}

// UnmarshalBinary decodes a handle previously produced by MarshalBinary.
// It does not recover TotalSize for multi-page handles: that field is
// not part of the wire contract (only HandleSize is), so callers that
// need to round-trip a multi-page handle across the wire must keep the
// Go value, not just its bytes.
func (h *Handle) UnmarshalBinary(buf []byte) error {
	if len(buf) != HandleSize {
		return ErrInvalidHandle
	}
	h.StartPage = binary.LittleEndian.Uint32(buf[0:4])
	h.StartOffset = binary.LittleEndian.Uint32(buf[4:8])
	h.Size = binary.LittleEndian.Uint32(buf[8:12])
	h.Generation = binary.LittleEndian.Uint32(buf[12:16])
	h.EndPage = binary.LittleEndian.Uint32(buf[16:20])
	h.TimestampMs = binary.LittleEndian.Uint64(buf[24:32])
	h.TotalSize = uint64(h.Size)
	return nil
}

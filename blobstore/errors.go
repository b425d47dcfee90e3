package blobstore

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced across the arena's public surface.
// Get never returns HandleExpired or InvalidHandle (it collapses both
// conditions to a plain "not found" result); InvalidHandle is returned
// only by Handle.UnmarshalBinary for input of the wrong length.
// OutOfMemory propagates from allocation, and DataTooLarge is returned
// directly from Append. PageFull is an internal-only signal (see
// errPageFull below) and is never exported.
var (
	// ErrHandleExpired would be returned by a hypothetical error-returning
	// Get; the actual Get never raises and instead reports expiry by
	// returning ok=false. Kept exported for callers building their own
	// wrappers around Get that want to classify the failure.
	ErrHandleExpired = errors.New("blobstore: handle has expired")

	// ErrInvalidHandle is returned by Handle.UnmarshalBinary when its
	// input is not HandleSize bytes long. A handle whose page is missing
	// or whose generation no longer matches is reported by Get and
	// Acknowledge as ok=false / false, not as this error.
	ErrInvalidHandle = errors.New("blobstore: invalid handle (unknown page or generation mismatch)")

	// ErrOutOfMemory indicates page allocation failed in the backend.
	ErrOutOfMemory = errors.New("blobstore: out of memory allocating a page")

	// ErrInvalidConfig indicates a Config failed validation.
	ErrInvalidConfig = errors.New("blobstore: invalid configuration")
)

// errPageFull is the page-level PageFull signal. It never escapes the
// store: the append loop always recovers locally by rotating to a
// fresh hot page.
var errPageFull = errors.New("blobstore: page is full")

// DataTooLargeError is returned from Append when a payload is empty
// (Size: 0) or otherwise cannot be represented, carrying the offending
// size and the page-size ceiling it was measured against.
type DataTooLargeError struct {
	Size uint64
	Max  uint64
}

func (e *DataTooLargeError) Error() string {
	return fmt.Sprintf("blobstore: data too large (size: %d, max: %d)", e.Size, e.Max)
}

// Is lets errors.Is(err, ErrDataTooLarge) match any DataTooLargeError.
func (e *DataTooLargeError) Is(target error) bool {
	return target == ErrDataTooLarge
}

// ErrDataTooLarge is the classification sentinel for DataTooLargeError;
// use errors.Is(err, ErrDataTooLarge) rather than a type assertion
// unless the size/max payload is needed.
var ErrDataTooLarge = errors.New("blobstore: data too large")

// storeError wraps an operation name around an underlying error using
// the conventional Op/Err/Unwrap shape.
type storeError struct {
	Op  string
	Err error
}

func (e *storeError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *storeError) Unwrap() error { return e.Err }

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storeError{Op: op, Err: err}
}

// IsOutOfMemory reports whether err is, or wraps, ErrOutOfMemory.
func IsOutOfMemory(err error) bool { return errors.Is(err, ErrOutOfMemory) }

// IsDataTooLarge reports whether err is, or wraps, a DataTooLargeError.
func IsDataTooLarge(err error) bool { return errors.Is(err, ErrDataTooLarge) }

// IsInvalidConfig reports whether err is, or wraps, ErrInvalidConfig.
func IsInvalidConfig(err error) bool { return errors.Is(err, ErrInvalidConfig) }

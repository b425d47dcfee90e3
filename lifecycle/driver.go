// Package lifecycle runs the arena's background reclamation loop: a
// ticker that periodically invokes Cleanup on the store it observes,
// without keeping the store alive on its own.
package lifecycle

import (
	"context"
	"time"
	"weak"

	"github.com/zhukovaskychina/blobarena/blobstore"
	"github.com/zhukovaskychina/blobarena/logger"
)

// Driver periodically calls Cleanup on a store it does not own. It
// holds only a weak.Pointer: once nothing else still holds the store,
// the weak pointer resolves to nil and the loop exits instead of
// keeping it alive forever.
type Driver struct {
	ref weak.Pointer[blobstore.Store]
}

// NewDriver builds a driver observing store.
func NewDriver(store *blobstore.Store) *Driver {
	return &Driver{ref: weak.Make(store)}
}

// Run loops until ctx is cancelled or the observed store is garbage
// collected, calling Cleanup once per interval. It blocks, so callers
// run it in its own goroutine.
func (d *Driver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store := d.ref.Value()
			if store == nil {
				logger.Debugf("lifecycle: store dropped, stopping driver")
				return
			}
			freed := store.Cleanup()
			if freed > 0 {
				logger.Debugf("lifecycle: cleanup freed %d pages", freed)
			}
		}
	}
}

package lifecycle

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/blobarena/blobstore"
)

func TestDriver(t *testing.T) {
	t.Run("periodically reclaims retired pages", func(t *testing.T) {
		cfg := blobstore.DefaultConfig()
		cfg.PageSize = 1 << 20
		cfg.DecayTimeoutMs = 20
		cfg.DefaultTTLMs = 20

		store, err := blobstore.New(cfg)
		require.NoError(t, err)

		payload := make([]byte, 512*1024)
		var handles []blobstore.Handle
		for i := 0; i < 10; i++ {
			h, err := store.Append(payload)
			require.NoError(t, err)
			handles = append(handles, h)
		}
		for _, h := range handles {
			store.Acknowledge(h)
		}

		driver := NewDriver(store)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go driver.Run(ctx, 10*time.Millisecond)

		require.Eventually(t, func() bool {
			return store.ProfilerStats().PagesFreed > 0
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("stops once the observed store is collected", func(t *testing.T) {
		store, err := blobstore.New(blobstore.DefaultConfig())
		require.NoError(t, err)

		driver := NewDriver(store)
		store = nil
		runtime.GC()

		done := make(chan struct{})
		go func() {
			driver.Run(context.Background(), 5*time.Millisecond)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("driver did not stop after its store was collected")
		}
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		store, err := blobstore.New(blobstore.DefaultConfig())
		require.NoError(t, err)

		driver := NewDriver(store)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			driver.Run(ctx, 5*time.Millisecond)
			close(done)
		}()

		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("driver did not stop after context cancellation")
		}
		assert.NotNil(t, store)
	})
}

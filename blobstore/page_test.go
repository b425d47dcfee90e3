package blobstore

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage(t *testing.T) {
	t.Run("append then get round trips", func(t *testing.T) {
		p := newPage(0, 64, 1)

		offset, size, err := p.TryAppend([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, uint32(0), offset)
		assert.Equal(t, uint32(5), size)

		data, ok := p.Get(offset, size)
		require.True(t, ok)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("append rejects payloads larger than capacity", func(t *testing.T) {
		p := newPage(0, 4, 1)
		_, _, err := p.TryAppend([]byte("too big"))
		var tooLarge *DataTooLargeError
		assert.ErrorAs(t, err, &tooLarge)
	})

	t.Run("append rolls back the reservation on overflow", func(t *testing.T) {
		p := newPage(0, 8, 1)

		_, _, err := p.TryAppend([]byte("12345678"))
		require.NoError(t, err)

		_, _, err = p.TryAppend([]byte("x"))
		assert.ErrorIs(t, err, errPageFull)
		assert.Equal(t, uint32(0), p.AvailableSpace())
	})

	t.Run("concurrent appends receive disjoint regions", func(t *testing.T) {
		p := newPage(0, 1000, 1)

		var wg sync.WaitGroup
		offsets := make([]uint32, 100)
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				offset, _, err := p.TryAppend([]byte("0123456789"))
				require.NoError(t, err)
				offsets[i] = offset
			}(i)
		}
		wg.Wait()

		seen := make(map[uint32]bool)
		for _, o := range offsets {
			assert.False(t, seen[o], "offset %d reused", o)
			seen[o] = true
		}
	})

	t.Run("try append partial writes as much as fits", func(t *testing.T) {
		p := newPage(0, 10, 1)
		offset, written, err := p.TryAppendPartial([]byte("0123456789ABCDEF"))
		require.NoError(t, err)
		assert.Equal(t, uint32(0), offset)
		assert.Equal(t, uint32(10), written)
		assert.Equal(t, uint32(0), p.AvailableSpace())
	})

	t.Run("empty page is considered empty", func(t *testing.T) {
		p := newPage(0, 64, 1)
		assert.True(t, p.IsEmpty(60_000))
	})

	t.Run("page with live entries is not empty", func(t *testing.T) {
		p := newPage(0, 64, 1)
		_, _, err := p.TryAppend([]byte("x"))
		require.NoError(t, err)
		assert.False(t, p.IsEmpty(60_000))
	})

	t.Run("acknowledging the only entry makes the page empty", func(t *testing.T) {
		p := newPage(0, 64, 1)
		offset, _, err := p.TryAppend([]byte("x"))
		require.NoError(t, err)

		assert.True(t, p.Acknowledge(offset))
		assert.True(t, p.IsEmpty(60_000))
	})

	t.Run("decay requires both emptiness and elapsed timeout", func(t *testing.T) {
		p := newPage(0, 64, 1)
		offset, _, err := p.TryAppend([]byte("x"))
		require.NoError(t, err)
		p.Acknowledge(offset)

		p.MarkEmptyIfNeeded(60_000)
		assert.False(t, p.ShouldDecay(1000, 60_000), "should not decay immediately after marking")

		time.Sleep(5 * time.Millisecond)
		assert.True(t, p.ShouldDecay(1, 60_000))
	})

	t.Run("new data clears a stale empty mark", func(t *testing.T) {
		p := newPage(0, 64, 1)
		offset, _, err := p.TryAppend([]byte("x"))
		require.NoError(t, err)
		p.Acknowledge(offset)
		p.MarkEmptyIfNeeded(60_000)

		_, _, err = p.TryAppend([]byte("y"))
		require.NoError(t, err)

		p.MarkEmptyIfNeeded(60_000)
		assert.False(t, p.ShouldDecay(0, 60_000))
	})
}

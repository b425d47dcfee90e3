package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend(t *testing.T) {
	t.Run("allocate then get", func(t *testing.T) {
		b := newBackend()
		b.Allocate(0, 64, 1)

		p, ok := b.Get(0)
		require.True(t, ok)
		assert.Equal(t, uint32(64), p.capacity)
	})

	t.Run("allocate is idempotent for an existing id", func(t *testing.T) {
		b := newBackend()
		b.Allocate(0, 64, 1)
		first, _ := b.Get(0)

		b.Allocate(0, 128, 2)
		second, _ := b.Get(0)

		assert.Same(t, first, second)
	})

	t.Run("remove deletes a page and reports presence", func(t *testing.T) {
		b := newBackend()
		b.Allocate(0, 64, 1)

		assert.True(t, b.Remove(0))
		assert.False(t, b.Remove(0))

		_, ok := b.Get(0)
		assert.False(t, ok)
	})

	t.Run("page count and active ids reflect live pages", func(t *testing.T) {
		b := newBackend()
		b.Allocate(0, 64, 1)
		b.Allocate(1, 64, 1)
		b.Allocate(2, 64, 1)
		b.Remove(1)

		assert.Equal(t, 2, b.PageCount())
		assert.ElementsMatch(t, []uint32{0, 2}, b.ActiveIDs())
	})
}

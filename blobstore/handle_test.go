package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	t.Run("single page handle is not multi page", func(t *testing.T) {
		h := newHandle(3, 128, 64, 7)
		assert.False(t, h.IsMultiPage())
		assert.Equal(t, uint32(3), h.StartPage)
		assert.Equal(t, uint32(3), h.EndPage)
		assert.Equal(t, uint64(64), h.TotalSize)
	})

	t.Run("multi page handle spans pages", func(t *testing.T) {
		h := newMultiPageHandle(5, 0, 8, 10_000_000, 2)
		assert.True(t, h.IsMultiPage())
		assert.Equal(t, uint32(5), h.StartPage)
		assert.Equal(t, uint32(8), h.EndPage)
		assert.Equal(t, uint64(10_000_000), h.TotalSize)
	})

	t.Run("expiry", func(t *testing.T) {
		h := newHandle(0, 0, 1, 0)
		assert.False(t, h.IsExpired(60_000))

		h.TimestampMs = 0
		assert.True(t, h.IsExpired(1))
	})

	t.Run("round trips through MarshalBinary", func(t *testing.T) {
		h := newHandle(9, 256, 128, 3)

		buf, err := h.MarshalBinary()
		require.NoError(t, err)
		assert.Len(t, buf, HandleSize)

		var decoded Handle
		require.NoError(t, decoded.UnmarshalBinary(buf))

		assert.Equal(t, h.StartPage, decoded.StartPage)
		assert.Equal(t, h.StartOffset, decoded.StartOffset)
		assert.Equal(t, h.Size, decoded.Size)
		assert.Equal(t, h.Generation, decoded.Generation)
		assert.Equal(t, h.EndPage, decoded.EndPage)
		assert.Equal(t, h.TimestampMs, decoded.TimestampMs)
	})

	t.Run("UnmarshalBinary rejects the wrong length", func(t *testing.T) {
		var h Handle
		err := h.UnmarshalBinary(make([]byte, HandleSize-1))
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})
}

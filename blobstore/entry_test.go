package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryMetadata(t *testing.T) {
	t.Run("fresh entry is neither acknowledged nor expired", func(t *testing.T) {
		e := newEntryMetadata(0, 10)
		assert.False(t, e.isExpired(60_000))
		assert.False(t, e.isRetired(60_000))
	})

	t.Run("acknowledge retires the entry", func(t *testing.T) {
		e := newEntryMetadata(0, 10)
		e.acknowledge()
		assert.True(t, e.isRetired(60_000))
	})

	t.Run("an aged entry is retired via TTL without acknowledgement", func(t *testing.T) {
		e := newEntryMetadata(0, 10)
		e.timestampMs = 0
		assert.True(t, e.isExpired(1))
		assert.True(t, e.isRetired(1))
	})
}

package dcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// A nil entry answers every accessor with the zero value instead of
// panicking; Take and EntryOf hand out nil for absent keys, so callers
// chain accessors without a presence check.
func TestEntry_NilAccessors(t *testing.T) {
	t.Parallel()

	var e *Entry[string, int]
	assert.Zero(t, e.Key())
	assert.Zero(t, e.Value())
	assert.Zero(t, e.Expiry())
	assert.Zero(t, e.TTL(123))
}

func TestEntry_Accessors(t *testing.T) {
	t.Parallel()

	e := &Entry[string, int]{key: "k", value: 42, expiry: 110}
	assert.Equal(t, "k", e.Key())
	assert.Equal(t, 42, e.Value())
	assert.Equal(t, int64(110), e.Expiry())
	assert.Equal(t, int64(10), e.TTL(100))
	assert.Equal(t, int64(-5), e.TTL(115))

	assert.False(t, e.expired(100))
	assert.True(t, e.expired(110), "an entry dies exactly at its deadline")
	assert.True(t, e.expired(120))
}

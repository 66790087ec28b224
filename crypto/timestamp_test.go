package crypto

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.zx2c4.com/wireguard/tai64n"
)

func TestTimestampOrdering(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)

	earlier := Timestamp(base)
	later := Timestamp(base.Add(time.Second))

	assert.True(t, later.After(earlier))
	assert.False(t, earlier.After(later))
	assert.False(t, earlier.After(earlier))
}

func TestTimestampLayout(t *testing.T) {
	ts := Timestamp(time.Unix(10, 0))

	assert.Equal(t, uint64(0x400000000000000a)+10, binary.BigEndian.Uint64(ts[:8]))
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(ts[8:]))
}

func TestTimestampWhitensNanoseconds(t *testing.T) {
	base := time.Unix(100, 0)
	a := Timestamp(base.Add(1))
	b := Timestamp(base.Add(1000))

	assert.Equal(t, a, b, "sub-16ms differences are masked")
}

func TestNextTimestampIsStrictlyIncreasing(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	var last tai64n.Timestamp
	for i := 0; i < 100; i++ {
		next := NextTimestamp(now, last)
		assert.True(t, next.After(last), "iteration %d", i)
		last = next
	}
}

func TestNextTimestampFollowsClock(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	first := NextTimestamp(now, tai64n.Timestamp{})
	assert.Equal(t, Timestamp(now), first)

	second := NextTimestamp(now.Add(time.Minute), first)
	assert.Equal(t, Timestamp(now.Add(time.Minute)), second)
}

func TestNextTimestampCarriesIntoSeconds(t *testing.T) {
	var last tai64n.Timestamp
	binary.BigEndian.PutUint64(last[:8], 0x4000000000000100)
	binary.BigEndian.PutUint32(last[8:], 999_999_999)

	next := NextTimestamp(time.Unix(0, 0), last)
	assert.True(t, next.After(last))
	assert.Equal(t, uint64(0x4000000000000101), binary.BigEndian.Uint64(next[:8]))
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(next[8:]))
}

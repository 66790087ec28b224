package crypto

import (
	"encoding/binary"
	"time"

	"golang.zx2c4.com/wireguard/tai64n"
)

// TimestampSize is the size of an encoded TAI64N label.
const TimestampSize = tai64n.TimestampSize

const (
	tai64Base    = uint64(0x400000000000000a)
	whitenerMask = uint32(0x1000000 - 1)
	nanoPerSec   = uint32(1_000_000_000)
)

// Timestamp encodes t as a TAI64N label. The low bits of the nanosecond
// field are masked so the label does not expose a precise local clock.
func Timestamp(t time.Time) tai64n.Timestamp {
	var ts tai64n.Timestamp
	secs := tai64Base + uint64(t.Unix())
	nano := uint32(t.Nanosecond()) &^ whitenerMask
	binary.BigEndian.PutUint64(ts[:8], secs)
	binary.BigEndian.PutUint32(ts[8:], nano)
	return ts
}

// NextTimestamp returns the label for now, or the smallest label after last if
// the clock has not moved past it.
func NextTimestamp(now time.Time, last tai64n.Timestamp) tai64n.Timestamp {
	ts := Timestamp(now)
	if ts.After(last) {
		return ts
	}

	secs := binary.BigEndian.Uint64(last[:8])
	nano := binary.BigEndian.Uint32(last[8:]) + 1
	if nano >= nanoPerSec {
		secs++
		nano = 0
	}
	binary.BigEndian.PutUint64(ts[:8], secs)
	binary.BigEndian.PutUint32(ts[8:], nano)
	return ts
}

package replay

import (
	"encoding/binary"
	"testing"
)

// FuzzCheckAndMark feeds arbitrary counter sequences and checks them against
// the reference model.
func FuzzCheckAndMark(f *testing.F) {
	f.Add([]byte{5, 0, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, 0, 0, 0})
	f.Add([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	f.Add(make([]byte, 64))

	f.Fuzz(func(t *testing.T, data []byte) {
		var c Counter
		m := &model{seen: make(map[uint64]bool)}
		for len(data) >= 8 && len(m.seen) < 4096 {
			// keep values near each other so the window is exercised
			n := binary.LittleEndian.Uint64(data) % (8 * WindowSize)
			data = data[8:]

			want := m.accept(n, testLimit)
			got := c.CheckAndMark(n, testLimit) == nil
			if want != got {
				t.Fatalf("counter %d: model accepted=%v, counter accepted=%v", n, want, got)
			}
		}
	})
}

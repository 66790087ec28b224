// Package replay implements the per-keypair message counter: a monotonic
// send counter and a sliding-window filter that rejects duplicate or stale
// receive counters.
//
// The receive window tracks the WindowSize most recent counter values
// relative to the highest counter accepted so far:
//
//	var c replay.Counter
//	n, err := c.Next(limit)               // sender side
//	err = c.CheckAndMark(received, limit) // receiver side, after authentication
//
// The receive window is guarded by its own lock; the send counter is an
// atomic and never blocks the receive path.
package replay

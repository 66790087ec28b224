package replay

import (
	"errors"
	"sync"
	"sync/atomic"
)

const (
	// WindowSize is the number of counter values tracked behind the highest
	// accepted counter, including the highest itself.
	WindowSize = 512

	wordBits    = 64
	windowWords = WindowSize / wordBits
)

var (
	// ErrDuplicate indicates the counter was already accepted.
	ErrDuplicate = errors.New("counter already received")
	// ErrTooOld indicates the counter is behind the receive window.
	ErrTooOld = errors.New("counter outside replay window")
	// ErrLimit indicates the counter reached the caller's message limit.
	ErrLimit = errors.New("counter at message limit")
	// ErrExhausted indicates no send counter below the limit remains.
	ErrExhausted = errors.New("send counter exhausted")
)

// Counter holds the send counter and receive window of one keypair.
// The zero value is ready for use.
type Counter struct {
	send atomic.Uint64

	mu      sync.RWMutex
	highest uint64
	bitmap  [windowWords]uint64 // bit i records counter highest-i
}

// Next reserves and returns the next send counter. It fails with
// ErrExhausted once the counter reaches limit; the counter then stays there.
func (c *Counter) Next(limit uint64) (uint64, error) {
	for {
		n := c.send.Load()
		if n >= limit {
			return 0, ErrExhausted
		}
		if c.send.CompareAndSwap(n, n+1) {
			return n, nil
		}
	}
}

// Sent returns the number of send counters handed out.
func (c *Counter) Sent() uint64 {
	return c.send.Load()
}

// Highest returns the highest receive counter accepted so far.
func (c *Counter) Highest() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.highest
}

// CheckAndMark accepts counter if it has not been seen and is inside the
// window, recording it so that any later delivery of the same value fails.
// Callers must only submit counters of authenticated messages.
func (c *Counter) CheckAndMark(counter, limit uint64) error {
	if counter >= limit {
		return ErrLimit
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if counter > c.highest {
		c.shift(counter - c.highest)
		c.highest = counter
		c.bitmap[0] |= 1
		return nil
	}

	offset := c.highest - counter
	if offset >= WindowSize {
		return ErrTooOld
	}

	word, bit := offset/wordBits, offset%wordBits
	mask := uint64(1) << bit
	if c.bitmap[word]&mask != 0 {
		return ErrDuplicate
	}
	c.bitmap[word] |= mask
	return nil
}

// shift ages every recorded counter by n positions, dropping those that
// leave the window.
func (c *Counter) shift(n uint64) {
	if n >= WindowSize {
		c.bitmap = [windowWords]uint64{}
		return
	}

	words := int(n / wordBits)
	bits := n % wordBits
	for i := windowWords - 1; i >= 0; i-- {
		var v uint64
		if j := i - words; j >= 0 {
			v = c.bitmap[j] << bits
			if bits != 0 && j > 0 {
				v |= c.bitmap[j-1] >> (wordBits - bits)
			}
		}
		c.bitmap[i] = v
	}
}

// Package peertable is a reference host-side implementation of noise.Upcall.
// It maps static public keys to peers and random 32-bit session indices to
// the peer that leased them, so inbound data messages can be routed by their
// receiver index.
package peertable

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/opd-ai/wgnoise/crypto"
	"github.com/opd-ai/wgnoise/noise"
	"github.com/sirupsen/logrus"
)

var (
	// ErrDuplicatePeer indicates a peer with the same public key is present
	ErrDuplicatePeer = errors.New("peer already present")
	// ErrIndexSpaceExhausted indicates no free index could be found
	ErrIndexSpaceExhausted = errors.New("index space exhausted")
)

// DefaultMaxIndices bounds the number of simultaneously leased indices.
// Each peer holds at most four: three keypairs and one handshake.
const DefaultMaxIndices = 1 << 20

// DefaultMaxAttempts is the number of random draws tried per lease.
const DefaultMaxAttempts = 32

// Options configures a Table.
type Options struct {
	MaxIndices  int
	MaxAttempts int
	Random      io.Reader
	Logger      *logrus.Logger
}

// NewOptions returns the default Options.
func NewOptions() *Options {
	return &Options{
		MaxIndices:  DefaultMaxIndices,
		MaxAttempts: DefaultMaxAttempts,
		Random:      rand.Reader,
		Logger:      logrus.StandardLogger(),
	}
}

// Table implements noise.Upcall.
type Table struct {
	opts *Options

	mu      sync.RWMutex
	peers   map[[noise.KeySize]byte]*noise.Remote
	indices map[uint32]*noise.Remote
}

var _ noise.Upcall = (*Table)(nil)

// New creates an empty Table. A nil opts selects NewOptions().
func New(opts *Options) *Table {
	if opts == nil {
		opts = NewOptions()
	}
	o := *opts
	if o.MaxIndices <= 0 {
		o.MaxIndices = DefaultMaxIndices
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Random == nil {
		o.Random = rand.Reader
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}

	return &Table{
		opts:    &o,
		peers:   make(map[[noise.KeySize]byte]*noise.Remote),
		indices: make(map[uint32]*noise.Remote),
	}
}

// Add registers r so that initiations from its key are accepted.
func (t *Table) Add(r *noise.Remote) error {
	public := r.PublicKey()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.peers[public]; exists {
		return fmt.Errorf("%w: %x", ErrDuplicatePeer, public[:8])
	}
	t.peers[public] = r

	t.opts.Logger.WithFields(logrus.Fields{
		"function": "Add",
		"peers":    len(t.peers),
	}).WithFields(crypto.SecureFieldHash(public[:], "peer")).Debug("Peer added")
	return nil
}

// Remove unregisters the peer with the given key and clears all of its
// sessions. It reports whether the peer was present.
func (t *Table) Remove(public [noise.KeySize]byte) bool {
	t.mu.Lock()
	r, ok := t.peers[public]
	delete(t.peers, public)
	t.mu.Unlock()

	if !ok {
		return false
	}

	// Clear releases the peer's indices through IndexDrop, which takes t.mu.
	r.Clear()

	t.opts.Logger.WithFields(logrus.Fields{
		"function": "Remove",
	}).WithFields(crypto.SecureFieldHash(public[:], "peer")).Debug("Peer removed")
	return true
}

// RemoteGet returns the peer with the given key, or nil.
func (t *Table) RemoteGet(public [noise.KeySize]byte) *noise.Remote {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.peers[public]
}

// IndexSet leases a random, currently unused, non-zero index for r.
func (t *Table) IndexSet(r *noise.Remote) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.indices) >= t.opts.MaxIndices {
		return 0, fmt.Errorf("%w: %d indices leased", ErrIndexSpaceExhausted, len(t.indices))
	}

	var buf [4]byte
	for attempt := 0; attempt < t.opts.MaxAttempts; attempt++ {
		if _, err := io.ReadFull(t.opts.Random, buf[:]); err != nil {
			return 0, fmt.Errorf("failed to draw index: %w", err)
		}
		index := binary.LittleEndian.Uint32(buf[:])
		if index == 0 {
			continue
		}
		if _, taken := t.indices[index]; taken {
			continue
		}
		t.indices[index] = r
		return index, nil
	}

	t.opts.Logger.WithFields(logrus.Fields{
		"function": "IndexSet",
		"attempts": t.opts.MaxAttempts,
		"leased":   len(t.indices),
	}).Warn("No free index found")
	return 0, fmt.Errorf("%w: no free index after %d attempts", ErrIndexSpaceExhausted, t.opts.MaxAttempts)
}

// IndexDrop releases index.
func (t *Table) IndexDrop(index uint32) {
	t.mu.Lock()
	delete(t.indices, index)
	t.mu.Unlock()
}

// Lookup returns the peer that holds index, or nil.
func (t *Table) Lookup(index uint32) *noise.Remote {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.indices[index]
}

// Decrypt routes msg to the peer holding its receiver index and decrypts it.
func (t *Table) Decrypt(msg *noise.Data) (*noise.Remote, []byte, error) {
	r := t.Lookup(msg.Receiver)
	if r == nil {
		return nil, nil, &noise.SessionError{Op: "route", Index: msg.Receiver, Err: noise.ErrUnknownIndex}
	}
	plaintext, err := r.Decrypt(msg)
	if err != nil {
		return r, nil, err
	}
	return r, plaintext, nil
}

// Len returns the number of registered peers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}

// IndexCount returns the number of leased indices.
func (t *Table) IndexCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.indices)
}

// Peers returns a snapshot of the registered peers.
func (t *Table) Peers() []*noise.Remote {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*noise.Remote, 0, len(t.peers))
	for _, r := range t.peers {
		out = append(out, r)
	}
	return out
}

// ExpireStale runs Remote.ExpireStale on every peer and returns the total
// number of keypairs evicted. Hosts call it from a periodic tick.
func (t *Table) ExpireStale() int {
	evicted := 0
	for _, r := range t.Peers() {
		evicted += r.ExpireStale()
	}
	if evicted > 0 {
		t.opts.Logger.WithFields(logrus.Fields{
			"function": "ExpireStale",
			"evicted":  evicted,
		}).Debug("Expired stale keypairs")
	}
	return evicted
}

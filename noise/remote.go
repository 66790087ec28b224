package noise

import (
	"sync"
	"time"

	"github.com/opd-ai/wgnoise/crypto"
)

// Remote is a peer known by its static public key. It owns the peer's
// handshake and its next, current and previous keypairs.
type Remote struct {
	local  *Local
	public [KeySize]byte

	mu           sync.RWMutex
	psk          [PSKSize]byte
	staticSecret [KeySize]byte
	ssValid      bool
	ssGeneration uint64

	handshake handshake
	keypairs  keypairs
}

// NewRemote creates a Remote for public bound to local, which must not be
// nil. It attempts Precompute immediately; a failure is retried at the next
// handshake.
func NewRemote(public [KeySize]byte, local *Local) *Remote {
	r := &Remote{
		local:  local,
		public: public,
	}
	if err := r.Precompute(); err != nil {
		r.logger("NewRemote").WithError(err, "precompute", "static-static").Debug("Deferred precomputation")
	}
	return r
}

// Precompute computes and caches the static-static Diffie-Hellman secret
// with the current local identity.
func (r *Remote) Precompute() error {
	r.local.mu.RLock()
	defer r.local.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.staticSecretLocked()
	return err
}

// staticSecretLocked returns the cached static-static secret, recomputing it
// if the local identity changed. The caller holds r.local.mu and r.mu for
// writing.
func (r *Remote) staticSecretLocked() ([KeySize]byte, error) {
	l := r.local
	if !l.hasIdentity {
		return [KeySize]byte{}, &ConfigError{Op: "precompute", Err: ErrNotConfigured}
	}
	if r.ssValid && r.ssGeneration == l.generation {
		return r.staticSecret, nil
	}

	ss, err := crypto.DeriveSharedSecret(r.public, l.private)
	if err != nil {
		r.ssValid = false
		crypto.ZeroBytes(r.staticSecret[:])
		return [KeySize]byte{}, &ConfigError{Op: "precompute", Err: ErrInvalidKey, Cause: err}
	}
	r.staticSecret = ss
	r.ssGeneration = l.generation
	r.ssValid = true
	return ss, nil
}

// SetPSK replaces the pre-shared key. The zero key is equivalent to having
// no pre-shared key.
func (r *Remote) SetPSK(psk [PSKSize]byte) {
	r.mu.Lock()
	r.psk = psk
	r.mu.Unlock()
}

// Keys returns the peer's static public key and the pre-shared key.
func (r *Remote) Keys() (public [KeySize]byte, psk [PSKSize]byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.public, r.psk
}

// PublicKey returns the peer's static public key.
func (r *Remote) PublicKey() [KeySize]byte {
	return r.public
}

// HandshakeState returns the current handshake state.
func (r *Remote) HandshakeState() HandshakeState {
	r.handshake.mu.RLock()
	defer r.handshake.mu.RUnlock()
	return r.handshake.state
}

// LastHandshake returns when the most recent session with this peer began,
// or the zero time.
func (r *Remote) LastHandshake() time.Time {
	r.handshake.mu.RLock()
	defer r.handshake.mu.RUnlock()
	return r.handshake.lastHandshake
}

func (r *Remote) logger(function string) *crypto.LoggerHelper {
	return r.local.logger(function).WithFields(crypto.SecureFieldHash(r.public[:], "peer"))
}

package noise

import (
	"sync"

	"github.com/opd-ai/wgnoise/crypto"
	"golang.zx2c4.com/wireguard/tai64n"
)

// Local is this node's static identity. It is shared by every Remote.
type Local struct {
	upcall Upcall
	cfg    *Config

	mu          sync.RWMutex
	public      [KeySize]byte
	private     [KeySize]byte
	hasIdentity bool
	// generation changes on every SetPrivate so Remotes can tell that their
	// cached static-static secret is stale.
	generation uint64
}

// NewLocal creates a Local without a private key. A nil cfg selects
// NewConfig().
func NewLocal(upcall Upcall, cfg *Config) (*Local, error) {
	if upcall == nil {
		return nil, &ConfigError{Op: "new local", Err: ErrInvalidConfig}
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Local{
		upcall: upcall,
		cfg:    cfg.withDefaults(),
	}, nil
}

// Config returns the configuration in use. It must not be modified.
func (l *Local) Config() *Config {
	return l.cfg
}

// SetPrivate installs a new static private key. The key is clamped and its
// public half derived. Every Remote recomputes its static-static secret
// before its next handshake.
func (l *Local) SetPrivate(private [KeySize]byte) error {
	kp, err := crypto.FromSecretKey(private)
	crypto.ZeroBytes(private[:])
	if err != nil {
		return &ConfigError{Op: "set private", Err: ErrInvalidKey, Cause: err}
	}

	l.mu.Lock()
	l.private = kp.Private
	l.public = kp.Public
	l.hasIdentity = true
	l.generation++
	l.mu.Unlock()

	_ = crypto.WipeKeyPair(kp)

	public := l.PublicKey()
	l.logger("SetPrivate").
		WithFields(crypto.SecureFieldHash(public[:], "public_key")).
		Debug("Local identity updated")
	return nil
}

// Keys returns the static key pair.
func (l *Local) Keys() (public, private [KeySize]byte, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.hasIdentity {
		return public, private, &ConfigError{Op: "keys", Err: ErrNotConfigured}
	}
	return l.public, l.private, nil
}

// PublicKey returns the static public key, or the zero key if none is set.
func (l *Local) PublicKey() [KeySize]byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.public
}

// HasIdentity reports whether SetPrivate has succeeded.
func (l *Local) HasIdentity() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hasIdentity
}

// ConsumeInitiation authenticates an initiation, identifies the sending
// peer through the Upcall and records the handshake on that peer.
func (l *Local) ConsumeInitiation(msg *Initiation) (*Remote, error) {
	const op = "consume initiation"

	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.hasIdentity {
		return nil, &ConfigError{Op: op, Err: ErrNotConfigured}
	}

	hash := initialHash
	chainKey := initialChainKey
	var key [HashSize]byte
	defer crypto.ZeroBytes(key[:])
	defer crypto.ZeroBytes(chainKey[:])

	crypto.MixHash(&hash, &hash, l.public[:])
	crypto.MixHash(&hash, &hash, msg.Ephemeral[:])
	crypto.KDF1(&chainKey, chainKey[:], msg.Ephemeral[:])

	es, err := crypto.DeriveSharedSecret(msg.Ephemeral, l.private)
	if err != nil {
		return nil, &HandshakeError{Op: op, Err: ErrInvalidKey, Cause: err}
	}
	crypto.KDF2(&chainKey, &key, chainKey[:], es[:])
	crypto.ZeroBytes(es[:])

	static, err := crypto.Open(key, nil, msg.Static[:], hash[:])
	if err != nil {
		return nil, &HandshakeError{Op: op, Err: ErrAuthFailed, Cause: err}
	}
	crypto.MixHash(&hash, &hash, msg.Static[:])

	var peer [KeySize]byte
	copy(peer[:], static)

	remote := l.upcall.RemoteGet(peer)
	if remote == nil {
		l.logger("ConsumeInitiation").
			WithFields(crypto.SecureFieldHash(peer[:], "peer")).
			Debug("Initiation from unknown peer")
		return nil, &HandshakeError{Op: op, Err: ErrUnknownPeer}
	}

	remote.mu.Lock()
	ss, err := remote.staticSecretLocked()
	remote.mu.Unlock()
	if err != nil {
		return nil, &HandshakeError{Op: op, Err: ErrInvalidKey, Cause: err}
	}

	crypto.KDF2(&chainKey, &key, chainKey[:], ss[:])
	crypto.ZeroBytes(ss[:])

	ts, err := crypto.Open(key, nil, msg.Timestamp[:], hash[:])
	if err != nil {
		return nil, &HandshakeError{Op: op, Err: ErrAuthFailed, Cause: err}
	}
	crypto.MixHash(&hash, &hash, msg.Timestamp[:])

	var timestamp tai64n.Timestamp
	copy(timestamp[:], ts)

	hs := &remote.handshake
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if !timestamp.After(hs.lastTimestamp) {
		remote.logger("ConsumeInitiation").Warn("Rejected replayed or stale initiation")
		return nil, &HandshakeError{Op: op, Err: ErrStale}
	}

	now := l.cfg.TimeProvider.Now()
	if !hs.lastInitiationConsumed.IsZero() && now.Sub(hs.lastInitiationConsumed) < l.cfg.HandshakeInitiationRate {
		remote.logger("ConsumeInitiation").Warn("Rejected initiation flood")
		return nil, &HandshakeError{Op: op, Err: ErrFlood}
	}

	remote.resetHandshakeLocked()
	hs.hash = hash
	hs.chainKey = chainKey
	hs.remoteIndex = msg.Sender
	hs.remoteEphemeral = msg.Ephemeral
	hs.lastTimestamp = timestamp
	hs.lastInitiationConsumed = now
	hs.started = now
	hs.state = StateInitiationConsumed

	remote.logger("ConsumeInitiation").
		WithField("remote_index", msg.Sender).
		Debug("Initiation consumed")
	return remote, nil
}

func (l *Local) logger(function string) *crypto.LoggerHelper {
	return crypto.NewPackageLogger("noise", function).WithLogger(l.cfg.Logger)
}

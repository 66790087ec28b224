package noise

import (
	"sync"
	"time"

	"github.com/opd-ai/wgnoise/crypto"
	"github.com/sirupsen/logrus"
	"golang.zx2c4.com/wireguard/tai64n"
)

// HandshakeState is the position of a Remote's handshake.
type HandshakeState int

const (
	StateZeroed HandshakeState = iota
	StateInitiationCreated
	StateInitiationConsumed
	StateResponseCreated
	StateResponseConsumed
)

func (s HandshakeState) String() string {
	switch s {
	case StateZeroed:
		return "zeroed"
	case StateInitiationCreated:
		return "initiation created"
	case StateInitiationConsumed:
		return "initiation consumed"
	case StateResponseCreated:
		return "response created"
	case StateResponseConsumed:
		return "response consumed"
	default:
		return "unknown"
	}
}

type handshake struct {
	mu    sync.RWMutex
	state HandshakeState

	localIndex  uint32
	remoteIndex uint32
	// leased is set while localIndex is held from the Upcall on behalf of
	// this handshake rather than a keypair.
	leased bool

	localEphemeral  crypto.KeyPair
	remoteEphemeral [KeySize]byte
	hash            [HashSize]byte
	chainKey        [HashSize]byte

	lastTimestamp          tai64n.Timestamp // newest accepted from the peer
	lastSentTimestamp      tai64n.Timestamp
	lastInitiationConsumed time.Time
	lastInitiationSent     time.Time
	started                time.Time
	lastHandshake          time.Time
}

// clear wipes the per-attempt state. Timestamps and rate-limit times
// survive.
func (h *handshake) clear() {
	crypto.ZeroBytes(h.localEphemeral.Private[:])
	h.localEphemeral = crypto.KeyPair{}
	h.remoteEphemeral = [KeySize]byte{}
	crypto.ZeroBytes(h.hash[:])
	crypto.ZeroBytes(h.chainKey[:])
	h.localIndex = 0
	h.remoteIndex = 0
	h.leased = false
	h.started = time.Time{}
	h.state = StateZeroed
}

// resetHandshakeLocked releases any index the handshake holds and clears it.
// The caller holds r.handshake.mu.
func (r *Remote) resetHandshakeLocked() {
	hs := &r.handshake
	if hs.leased {
		r.local.upcall.IndexDrop(hs.localIndex)
	}
	hs.clear()
}

// CreateInitiation starts a handshake with the peer. It fails with
// ErrBadState while an initiation younger than RekeyTimeout is outstanding;
// an older one is abandoned.
func (r *Remote) CreateInitiation() (*Initiation, error) {
	const op = "create initiation"
	l := r.local
	cfg := l.cfg

	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.hasIdentity {
		return nil, &ConfigError{Op: op, Err: ErrNotConfigured}
	}

	r.mu.Lock()
	ss, err := r.staticSecretLocked()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(ss[:])

	hs := &r.handshake
	hs.mu.Lock()
	defer hs.mu.Unlock()

	now := cfg.TimeProvider.Now()
	if hs.state == StateInitiationCreated && now.Sub(hs.lastInitiationSent) < cfg.RekeyTimeout {
		return nil, &HandshakeError{Op: op, Err: ErrBadState}
	}
	r.resetHandshakeLocked()

	ephemeral, err := crypto.GenerateKeyPairFrom(cfg.Random)
	if err != nil {
		return nil, &ResourceError{Op: op, Err: ErrRandom, Cause: err}
	}
	defer crypto.WipeKeyPair(ephemeral)

	msg := &Initiation{Ephemeral: ephemeral.Public}
	hash := initialHash
	chainKey := initialChainKey
	var key [HashSize]byte
	defer crypto.ZeroBytes(key[:])

	crypto.MixHash(&hash, &hash, r.public[:])
	crypto.KDF1(&chainKey, chainKey[:], msg.Ephemeral[:])
	crypto.MixHash(&hash, &hash, msg.Ephemeral[:])

	es, err := crypto.DeriveSharedSecret(r.public, ephemeral.Private)
	if err != nil {
		return nil, &HandshakeError{Op: op, Err: ErrInvalidKey, Cause: err}
	}
	crypto.KDF2(&chainKey, &key, chainKey[:], es[:])
	crypto.ZeroBytes(es[:])
	crypto.Seal(key, msg.Static[:0], l.public[:], hash[:])
	crypto.MixHash(&hash, &hash, msg.Static[:])

	crypto.KDF2(&chainKey, &key, chainKey[:], ss[:])
	timestamp := crypto.NextTimestamp(now, hs.lastSentTimestamp)
	crypto.Seal(key, msg.Timestamp[:0], timestamp[:], hash[:])
	crypto.MixHash(&hash, &hash, msg.Timestamp[:])

	index, err := l.upcall.IndexSet(r)
	if err != nil {
		crypto.ZeroBytes(chainKey[:])
		r.logger("CreateInitiation").WithError(err, "upcall", "index_set").Error("Failed to lease session index")
		return nil, &ResourceError{Op: op, Err: ErrIndexExhausted, Cause: err}
	}
	msg.Sender = index

	hs.localIndex = index
	hs.leased = true
	hs.localEphemeral = *ephemeral
	hs.hash = hash
	hs.chainKey = chainKey
	hs.lastSentTimestamp = timestamp
	hs.lastInitiationSent = now
	hs.started = now
	hs.state = StateInitiationCreated

	r.logger("CreateInitiation").WithField("local_index", index).Debug("Initiation created")
	return msg, nil
}

// CreateResponse answers the initiation recorded by Local.ConsumeInitiation
// and begins the responder's session, installed as the next keypair.
func (r *Remote) CreateResponse() (*Response, error) {
	const op = "create response"
	l := r.local
	cfg := l.cfg

	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.hasIdentity {
		return nil, &ConfigError{Op: op, Err: ErrNotConfigured}
	}

	r.mu.RLock()
	psk := r.psk
	r.mu.RUnlock()
	defer crypto.ZeroBytes(psk[:])

	hs := &r.handshake
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.state != StateInitiationConsumed {
		return nil, &HandshakeError{Op: op, Err: ErrBadState}
	}

	ephemeral, err := crypto.GenerateKeyPairFrom(cfg.Random)
	if err != nil {
		r.resetHandshakeLocked()
		return nil, &ResourceError{Op: op, Err: ErrRandom, Cause: err}
	}
	defer crypto.WipeKeyPair(ephemeral)

	msg := &Response{Ephemeral: ephemeral.Public, Receiver: hs.remoteIndex}
	hash := hs.hash
	chainKey := hs.chainKey
	var tau, key [HashSize]byte
	defer crypto.ZeroBytes(key[:])

	crypto.KDF1(&chainKey, chainKey[:], msg.Ephemeral[:])
	crypto.MixHash(&hash, &hash, msg.Ephemeral[:])

	ee, err := crypto.DeriveSharedSecret(hs.remoteEphemeral, ephemeral.Private)
	if err != nil {
		r.resetHandshakeLocked()
		return nil, &HandshakeError{Op: op, Err: ErrInvalidKey, Cause: err}
	}
	crypto.KDF1(&chainKey, chainKey[:], ee[:])
	crypto.ZeroBytes(ee[:])

	se, err := crypto.DeriveSharedSecret(r.public, ephemeral.Private)
	if err != nil {
		r.resetHandshakeLocked()
		return nil, &HandshakeError{Op: op, Err: ErrInvalidKey, Cause: err}
	}
	crypto.KDF1(&chainKey, chainKey[:], se[:])
	crypto.ZeroBytes(se[:])

	crypto.KDF3(&chainKey, &tau, &key, chainKey[:], psk[:])
	crypto.MixHash(&hash, &hash, tau[:])
	crypto.ZeroBytes(tau[:])
	crypto.Seal(key, msg.Empty[:0], nil, hash[:])
	crypto.MixHash(&hash, &hash, msg.Empty[:])

	index, err := l.upcall.IndexSet(r)
	if err != nil {
		crypto.ZeroBytes(chainKey[:])
		r.resetHandshakeLocked()
		r.logger("CreateResponse").WithError(err, "upcall", "index_set").Error("Failed to lease session index")
		return nil, &ResourceError{Op: op, Err: ErrIndexExhausted, Cause: err}
	}
	msg.Sender = index

	hs.localIndex = index
	hs.leased = true
	hs.hash = hash
	hs.chainKey = chainKey
	crypto.ZeroBytes(chainKey[:])
	hs.state = StateResponseCreated

	if err := r.beginSessionLocked(false); err != nil {
		return nil, err
	}

	r.logger("CreateResponse").
		WithFields(logrus.Fields{"local_index": index, "remote_index": msg.Receiver}).
		Debug("Response created")
	return msg, nil
}

// ConsumeResponse completes a handshake started by CreateInitiation and
// begins the initiator's session, installed as the current keypair.
func (r *Remote) ConsumeResponse(msg *Response) error {
	const op = "consume response"
	l := r.local

	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.hasIdentity {
		return &ConfigError{Op: op, Err: ErrNotConfigured}
	}

	r.mu.RLock()
	psk := r.psk
	r.mu.RUnlock()
	defer crypto.ZeroBytes(psk[:])

	hs := &r.handshake
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.state != StateInitiationCreated || msg.Receiver != hs.localIndex {
		return &HandshakeError{Op: op, Err: ErrBadState}
	}

	hash := hs.hash
	chainKey := hs.chainKey
	defer crypto.ZeroBytes(chainKey[:])
	var tau, key [HashSize]byte
	defer crypto.ZeroBytes(key[:])

	crypto.MixHash(&hash, &hash, msg.Ephemeral[:])
	crypto.KDF1(&chainKey, chainKey[:], msg.Ephemeral[:])

	ee, err := crypto.DeriveSharedSecret(msg.Ephemeral, hs.localEphemeral.Private)
	if err != nil {
		return &HandshakeError{Op: op, Err: ErrInvalidKey, Cause: err}
	}
	crypto.KDF1(&chainKey, chainKey[:], ee[:])
	crypto.ZeroBytes(ee[:])

	se, err := crypto.DeriveSharedSecret(msg.Ephemeral, l.private)
	if err != nil {
		return &HandshakeError{Op: op, Err: ErrInvalidKey, Cause: err}
	}
	crypto.KDF1(&chainKey, chainKey[:], se[:])
	crypto.ZeroBytes(se[:])

	crypto.KDF3(&chainKey, &tau, &key, chainKey[:], psk[:])
	crypto.MixHash(&hash, &hash, tau[:])
	crypto.ZeroBytes(tau[:])

	if _, err := crypto.Open(key, nil, msg.Empty[:], hash[:]); err != nil {
		r.logger("ConsumeResponse").Debug("Response failed authentication")
		return &HandshakeError{Op: op, Err: ErrAuthFailed, Cause: err}
	}
	crypto.MixHash(&hash, &hash, msg.Empty[:])

	hs.hash = hash
	hs.chainKey = chainKey
	hs.remoteIndex = msg.Sender
	hs.state = StateResponseConsumed

	if err := r.beginSessionLocked(true); err != nil {
		return err
	}

	r.logger("ConsumeResponse").
		WithFields(logrus.Fields{"local_index": msg.Receiver, "remote_index": msg.Sender}).
		Debug("Handshake complete")
	return nil
}

// beginSessionLocked derives the transport keys from the finished handshake,
// installs them and returns the handshake to StateZeroed. The handshake's
// index lease moves to the new keypair. The caller holds r.handshake.mu.
func (r *Remote) beginSessionLocked(isInitiator bool) error {
	hs := &r.handshake
	if (isInitiator && hs.state != StateResponseConsumed) || (!isInitiator && hs.state != StateResponseCreated) {
		return &HandshakeError{Op: "begin session", Err: ErrInternal}
	}

	now := r.local.cfg.TimeProvider.Now()
	kp := &keypair{
		localIndex:  hs.localIndex,
		remoteIndex: hs.remoteIndex,
		created:     now,
		isInitiator: isInitiator,
	}
	if isInitiator {
		crypto.KDF2(&kp.sendKey, &kp.recvKey, hs.chainKey[:], nil)
	} else {
		crypto.KDF2(&kp.recvKey, &kp.sendKey, hs.chainKey[:], nil)
	}
	kp.send = crypto.NewCipher(kp.sendKey)
	kp.recv = crypto.NewCipher(kp.recvKey)

	hs.leased = false
	hs.lastHandshake = now
	hs.clear()

	return r.installKeypair(kp)
}

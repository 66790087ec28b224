package noise

import (
	"errors"
	"sync"
	"time"

	"github.com/flynn/noise"
	"github.com/opd-ai/wgnoise/crypto"
	"github.com/opd-ai/wgnoise/limits"
	"github.com/opd-ai/wgnoise/replay"
)

// Slot names one of the three keypair positions of a Remote.
type Slot int

const (
	SlotNext Slot = iota
	SlotCurrent
	SlotPrevious
	slotCount
)

func (s Slot) String() string {
	switch s {
	case SlotNext:
		return "next"
	case SlotCurrent:
		return "current"
	case SlotPrevious:
		return "previous"
	default:
		return "unknown"
	}
}

type keypair struct {
	sendKey [KeySize]byte
	recvKey [KeySize]byte
	send    noise.Cipher
	recv    noise.Cipher
	counter replay.Counter

	localIndex  uint32
	remoteIndex uint32
	created     time.Time
	isInitiator bool
}

func (kp *keypair) wipe() {
	crypto.ZeroBytes(kp.sendKey[:])
	crypto.ZeroBytes(kp.recvKey[:])
	kp.send = nil
	kp.recv = nil
}

// KeypairInfo describes a resident keypair without exposing its keys.
type KeypairInfo struct {
	LocalIndex      uint32
	RemoteIndex     uint32
	Created         time.Time
	IsInitiator     bool
	Sent            uint64
	HighestReceived uint64
}

type keypairs struct {
	mu    sync.RWMutex
	slots [slotCount]*keypair
}

// lookupLocked finds the keypair addressed by a local index.
func (k *keypairs) lookupLocked(index uint32) (Slot, *keypair) {
	for s, kp := range k.slots {
		if kp != nil && kp.localIndex == index {
			return Slot(s), kp
		}
	}
	return slotCount, nil
}

// dropLocked evicts the keypair in slot s, releasing its index. The caller
// holds r.keypairs.mu for writing.
func (r *Remote) dropLocked(s Slot) {
	kp := r.keypairs.slots[s]
	if kp == nil {
		return
	}
	r.keypairs.slots[s] = nil
	r.local.upcall.IndexDrop(kp.localIndex)
	kp.wipe()
}

// installKeypair places a freshly derived keypair. The initiator uses it at
// once and keeps the old current as previous; the responder parks it as
// next until the peer proves it holds the same keys.
func (r *Remote) installKeypair(kp *keypair) error {
	k := &r.keypairs
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, resident := range k.slots {
		if resident == kp {
			return &SessionError{Op: "install keypair", Index: kp.localIndex, Err: ErrInternal}
		}
	}

	if kp.isInitiator {
		r.dropLocked(SlotPrevious)
		if k.slots[SlotNext] != nil {
			// An unconfirmed next is newer than current.
			k.slots[SlotPrevious] = k.slots[SlotNext]
			k.slots[SlotNext] = nil
			r.dropLocked(SlotCurrent)
		} else {
			k.slots[SlotPrevious] = k.slots[SlotCurrent]
		}
		k.slots[SlotCurrent] = kp
	} else {
		r.dropLocked(SlotNext)
		r.dropLocked(SlotPrevious)
		k.slots[SlotNext] = kp
	}
	return nil
}

// Encrypt seals plaintext under the current keypair. An empty plaintext
// produces a keepalive.
func (r *Remote) Encrypt(plaintext []byte) (*Data, error) {
	const op = "encrypt"
	cfg := r.local.cfg

	if err := limits.ValidatePlaintext(plaintext); err != nil {
		return nil, &SessionError{Op: op, Err: ErrMessageLength, Cause: err}
	}

	k := &r.keypairs
	k.mu.RLock()
	defer k.mu.RUnlock()

	kp := k.slots[SlotCurrent]
	if kp == nil {
		return nil, &SessionError{Op: op, Err: ErrNoCurrentKeypair}
	}
	if cfg.TimeProvider.Since(kp.created) >= cfg.RejectAfterTime {
		return nil, &SessionError{Op: op, Index: kp.remoteIndex, Err: ErrNoCurrentKeypair, Cause: ErrExpired}
	}

	counter, err := kp.counter.Next(cfg.RejectAfterMessages)
	if err != nil {
		return nil, &SessionError{Op: op, Index: kp.remoteIndex, Err: ErrCounterExhausted, Cause: err}
	}

	return &Data{
		Receiver: kp.remoteIndex,
		Counter:  counter,
		Content:  kp.send.Encrypt(make([]byte, 0, len(plaintext)+TagSize), counter, nil, plaintext),
	}, nil
}

// Decrypt opens a data message addressed to one of this peer's keypairs.
// The first message authenticated under the next keypair promotes it to
// current.
func (r *Remote) Decrypt(msg *Data) ([]byte, error) {
	const op = "decrypt"
	cfg := r.local.cfg

	if len(msg.Content) < TagSize {
		return nil, &SessionError{Op: op, Index: msg.Receiver, Err: ErrMessageLength}
	}

	k := &r.keypairs
	k.mu.RLock()
	slot, kp := k.lookupLocked(msg.Receiver)
	if kp == nil {
		k.mu.RUnlock()
		return nil, &SessionError{Op: op, Index: msg.Receiver, Err: ErrUnknownIndex}
	}
	if cfg.TimeProvider.Since(kp.created) >= cfg.RejectAfterTime || msg.Counter >= cfg.RejectAfterMessages {
		k.mu.RUnlock()
		return nil, &SessionError{Op: op, Index: msg.Receiver, Err: ErrExpired}
	}

	plaintext, err := kp.recv.Decrypt(nil, msg.Counter, nil, msg.Content)
	if err != nil {
		k.mu.RUnlock()
		return nil, &SessionError{Op: op, Index: msg.Receiver, Err: ErrAuthFailed, Cause: err}
	}
	if err := kp.counter.CheckAndMark(msg.Counter, cfg.RejectAfterMessages); err != nil {
		k.mu.RUnlock()
		if errors.Is(err, replay.ErrLimit) {
			return nil, &SessionError{Op: op, Index: msg.Receiver, Err: ErrExpired, Cause: err}
		}
		r.logger("Decrypt").
			WithField("counter", msg.Counter).
			WithError(err, "replay", "check_and_mark").
			Warn("Rejected replayed data message")
		return nil, &SessionError{Op: op, Index: msg.Receiver, Err: ErrReplayRejected, Cause: err}
	}
	k.mu.RUnlock()

	if slot == SlotNext {
		r.promoteNext(kp)
	}
	return plaintext, nil
}

// promoteNext makes kp current if it is still the next keypair.
func (r *Remote) promoteNext(kp *keypair) {
	k := &r.keypairs
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.slots[SlotNext] != kp {
		return
	}
	r.dropLocked(SlotPrevious)
	k.slots[SlotPrevious] = k.slots[SlotCurrent]
	k.slots[SlotCurrent] = kp
	k.slots[SlotNext] = nil

	r.logger("Decrypt").WithField("local_index", kp.localIndex).Debug("Promoted next keypair to current")
}

// Ready reports whether Encrypt can currently succeed.
func (r *Remote) Ready() bool {
	cfg := r.local.cfg
	k := &r.keypairs
	k.mu.RLock()
	defer k.mu.RUnlock()

	kp := k.slots[SlotCurrent]
	return kp != nil &&
		cfg.TimeProvider.Since(kp.created) < cfg.RejectAfterTime &&
		kp.counter.Sent() < cfg.RejectAfterMessages &&
		kp.counter.Highest() < cfg.RejectAfterMessages
}

// ShouldInitiate reports whether the host should start a new handshake:
// there is no usable session, the current one has sent too many messages,
// or it was initiated locally and has reached RekeyAfterTime. It is false
// while a recent initiation is still unanswered, and on the responder while
// its fresh keypair awaits the first packet from the peer.
func (r *Remote) ShouldInitiate() bool {
	cfg := r.local.cfg

	hs := &r.handshake
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	if hs.state == StateInitiationCreated && cfg.TimeProvider.Since(hs.lastInitiationSent) < cfg.RekeyTimeout {
		return false
	}

	k := &r.keypairs
	k.mu.RLock()
	defer k.mu.RUnlock()

	kp := k.slots[SlotCurrent]
	if kp == nil || cfg.TimeProvider.Since(kp.created) >= cfg.RejectAfterTime {
		next := k.slots[SlotNext]
		return next == nil || cfg.TimeProvider.Since(next.created) >= cfg.RejectAfterTime
	}
	if kp.counter.Sent() > cfg.RekeyAfterMessages {
		return true
	}
	return kp.isInitiator && cfg.TimeProvider.Since(kp.created) >= cfg.RekeyAfterTime
}

// Keypair describes the keypair in slot s, if any.
func (r *Remote) Keypair(s Slot) (KeypairInfo, bool) {
	if s < 0 || s >= slotCount {
		return KeypairInfo{}, false
	}

	k := &r.keypairs
	k.mu.RLock()
	defer k.mu.RUnlock()

	kp := k.slots[s]
	if kp == nil {
		return KeypairInfo{}, false
	}
	return KeypairInfo{
		LocalIndex:      kp.localIndex,
		RemoteIndex:     kp.remoteIndex,
		Created:         kp.created,
		IsInitiator:     kp.isInitiator,
		Sent:            kp.counter.Sent(),
		HighestReceived: kp.counter.Highest(),
	}, true
}

// ExpireCurrent evicts the current and next keypairs and abandons any
// handshake in progress, so the host may initiate immediately. The previous
// keypair keeps decrypting in-flight traffic.
func (r *Remote) ExpireCurrent() {
	hs := &r.handshake
	hs.mu.Lock()
	defer hs.mu.Unlock()

	r.resetHandshakeLocked()
	hs.lastInitiationSent = time.Time{}

	k := &r.keypairs
	k.mu.Lock()
	r.dropLocked(SlotNext)
	r.dropLocked(SlotCurrent)
	k.mu.Unlock()
}

// Clear evicts every keypair and zeroes the handshake. It is used when the
// peer is removed.
func (r *Remote) Clear() {
	hs := &r.handshake
	hs.mu.Lock()
	defer hs.mu.Unlock()

	r.resetHandshakeLocked()

	k := &r.keypairs
	k.mu.Lock()
	for s := Slot(0); s < slotCount; s++ {
		r.dropLocked(s)
	}
	k.mu.Unlock()
}

// ExpireStale evicts keypairs older than RejectAfterTime and abandons a
// handshake that has been pending longer than RekeyAttemptTime. It returns
// the number of keypairs evicted. Hosts call it periodically.
func (r *Remote) ExpireStale() int {
	cfg := r.local.cfg

	hs := &r.handshake
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.state != StateZeroed && cfg.TimeProvider.Since(hs.started) >= cfg.RekeyAttemptTime {
		r.logger("ExpireStale").WithField("state", hs.state.String()).Debug("Abandoned stale handshake")
		r.resetHandshakeLocked()
	}

	k := &r.keypairs
	k.mu.Lock()
	defer k.mu.Unlock()

	evicted := 0
	for s := Slot(0); s < slotCount; s++ {
		if kp := k.slots[s]; kp != nil && cfg.TimeProvider.Since(kp.created) >= cfg.RejectAfterTime {
			r.dropLocked(s)
			evicted++
		}
	}
	return evicted
}

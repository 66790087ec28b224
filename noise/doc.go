// Package noise implements the Noise_IKpsk2_25519_ChaChaPoly_BLAKE2s handshake
// and the transport sessions it produces, following the WireGuard construction.
//
// A process owns one Local identity. Every known peer is a Remote created
// against that Local. A handshake is four calls split across the two nodes:
//
//	Initiator                                   Responder
//	─────────                                   ─────────
//	msg1, _ := remote.CreateInitiation()
//	                               ── msg1 ──▶  peer, _ := local.ConsumeInitiation(msg1)
//	                                            msg2, _ := peer.CreateResponse()
//	_ = remote.ConsumeResponse(msg2) ◀── msg2 ──
//
// After CreateResponse and ConsumeResponse each side holds a Keypair and
// exchanges Data messages through Remote.Encrypt and Remote.Decrypt. The
// responder installs its keypair as "next" and only uses it for sending once
// the first authenticated data packet arrives under it.
//
// # Session Indices
//
// The host supplies an Upcall at NewLocal. The core leases a 32-bit index
// from it for every handshake, hands the lease to the keypair the handshake
// produces, and returns it through Upcall.IndexDrop when that keypair is
// evicted. Inbound data messages are routed to their Remote by the host using
// Data.Receiver before Decrypt is called.
//
// # Keypair Rotation
//
// Each Remote has three slots: next, current and previous. A new session on
// the initiating side becomes current immediately and demotes the old current
// to previous. On the responding side it waits in next. Older keypairs are
// wiped and their indices released as soon as they fall out of a slot.
//
// # Expiry
//
// The core owns no timers. Hosts call Remote.ShouldInitiate to learn when to
// rekey and Remote.ExpireStale periodically to drop old sessions.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Locks are always taken in
// the order Local, Remote, handshake, keypair set, replay counter. Upcall
// methods may be invoked with the handshake or keypair-set lock held and must
// not call back into the Remote.
//
// # Error Handling
//
// Errors carry one of the sentinel values below and can be matched with
// errors.Is. They are grouped by typed wrappers that errors.As recognises:
//   - *ConfigError: missing or bad local configuration (ErrNotConfigured,
//     ErrInvalidKey, ErrInvalidConfig)
//   - *HandshakeError: a handshake message was dropped (ErrStale, ErrBadState,
//     ErrAuthFailed, ErrFlood, ErrUnknownPeer, ErrInvalidKey)
//   - *SessionError: a data message was dropped or could not be produced
//     (ErrNoCurrentKeypair, ErrUnknownIndex, ErrExpired, ErrReplayRejected,
//     ErrCounterExhausted, ErrAuthFailed, ErrMessageLength)
//   - *ResourceError: the host could not lease an index, or the random
//     source failed (ErrIndexExhausted, ErrRandom)
//
// Only configuration and resource errors are worth surfacing to an operator;
// IsOperational reports them. Everything else is caused by peer input and the
// offending message should simply be dropped.
package noise

package noise

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates no local private key has been set
	ErrNotConfigured = errors.New("local identity not configured")
	// ErrInvalidKey indicates a key the curve operation rejected
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidConfig indicates inconsistent configuration values
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStale indicates an initiation timestamp not newer than the last accepted one
	ErrStale = errors.New("stale handshake timestamp")
	// ErrBadState indicates a handshake message arrived in the wrong state
	ErrBadState = errors.New("handshake in wrong state")
	// ErrAuthFailed indicates a message failed authentication
	ErrAuthFailed = errors.New("authentication failed")
	// ErrFlood indicates initiations from one peer arriving faster than allowed
	ErrFlood = errors.New("handshake initiation flood")
	// ErrUnknownPeer indicates an initiation from a static key the host does not know
	ErrUnknownPeer = errors.New("unknown peer")

	// ErrNoCurrentKeypair indicates there is no usable session to send with
	ErrNoCurrentKeypair = errors.New("no current keypair")
	// ErrUnknownIndex indicates a data message for an index no keypair holds
	ErrUnknownIndex = errors.New("unknown receiver index")
	// ErrExpired indicates the addressed keypair is past its age or message limit
	ErrExpired = errors.New("keypair expired")
	// ErrReplayRejected indicates a duplicate or too-old counter
	ErrReplayRejected = errors.New("replayed counter")
	// ErrCounterExhausted indicates the send counter reached its limit
	ErrCounterExhausted = errors.New("send counter exhausted")

	// ErrIndexExhausted indicates the host could not lease a session index
	ErrIndexExhausted = errors.New("session index unavailable")
	// ErrRandom indicates the random source failed
	ErrRandom = errors.New("random source failed")

	// ErrInternal indicates a broken internal invariant
	ErrInternal = errors.New("internal invariant violated")

	// ErrMessageLength indicates a message of the wrong size
	ErrMessageLength = errors.New("invalid message length")
)

// ConfigError reports a local configuration problem.
type ConfigError struct {
	Op    string
	Err   error
	Cause error
}

func (e *ConfigError) Error() string { return format("config", e.Op, e.Err, e.Cause) }

func (e *ConfigError) Unwrap() []error { return unwrapAll(e.Err, e.Cause) }

// HandshakeError reports a dropped handshake message.
type HandshakeError struct {
	Op    string
	Err   error
	Cause error
}

func (e *HandshakeError) Error() string { return format("handshake", e.Op, e.Err, e.Cause) }

func (e *HandshakeError) Unwrap() []error { return unwrapAll(e.Err, e.Cause) }

// SessionError reports a transport failure. Index is the receiver index of
// the message involved, or zero when sending.
type SessionError struct {
	Op    string
	Index uint32
	Err   error
	Cause error
}

func (e *SessionError) Error() string {
	return format("session", fmt.Sprintf("%s index %d", e.Op, e.Index), e.Err, e.Cause)
}

func (e *SessionError) Unwrap() []error { return unwrapAll(e.Err, e.Cause) }

// ResourceError reports a failure of a host-supplied resource.
type ResourceError struct {
	Op    string
	Err   error
	Cause error
}

func (e *ResourceError) Error() string { return format("resource", e.Op, e.Err, e.Cause) }

func (e *ResourceError) Unwrap() []error { return unwrapAll(e.Err, e.Cause) }

// IsOperational reports whether err should be surfaced to the host operator
// rather than treated as a dropped packet.
func IsOperational(err error) bool {
	var cfgErr *ConfigError
	var resErr *ResourceError
	return errors.As(err, &cfgErr) || errors.As(err, &resErr)
}

func format(kind, op string, err, cause error) string {
	msg := fmt.Sprintf("noise %s: %s: %v", kind, op, err)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return msg
}

func unwrapAll(errs ...error) []error {
	out := errs[:0]
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

package noise

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrappers(t *testing.T) {
	cause := errors.New("underlying")

	tests := []struct {
		name        string
		err         error
		sentinel    error
		operational bool
		contains    string
	}{
		{"config", &ConfigError{Op: "set private", Err: ErrInvalidKey, Cause: cause}, ErrInvalidKey, true, "noise config: set private: invalid key: underlying"},
		{"handshake", &HandshakeError{Op: "consume initiation", Err: ErrStale}, ErrStale, false, "noise handshake: consume initiation: stale handshake timestamp"},
		{"session", &SessionError{Op: "decrypt", Index: 42, Err: ErrReplayRejected, Cause: cause}, ErrReplayRejected, false, "decrypt index 42"},
		{"resource", &ResourceError{Op: "create initiation", Err: ErrIndexExhausted, Cause: cause}, ErrIndexExhausted, true, "session index unavailable: underlying"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.operational, IsOperational(tt.err))
			assert.Contains(t, tt.err.Error(), tt.contains)

			wrapped := fmt.Errorf("host: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.operational, IsOperational(wrapped))
		})
	}
}

func TestErrorCauseIsReachable(t *testing.T) {
	cause := errors.New("table full")
	err := &ResourceError{Op: "create response", Err: ErrIndexExhausted, Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Len(t, err.Unwrap(), 2)
	assert.Len(t, (&HandshakeError{Op: "x", Err: ErrBadState}).Unwrap(), 1)
}

func TestIsOperationalOnForeignErrors(t *testing.T) {
	assert.False(t, IsOperational(nil))
	assert.False(t, IsOperational(errors.New("other")))
}

package noise

import (
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/opd-ai/wgnoise/crypto"
	"github.com/opd-ai/wgnoise/replay"
	"github.com/sirupsen/logrus"
)

// Default session limits.
const (
	DefaultRekeyAfterMessages      = uint64(1) << 60
	DefaultRejectAfterMessages     = uint64(math.MaxUint64 - replay.WindowSize - 1)
	DefaultRekeyAfterTime          = 120 * time.Second
	DefaultRejectAfterTime         = 180 * time.Second
	DefaultRekeyAttemptTime        = 90 * time.Second
	DefaultRekeyTimeout            = 5 * time.Second
	DefaultKeepaliveTimeout        = 10 * time.Second
	DefaultHandshakeInitiationRate = time.Second / 50
)

// Config holds the session limits and injectable dependencies of a Local.
// It is read but never modified after NewLocal.
type Config struct {
	// RekeyAfterMessages is the send count after which a new handshake is due.
	RekeyAfterMessages uint64
	// RejectAfterMessages is the counter value at which a keypair is unusable.
	RejectAfterMessages uint64

	// RekeyAfterTime is the age after which the initiator should rekey.
	RekeyAfterTime time.Duration
	// RejectAfterTime is the age at which a keypair is unusable.
	RejectAfterTime time.Duration
	// RekeyAttemptTime bounds how long an unfinished handshake is kept.
	RekeyAttemptTime time.Duration
	// RekeyTimeout is the minimum interval between initiations to one peer.
	RekeyTimeout time.Duration
	// KeepaliveTimeout is how long a host waits after receiving data it has
	// not answered before sending a keepalive.
	KeepaliveTimeout time.Duration
	// HandshakeInitiationRate is the minimum interval between accepted
	// initiations from one peer.
	HandshakeInitiationRate time.Duration

	// TimeProvider supplies the clock. Defaults to crypto.DefaultTimeProvider.
	TimeProvider crypto.TimeProvider
	// Random supplies ephemeral key entropy. Defaults to crypto/rand.Reader.
	Random io.Reader
	// Logger receives diagnostics. Defaults to logrus.StandardLogger().
	Logger *logrus.Logger
}

// NewConfig returns a Config with the default limits and dependencies.
func NewConfig() *Config {
	return &Config{
		RekeyAfterMessages:      DefaultRekeyAfterMessages,
		RejectAfterMessages:     DefaultRejectAfterMessages,
		RekeyAfterTime:          DefaultRekeyAfterTime,
		RejectAfterTime:         DefaultRejectAfterTime,
		RekeyAttemptTime:        DefaultRekeyAttemptTime,
		RekeyTimeout:            DefaultRekeyTimeout,
		KeepaliveTimeout:        DefaultKeepaliveTimeout,
		HandshakeInitiationRate: DefaultHandshakeInitiationRate,
		TimeProvider:            crypto.DefaultTimeProvider{},
		Random:                  rand.Reader,
		Logger:                  logrus.StandardLogger(),
	}
}

// Validate checks that the limits are consistent.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return &ConfigError{Op: "validate", Err: ErrInvalidConfig, Cause: fmt.Errorf(format, args...)}
	}

	switch {
	case c.RejectAfterMessages == 0:
		return invalid("RejectAfterMessages must be positive")
	case c.RejectAfterMessages > DefaultRejectAfterMessages:
		return invalid("RejectAfterMessages %d exceeds %d", c.RejectAfterMessages, DefaultRejectAfterMessages)
	case c.RekeyAfterMessages > c.RejectAfterMessages:
		return invalid("RekeyAfterMessages %d exceeds RejectAfterMessages %d", c.RekeyAfterMessages, c.RejectAfterMessages)
	case c.RejectAfterTime <= 0:
		return invalid("RejectAfterTime must be positive")
	case c.RekeyAfterTime <= 0 || c.RekeyAfterTime > c.RejectAfterTime:
		return invalid("RekeyAfterTime %v must be in (0, %v]", c.RekeyAfterTime, c.RejectAfterTime)
	case c.RekeyAttemptTime <= 0:
		return invalid("RekeyAttemptTime must be positive")
	case c.RekeyTimeout < 0 || c.KeepaliveTimeout < 0 || c.HandshakeInitiationRate < 0:
		return invalid("timeouts must not be negative")
	}
	return nil
}

// withDefaults returns a copy of c with nil dependencies filled in.
func (c *Config) withDefaults() *Config {
	out := *c
	if out.TimeProvider == nil {
		out.TimeProvider = crypto.DefaultTimeProvider{}
	}
	if out.Random == nil {
		out.Random = rand.Reader
	}
	if out.Logger == nil {
		out.Logger = logrus.StandardLogger()
	}
	return &out
}

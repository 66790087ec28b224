package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the size in bytes of X25519 public and private keys.
const KeySize = curve25519.ScalarSize

// ErrInvalidScalar is returned when the scalar multiplication rejects a private key.
var ErrInvalidScalar = errors.New("invalid X25519 scalar")

// KeyPair is an X25519 key pair, used both for static identities and for
// handshake ephemerals.
type KeyPair struct {
	Public  [KeySize]byte
	Private [KeySize]byte
}

// GenerateKeyPair creates a new random key pair from crypto/rand.
func GenerateKeyPair() (*KeyPair, error) {
	return GenerateKeyPairFrom(rand.Reader)
}

// GenerateKeyPairFrom creates a new key pair drawing entropy from random.
// Tests pass a seeded reader to obtain reproducible handshakes.
func GenerateKeyPairFrom(random io.Reader) (*KeyPair, error) {
	if random == nil {
		random = rand.Reader
	}

	dh, err := Suite.GenerateKeypair(random)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	if len(dh.Private) != KeySize || len(dh.Public) != KeySize {
		return nil, fmt.Errorf("unexpected key length %d/%d", len(dh.Private), len(dh.Public))
	}

	kp := &KeyPair{}
	copy(kp.Private[:], dh.Private)
	copy(kp.Public[:], dh.Public)
	ZeroBytes(dh.Private)

	return kp, nil
}

// FromSecretKey clamps secretKey and derives its public key.
// It only fails when the scalar multiplication itself reports an invalid
// scalar; any 32-byte string clamps to a usable private key.
func FromSecretKey(secretKey [KeySize]byte) (*KeyPair, error) {
	kp := &KeyPair{Private: secretKey}
	Clamp(&kp.Private)

	public, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		ZeroBytes(kp.Private[:])
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	copy(kp.Public[:], public)

	if IsZero(kp.Public[:]) {
		ZeroBytes(kp.Private[:])
		return nil, ErrInvalidScalar
	}

	return kp, nil
}

// Clamp applies the RFC 7748 clamping to an X25519 private key in place.
func Clamp(key *[KeySize]byte) {
	key[0] &= 248
	key[31] = (key[31] & 127) | 64
}

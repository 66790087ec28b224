package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// ErrInvalidPublicKey is returned when a peer public key yields a low-order result.
var ErrInvalidPublicKey = errors.New("invalid X25519 public key")

// DeriveSharedSecret computes the X25519 shared secret between privateKey and
// peerPublicKey. Low-order public keys, which would produce an all-zero
// secret, are rejected.
func DeriveSharedSecret(peerPublicKey, privateKey [KeySize]byte) ([KeySize]byte, error) {
	var result [KeySize]byte

	sharedSecret, err := curve25519.X25519(privateKey[:], peerPublicKey[:])
	if err != nil {
		NewLogger("DeriveSharedSecret").
			WithFields(SecureFieldHash(peerPublicKey[:], "peer_key")).
			WithError(err, "ecdh", "x25519").
			Debug("X25519 computation rejected peer key")
		return result, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	copy(result[:], sharedSecret)
	ZeroBytes(sharedSecret)

	return result, nil
}

package crypto

import (
	"errors"

	"github.com/flynn/noise"
)

// TagSize is the Poly1305 authenticator size appended to every ciphertext.
const TagSize = 16

// ErrAuthentication is returned when a ciphertext fails to authenticate.
var ErrAuthentication = errors.New("message authentication failed")

// NewCipher returns a ChaCha20-Poly1305 cipher keyed with key. Nonces are the
// 64-bit little-endian counters used by the transport.
func NewCipher(key [KeySize]byte) noise.Cipher {
	return Suite.Cipher(key)
}

// Seal encrypts plaintext under key with a zero nonce, authenticating ad,
// and appends the result to dst.
func Seal(key [KeySize]byte, dst, plaintext, ad []byte) []byte {
	return Suite.Cipher(key).Encrypt(dst, 0, ad, plaintext)
}

// Open authenticates and decrypts ciphertext sealed by Seal, appending the
// plaintext to dst.
func Open(key [KeySize]byte, dst, ciphertext, ad []byte) ([]byte, error) {
	if len(ciphertext) < TagSize {
		return nil, ErrAuthentication
	}
	out, err := Suite.Cipher(key).Decrypt(dst, 0, ad, ciphertext)
	if err != nil {
		return nil, ErrAuthentication
	}
	return out, nil
}

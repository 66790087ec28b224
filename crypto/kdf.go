package crypto

import (
	"crypto/hmac"

	"github.com/flynn/noise"
)

// HashSize is the BLAKE2s-256 digest size.
const HashSize = 32

// Suite is the fixed cipher suite: Curve25519, ChaCha20-Poly1305, BLAKE2s.
var Suite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashBLAKE2s)

// Hash writes BLAKE2s(data[0] || data[1] || ...) into dst.
func Hash(dst *[HashSize]byte, data ...[]byte) {
	h := Suite.Hash()
	for _, d := range data {
		h.Write(d)
	}
	h.Sum(dst[:0])
}

// MixHash sets dst to BLAKE2s(h || data). dst and h may be the same array.
func MixHash(dst, h *[HashSize]byte, data []byte) {
	Hash(dst, h[:], data)
}

// HMAC1 sets sum to HMAC-BLAKE2s(key, in0).
func HMAC1(sum *[HashSize]byte, key, in0 []byte) {
	mac := hmac.New(Suite.Hash, key)
	mac.Write(in0)
	mac.Sum(sum[:0])
}

// HMAC2 sets sum to HMAC-BLAKE2s(key, in0 || in1).
func HMAC2(sum *[HashSize]byte, key, in0, in1 []byte) {
	mac := hmac.New(Suite.Hash, key)
	mac.Write(in0)
	mac.Write(in1)
	mac.Sum(sum[:0])
}

// KDF1 derives one output from key and input.
func KDF1(t0 *[HashSize]byte, key, input []byte) {
	var prk [HashSize]byte
	HMAC1(&prk, key, input)
	HMAC1(t0, prk[:], []byte{0x1})
	ZeroBytes(prk[:])
}

// KDF2 derives two outputs from key and input.
func KDF2(t0, t1 *[HashSize]byte, key, input []byte) {
	var prk [HashSize]byte
	HMAC1(&prk, key, input)
	HMAC1(t0, prk[:], []byte{0x1})
	HMAC2(t1, prk[:], t0[:], []byte{0x2})
	ZeroBytes(prk[:])
}

// KDF3 derives three outputs from key and input.
func KDF3(t0, t1, t2 *[HashSize]byte, key, input []byte) {
	var prk [HashSize]byte
	HMAC1(&prk, key, input)
	HMAC1(t0, prk[:], []byte{0x1})
	HMAC2(t1, prk[:], t0[:], []byte{0x2})
	HMAC2(t2, prk[:], t1[:], []byte{0x3})
	ZeroBytes(prk[:])
}

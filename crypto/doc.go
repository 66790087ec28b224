// Package crypto wraps the primitives used by the wgnoise handshake engine.
//
// The cipher suite is fixed: X25519 for Diffie-Hellman, ChaCha20-Poly1305 for
// authenticated encryption and BLAKE2s for hashing. The suite itself comes from
// github.com/flynn/noise and the Diffie-Hellman function from
// golang.org/x/crypto/curve25519; this package only adds the pieces the
// WireGuard construction needs on top of them.
//
// # Key Generation
//
//	keys, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer crypto.WipeKeyPair(keys)
//
//	// Derive the public half from an existing private key
//	keys, err = crypto.FromSecretKey(secret)
//
// # Hashing and Key Derivation
//
// [MixHash] folds data into a running BLAKE2s transcript hash. [KDF1], [KDF2]
// and [KDF3] implement the HMAC-BLAKE2s based HKDF used for the chaining key:
//
//	crypto.KDF2(&chainKey, &key, chainKey[:], sharedSecret[:])
//
// Outputs may alias the key input.
//
// # Authenticated Encryption
//
// [Seal] and [Open] encrypt with a zero nonce and are only meant for handshake
// fields, where every key is used exactly once. Transport data uses a
// [noise.Cipher] from [NewCipher] with an explicit counter nonce.
//
// # Timestamps
//
// Initiation messages carry a TAI64N timestamp. [Timestamp] encodes a time and
// [NextTimestamp] guarantees a strictly increasing sequence even when the clock
// does not move between two calls.
//
// # Deterministic Testing
//
// Time-dependent code takes a [TimeProvider]. [MockTimeProvider] lets tests
// advance the clock explicitly:
//
//	clock := crypto.NewMockTimeProvider(time.Unix(1000, 0))
//	clock.Advance(3 * time.Minute)
//
// # Secure Memory Handling
//
// [ZeroBytes] and [WipeKeyPair] overwrite key material once it is no longer
// needed. Go gives no hard guarantee that copies made by the runtime are erased.
package crypto

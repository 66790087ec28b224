// Package limits provides the size constants and validation functions for
// transport data messages. Every component that builds or parses a data
// message checks sizes here so the limits are enforced in one place.
//
// # Message Size Hierarchy
//
//   - DataHeaderSize (12 bytes): receiver index (4) and counter (8).
//   - TagSize (16 bytes): the Poly1305 authenticator appended to every
//     ciphertext.
//   - DataMinSize (28 bytes): an empty, authenticated data message. Empty
//     payloads are keepalives and are valid.
//   - MaxSegmentSize (65535 bytes): the largest data message on the wire.
//   - MaxContentSize: the largest plaintext that still fits MaxSegmentSize
//     after header and tag.
//
// DefaultMTU is the representative tunnel MTU used by hosts and tests.
//
// # Validation Functions
//
//	if err := limits.ValidatePlaintext(payload); err != nil {
//	    // ErrMessageTooLarge
//	}
//
//	if err := limits.ValidateDataMessage(datagram); err != nil {
//	    // ErrMessageTooShort or ErrMessageTooLarge
//	}
package limits

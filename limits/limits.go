package limits

import (
	"errors"
	"fmt"
)

const (
	// DataHeaderSize is the receiver index plus the 64-bit counter.
	DataHeaderSize = 4 + 8

	// TagSize is the AEAD authenticator size.
	TagSize = 16

	// DataMinSize is the size of a data message with an empty payload.
	DataMinSize = DataHeaderSize + TagSize

	// MaxSegmentSize is the largest data message accepted on the wire.
	MaxSegmentSize = (1 << 16) - 1

	// MaxContentSize is the largest plaintext a data message can carry.
	MaxContentSize = MaxSegmentSize - DataHeaderSize - TagSize

	// DefaultMTU is the usual tunnel MTU
	DefaultMTU = 1420
)

var (
	// ErrMessageTooLarge indicates a message exceeds its maximum size
	ErrMessageTooLarge = errors.New("message too large")

	// ErrMessageTooShort indicates a message is smaller than its minimum size
	ErrMessageTooShort = errors.New("message too short")
)

// ValidateMessageSize checks that message is at most maxSize bytes.
// Empty messages are valid.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidatePlaintext checks a transport payload against MaxContentSize.
func ValidatePlaintext(plaintext []byte) error {
	if len(plaintext) > MaxContentSize {
		return fmt.Errorf("%w: plaintext size %d exceeds limit %d", ErrMessageTooLarge, len(plaintext), MaxContentSize)
	}
	return nil
}

// ValidateDataMessage checks the length of an encoded data message.
func ValidateDataMessage(message []byte) error {
	if len(message) < DataMinSize {
		return fmt.Errorf("%w: data message size %d below minimum %d", ErrMessageTooShort, len(message), DataMinSize)
	}
	if len(message) > MaxSegmentSize {
		return fmt.Errorf("%w: data message size %d exceeds limit %d", ErrMessageTooLarge, len(message), MaxSegmentSize)
	}
	return nil
}

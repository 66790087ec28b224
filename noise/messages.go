package noise

import (
	"encoding/binary"
	"fmt"

	"github.com/opd-ai/wgnoise/crypto"
	"github.com/opd-ai/wgnoise/limits"
)

const (
	// Construction names the handshake pattern and cipher suite.
	Construction = "Noise_IKpsk2_25519_ChaChaPoly_BLAKE2s"
	// Identifier is mixed into the initial hash.
	Identifier = "WireGuard v1 zx2c4 Jason@zx2c4.com"
)

// Field sizes.
const (
	KeySize       = crypto.KeySize
	PSKSize       = 32
	TagSize       = crypto.TagSize
	HashSize      = crypto.HashSize
	TimestampSize = crypto.TimestampSize
)

// Encoded message sizes.
const (
	InitiationSize  = 4 + KeySize + (KeySize + TagSize) + (TimestampSize + TagSize)
	ResponseSize    = 4 + 4 + KeySize + TagSize
	DataMinSize     = limits.DataMinSize
	DataHeaderSize  = limits.DataHeaderSize
	DataMaxSize     = limits.MaxSegmentSize
	MaxPayloadBytes = limits.MaxContentSize
)

var (
	initialChainKey [HashSize]byte
	initialHash     [HashSize]byte
)

func init() {
	crypto.Hash(&initialChainKey, []byte(Construction))
	crypto.Hash(&initialHash, initialChainKey[:], []byte(Identifier))
}

// Initiation is the first handshake message, sent by the initiator.
//
//	offset  size  field
//	0       4     Sender (little-endian)
//	4       32    Ephemeral
//	36      48    Static (sealed initiator public key)
//	84      28    Timestamp (sealed TAI64N)
type Initiation struct {
	Sender    uint32
	Ephemeral [KeySize]byte
	Static    [KeySize + TagSize]byte
	Timestamp [TimestampSize + TagSize]byte
}

// MarshalBinary encodes m into its InitiationSize wire form.
func (m *Initiation) MarshalBinary() ([]byte, error) {
	b := make([]byte, InitiationSize)
	binary.LittleEndian.PutUint32(b[0:4], m.Sender)
	n := 4
	n += copy(b[n:], m.Ephemeral[:])
	n += copy(b[n:], m.Static[:])
	copy(b[n:], m.Timestamp[:])
	return b, nil
}

// UnmarshalBinary decodes an initiation. b must be exactly InitiationSize bytes.
func (m *Initiation) UnmarshalBinary(b []byte) error {
	if len(b) != InitiationSize {
		return fmt.Errorf("%w: initiation is %d bytes, want %d", ErrMessageLength, len(b), InitiationSize)
	}
	m.Sender = binary.LittleEndian.Uint32(b[0:4])
	n := 4
	n += copy(m.Ephemeral[:], b[n:])
	n += copy(m.Static[:], b[n:])
	copy(m.Timestamp[:], b[n:])
	return nil
}

// Response is the second handshake message, sent by the responder.
//
//	offset  size  field
//	0       4     Sender
//	4       4     Receiver
//	8       32    Ephemeral
//	40      16    Empty (tag over an empty payload)
type Response struct {
	Sender    uint32
	Receiver  uint32
	Ephemeral [KeySize]byte
	Empty     [TagSize]byte
}

// MarshalBinary encodes m into its ResponseSize wire form.
func (m *Response) MarshalBinary() ([]byte, error) {
	b := make([]byte, ResponseSize)
	binary.LittleEndian.PutUint32(b[0:4], m.Sender)
	binary.LittleEndian.PutUint32(b[4:8], m.Receiver)
	copy(b[8:], m.Ephemeral[:])
	copy(b[8+KeySize:], m.Empty[:])
	return b, nil
}

// UnmarshalBinary decodes a response. b must be exactly ResponseSize bytes.
func (m *Response) UnmarshalBinary(b []byte) error {
	if len(b) != ResponseSize {
		return fmt.Errorf("%w: response is %d bytes, want %d", ErrMessageLength, len(b), ResponseSize)
	}
	m.Sender = binary.LittleEndian.Uint32(b[0:4])
	m.Receiver = binary.LittleEndian.Uint32(b[4:8])
	copy(m.Ephemeral[:], b[8:])
	copy(m.Empty[:], b[8+KeySize:])
	return nil
}

// Data is a transport message. Content holds the ciphertext followed by
// its tag.
//
//	offset  size  field
//	0       4     Receiver
//	4       8     Counter
//	12      n+16  Content
type Data struct {
	Receiver uint32
	Counter  uint64
	Content  []byte
}

// MarshalBinary encodes m. Content must include its tag.
func (m *Data) MarshalBinary() ([]byte, error) {
	b := make([]byte, DataHeaderSize+len(m.Content))
	binary.LittleEndian.PutUint32(b[0:4], m.Receiver)
	binary.LittleEndian.PutUint64(b[4:12], m.Counter)
	copy(b[DataHeaderSize:], m.Content)
	if err := limits.ValidateDataMessage(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMessageLength, err)
	}
	return b, nil
}

// UnmarshalBinary decodes a data message. Content is copied out of b.
func (m *Data) UnmarshalBinary(b []byte) error {
	if err := limits.ValidateDataMessage(b); err != nil {
		return fmt.Errorf("%w: %v", ErrMessageLength, err)
	}
	m.Receiver = binary.LittleEndian.Uint32(b[0:4])
	m.Counter = binary.LittleEndian.Uint64(b[4:12])
	m.Content = append(m.Content[:0], b[DataHeaderSize:]...)
	return nil
}

package transport

import (
	"errors"
	"fmt"

	"github.com/opd-ai/wgnoise/limits"
)

// PacketType identifies the message carried by a datagram.
type PacketType byte

const (
	PacketInitiation PacketType = iota + 1
	PacketResponse
	PacketCookieReply // reserved, never sent
	PacketData
)

func (t PacketType) String() string {
	switch t {
	case PacketInitiation:
		return "initiation"
	case PacketResponse:
		return "response"
	case PacketCookieReply:
		return "cookie reply"
	case PacketData:
		return "data"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// MaxPacketSize is the largest datagram a transport reads or writes.
const MaxPacketSize = 1 + limits.MaxSegmentSize

var (
	// ErrPacketTooShort indicates a datagram without a type byte
	ErrPacketTooShort = errors.New("packet too short")
	// ErrNilData indicates a packet with no payload
	ErrNilData = errors.New("packet data is nil")
)

// Packet is one typed datagram.
type Packet struct {
	PacketType PacketType
	Data       []byte
}

// Serialize converts a packet to a byte slice for transmission.
func (p *Packet) Serialize() ([]byte, error) {
	if p.Data == nil {
		return nil, ErrNilData
	}
	if err := limits.ValidateMessageSize(p.Data, MaxPacketSize-1); err != nil {
		return nil, err
	}

	result := make([]byte, 1+len(p.Data))
	result[0] = byte(p.PacketType)
	copy(result[1:], p.Data)

	return result, nil
}

// ParsePacket converts a byte slice to a Packet. The payload is copied.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < 1 {
		return nil, ErrPacketTooShort
	}

	packet := &Packet{
		PacketType: PacketType(data[0]),
		Data:       make([]byte, len(data)-1),
	}
	copy(packet.Data, data[1:])

	return packet, nil
}

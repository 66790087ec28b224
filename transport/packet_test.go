package transport

import (
	"testing"

	"github.com/opd-ai/wgnoise/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketSerializeParse(t *testing.T) {
	tests := []struct {
		name   string
		packet *Packet
	}{
		{"initiation", &Packet{PacketType: PacketInitiation, Data: make([]byte, 112)}},
		{"response", &Packet{PacketType: PacketResponse, Data: []byte{1, 2, 3}}},
		{"empty data", &Packet{PacketType: PacketData, Data: []byte{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.packet.Serialize()
			require.NoError(t, err)
			assert.Equal(t, byte(tt.packet.PacketType), raw[0])
			assert.Len(t, raw, 1+len(tt.packet.Data))

			parsed, err := ParsePacket(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.packet.PacketType, parsed.PacketType)
			assert.Equal(t, tt.packet.Data, parsed.Data)
		})
	}
}

func TestPacketErrors(t *testing.T) {
	_, err := (&Packet{PacketType: PacketData}).Serialize()
	assert.ErrorIs(t, err, ErrNilData)

	_, err = (&Packet{PacketType: PacketData, Data: make([]byte, MaxPacketSize)}).Serialize()
	assert.ErrorIs(t, err, limits.ErrMessageTooLarge)

	raw, err := (&Packet{PacketType: PacketData, Data: make([]byte, MaxPacketSize-1)}).Serialize()
	require.NoError(t, err)
	assert.Len(t, raw, MaxPacketSize)

	_, err = ParsePacket(nil)
	assert.ErrorIs(t, err, ErrPacketTooShort)
}

func TestParsePacketCopies(t *testing.T) {
	raw := []byte{byte(PacketData), 9, 9}
	parsed, err := ParsePacket(raw)
	require.NoError(t, err)

	raw[1] = 0
	assert.Equal(t, []byte{9, 9}, parsed.Data)
}

func TestPacketTypeString(t *testing.T) {
	assert.Equal(t, "initiation", PacketInitiation.String())
	assert.Equal(t, "response", PacketResponse.String())
	assert.Equal(t, "cookie reply", PacketCookieReply.String())
	assert.Equal(t, "data", PacketData.String())
	assert.Equal(t, "unknown(200)", PacketType(200).String())
}

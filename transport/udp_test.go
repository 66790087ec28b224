package transport

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestUDPTransportDelivers(t *testing.T) {
	a, err := NewUDPTransport("127.0.0.1:0", quietLogger())
	require.NoError(t, err)
	defer a.Close()
	b, err := NewUDPTransport("127.0.0.1:0", quietLogger())
	require.NoError(t, err)
	defer b.Close()

	type delivery struct {
		packet *Packet
		from   net.Addr
	}
	received := make(chan delivery, 1)
	b.RegisterHandler(PacketData, func(p *Packet, addr net.Addr) error {
		received <- delivery{p, addr}
		return nil
	})

	require.NoError(t, a.Send(&Packet{PacketType: PacketData, Data: []byte("payload")}, b.LocalAddr()))

	select {
	case d := <-received:
		assert.Equal(t, PacketData, d.packet.PacketType)
		assert.Equal(t, []byte("payload"), d.packet.Data)
		assert.Equal(t, a.LocalAddr().String(), d.from.String())
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for packet")
	}
}

func TestUDPTransportIgnoresUnregisteredTypes(t *testing.T) {
	a, err := NewUDPTransport("127.0.0.1:0", quietLogger())
	require.NoError(t, err)
	defer a.Close()
	b, err := NewUDPTransport("127.0.0.1:0", quietLogger())
	require.NoError(t, err)
	defer b.Close()

	received := make(chan *Packet, 2)
	b.RegisterHandler(PacketResponse, func(p *Packet, _ net.Addr) error {
		received <- p
		return nil
	})

	require.NoError(t, a.Send(&Packet{PacketType: PacketInitiation, Data: []byte{1}}, b.LocalAddr()))
	require.NoError(t, a.Send(&Packet{PacketType: PacketResponse, Data: []byte{2}}, b.LocalAddr()))

	select {
	case p := <-received:
		assert.Equal(t, PacketResponse, p.PacketType)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for packet")
	}
	assert.Len(t, received, 0)
}

func TestUDPTransportClose(t *testing.T) {
	tr, err := NewUDPTransport("127.0.0.1:0", nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- tr.Close() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestNewUDPTransportBadAddress(t *testing.T) {
	_, err := NewUDPTransport("not-an-address", nil)
	assert.Error(t, err)
}

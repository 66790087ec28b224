package transport

import (
	"net"
)

// PacketHandler processes one datagram of a registered type. addr is the
// sender. A returned error is logged and the datagram dropped.
type PacketHandler func(packet *Packet, addr net.Addr) error

// Transport carries typed datagrams between hosts. It makes no delivery
// or ordering promise; the handshake and replay window tolerate loss and
// reordering.
type Transport interface {
	// Send frames packet and writes it to addr.
	Send(packet *Packet, addr net.Addr) error

	// RegisterHandler routes every received packet of packetType to handler.
	// Packets of unregistered types are discarded.
	RegisterHandler(packetType PacketType, handler PacketHandler)

	// LocalAddr returns the bound address.
	LocalAddr() net.Addr

	// Close stops delivery and releases the socket.
	Close() error
}

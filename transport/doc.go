// Package transport carries handshake and data messages between hosts over
// UDP.
//
// Every datagram starts with a one-byte PacketType followed by the message
// encoding produced by the noise package:
//
//	[type (1 byte)][message (variable length)]
//
// Example:
//
//	tr, err := transport.NewUDPTransport("127.0.0.1:0", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Close()
//
//	tr.RegisterHandler(transport.PacketData, func(p *transport.Packet, addr net.Addr) error {
//	    var msg noise.Data
//	    return msg.UnmarshalBinary(p.Data)
//	})
//
// Handlers run on their own goroutine, so a slow handler never stalls the
// read loop.
package transport

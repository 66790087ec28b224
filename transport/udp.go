package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// readTimeout bounds each blocking read so Close is noticed promptly.
const readTimeout = 100 * time.Millisecond

var _ Transport = (*UDPTransport)(nil)

// UDPTransport implements Transport over a UDP socket.
type UDPTransport struct {
	conn     net.PacketConn
	handlers map[PacketType]PacketHandler
	mu       sync.RWMutex
	logger   *logrus.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewUDPTransport listens on listenAddr and starts the read loop. A nil
// logger selects logrus.StandardLogger().
func NewUDPTransport(listenAddr string, logger *logrus.Logger) (*UDPTransport, error) {
	conn, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	t := &UDPTransport{
		conn:     conn,
		handlers: make(map[PacketType]PacketHandler),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go t.processPackets()

	return t, nil
}

// RegisterHandler registers a handler for a specific packet type.
func (t *UDPTransport) RegisterHandler(packetType PacketType, handler PacketHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handlers[packetType] = handler
}

// Send sends a packet to the specified address.
func (t *UDPTransport) Send(packet *Packet, addr net.Addr) error {
	data, err := packet.Serialize()
	if err != nil {
		return err
	}

	_, err = t.conn.WriteTo(data, addr)
	return err
}

// Close stops the read loop and closes the socket.
func (t *UDPTransport) Close() error {
	t.cancel()
	err := t.conn.Close()
	<-t.done
	return err
}

// LocalAddr returns the local address the transport is listening on.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *UDPTransport) processPackets() {
	defer close(t.done)
	buffer := make([]byte, MaxPacketSize)

	for {
		select {
		case <-t.ctx.Done():
			return
		default:
			t.processIncomingPacket(buffer)
		}
	}
}

func (t *UDPTransport) processIncomingPacket(buffer []byte) {
	_ = t.conn.SetReadDeadline(time.Now().Add(readTimeout))

	n, addr, err := t.conn.ReadFrom(buffer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return
		}
		if t.ctx.Err() == nil {
			t.logger.WithFields(logrus.Fields{
				"function": "processIncomingPacket",
				"error":    err.Error(),
			}).Debug("Read failed")
		}
		return
	}

	packet, err := ParsePacket(buffer[:n])
	if err != nil {
		return
	}

	t.mu.RLock()
	handler, exists := t.handlers[packet.PacketType]
	t.mu.RUnlock()

	if !exists {
		t.logger.WithFields(logrus.Fields{
			"function":    "processIncomingPacket",
			"packet_type": packet.PacketType.String(),
			"from":        addr.String(),
		}).Debug("No handler for packet type")
		return
	}

	go func() {
		if err := handler(packet, addr); err != nil {
			t.logger.WithFields(logrus.Fields{
				"function":    "handler",
				"packet_type": packet.PacketType.String(),
				"from":        addr.String(),
				"error":       err.Error(),
			}).Debug("Packet dropped")
		}
	}()
}

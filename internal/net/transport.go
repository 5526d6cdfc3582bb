// Package net owns the UDP socket and the client registry: the only layer
// in the server that touches a *net.UDPAddr directly. Everything above it
// (reliability, simulation, handlers) speaks in terms of ClientID. Grounded
// on the original UDPServer's dual-stack bind-with-fallback and
// magic-validated receive loop, and on the teacher's channel-based
// "publish, don't share references" pattern for decoupling the network
// task from the simulation task.
package net

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/rtype-go/server/internal/wire"
)

// InboundPacket is a validated, magic-checked datagram handed to the
// simulation task.
type InboundPacket struct {
	Client ClientID
	Frame  wire.Frame
}

// OutboundPacket is a raw frame the writer goroutine sends to one endpoint.
type OutboundPacket struct {
	Client ClientID
	Data   []byte
}

// Transport owns the bound UDP socket, the client registry, and the
// inbound/outbound queues that decouple the read/write goroutines from the
// simulation task.
type Transport struct {
	conn     *net.UDPConn
	Registry *ClientRegistry

	inbound  chan InboundPacket
	outbound chan OutboundPacket

	log *zap.Logger
}

// Listen binds a UDP socket, preferring a dual-stack IPv6 bind (which also
// accepts IPv4 traffic) and falling back to IPv4-only if that fails —
// matching the original UDPServer constructor's try-dual-stack-then-fallback
// behavior.
func Listen(bindAddr string, inSize, outSize int, log *zap.Logger) (*Transport, error) {
	conn, err := listenDualStack(bindAddr)
	if err != nil {
		return nil, fmt.Errorf("net: bind %s: %w", bindAddr, err)
	}

	return &Transport{
		conn:     conn,
		Registry: NewClientRegistry(),
		inbound:  make(chan InboundPacket, inSize),
		outbound: make(chan OutboundPacket, outSize),
		log:      log,
	}, nil
}

func listenDualStack(bindAddr string) (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err == nil {
		return conn, nil
	}
	// Fall back to IPv4-only if the platform/address doesn't support a
	// dual-stack bind (e.g. "[::]:4242" on a v6-disabled host).
	v4Addr, v4Err := net.ResolveUDPAddr("udp4", addr.String())
	if v4Err != nil {
		return nil, err
	}
	return net.ListenUDP("udp4", v4Addr)
}

func (t *Transport) Addr() net.Addr { return t.conn.LocalAddr() }

// ReadLoop blocks reading datagrams until ctx is cancelled. Each datagram is
// magic-validated and opcode-framed before being registered against the
// client registry and enqueued; malformed datagrams are dropped and logged
// at Debug (client noise should never reach Warn/Error). An inbound queue at
// capacity evicts its oldest buffered packet (drop-oldest) to make room for
// the new one, since the newest input is the one closest to being applied.
func (t *Transport) ReadLoop(ctx context.Context) {
	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		t.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			t.log.Warn("udp read failed", zap.Error(err))
			continue
		}

		frame, err := wire.DecodeFrame(buf[:n])
		if err != nil {
			t.log.Debug("dropped malformed datagram", zap.Error(err), zap.Stringer("addr", addr))
			continue
		}

		id, _ := t.Registry.Register(addr, time.Now())
		pkt := InboundPacket{Client: id, Frame: frame}

		select {
		case t.inbound <- pkt:
		default:
			// Queue is full: evict the oldest buffered packet, then retry.
			// The non-blocking receive can race the writer-side send above,
			// so if the slot we just freed gets taken first, fall back to
			// dropping this new packet rather than blocking the read loop.
			select {
			case <-t.inbound:
				t.log.Debug("inbound queue full, dropping oldest packet", zap.Uint32("client", uint32(id)))
			default:
			}
			select {
			case t.inbound <- pkt:
			default:
				t.log.Debug("inbound queue full, dropping newest packet", zap.Uint32("client", uint32(id)))
			}
		}
	}
}

// WriteLoop drains the outbound queue until ctx is cancelled.
func (t *Transport) WriteLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt := <-t.outbound:
			addr, ok := t.Registry.Endpoint(pkt.Client)
			if !ok {
				continue
			}
			if _, err := t.conn.WriteToUDP(pkt.Data, addr); err != nil {
				t.log.Debug("udp write failed", zap.Error(err), zap.Uint32("client", uint32(pkt.Client)))
			}
		}
	}
}

// Inbound exposes the channel the simulation task polls for new packets.
func (t *Transport) Inbound() <-chan InboundPacket { return t.inbound }

// Send enqueues a raw frame for one client. Non-blocking: a full outbound
// queue drops the packet rather than stalling the caller.
func (t *Transport) Send(client ClientID, data []byte) {
	select {
	case t.outbound <- OutboundPacket{Client: client, Data: data}:
	default:
		t.log.Debug("outbound queue full, dropping packet", zap.Uint32("client", uint32(client)))
	}
}

// Broadcast enqueues the same frame to every currently registered client.
func (t *Transport) Broadcast(data []byte) {
	for _, id := range t.Registry.IDs() {
		t.Send(id, data)
	}
}

// EvictInactive drops clients that haven't sent a packet within timeout,
// returning their IDs so the caller can clean up reliability/game state.
func (t *Transport) EvictInactive(timeout time.Duration) []ClientID {
	return t.Registry.EvictInactive(timeout, time.Now())
}

func (t *Transport) Close() error {
	return t.conn.Close()
}

package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rtype-go/server/internal/config"
	gonet "github.com/rtype-go/server/internal/net"
	"github.com/rtype-go/server/internal/level"
	"github.com/rtype-go/server/internal/persist"
	"github.com/rtype-go/server/internal/reliability"
	"github.com/rtype-go/server/internal/wave"
	"github.com/rtype-go/server/internal/wire"
)

func testLevel() *level.Config {
	return &level.Config{
		Metadata:   level.Metadata{ID: "test-level", Name: "Test"},
		MaxPlayers: 4,
		Waves: []level.Wave{
			{WaveNumber: 1, Enemies: []level.EnemySpawn{}},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *gonet.Transport, gonet.ClientID, *net.UDPConn) {
	t.Helper()

	transport, err := gonet.Listen("127.0.0.1:0", 16, 16, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { transport.Close() })

	clientConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	clientID, _ := transport.Registry.Register(clientConn.LocalAddr().(*net.UDPAddr), time.Now())

	lvl := testLevel()
	driver := wave.NewDriver(lvl, nil)

	cfg := &config.Config{
		Network: config.NetworkConfig{InactivityTimeout: 30 * time.Second},
		Sim:      config.SimConfig{SnapshotCadence: 100 * time.Millisecond},
	}

	srv := New(cfg, zap.NewNop(), transport, reliability.NewManager(), lvl, driver, nil, nil, persist.NoopRecorder{})
	return srv, transport, clientID, clientConn
}

func TestHandleLoginSpawnsPlayerAndAcksReliable(t *testing.T) {
	srv, transport, clientID, clientConn := newTestServer(t)
	defer startWriteLoop(t, transport)()

	payload := wire.LoginPayload{PlayerName: "player-one"}.Encode()
	srv.handleInbound(gonet.InboundPacket{
		Client: clientID,
		Frame:  wire.Frame{Opcode: wire.OpLogin, Seq: 1, Payload: payload},
	})

	srv.mu.Lock()
	_, joined := srv.entities[clientID]
	srv.mu.Unlock()
	assert.True(t, joined, "login should spawn a player entity")

	// The transport-level Ack for the reliable Login goes out before the
	// LoginAck reply, since handleInbound acks before dispatching.
	frame := readFrame(t, clientConn)
	assert.Equal(t, wire.OpAck, frame.Opcode)
	relAck, err := wire.DecodeAck(frame.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), relAck.Seq)

	frame = readFrame(t, clientConn)
	assert.Equal(t, wire.OpLoginAck, frame.Opcode)
	ack, err := wire.DecodeLoginAck(frame.Payload)
	require.NoError(t, err)
	assert.True(t, ack.Accepted)
}

func TestHandleLoginIgnoresSecondLoginFromSameClient(t *testing.T) {
	srv, _, clientID, _ := newTestServer(t)

	srv.handleLogin(clientID, wire.LoginPayload{PlayerName: "a"}.Encode())
	srv.mu.Lock()
	first := srv.entities[clientID]
	srv.mu.Unlock()

	srv.handleLogin(clientID, wire.LoginPayload{PlayerName: "a-again"}.Encode())
	srv.mu.Lock()
	second := srv.entities[clientID]
	count := len(srv.entities)
	srv.mu.Unlock()

	assert.Equal(t, first, second, "a second login must not replace the existing entity")
	assert.Equal(t, 1, count)
}

func TestHandleInputBuffersForKnownClientOnly(t *testing.T) {
	srv, _, clientID, _ := newTestServer(t)

	// No login yet: input for an unknown client is dropped, not buffered.
	srv.handleInput(clientID, wire.InputPayload{InputMask: 0x1, ClientTimestamp: 1}.Encode())
	srv.mu.Lock()
	_, hasBuffer := srv.buffers[clientID]
	srv.mu.Unlock()
	assert.False(t, hasBuffer)

	srv.handleLogin(clientID, wire.LoginPayload{PlayerName: "a"}.Encode())
	srv.handleInput(clientID, wire.InputPayload{InputMask: 0x1, ClientTimestamp: 1}.Encode())

	srv.mu.Lock()
	_, hasBuffer = srv.buffers[clientID]
	srv.mu.Unlock()
	assert.True(t, hasBuffer)
}

// TestReliableReorderRedispatchesByOriginalOpcode exercises the opcode-tag
// fix in handleInbound: the reliability reorder buffer only keys packets by
// sequence number, so a packet that arrives ahead of a gap must carry its
// own opcode along with it to be redispatched correctly once the gap closes,
// rather than being dispatched using whatever opcode closed the gap.
func TestReliableReorderRedispatchesByOriginalOpcode(t *testing.T) {
	srv, _, clientID, _ := newTestServer(t)

	readyPayload := []byte{}
	loginPayload := wire.LoginPayload{PlayerName: "late-bloomer"}.Encode()

	// seq 2 (Ready) arrives first and must buffer: expectedRecvSeq is 1.
	srv.handleInbound(gonet.InboundPacket{
		Client: clientID,
		Frame:  wire.Frame{Opcode: wire.OpReady, Seq: 2, Payload: readyPayload},
	})

	srv.mu.Lock()
	readyYet := srv.ready[clientID]
	srv.mu.Unlock()
	assert.False(t, readyYet, "out-of-order Ready must not be applied before the gap closes")

	// seq 1 (Login) arrives and closes the gap: both packets now deliver,
	// each dispatched with its own original opcode.
	srv.handleInbound(gonet.InboundPacket{
		Client: clientID,
		Frame:  wire.Frame{Opcode: wire.OpLogin, Seq: 1, Payload: loginPayload},
	})

	srv.mu.Lock()
	_, joined := srv.entities[clientID]
	ready := srv.ready[clientID]
	srv.mu.Unlock()

	assert.True(t, joined, "buffered Login must be applied once its gap closes")
	assert.True(t, ready, "buffered Ready must be redispatched as Ready, not misread as another opcode")
}

func TestAdminCommandsDisabledWithoutDispatcher(t *testing.T) {
	srv, _, clientID, _ := newTestServer(t)
	// No admin dispatcher configured: AdminCommand must be a silent no-op,
	// never a panic on a nil s.admin.
	assert.NotPanics(t, func() {
		srv.handleAdminCommand(clientID, wire.AdminCommandPayload{SessionToken: "x", Command: "list-players"}.Encode())
	})
}

// startWriteLoop runs the transport's outbound drain loop in the background
// so a test can observe reliable sends arriving on a real loopback socket.
// Returns a stop function to be deferred.
func startWriteLoop(t *testing.T, transport *gonet.Transport) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go transport.WriteLoop(ctx)
	return cancel
}

func readFrame(t *testing.T, conn *net.UDPConn) wire.Frame {
	t.Helper()
	buf := make([]byte, 2048)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	frame, err := wire.DecodeFrame(buf[:n])
	require.NoError(t, err)
	return frame
}

// Package server wires the transport, reliability, input-delay, ECS
// simulation, and wave-driver layers into one authoritative game session.
// It plays the role the teacher split across internal/net's session
// handling and internal/handler's packet dispatch, collapsed into one
// package since this domain has a single game mode instead of dozens of
// MMO packet handlers.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rtype-go/server/internal/admin"
	"github.com/rtype-go/server/internal/config"
	"github.com/rtype-go/server/internal/core/ecs"
	"github.com/rtype-go/server/internal/core/event"
	coresys "github.com/rtype-go/server/internal/core/system"
	"github.com/rtype-go/server/internal/game"
	"github.com/rtype-go/server/internal/input"
	"github.com/rtype-go/server/internal/level"
	gonet "github.com/rtype-go/server/internal/net"
	"github.com/rtype-go/server/internal/persist"
	"github.com/rtype-go/server/internal/reliability"
	"github.com/rtype-go/server/internal/scripting"
	"github.com/rtype-go/server/internal/wave"
	"github.com/rtype-go/server/internal/wire"
)

// Server is one running level session: every connected client plays the
// same level at the same time, matching the original's single-lobby
// session model (Non-goal: matchmaking / multiple concurrent lobbies).
type Server struct {
	cfg       *config.Config
	log       *zap.Logger
	transport *gonet.Transport
	rel       *reliability.Manager
	admin     *admin.Dispatcher
	recorder  persist.MatchRecorder

	stores *game.Stores
	bus    *event.Bus
	level  *level.Config
	driver *wave.Driver
	runner *coresys.Runner

	mu       sync.Mutex
	buffers  map[gonet.ClientID]*input.Buffer
	entities map[gonet.ClientID]ecs.EntityID
	ready    map[gonet.ClientID]bool

	matchStart time.Time
	kills      int
	deaths     int
}

func New(cfg *config.Config, log *zap.Logger, transport *gonet.Transport, rel *reliability.Manager, lvl *level.Config, driver *wave.Driver, script *scripting.Engine, adminDispatcher *admin.Dispatcher, recorder persist.MatchRecorder) *Server {
	s := &Server{
		cfg:        cfg,
		log:        log,
		transport:  transport,
		rel:        rel,
		admin:      adminDispatcher,
		recorder:   recorder,
		stores:     game.NewStores(),
		bus:        event.NewBus(),
		level:      lvl,
		driver:     driver,
		buffers:    make(map[gonet.ClientID]*input.Buffer),
		entities:   make(map[gonet.ClientID]ecs.EntityID),
		ready:      make(map[gonet.ClientID]bool),
		matchStart: time.Now(),
	}

	bounds := game.Rect{MinX: 0, MinY: 0, MaxX: 1920, MaxY: 1080}

	s.runner = coresys.NewRunner()
	s.runner.Register(event.NewDispatchSystem(s.bus))
	s.runner.Register(game.NewInputApplySystem(s.stores, s.buffers, time.Now))
	s.runner.Register(game.NewMovementSystem(s.stores, bounds))
	var attacker game.CustomAttacker
	if script != nil {
		attacker = script
	}
	s.runner.Register(game.NewEnemyFireSystem(s.stores, attacker))
	s.runner.Register(game.NewCollisionSystem(s.stores))
	s.runner.Register(game.NewWaveDriverSystem(s.stores, s.level, s.driver, s.bus))
	s.runner.Register(game.NewCleanupSystem(s.stores, s.bus))
	s.runner.Register(game.NewSnapshotSystem(s.stores, s.transport, cfg.Sim.SnapshotCadence))

	event.Subscribe(s.bus, s.onEntityKilled)
	event.Subscribe(s.bus, s.onWaveStarted)
	event.Subscribe(s.bus, s.onWaveCleared)
	event.Subscribe(s.bus, s.onLevelCompleted)

	if adminDispatcher != nil {
		s.registerAdminCommands()
	}

	return s
}

// Tick drains whatever's arrived on the transport's inbound queue, then
// advances the simulation one fixed step. Called from gameloop.Loop on the
// single simulation goroutine — there is no other writer to stores, bus,
// buffers, or entities, so none of that state needs its own lock.
func (s *Server) Tick(dt time.Duration) {
	s.drainInbound()
	s.runner.Tick(dt)
}

// EvictInactive is the other half of gameloop.Loop's two cadences: drop
// clients that have gone quiet, tearing down their reliability state,
// input buffer, and player entity.
func (s *Server) EvictInactive() {
	for _, id := range s.transport.EvictInactive(s.cfg.Network.InactivityTimeout) {
		s.log.Info("evicting inactive client", zap.Uint32("client", uint32(id)))
		s.dropClient(id)
	}
}

func (s *Server) dropClient(id gonet.ClientID) {
	s.rel.Forget(uint32(id))
	s.transport.Registry.Remove(id)

	s.mu.Lock()
	delete(s.buffers, id)
	delete(s.ready, id)
	entityID, hadEntity := s.entities[id]
	delete(s.entities, id)
	s.mu.Unlock()

	if hadEntity {
		s.stores.World.MarkForDestruction(entityID)
		event.Emit(s.bus, event.PlayerDisconnected{EntityID: entityID, ClientID: uint32(id)})
	}
}

func (s *Server) drainInbound() {
	for {
		select {
		case pkt := <-s.transport.Inbound():
			s.handleInbound(pkt)
		default:
			return
		}
	}
}

func (s *Server) handleInbound(pkt gonet.InboundPacket) {
	frame := pkt.Frame
	client := pkt.Client

	if frame.Opcode.Reliable() {
		// The reorder buffer holds raw bytes keyed only by sequence number,
		// so a packet that arrives out of order and sits buffered until the
		// gap closes can't be paired back up with its own opcode unless we
		// carry it alongside the payload ourselves.
		tagged := append([]byte{byte(frame.Opcode)}, frame.Payload...)
		ready := s.rel.Client(uint32(client)).ProcessReceived(frame.Seq, tagged, time.Now())
		s.ackReliable(client, frame.Seq)
		for _, data := range ready {
			if len(data) == 0 {
				continue
			}
			s.dispatch(client, wire.Opcode(data[0]), data[1:])
		}
		return
	}
	s.dispatch(client, frame.Opcode, frame.Payload)
}

// ackReliable tells the sender we've received seq, independent of whatever
// our own outbound sequencing looks like — OpAck travels unreliably since
// acking an ack would recurse forever (see wire.Opcode.Reliable).
func (s *Server) ackReliable(client gonet.ClientID, seq uint32) {
	frame := wire.EncodeFrame(wire.Frame{Opcode: wire.OpAck, Payload: wire.AckPayload{Seq: seq}.Encode()})
	s.transport.Send(client, frame)
}

func (s *Server) dispatch(client gonet.ClientID, op wire.Opcode, payload []byte) {
	switch op {
	case wire.OpLogin:
		s.handleLogin(client, payload)
	case wire.OpInput:
		s.handleInput(client, payload)
	case wire.OpReady:
		s.handleReady(client)
	case wire.OpPowerUpSelection:
		s.handlePowerUpSelection(client, payload)
	case wire.OpAdminLogin:
		s.handleAdminLogin(client, payload)
	case wire.OpAdminCommand:
		s.handleAdminCommand(client, payload)
	case wire.OpDisconnect:
		s.dropClient(client)
	case wire.OpAck:
		s.handleAck(client, payload)
	default:
		s.log.Debug("unhandled opcode", zap.Stringer("opcode", op), zap.Uint32("client", uint32(client)))
	}
}

func (s *Server) handleAck(client gonet.ClientID, payload []byte) {
	ack, err := wire.DecodeAck(payload)
	if err != nil {
		return
	}
	s.rel.Client(uint32(client)).Ack(ack.Seq)
}

func (s *Server) handleLogin(client gonet.ClientID, payload []byte) {
	login, err := wire.DecodeLogin(payload)
	if err != nil {
		s.log.Debug("malformed login", zap.Error(err), zap.Uint32("client", uint32(client)))
		return
	}

	s.mu.Lock()
	_, alreadyJoined := s.entities[client]
	s.mu.Unlock()
	if alreadyJoined {
		return
	}

	entityID := s.stores.SpawnPlayer(client)

	s.mu.Lock()
	s.buffers[client] = input.NewBuffer()
	s.entities[client] = entityID
	connected := len(s.entities)
	s.mu.Unlock()

	event.Emit(s.bus, event.PlayerJoined{EntityID: entityID, ClientID: uint32(client)})
	s.log.Info("player joined", zap.String("name", login.PlayerName), zap.Uint32("client", uint32(client)))

	s.sendReliable(client, wire.OpLoginAck, wire.LoginAckPayload{Accepted: true, ClientID: uint32(client)})
	s.broadcastLobbyStatus(uint8(connected))
}

func (s *Server) broadcastLobbyStatus(connected uint8) {
	ready := uint8(0)
	s.mu.Lock()
	for _, r := range s.ready {
		if r {
			ready++
		}
	}
	s.mu.Unlock()

	s.broadcastReliable(wire.OpLobbyStatus, wire.LobbyStatusPayload{
		PlayersConnected: connected,
		PlayersReady:     ready,
		MaxPlayers:       uint8(s.level.MaxPlayers),
	})
}

func (s *Server) handleInput(client gonet.ClientID, payload []byte) {
	in, err := wire.DecodeInput(payload)
	if err != nil {
		return
	}
	s.mu.Lock()
	buf, ok := s.buffers[client]
	s.mu.Unlock()
	if !ok {
		return
	}
	buf.Add(in.InputMask, in.ClientTimestamp, time.Now())
}

func (s *Server) handleReady(client gonet.ClientID) {
	s.mu.Lock()
	s.ready[client] = true
	connected := len(s.entities)
	s.mu.Unlock()
	s.broadcastLobbyStatus(uint8(connected))
}

func (s *Server) handlePowerUpSelection(client gonet.ClientID, payload []byte) {
	p, err := wire.DecodePowerUpSelection(payload)
	if err != nil {
		return
	}
	s.log.Debug("powerup selected", zap.String("id", p.PowerUpID), zap.Uint32("client", uint32(client)))
	s.sendReliable(client, wire.OpPowerUpStatus, wire.PowerUpStatusPayload{PowerUpID: p.PowerUpID, Active: true})
}

func (s *Server) handleAdminLogin(client gonet.ClientID, payload []byte) {
	if s.admin == nil || !s.admin.Enabled() {
		s.sendReliable(client, wire.OpAdminLoginAck, wire.AdminLoginAckPayload{Accepted: false})
		return
	}
	login, err := wire.DecodeAdminLogin(payload)
	if err != nil {
		return
	}
	token, ok := s.admin.Login(client, login.Password)
	s.sendReliable(client, wire.OpAdminLoginAck, wire.AdminLoginAckPayload{Accepted: ok, SessionToken: token})
}

func (s *Server) handleAdminCommand(client gonet.ClientID, payload []byte) {
	if s.admin == nil {
		return
	}
	cmd, err := wire.DecodeAdminCommand(payload)
	if err != nil {
		return
	}
	ok, body := s.admin.Dispatch(client, cmd.SessionToken, cmd.Command)
	s.sendReliable(client, wire.OpAdminResponse, wire.AdminResponsePayload{OK: ok, Body: body})
}

// encoder is satisfied by every typed wire payload.
type encoder interface{ Encode() []byte }

func (s *Server) sendReliable(client gonet.ClientID, op wire.Opcode, payload encoder) {
	data := payload.Encode()
	s.rel.WithClient(uint32(client), func(cs *reliability.ClientState) {
		seq := cs.NextSendSequence(reliability.OutPacket{Opcode: byte(op), Data: data}, time.Now())
		s.transport.Send(client, wire.EncodeFrame(wire.Frame{Opcode: op, Seq: seq, Payload: data}))
	})
}

func (s *Server) broadcastReliable(op wire.Opcode, payload encoder) {
	for _, id := range s.transport.Registry.IDs() {
		s.sendReliable(id, op, payload)
	}
}

// ResendDue is plugged into reliability.Manager.RunRetryWorker as the send
// callback: a retransmit reuses the pending packet's original sequence
// number so the peer's duplicate cache recognizes it as the same packet.
func (s *Server) ResendDue(clientID uint32, pkt reliability.OutPacket) {
	s.transport.Send(gonet.ClientID(clientID), wire.EncodeFrame(wire.Frame{
		Opcode:  wire.Opcode(pkt.Opcode),
		Seq:     pkt.Seq,
		Payload: pkt.Data,
	}))
}

// OnExhausted is plugged into reliability.Manager.RunRetryWorker: a client
// whose reliable packets have gone unacked past MaxRetries is treated the
// same as an inactivity eviction.
func (s *Server) OnExhausted(clientID uint32) {
	id := gonet.ClientID(clientID)
	s.log.Warn("client exhausted retries, dropping", zap.Uint32("client", clientID))
	s.dropClient(id)
}

func (s *Server) onEntityKilled(ev event.EntityKilled) {
	if ev.Kind == "player" {
		s.deaths++
	} else {
		s.kills++
	}
}

func (s *Server) onWaveStarted(ev event.WaveStarted) {
	s.broadcastReliable(wire.OpLevelProgress, wire.LevelProgressPayload{
		WaveNumber: uint16(ev.WaveNumber),
		TotalWaves: uint16(len(s.level.Waves)),
	})
}

func (s *Server) onWaveCleared(ev event.WaveCleared) {
	s.log.Info("wave cleared", zap.String("level", ev.LevelID), zap.Int("wave", ev.WaveNumber))
}

func (s *Server) onLevelCompleted(ev event.LevelCompleted) {
	duration := time.Since(s.matchStart)
	s.broadcastReliable(wire.OpLevelComplete, wire.LevelCompletePayload{
		LevelID:      ev.LevelID,
		DurationSecs: float32(duration.Seconds()),
	})
	s.recordMatch(ev.LevelID, len(s.level.Waves), "completed")
}

// GameOver broadcasts a terminal state and records the match. Its only
// caller is cmd/rtypesrv, on the shutdown signal, with "server_shutdown".
// The simulation systems only ever signal LevelCompleted; nothing detects
// all players dead or a time limit.
func (s *Server) GameOver(reason string) {
	event.Emit(s.bus, event.GameOver{LevelID: s.level.Metadata.ID, Reason: reason})
	s.broadcastReliable(wire.OpGameOver, wire.GameOverPayload{Reason: reason})
	s.recordMatch(s.level.Metadata.ID, s.driver.WaveIndex(), "game_over")
}

func (s *Server) recordMatch(levelID string, waveReached int, outcome string) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.recorder.RecordMatch(ctx, persist.MatchResult{
		LevelID:     levelID,
		StartedAt:   s.matchStart,
		EndedAt:     time.Now(),
		WaveReached: waveReached,
		Kills:       s.kills,
		Deaths:      s.deaths,
		Outcome:     outcome,
	})
	if err != nil {
		s.log.Warn("record match history failed", zap.Error(err))
	}
}

func (s *Server) registerAdminCommands() {
	s.admin.Register("list-players", func(args []string) (string, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := ""
		for id := range s.entities {
			out += fmt.Sprintf("client:%d|", id)
		}
		return out, nil
	})
	s.admin.Register("kick", func(args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: kick <client-id>")
		}
		var id uint32
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return "", fmt.Errorf("bad client id %q", args[0])
		}
		s.dropClient(gonet.ClientID(id))
		return "kicked", nil
	})
	s.admin.Register("wave-state", func(args []string) (string, error) {
		return fmt.Sprintf("state:%s|wave:%d", s.driver.State(), s.driver.WaveIndex()), nil
	})
}

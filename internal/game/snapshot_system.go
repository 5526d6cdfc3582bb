package game

import (
	"time"

	"github.com/rtype-go/server/internal/core/ecs"
	coresys "github.com/rtype-go/server/internal/core/system"
	"github.com/rtype-go/server/internal/wire"
)

// Broadcaster is the minimal surface SnapshotSystem needs from the
// transport: a reliability-unaware best-effort broadcast, since
// EntityPositions is an unreliable opcode by design (see wire.Opcode.Reliable).
type Broadcaster interface {
	Broadcast(data []byte)
}

// SnapshotSystem builds an EntityPositions frame at a cadence decoupled
// from the simulation tick rate and broadcasts it unreliably. Phase 4
// (Output).
type SnapshotSystem struct {
	stores      *Stores
	out         Broadcaster
	cadence     time.Duration
	accumulated time.Duration
}

func NewSnapshotSystem(stores *Stores, out Broadcaster, cadence time.Duration) *SnapshotSystem {
	return &SnapshotSystem{stores: stores, out: out, cadence: cadence}
}

func (s *SnapshotSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *SnapshotSystem) Update(dt time.Duration) {
	s.accumulated += dt
	if s.accumulated < s.cadence {
		return
	}
	s.accumulated -= s.cadence

	var payload wire.EntityPositionsPayload
	s.stores.Positions.Each(func(id ecs.EntityID, pos *Position) {
		kind := uint8(1)
		if team, ok := s.stores.Teams.Get(id); ok {
			if *team == TeamPlayers {
				kind = 0
			}
		} else if _, isProjectile := s.stores.Damages.Get(id); isProjectile {
			kind = 2
		}

		var vx, vy float32
		if v, ok := s.stores.Velocities.Get(id); ok {
			vx, vy = v.VX, v.VY
		}

		health, maxHealth := int32(0), int32(0)
		if h, ok := s.stores.Healths.Get(id); ok {
			health, maxHealth = h.Current, h.Max
		}

		var flags wire.EntityFlags
		if f, ok := s.stores.Flashes.Get(id); ok && f.Active {
			flags |= wire.FlagDamageFlash
		}

		payload.Entities = append(payload.Entities, wire.EntitySnapshot{
			EntityID:  id.Index(),
			Kind:      kind,
			X:         pos.X,
			Y:         pos.Y,
			VX:        vx,
			VY:        vy,
			Health:    health,
			MaxHealth: maxHealth,
			Flags:     flags,
		})
	})

	frame := wire.EncodeFrame(wire.Frame{Opcode: wire.OpEntityPositions, Payload: payload.Encode()})
	s.out.Broadcast(frame)
}

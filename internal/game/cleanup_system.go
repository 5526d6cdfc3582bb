package game

import (
	"time"

	"github.com/rtype-go/server/internal/core/ecs"
	"github.com/rtype-go/server/internal/core/event"
	coresys "github.com/rtype-go/server/internal/core/system"
)

// WorldBounds defines the out-of-play rectangle past which any entity
// (typically a projectile or a scrolled-off enemy) is destroyed, grounded
// on the original's boundary_system.
var WorldBounds = Rect{MinX: -64, MinY: -64, MaxX: 1920 + 64, MaxY: 1080 + 64}

// CleanupSystem destroys dead (health<=0) and out-of-bounds entities, then
// flushes the world's deferred destroy queue. Grounded on the original's
// cleanup_system/boundary_system and the teacher's CleanupSystem. Phase 6
// (Cleanup) — always runs last.
type CleanupSystem struct {
	stores *Stores
	bus    *event.Bus
}

func NewCleanupSystem(stores *Stores, bus *event.Bus) *CleanupSystem {
	return &CleanupSystem{stores: stores, bus: bus}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.stores.Healths.Each(func(id ecs.EntityID, h *Health) {
		if !h.Dead() {
			return
		}
		kind := "enemy"
		if team, ok := s.stores.Teams.Get(id); ok && *team == TeamPlayers {
			kind = "player"
		}
		event.Emit(s.bus, event.EntityKilled{EntityID: id, Kind: kind})
		s.stores.World.MarkForDestruction(id)
	})

	s.stores.Positions.Each(func(id ecs.EntityID, pos *Position) {
		if pos.X < WorldBounds.MinX || pos.X > WorldBounds.MaxX ||
			pos.Y < WorldBounds.MinY || pos.Y > WorldBounds.MaxY {
			s.stores.World.MarkForDestruction(id)
		}
	})

	s.stores.Flashes.Each(func(id ecs.EntityID, f *DamageFlash) {
		f.Active = false
	})

	s.stores.World.FlushDestroyQueue()
}

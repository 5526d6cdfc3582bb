package game

import (
	"time"

	"github.com/rtype-go/server/internal/core/ecs"
	coresys "github.com/rtype-go/server/internal/core/system"
)

// CollisionSystem does AABB overlap checks between every damage-carrying
// entity (a projectile) and every team-carrying entity (a player or enemy),
// applying damage only across opposing teams — friendly fire is off by
// design, see DESIGN.md. Grounded on the original's O(n^2) collision_system
// / damage_system pair. Phase 2 (Update), after movement and fire.
type CollisionSystem struct {
	stores *Stores
}

func NewCollisionSystem(stores *Stores) *CollisionSystem {
	return &CollisionSystem{stores: stores}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CollisionSystem) Update(_ time.Duration) {
	type target struct {
		id   ecs.EntityID
		pos  Position
		col  Collider
		team Team
	}
	var targets []target
	s.stores.Teams.Each(func(id ecs.EntityID, team *Team) {
		pos, ok := s.stores.Positions.Get(id)
		if !ok {
			return
		}
		col, ok := s.stores.Colliders.Get(id)
		if !ok {
			return
		}
		targets = append(targets, target{id: id, pos: *pos, col: *col, team: *team})
	})

	s.stores.Damages.Each(func(projID ecs.EntityID, dmg *Damage) {
		ppos, ok := s.stores.Positions.Get(projID)
		if !ok {
			return
		}
		pcol, ok := s.stores.Colliders.Get(projID)
		if !ok {
			return
		}
		for _, t := range targets {
			if t.team == dmg.Source {
				continue // no friendly fire
			}
			if !overlap(*ppos, *pcol, t.pos, t.col) {
				continue
			}
			if h, ok := s.stores.Healths.Get(t.id); ok {
				h.Current -= dmg.Amount
				s.stores.Flashes.Set(t.id, DamageFlash{Active: true})
			}
			if dmg.DestroyOnHit {
				s.stores.World.MarkForDestruction(projID)
			}
			break
		}
	})
}

func overlap(aPos Position, aCol Collider, bPos Position, bCol Collider) bool {
	aLeft, aRight := aPos.X-aCol.Width/2, aPos.X+aCol.Width/2
	aTop, aBottom := aPos.Y-aCol.Height/2, aPos.Y+aCol.Height/2
	bLeft, bRight := bPos.X-bCol.Width/2, bPos.X+bCol.Width/2
	bTop, bBottom := bPos.Y-bCol.Height/2, bPos.Y+bCol.Height/2
	return aLeft < bRight && aRight > bLeft && aTop < bBottom && aBottom > bTop
}

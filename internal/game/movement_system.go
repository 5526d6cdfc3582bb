package game

import (
	"math"
	"time"

	"github.com/rtype-go/server/internal/core/ecs"
	coresys "github.com/rtype-go/server/internal/core/system"
)

// Rect bounds player movement to the visible play area.
type Rect struct{ MinX, MinY, MaxX, MaxY float32 }

// MovementSystem integrates velocity into position each tick and layers a
// non-linear offset on top for entities riding a sine movement pattern,
// grounded on the original's position_system plus LevelConfig's
// MovementPatternConfig.
type MovementSystem struct {
	stores *Stores
	bounds Rect
}

func NewMovementSystem(stores *Stores, bounds Rect) *MovementSystem {
	return &MovementSystem{stores: stores, bounds: bounds}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(dt time.Duration) {
	dtf := float32(dt.Seconds())

	ecs.Each2(s.stores.Positions, s.stores.Velocities, func(_ ecs.EntityID, pos *Position, vel *Velocity) {
		pos.X += vel.VX * dtf
		pos.Y += vel.VY * dtf
	})

	s.stores.Movements.Each(func(id ecs.EntityID, m *MovementBehavior) {
		pos, ok := s.stores.Positions.Get(id)
		if !ok {
			return
		}
		switch m.Kind {
		case "sine":
			m.Elapsed += dtf
			offset := m.Amplitude * float32(math.Sin(float64(m.Frequency*m.Elapsed+m.Phase)))
			pos.Y += offset * dtf
		case "waypoints":
			s.followWaypoints(pos, m, dtf)
		}
	})

	s.stores.Teams.Each(func(id ecs.EntityID, team *Team) {
		if *team != TeamPlayers {
			return
		}
		pos, ok := s.stores.Positions.Get(id)
		if !ok {
			return
		}
		clamp(&pos.X, s.bounds.MinX, s.bounds.MaxX)
		clamp(&pos.Y, s.bounds.MinY, s.bounds.MaxY)
	})
}

// followWaypoints steps an entity toward its current waypoint at m.Speed,
// advancing to the next point once within one tick's travel distance of it.
// An entity that has passed its last waypoint holds position.
func (s *MovementSystem) followWaypoints(pos *Position, m *MovementBehavior, dtf float32) {
	if m.WaypointIndex >= len(m.Waypoints) {
		return
	}
	target := m.Waypoints[m.WaypointIndex]
	dx := float32(target.X) - pos.X
	dy := float32(target.Y) - pos.Y
	dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	step := m.Speed * dtf

	if dist <= step || dist == 0 {
		pos.X, pos.Y = float32(target.X), float32(target.Y)
		m.WaypointIndex++
		return
	}
	pos.X += dx / dist * step
	pos.Y += dy / dist * step
}

func clamp(v *float32, min, max float32) {
	if *v < min {
		*v = min
	}
	if *v > max {
		*v = max
	}
}

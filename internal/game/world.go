package game

import (
	"github.com/rtype-go/server/internal/core/ecs"
	"github.com/rtype-go/server/internal/net"
)

// Stores bundles every component store the game systems operate on. It is
// constructed once at startup and threaded through every System, mirroring
// the teacher's pattern of passing a narrow dependency struct into each
// system rather than reaching for a global.
type Stores struct {
	World *ecs.World

	Positions   *ecs.ComponentStore[Position]
	Velocities  *ecs.ComponentStore[Velocity]
	Healths     *ecs.ComponentStore[Health]
	Colliders   *ecs.ComponentStore[Collider]
	Teams       *ecs.ComponentStore[Team]
	Owners      *ecs.ComponentStore[NetworkOwner]
	Weapons     *ecs.ComponentStore[Weapon]
	Damages     *ecs.ComponentStore[Damage]
	Movements   *ecs.ComponentStore[MovementBehavior]
	AIs         *ecs.ComponentStore[EnemyAI]
	Scores      *ecs.ComponentStore[ScoreValue]
	Flashes     *ecs.ComponentStore[DamageFlash]
}

func NewStores() *Stores {
	s := &Stores{
		World:      ecs.NewWorld(),
		Positions:  ecs.NewComponentStore[Position](),
		Velocities: ecs.NewComponentStore[Velocity](),
		Healths:    ecs.NewComponentStore[Health](),
		Colliders:  ecs.NewComponentStore[Collider](),
		Teams:      ecs.NewComponentStore[Team](),
		Owners:     ecs.NewComponentStore[NetworkOwner](),
		Weapons:    ecs.NewComponentStore[Weapon](),
		Damages:    ecs.NewComponentStore[Damage](),
		Movements:  ecs.NewComponentStore[MovementBehavior](),
		AIs:        ecs.NewComponentStore[EnemyAI](),
		Scores:     ecs.NewComponentStore[ScoreValue](),
		Flashes:    ecs.NewComponentStore[DamageFlash](),
	}
	reg := s.World.Registry()
	reg.Register(s.Positions)
	reg.Register(s.Velocities)
	reg.Register(s.Healths)
	reg.Register(s.Colliders)
	reg.Register(s.Teams)
	reg.Register(s.Owners)
	reg.Register(s.Weapons)
	reg.Register(s.Damages)
	reg.Register(s.Movements)
	reg.Register(s.AIs)
	reg.Register(s.Scores)
	reg.Register(s.Flashes)
	return s
}

// SpawnPlayer creates a new player entity bound to a connected client.
func (s *Stores) SpawnPlayer(client net.ClientID) ecs.EntityID {
	id := s.World.CreateEntity()
	s.Positions.Set(id, Position{X: 100, Y: 360})
	s.Velocities.Set(id, Velocity{})
	s.Healths.Set(id, Health{Current: 100, Max: 100})
	s.Colliders.Set(id, Collider{Width: 32, Height: 16})
	s.Teams.Set(id, TeamPlayers)
	s.Owners.Set(id, NetworkOwner{Client: client})
	s.Weapons.Set(id, Weapon{Kind: WeaponSingle, FireRate: 0.25})
	return id
}

// SpawnEnemy creates a new enemy entity at the given position.
func (s *Stores) SpawnEnemy(x, y float32, health int32, score int32) ecs.EntityID {
	id := s.World.CreateEntity()
	s.Positions.Set(id, Position{X: x, Y: y})
	s.Velocities.Set(id, Velocity{})
	s.Healths.Set(id, Health{Current: health, Max: health})
	s.Colliders.Set(id, Collider{Width: 32, Height: 32})
	s.Teams.Set(id, TeamEnemies)
	s.Scores.Set(id, ScoreValue{Points: score})
	return id
}

// SpawnProjectile creates a projectile fired by the given team. destroyOnHit
// mirrors the level config's damage_on_contact.destroy_on_hit: true for
// ordinary shots, false for a piercing projectile that survives contact.
func (s *Stores) SpawnProjectile(x, y, vx, vy float32, damage int32, source Team, destroyOnHit bool) ecs.EntityID {
	id := s.World.CreateEntity()
	s.Positions.Set(id, Position{X: x, Y: y})
	s.Velocities.Set(id, Velocity{VX: vx, VY: vy})
	s.Colliders.Set(id, Collider{Width: 8, Height: 4})
	s.Damages.Set(id, Damage{Amount: damage, Source: source, DestroyOnHit: destroyOnHit})
	return id
}

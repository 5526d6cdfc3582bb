package game

import (
	"testing"
	"time"

	"github.com/rtype-go/server/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementSystemIntegratesVelocityAndClampsPlayers(t *testing.T) {
	s := NewStores()
	player := s.SpawnPlayer(1)
	s.Velocities.Set(player, Velocity{VX: -2000})

	sys := NewMovementSystem(s, Rect{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000})
	sys.Update(100 * time.Millisecond)

	pos, ok := s.Positions.Get(player)
	require.True(t, ok)
	assert.Equal(t, float32(0), pos.X, "player must be clamped to the play area")
}

func TestCollisionSystemDamagesOpposingTeamOnly(t *testing.T) {
	s := NewStores()
	enemy := s.SpawnEnemy(100, 100, 30, 100)

	// A player-fired projectile overlapping the enemy must damage it.
	proj := s.SpawnProjectile(100, 100, 0, 0, 10, TeamPlayers, true)
	_ = proj

	sys := NewCollisionSystem(s)
	sys.Update(0)

	h, ok := s.Healths.Get(enemy)
	require.True(t, ok)
	assert.Equal(t, int32(20), h.Current)
}

func TestCollisionSystemSkipsFriendlyFire(t *testing.T) {
	s := NewStores()
	ally := s.SpawnEnemy(50, 50, 30, 100)
	s.SpawnProjectile(50, 50, 0, 0, 10, TeamEnemies, true) // fired by the enemy team

	sys := NewCollisionSystem(s)
	sys.Update(0)

	h, ok := s.Healths.Get(ally)
	require.True(t, ok)
	assert.Equal(t, int32(30), h.Current, "an enemy projectile must not damage another enemy")
}

func TestCleanupSystemDestroysDeadAndOutOfBoundsEntities(t *testing.T) {
	s := NewStores()
	bus := event.NewBus()
	var killed []event.EntityKilled
	event.Subscribe(bus, func(e event.EntityKilled) { killed = append(killed, e) })

	dead := s.SpawnEnemy(100, 100, 10, 50)
	h, _ := s.Healths.Get(dead)
	h.Current = 0

	offscreen := s.SpawnEnemy(-10000, 0, 10, 50)

	sys := NewCleanupSystem(s, bus)
	sys.Update(0)
	bus.SwapBuffers()
	bus.DispatchAll()

	assert.False(t, s.World.Alive(dead))
	assert.False(t, s.World.Alive(offscreen))
	require.Len(t, killed, 1, "only the health<=0 death emits EntityKilled, not the boundary cleanup")
}

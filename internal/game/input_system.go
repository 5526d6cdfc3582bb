package game

import (
	"time"

	"github.com/rtype-go/server/internal/core/ecs"
	coresys "github.com/rtype-go/server/internal/core/system"
	"github.com/rtype-go/server/internal/input"
	"github.com/rtype-go/server/internal/net"
	"github.com/rtype-go/server/internal/wire"
)

const playerSpeed float32 = 300

// InputApplySystem drains each client's delayed input buffer and turns
// ready inputs into player velocity and weapon fire, grounded on the
// original InputHandler's key-to-velocity mapping and weapon-upgrade
// dispatch. Phase 0 (Input).
type InputApplySystem struct {
	stores  *Stores
	buffers map[net.ClientID]*input.Buffer
	now     func() time.Time
}

func NewInputApplySystem(stores *Stores, buffers map[net.ClientID]*input.Buffer, now func() time.Time) *InputApplySystem {
	return &InputApplySystem{stores: stores, buffers: buffers, now: now}
}

func (s *InputApplySystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputApplySystem) Update(dt time.Duration) {
	now := s.now()
	dtf := float32(dt.Seconds())

	s.stores.Owners.Each(func(id ecs.EntityID, owner *NetworkOwner) {
		buf, ok := s.buffers[owner.Client]
		if !ok {
			return
		}
		weapon, _ := s.stores.Weapons.Get(id)
		if weapon != nil {
			weapon.Tick(dtf)
		}
		for _, entry := range buf.DrainReady(now) {
			s.applyOne(id, entry.InputMask, weapon)
		}
	})
}

func (s *InputApplySystem) applyOne(id ecs.EntityID, mask uint8, weapon *Weapon) {
	vel, ok := s.stores.Velocities.Get(id)
	if !ok {
		return
	}
	vel.VX, vel.VY = 0, 0
	if mask&wire.InputUp != 0 {
		vel.VY -= playerSpeed
	}
	if mask&wire.InputDown != 0 {
		vel.VY += playerSpeed
	}
	if mask&wire.InputLeft != 0 {
		vel.VX -= playerSpeed
	}
	if mask&wire.InputRight != 0 {
		vel.VX += playerSpeed
	}

	if mask&wire.InputShoot == 0 || weapon == nil || !weapon.Ready() {
		return
	}
	weapon.Fire()

	pos, ok := s.stores.Positions.Get(id)
	if !ok {
		return
	}
	s.fireWeapon(*pos, weapon.Kind)
}

const projectileSpeed float32 = 600

func (s *InputApplySystem) fireWeapon(pos Position, kind WeaponKind) {
	switch kind {
	case WeaponTripleSpread:
		s.stores.SpawnProjectile(pos.X, pos.Y, projectileSpeed, 0, 10, TeamPlayers, true)
		s.stores.SpawnProjectile(pos.X, pos.Y, projectileSpeed, -100, 10, TeamPlayers, true)
		s.stores.SpawnProjectile(pos.X, pos.Y, projectileSpeed, 100, 10, TeamPlayers, true)
	case WeaponPowerShot:
		s.stores.SpawnProjectile(pos.X, pos.Y, projectileSpeed*1.2, 0, 30, TeamPlayers, true)
	case WeaponMissile:
		id := s.stores.SpawnProjectile(pos.X, pos.Y, projectileSpeed*0.6, 0, 20, TeamPlayers, true)
		s.stores.Movements.Set(id, MovementBehavior{Kind: "homing"})
	default:
		s.stores.SpawnProjectile(pos.X, pos.Y, projectileSpeed, 0, 10, TeamPlayers, true)
	}
}

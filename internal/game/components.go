// Package game holds the entity components and tick systems specific to
// this domain: movement, weapons, collision, and the bridge between the
// wave driver and the live ECS world. Grounded on the original game's
// plain-struct components (position/velocity/health/damage/collider) and
// the teacher's one-system-per-file convention.
package game

import (
	"github.com/rtype-go/server/internal/level"
	"github.com/rtype-go/server/internal/net"
)

type Position struct{ X, Y float32 }

type Velocity struct{ VX, VY float32 }

type Health struct{ Current, Max int32 }

func (h Health) Dead() bool { return h.Current <= 0 }

// Collider is an axis-aligned bounding box centered on Position.
type Collider struct{ Width, Height float32 }

// Team distinguishes which side an entity damages.
type Team uint8

const (
	TeamPlayers Team = iota
	TeamEnemies
)

// NetworkOwner links a player entity back to its connected client.
type NetworkOwner struct {
	Client net.ClientID
}

// WeaponKind selects how InputApplySystem interprets a shoot input.
type WeaponKind uint8

const (
	WeaponSingle WeaponKind = iota
	WeaponTripleSpread
	WeaponPowerShot
	WeaponMissile
)

type Weapon struct {
	Kind         WeaponKind
	FireRate     float32 // seconds between shots
	cooldownLeft float32
}

// Ready reports whether the weapon can fire this tick. It does not touch
// the cooldown; Fire resets it.
func (w *Weapon) Ready() bool {
	return w.cooldownLeft <= 0
}

func (w *Weapon) Fire() {
	w.cooldownLeft = w.FireRate
}

func (w *Weapon) Tick(dt float32) {
	if w.cooldownLeft > 0 {
		w.cooldownLeft -= dt
	}
}

// Damage marks a projectile's contact damage, which side fired it, and
// whether a hit consumes the projectile (damage_on_contact.destroy_on_hit).
type Damage struct {
	Amount       int32
	Source       Team
	DestroyOnHit bool
}

// MovementBehavior carries the runtime state for a non-linear movement
// pattern (sine wave or waypoint path), set up at spawn from the level's
// MovementPattern config.
type MovementBehavior struct {
	Kind      string // "linear", "sine", "waypoints"
	BaseVX    float32
	Amplitude float32
	Frequency float32
	Phase     float32
	Elapsed   float32

	// Speed and Waypoints carry a "waypoints" pattern's path; WaypointIndex
	// is the next point not yet reached.
	Speed         float32
	Waypoints     []level.Waypoint
	WaypointIndex int
}

// EnemyAI carries an enemy's attack-pattern config and its own cooldown
// timer, independent of the wave driver that spawned it.
type EnemyAI struct {
	EnemyID      string // level.Enemy.ID, used to look up a Lua custom_attack_<id> hook
	Pattern      string // "none", "straight", "targeted", "spread"
	Cooldown     float32
	cooldownLeft float32
	BurstCount   int
	SpreadAngle  float32
	AimAtPlayer  bool

	// ProjectileSpeed/ProjectileDamage/DestroyOnHit come from the enemy's
	// own AttackPattern.Projectile, not the player weapon constants.
	ProjectileSpeed  float32
	ProjectileDamage int32
	DestroyOnHit     bool
}

func (a *EnemyAI) Ready() bool { return a.cooldownLeft <= 0 }
func (a *EnemyAI) Fire()       { a.cooldownLeft = a.Cooldown }
func (a *EnemyAI) Tick(dt float32) {
	if a.cooldownLeft > 0 {
		a.cooldownLeft -= dt
	}
}

// ScoreValue is awarded to the killer's score on this entity's death.
type ScoreValue struct{ Points int32 }

// DamageFlash is set for one tick when an entity takes damage so the
// snapshot system can set FlagDamageFlash; cleared every tick by
// CleanupSystem after the snapshot has been built.
type DamageFlash struct{ Active bool }

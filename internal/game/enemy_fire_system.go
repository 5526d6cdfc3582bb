package game

import (
	"math"
	"time"

	"github.com/rtype-go/server/internal/core/ecs"
	coresys "github.com/rtype-go/server/internal/core/system"
	"github.com/rtype-go/server/internal/scripting"
)

// CustomAttacker is satisfied by *scripting.Engine; an enemy whose EnemyID
// has a matching Lua custom_attack_<id> global overrides its declarative
// AttackPatternConfig for that shot.
type CustomAttacker interface {
	CustomAttack(ctx scripting.EnemyAttackContext) (scripting.EnemyAttackDecision, bool)
}

// EnemyFireSystem runs each enemy's attack pattern — straight, targeted at
// the nearest player, or a fixed-angle spread — grounded on LevelConfig's
// AttackPatternConfig and the original custom_wave_system's per-enemy
// attack_config. Phase 2 (Update), after movement so aim uses fresh
// positions. A non-nil script lets a level override any enemy kind's fire
// logic in Lua (e.g. a boss's multi-phase attack).
type EnemyFireSystem struct {
	stores *Stores
	script CustomAttacker
}

func NewEnemyFireSystem(stores *Stores, script CustomAttacker) *EnemyFireSystem {
	return &EnemyFireSystem{stores: stores, script: script}
}

func (s *EnemyFireSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *EnemyFireSystem) Update(dt time.Duration) {
	dtf := float32(dt.Seconds())

	nearestPlayer, havePlayer := s.nearestPlayerFinder()

	ecs.Each2(s.stores.AIs, s.stores.Positions, func(id ecs.EntityID, ai *EnemyAI, pos *Position) {
		ai.Tick(dtf)
		if ai.Pattern == "none" || !ai.Ready() {
			return
		}
		ai.Fire()

		if s.script != nil && ai.EnemyID != "" {
			if s.fireCustom(id, ai, pos, nearestPlayer, havePlayer) {
				return
			}
		}

		switch ai.Pattern {
		case "straight":
			s.stores.SpawnProjectile(pos.X, pos.Y, -ai.ProjectileSpeed, 0, ai.ProjectileDamage, TeamEnemies, ai.DestroyOnHit)

		case "targeted":
			if !havePlayer {
				return
			}
			target, ok := nearestPlayer(*pos)
			if !ok {
				return
			}
			// Per the targeted-shot scenario: velocity = unit(direction) *
			// projectile_speed * 1.5, using the enemy's own configured
			// projectile speed, not the player weapon constant.
			vx, vy := aimVector(*pos, target, ai.ProjectileSpeed*1.5)
			s.stores.SpawnProjectile(pos.X, pos.Y, vx, vy, ai.ProjectileDamage, TeamEnemies, ai.DestroyOnHit)

		case "spread":
			count := ai.BurstCount
			if count <= 0 {
				count = 1
			}
			spreadRad := float64(ai.SpreadAngle) * math.Pi / 180
			start := -spreadRad / 2
			step := 0.0
			if count > 1 {
				step = spreadRad / float64(count-1)
			}
			for i := 0; i < count; i++ {
				angle := start + step*float64(i)
				vx := -ai.ProjectileSpeed * float32(math.Cos(angle))
				vy := ai.ProjectileSpeed * float32(math.Sin(angle))
				s.stores.SpawnProjectile(pos.X, pos.Y, vx, vy, ai.ProjectileDamage, TeamEnemies, ai.DestroyOnHit)
			}
		}
	})
}

// fireCustom asks the Lua engine for a custom_attack_<EnemyID> decision and
// spawns a projectile from it, reporting whether a hook fired so the caller
// can skip the declarative pattern switch. Health fraction comes from the
// entity's own Health component when present (bosses always carry one);
// otherwise it's reported as fully healthy.
func (s *EnemyFireSystem) fireCustom(id ecs.EntityID, ai *EnemyAI, pos *Position, nearestPlayer func(Position) (Position, bool), havePlayer bool) bool {
	var playerX, playerY float64
	if havePlayer {
		if target, ok := nearestPlayer(*pos); ok {
			playerX, playerY = float64(target.X), float64(target.Y)
		}
	}

	healthFrac := 1.0
	if hp, ok := s.stores.Healths.Get(id); ok && hp.Max > 0 {
		healthFrac = float64(hp.Current) / float64(hp.Max)
	}

	decision, ok := s.script.CustomAttack(scripting.EnemyAttackContext{
		EnemyID:    ai.EnemyID,
		HealthFrac: healthFrac,
		PlayerX:    playerX,
		PlayerY:    playerY,
		EnemyX:     float64(pos.X),
		EnemyY:     float64(pos.Y),
	})
	if !ok || !decision.Fire {
		return false
	}

	s.stores.SpawnProjectile(pos.X, pos.Y, float32(decision.VelocityX), float32(decision.VelocityY), ai.ProjectileDamage, TeamEnemies, ai.DestroyOnHit)
	return true
}

// nearestPlayerFinder snapshots player positions once per tick so the
// per-enemy targeting loop doesn't rescan the player store for every enemy.
func (s *EnemyFireSystem) nearestPlayerFinder() (func(Position) (Position, bool), bool) {
	var players []Position
	s.stores.Teams.Each(func(id ecs.EntityID, team *Team) {
		if *team != TeamPlayers {
			return
		}
		if pos, ok := s.stores.Positions.Get(id); ok {
			players = append(players, *pos)
		}
	})
	if len(players) == 0 {
		return nil, false
	}
	return func(from Position) (Position, bool) {
		best := players[0]
		bestDist := distSq(from, best)
		for _, p := range players[1:] {
			if d := distSq(from, p); d < bestDist {
				best, bestDist = p, d
			}
		}
		return best, true
	}, true
}

func distSq(a, b Position) float32 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

func aimVector(from, to Position, speed float32) (vx, vy float32) {
	dx, dy := to.X-from.X, to.Y-from.Y
	mag := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if mag == 0 {
		return -speed, 0
	}
	return (dx / mag) * speed, (dy / mag) * speed
}

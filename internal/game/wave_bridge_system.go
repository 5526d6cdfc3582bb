package game

import (
	"time"

	"github.com/rtype-go/server/internal/core/ecs"
	"github.com/rtype-go/server/internal/core/event"
	coresys "github.com/rtype-go/server/internal/core/system"
	"github.com/rtype-go/server/internal/level"
	"github.com/rtype-go/server/internal/wave"
)

// WaveDriverSystem ticks the level's wave.Driver and applies its
// SpawnCommands to the live ECS world, translating a level's declarative
// EnemyConfig (health/speed/score/behavior/attack) into spawned components.
// Phase 3 (PostUpdate), after collision but before the snapshot is built.
// Entities killed this tick still count as alive until the Cleanup phase
// destroys them, so the counts it sees reflect the previous tick's cleanup.
type WaveDriverSystem struct {
	stores *Stores
	cfg    *level.Config
	driver *wave.Driver
	bus    *event.Bus
}

func NewWaveDriverSystem(stores *Stores, cfg *level.Config, driver *wave.Driver, bus *event.Bus) *WaveDriverSystem {
	return &WaveDriverSystem{stores: stores, cfg: cfg, driver: driver, bus: bus}
}

func (s *WaveDriverSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *WaveDriverSystem) Update(dt time.Duration) {
	alive := s.countLiveEnemies()
	prevState := s.driver.State()

	cmds := s.driver.Tick(dt, alive)

	if prevState == wave.AwaitingWave && s.driver.State() == wave.SpawningGroup {
		w := s.cfg.Waves[s.driver.WaveIndex()]
		event.Emit(s.bus, event.WaveStarted{LevelID: s.cfg.Metadata.ID, WaveNumber: w.WaveNumber, IsBossWave: w.IsBossWave})
	}
	if prevState == wave.DrainingWave && s.driver.State() == wave.AwaitingWave {
		event.Emit(s.bus, event.WaveCleared{LevelID: s.cfg.Metadata.ID, WaveNumber: s.cfg.Waves[s.driver.WaveIndex()-1].WaveNumber})
	}
	if prevState != wave.LevelComplete && s.driver.State() == wave.LevelComplete {
		event.Emit(s.bus, event.LevelCompleted{LevelID: s.cfg.Metadata.ID})
	}

	for _, cmd := range cmds {
		def, ok := s.cfg.EnemyDefinitions[cmd.EnemyID]
		if !ok {
			continue // parser already recorded a Warning for this at load time
		}
		s.spawnFromDef(cmd, def)
	}
}

func (s *WaveDriverSystem) countLiveEnemies() int {
	count := 0
	s.stores.Teams.Each(func(_ ecs.EntityID, team *Team) {
		if *team == TeamEnemies {
			count++
		}
	})
	return count
}

func (s *WaveDriverSystem) spawnFromDef(cmd wave.SpawnCommand, def level.Enemy) {
	x, y := resolveSpawnPoint(cmd.SpawnPoint)
	id := s.stores.SpawnEnemy(x, y, int32(def.Health), int32(def.ScoreValue))

	vx := -float32(def.Speed)
	switch def.Behavior.Movement.Type {
	case level.MovementSine:
		s.stores.Movements.Set(id, MovementBehavior{
			Kind:      "sine",
			BaseVX:    vx,
			Amplitude: float32(def.Behavior.Movement.Amplitude),
			Frequency: float32(def.Behavior.Movement.Frequency),
			Phase:     float32(def.Behavior.Movement.Phase),
		})
		s.stores.Velocities.Set(id, Velocity{VX: vx})

	case level.MovementWaypoints:
		s.stores.Movements.Set(id, MovementBehavior{
			Kind:      "waypoints",
			Speed:     float32(def.Speed),
			Waypoints: def.Behavior.Movement.Waypoints,
		})

	default:
		if def.Behavior.Type == "straight" || def.Behavior.Type == "" {
			s.stores.Velocities.Set(id, Velocity{VX: vx})
		}
	}

	if def.Attack.Type != level.AttackNone {
		s.stores.AIs.Set(id, EnemyAI{
			EnemyID:          def.ID,
			Pattern:          string(def.Attack.Type),
			Cooldown:         float32(def.Attack.Cooldown),
			BurstCount:       def.Attack.ProjectileCount,
			SpreadAngle:      float32(def.Attack.SpreadAngle),
			AimAtPlayer:      def.Attack.AimAtPlayer,
			ProjectileSpeed:  float32(def.Attack.Projectile.Speed),
			ProjectileDamage: int32(def.Attack.Projectile.Damage),
			DestroyOnHit:     def.Attack.Projectile.Destroys(),
		})
	}
}

func resolveSpawnPoint(sp level.SpawnPoint) (x, y float32) {
	if sp.PositionType == level.SpawnScreenRight {
		x = WorldBounds.MaxX - 64 + float32(sp.OffsetX)
	} else {
		x = float32(sp.X)
	}
	y = float32(sp.Y) + float32(sp.OffsetY)
	return x, y
}

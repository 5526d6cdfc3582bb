// Package wave implements the wave-driver state machine that advances a
// level's enemy waves over time, grounded on the original custom wave
// system. The driver is engine-agnostic: it emits SpawnCommand values for
// the caller to apply to an ecs.World rather than mutating one directly, so
// the state machine itself stays unit-testable without a live simulation.
package wave

import (
	"time"

	"github.com/rtype-go/server/internal/level"
)

// State names the wave driver's current phase.
type State int

const (
	AwaitingWave State = iota
	SpawningGroup
	DrainingWave
	LevelComplete
)

func (s State) String() string {
	switch s {
	case AwaitingWave:
		return "AwaitingWave"
	case SpawningGroup:
		return "SpawningGroup"
	case DrainingWave:
		return "DrainingWave"
	case LevelComplete:
		return "LevelComplete"
	default:
		return "Unknown"
	}
}

// SpawnCommand instructs the caller to create one enemy entity.
type SpawnCommand struct {
	EnemyID    string
	SpawnPoint level.SpawnPoint
	IsBoss     bool
}

// TriggerGate is consulted before a wave with a TriggerCondition is allowed
// to start; nil means every wave starts unconditionally. Backed in practice
// by the Lua scripting hook (see internal/scripting), kept as an interface
// here so the driver has no dependency on the Lua runtime.
type TriggerGate interface {
	Allow(condition string) bool
}

// Driver advances one level's waves tick by tick.
type Driver struct {
	cfg   *level.Config
	gate  TriggerGate

	state       State
	waveIndex   int
	waveTimer   time.Duration
	spawnTimer  time.Duration
	groupIndex  int
	spawnedInGroup int
}

func NewDriver(cfg *level.Config, gate TriggerGate) *Driver {
	return &Driver{cfg: cfg, gate: gate, state: AwaitingWave}
}

func (d *Driver) State() State      { return d.state }
func (d *Driver) WaveIndex() int    { return d.waveIndex }
func (d *Driver) currentWave() level.Wave { return d.cfg.Waves[d.waveIndex] }

// Tick advances the driver by dt given the current live enemy count, and
// returns any SpawnCommands to apply this tick.
func (d *Driver) Tick(dt time.Duration, aliveEnemies int) []SpawnCommand {
	switch d.state {
	case LevelComplete:
		return nil

	case AwaitingWave:
		wave := d.currentWave()
		if wave.TriggerCondition != "" && d.gate != nil && !d.gate.Allow(wave.TriggerCondition) {
			return nil
		}
		d.waveTimer += dt
		if d.waveTimer < durationFromSeconds(wave.WaveDelay) {
			return nil
		}
		d.waveTimer = 0
		d.groupIndex = 0
		d.spawnedInGroup = 0
		d.spawnTimer = 0
		d.state = SpawningGroup
		return nil

	case SpawningGroup:
		return d.tickSpawning(dt)

	case DrainingWave:
		if aliveEnemies > 0 {
			return nil
		}
		d.waveIndex++
		if d.waveIndex >= len(d.cfg.Waves) {
			d.state = LevelComplete
			return nil
		}
		d.state = AwaitingWave
		return nil
	}
	return nil
}

func (d *Driver) tickSpawning(dt time.Duration) []SpawnCommand {
	wave := d.currentWave()

	if wave.IsBossWave {
		if d.groupIndex > 0 {
			// Boss already spawned; wait for it (and anything else) to die.
			d.state = DrainingWave
			return nil
		}
		d.groupIndex = 1
		d.state = DrainingWave
		if len(wave.Enemies) == 0 {
			return nil
		}
		boss := wave.Enemies[0]
		return []SpawnCommand{{EnemyID: boss.EnemyID, SpawnPoint: boss.SpawnPoint, IsBoss: true}}
	}

	if d.groupIndex >= len(wave.Enemies) {
		d.state = DrainingWave
		return nil
	}

	group := wave.Enemies[d.groupIndex]
	d.spawnTimer += dt
	if d.spawnedInGroup > 0 && d.spawnTimer < durationFromSeconds(group.SpawnDelay) {
		return nil
	}
	d.spawnTimer = 0

	cmd := SpawnCommand{EnemyID: group.EnemyID, SpawnPoint: group.SpawnPoint}
	d.spawnedInGroup++
	if d.spawnedInGroup >= group.Count {
		d.groupIndex++
		d.spawnedInGroup = 0
	}
	return []SpawnCommand{cmd}
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

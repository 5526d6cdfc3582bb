package wave

import (
	"testing"
	"time"

	"github.com/rtype-go/server/internal/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basicLevel() *level.Config {
	return &level.Config{
		Metadata: level.Metadata{ID: "l1", Name: "Test"},
		Waves: []level.Wave{
			{
				WaveNumber: 1,
				WaveDelay:  1,
				Enemies: []level.EnemySpawn{
					{EnemyID: "grunt", Count: 2, SpawnDelay: 0.5},
				},
			},
			{
				WaveNumber: 2,
				WaveDelay:  1,
				IsBossWave: true,
				Enemies: []level.EnemySpawn{
					{EnemyID: "boss", Count: 1},
				},
			},
		},
	}
}

func TestDriverAwaitsWaveDelayBeforeSpawning(t *testing.T) {
	d := NewDriver(basicLevel(), nil)
	assert.Equal(t, AwaitingWave, d.State())

	cmds := d.Tick(500*time.Millisecond, 0)
	assert.Empty(t, cmds)
	assert.Equal(t, AwaitingWave, d.State())

	cmds = d.Tick(600*time.Millisecond, 0)
	assert.Equal(t, SpawningGroup, d.State())
	assert.Empty(t, cmds, "transition tick doesn't itself spawn")
}

func TestDriverSpawnsGroupThenDrainsThenAdvances(t *testing.T) {
	d := NewDriver(basicLevel(), nil)
	d.Tick(time.Second, 0) // -> SpawningGroup

	cmds := d.Tick(0, 0)
	require.Len(t, cmds, 1)
	assert.Equal(t, "grunt", cmds[0].EnemyID)

	cmds = d.Tick(600*time.Millisecond, 1)
	require.Len(t, cmds, 1)
	assert.Equal(t, SpawningGroup, d.State(), "more enemies remain in the group")

	// Group exhausted: driver moves to draining.
	assert.Equal(t, DrainingWave, func() State {
		d.Tick(600*time.Millisecond, 2)
		return d.State()
	}())

	// Enemies still alive: stay in DrainingWave.
	d.Tick(time.Second, 2)
	assert.Equal(t, DrainingWave, d.State())

	// All enemies dead: advance to the next wave.
	d.Tick(time.Second, 0)
	assert.Equal(t, AwaitingWave, d.State())
	assert.Equal(t, 1, d.WaveIndex())
}

func TestBossWaveSpawnsOnceThenWaitsForDeath(t *testing.T) {
	cfg := basicLevel()
	d := &Driver{cfg: cfg, state: SpawningGroup}
	d.waveIndex = 1 // jump straight to the boss wave

	cmds := d.Tick(0, 0)
	require.Len(t, cmds, 1)
	assert.True(t, cmds[0].IsBoss)
	assert.Equal(t, DrainingWave, d.State())

	cmds = d.Tick(0, 1)
	assert.Empty(t, cmds, "boss wave never spawns twice")
	assert.Equal(t, DrainingWave, d.State())
}

func TestLevelCompleteAfterLastWaveDrains(t *testing.T) {
	cfg := basicLevel()
	d := &Driver{cfg: cfg, state: DrainingWave, waveIndex: 1}
	d.Tick(0, 0)
	assert.Equal(t, LevelComplete, d.State())

	cmds := d.Tick(time.Second, 0)
	assert.Empty(t, cmds)
	assert.Equal(t, LevelComplete, d.State())
}

type fakeGate struct{ allow bool }

func (g fakeGate) Allow(string) bool { return g.allow }

func TestTriggerConditionGatesWaveStart(t *testing.T) {
	cfg := basicLevel()
	cfg.Waves[0].TriggerCondition = "players_at_checkpoint"
	d := NewDriver(cfg, fakeGate{allow: false})

	d.Tick(10*time.Second, 0)
	assert.Equal(t, AwaitingWave, d.State(), "gate denies the wave, so it must not start")

	d2 := NewDriver(cfg, fakeGate{allow: true})
	d2.Tick(2*time.Second, 0)
	assert.Equal(t, SpawningGroup, d2.State())
}

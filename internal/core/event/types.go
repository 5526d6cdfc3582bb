package event

import "github.com/rtype-go/server/internal/core/ecs"

// Event types emitted by the simulation systems and consumed one tick later
// by handlers subscribed via Subscribe (persistence, admin broadcast, wave
// driver hooks).

type PlayerJoined struct {
	EntityID ecs.EntityID
	ClientID uint32
}

type PlayerDisconnected struct {
	EntityID ecs.EntityID
	ClientID uint32
}

type EntityKilled struct {
	EntityID ecs.EntityID
	Kind     string // "player", "enemy", "boss"
	KilledBy ecs.EntityID
}

type WaveStarted struct {
	LevelID     string
	WaveNumber  int
	IsBossWave  bool
}

type WaveCleared struct {
	LevelID    string
	WaveNumber int
}

type LevelCompleted struct {
	LevelID  string
	Duration float64 // seconds
}

type GameOver struct {
	LevelID string
	Reason  string // free-form; the server emits "server_shutdown" on shutdown
}

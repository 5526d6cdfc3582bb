package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Network  NetworkConfig  `toml:"network"`
	Sim      SimConfig      `toml:"sim"`
	Input    InputConfig    `toml:"input"`
	Database DatabaseConfig `toml:"database"`
	Admin    AdminConfig    `toml:"admin"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name       string `toml:"name"`
	LevelsDir  string `toml:"levels_dir"`
	ScriptsDir string `toml:"scripts_dir"`
	StartTime  int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address"` // e.g. "[::]:4242"; falls back to IPv4-only if dual-stack bind fails
	InactivityTimeout time.Duration `toml:"inactivity_timeout"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	RetryInterval     time.Duration `toml:"retry_interval"`
	EvictionInterval  time.Duration `toml:"eviction_interval"`
}

// SimConfig governs the fixed-timestep simulation loop.
type SimConfig struct {
	TickRate        time.Duration `toml:"tick_rate"`        // fixed dt, e.g. 16.6ms for 60Hz
	SnapshotCadence time.Duration `toml:"snapshot_cadence"` // e.g. 100ms, decoupled from TickRate
	MaxTicksPerLoop int           `toml:"max_ticks_per_loop"` // caps the lag-accumulator catch-up burst
}

// InputConfig is loaded but not read by the server: input playback always
// uses the fixed input.Delay constant, whatever [input] delay is set to.
type InputConfig struct {
	Delay time.Duration `toml:"delay"`
}

// DatabaseConfig configures the optional match-history store. Leaving DSN
// empty runs the server with an in-memory no-op recorder; persistence never
// gates gameplay.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type AdminConfig struct {
	PasswordHash string        `toml:"password_hash"` // bcrypt hash; empty disables the admin surface
	SessionTTL   time.Duration `toml:"session_ttl"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:       "rtype-server",
			LevelsDir:  "levels",
			ScriptsDir: "scripts",
		},
		Network: NetworkConfig{
			BindAddress:       "[::]:4242",
			InactivityTimeout: 30 * time.Second,
			InQueueSize:       1024,
			OutQueueSize:      1024,
			RetryInterval:     50 * time.Millisecond,
			EvictionInterval:  time.Second,
		},
		Sim: SimConfig{
			TickRate:        time.Second / 60,
			SnapshotCadence: 100 * time.Millisecond,
			MaxTicksPerLoop: 5,
		},
		Input: InputConfig{
			Delay: 50 * time.Millisecond,
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Admin: AdminConfig{
			SessionTTL: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

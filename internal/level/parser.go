package level

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound = errors.New("level: file not found")
	ErrMalformed = errors.New("level: malformed YAML")
	ErrInvalid   = errors.New("level: semantically invalid level definition")
)

// Warning describes a non-fatal defect discovered while parsing — one that
// doesn't prevent the level from loading but would produce surprising
// runtime behavior (e.g. a wave spawning an enemy id with no definition).
type Warning struct {
	WaveNumber int
	EnemyID    string
	Message    string
}

func (w Warning) String() string {
	return fmt.Sprintf("wave %d: %s", w.WaveNumber, w.Message)
}

// Parse reads and validates a level definition file. It never returns a
// partially-applied Config on error: either Parse succeeds and Config is
// fully defaulted and internally consistent, or it fails and the returned
// *Config is nil.
func Parse(path string) (*Config, []Warning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("level: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	cfg.applyDefaults()

	warnings, err := validate(&cfg)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, warnings, nil
}

func validate(cfg *Config) ([]Warning, error) {
	if cfg.Metadata.ID == "" {
		return nil, fmt.Errorf("%w: metadata.id is required", ErrInvalid)
	}
	if cfg.Metadata.Name == "" {
		return nil, fmt.Errorf("%w: metadata.name is required", ErrInvalid)
	}
	if len(cfg.Waves) == 0 {
		return nil, fmt.Errorf("%w: level %q defines no waves", ErrInvalid, cfg.Metadata.ID)
	}

	var warnings []Warning
	for _, wave := range cfg.Waves {
		for _, spawn := range wave.Enemies {
			if _, ok := cfg.EnemyDefinitions[spawn.EnemyID]; !ok {
				warnings = append(warnings, Warning{
					WaveNumber: wave.WaveNumber,
					EnemyID:    spawn.EnemyID,
					Message:    fmt.Sprintf("spawn references undefined enemy id %q", spawn.EnemyID),
				})
			}
		}
	}
	return warnings, nil
}

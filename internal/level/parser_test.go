package level

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
metadata:
  id: level-1
  name: Outer Perimeter
enemy_definitions:
  grunt:
    id: grunt
    health: 30
waves:
  - wave_number: 1
    enemies:
      - enemy_id: grunt
        count: 3
  - wave_number: 2
    is_boss_wave: true
    enemies:
      - enemy_id: boss
        count: 1
`

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseAppliesDefaultsAndWarnsOnUndefinedEnemy(t *testing.T) {
	path := writeTemp(t, "level.yaml", validDoc)
	cfg, warnings, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", cfg.Metadata.Version)
	assert.Equal(t, 4, cfg.MaxPlayers)
	require.NotNil(t, cfg.Lives)
	assert.Equal(t, 3, *cfg.Lives)
	assert.Equal(t, 2.0, cfg.Waves[0].WaveDelay)

	require.Len(t, warnings, 1)
	assert.Equal(t, "boss", warnings[0].EnemyID)
}

func TestParseMissingFileReturnsErrNotFound(t *testing.T) {
	_, _, err := Parse(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseMalformedYAMLReturnsErrMalformed(t *testing.T) {
	path := writeTemp(t, "bad.yaml", "metadata: [this is not a map")
	_, _, err := Parse(path)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseMissingWavesReturnsErrInvalid(t *testing.T) {
	path := writeTemp(t, "nowaves.yaml", "metadata:\n  id: x\n  name: y\n")
	_, _, err := Parse(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseMissingIDReturnsErrInvalid(t *testing.T) {
	path := writeTemp(t, "noid.yaml", "metadata:\n  name: y\nwaves:\n  - wave_number: 1\n")
	_, _, err := Parse(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

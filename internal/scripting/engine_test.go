package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, sub, name, body string) {
	t.Helper()
	d := filepath.Join(dir, sub)
	require.NoError(t, os.MkdirAll(d, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(d, name), []byte(body), 0o644))
}

func TestAllowDefaultsTrueWhenNoHookDefined(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.True(t, e.Allow("anything"))
}

func TestAllowCallsDefinedLuaFunction(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "wave", "gate.lua", `
function players_at_checkpoint()
  return false
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.False(t, e.Allow("players_at_checkpoint"))
}

func TestCustomAttackReturnsDecisionWhenHookDefined(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "ai", "boss.lua", `
function custom_attack_boss1(ctx)
  if ctx.health_frac < 0.5 then
    return { fire = true, vx = -200, vy = 0 }
  end
  return { fire = false, vx = 0, vy = 0 }
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	decision, ok := e.CustomAttack(EnemyAttackContext{EnemyID: "boss1", HealthFrac: 0.3})
	require.True(t, ok)
	assert.True(t, decision.Fire)
	assert.Equal(t, -200.0, decision.VelocityX)

	_, ok = e.CustomAttack(EnemyAttackContext{EnemyID: "unknown-enemy"})
	assert.False(t, ok)
}

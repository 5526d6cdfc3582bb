// Package scripting embeds a Lua VM for data-driven wave/enemy hooks,
// grounded on the teacher's Engine wrapper around gopher-lua (the
// load-scripts-from-subdirectories startup sequence and the
// marshal-to-table/call-global/parse-result bridge pattern), narrowed from
// the teacher's full MMO combat-formula surface down to the two hooks this
// domain's wave driver and enemy AI actually need: a trigger-condition gate
// and a per-enemy custom attack decision.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only (the
// simulation task calls it from inside a tick); there is no internal
// locking.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every .lua file from the given
// directory's "wave" and "ai" subdirectories. A missing scriptsDir (or
// missing subdirectory) is not an error — levels that need no custom logic
// simply run with the Lua hooks absent, and callers treat an unset global
// function as "always allow" / "no custom behavior".
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"wave", "ai"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("scripting: load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// hasGlobalFunc reports whether name is defined as a callable Lua global.
func (e *Engine) hasGlobalFunc(name string) bool {
	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok && fn != nil
}

// Allow implements wave.TriggerGate: it calls the Lua global function named
// after the trigger condition (e.g. a wave with trigger_condition
// "players_at_checkpoint" calls the Lua function "players_at_checkpoint")
// and treats an undefined function as an unconditional allow, so levels
// without custom logic behave exactly like levels with no trigger_condition
// at all.
func (e *Engine) Allow(condition string) bool {
	if !e.hasGlobalFunc(condition) {
		return true
	}
	if err := e.vm.CallByParam(lua.P{Fn: e.vm.GetGlobal(condition), NRet: 1, Protect: true}); err != nil {
		e.log.Warn("lua trigger condition errored, defaulting to allow", zap.String("condition", condition), zap.Error(err))
		return true
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(ret)
}

// EnemyAttackContext is passed to a custom per-enemy attack hook, letting a
// level script override the declarative AttackPatternConfig for one enemy
// kind with arbitrary Lua logic (e.g. a boss with multiple attack phases).
type EnemyAttackContext struct {
	EnemyID      string
	HealthFrac   float64 // current/max, lets a boss script change phase on low health
	PlayerX      float64
	PlayerY      float64
	EnemyX       float64
	EnemyY       float64
}

// EnemyAttackDecision is the result of a custom attack hook.
type EnemyAttackDecision struct {
	Fire        bool
	VelocityX   float64
	VelocityY   float64
}

// CustomAttack calls the Lua global "custom_attack_<enemyID>" if defined,
// returning ok=false when no such hook exists so the caller falls back to
// the enemy's declarative AttackPatternConfig.
func (e *Engine) CustomAttack(ctx EnemyAttackContext) (EnemyAttackDecision, bool) {
	fnName := "custom_attack_" + ctx.EnemyID
	if !e.hasGlobalFunc(fnName) {
		return EnemyAttackDecision{}, false
	}

	t := e.vm.NewTable()
	t.RawSetString("health_frac", lua.LNumber(ctx.HealthFrac))
	t.RawSetString("player_x", lua.LNumber(ctx.PlayerX))
	t.RawSetString("player_y", lua.LNumber(ctx.PlayerY))
	t.RawSetString("enemy_x", lua.LNumber(ctx.EnemyX))
	t.RawSetString("enemy_y", lua.LNumber(ctx.EnemyY))

	if err := e.vm.CallByParam(lua.P{Fn: e.vm.GetGlobal(fnName), NRet: 1, Protect: true}, t); err != nil {
		e.log.Warn("lua custom attack errored", zap.String("enemy", ctx.EnemyID), zap.Error(err))
		return EnemyAttackDecision{}, false
	}
	ret, ok := e.vm.Get(-1).(*lua.LTable)
	e.vm.Pop(1)
	if !ok {
		return EnemyAttackDecision{}, false
	}

	decision := EnemyAttackDecision{
		Fire:      lua.LVAsBool(ret.RawGetString("fire")),
		VelocityX: lNumber(ret, "vx"),
		VelocityY: lNumber(ret, "vy"),
	}
	return decision, true
}

func lNumber(t *lua.LTable, key string) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

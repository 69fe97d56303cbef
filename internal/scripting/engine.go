package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for spawn-plan logic: boss trigger
// conditions and kill reward hooks. Single-goroutine access only
// (simulation loop). Script errors degrade to safe defaults, never crash
// the tick.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"arena", "rewards"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
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

// TriggerContext is pre-packed data for a boss trigger condition check.
type TriggerContext struct {
	EventID    string
	Condition  string // Lua condition name registered by the script
	Elapsed    float64
	AliveCount int
	BossCount  int
}

// CheckBossTrigger calls the Lua boss_trigger function for a
// condition-driven boss event. Returns false on any script error: a broken
// condition keeps the boss gated rather than spam-spawning it.
func (e *Engine) CheckBossTrigger(ctx TriggerContext) bool {
	fn := e.vm.GetGlobal("boss_trigger")
	if fn == lua.LNil {
		e.log.Error("lua function boss_trigger not found")
		return false
	}

	t := e.vm.NewTable()
	t.RawSetString("event_id", lua.LString(ctx.EventID))
	t.RawSetString("condition", lua.LString(ctx.Condition))
	t.RawSetString("elapsed", lua.LNumber(ctx.Elapsed))
	t.RawSetString("alive_count", lua.LNumber(ctx.AliveCount))
	t.RawSetString("boss_count", lua.LNumber(ctx.BossCount))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua boss_trigger error", zap.String("event", ctx.EventID), zap.Error(err))
		return false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return result == lua.LTrue
}

// KillContext is pre-packed data for the kill reward hook.
type KillContext struct {
	EntityType string
	Source     string
	Elapsed    float64
	Boss       bool
}

// OnEntityKilled calls the Lua on_entity_killed hook, if defined. Reward
// logic lives entirely in scripts; errors are logged and swallowed.
func (e *Engine) OnEntityKilled(ctx KillContext) {
	fn := e.vm.GetGlobal("on_entity_killed")
	if fn == lua.LNil {
		return // hook is optional
	}

	t := e.vm.NewTable()
	t.RawSetString("entity_type", lua.LString(ctx.EntityType))
	t.RawSetString("source", lua.LString(ctx.Source))
	t.RawSetString("elapsed", lua.LNumber(ctx.Elapsed))
	t.RawSetString("boss", lua.LBool(ctx.Boss))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua on_entity_killed error", zap.Error(err))
	}
}

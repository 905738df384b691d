package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/freebuild/server/internal/rules"
)

// Engine wraps a single gopher-lua VM for operator placement rules. An
// LState is not goroutine-safe, and checks arrive both from the host's
// simulation loop and from admin API goroutines, so every VM call
// serializes on mu.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all rule scripts from rulesDir.
func NewEngine(rulesDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(rulesDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load rule scripts: %w", err)
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
		e.log.Debug("loaded lua rule script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

// RuleContext is the data handed to the Lua can_build hook.
type RuleContext struct {
	MapID int16
	X     int32
	Y     int32
}

// CanBuild calls the Lua can_build function. The hook answers "allow",
// "deny", or "pass"; a missing hook, a script error, or any other answer
// yields Defer so scripts can never wedge placement.
func (e *Engine) CanBuild(ctx RuleContext) rules.Verdict {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("can_build")
	if fn == lua.LNil {
		return rules.Defer
	}

	t := e.vm.NewTable()
	t.RawSetString("map_id", lua.LNumber(ctx.MapID))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua can_build error", zap.Error(err))
		return rules.Defer
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	switch lua.LVAsString(result) {
	case "allow":
		return rules.Buildable
	case "deny":
		return rules.NotBuildable
	}
	return rules.Defer
}

// Rule adapts the engine to the evaluator's extension point.
func (e *Engine) Rule() rules.ExtraRule {
	return func(h rules.Host, t rules.Tile) rules.Verdict {
		var mapID int16
		if m, ok := h.(interface{ MapID() int16 }); ok {
			mapID = m.MapID()
		}
		return e.CanBuild(RuleContext{MapID: mapID, X: t.X, Y: t.Y})
	}
}

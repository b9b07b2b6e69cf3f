package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/pkgmux/internal/action"
	"github.com/blackwell-systems/pkgmux/internal/backend"
	"github.com/blackwell-systems/pkgmux/internal/config"
	"github.com/blackwell-systems/pkgmux/internal/engine"
	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/extension"
	"github.com/blackwell-systems/pkgmux/internal/ledger"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

// runtime bundles everything a command needs: the engine, the loaded
// extension registry, and a close func for the ledger stores.
type runtime struct {
	engine     *engine.Engine
	extensions *extension.Registry
	scope      op.Scope
	close      func()
}

// currentScope resolves the operation scope from the --system flag and
// the configured default.
func currentScope(cfg *config.Config) op.Scope {
	if flagSystem {
		return op.ScopeSystem
	}
	if cfg.DefaultScope == "system" {
		return op.ScopeSystem
	}
	return op.ScopeUser
}

// buildRuntime loads config and extensions, opens the scope's ledger,
// and assembles the engine. Callers must call close when done.
func buildRuntime() (*runtime, error) {
	cfgDir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config directory: %w", err)
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return nil, err
	}

	scope := currentScope(cfg)

	backends, err := buildBackends(cfg)
	if err != nil {
		return nil, err
	}

	extensions, err := loadExtensions(cfgDir)
	if err != nil {
		return nil, err
	}

	exec := action.NewExecutor()
	if cfg.ActionTimeoutSeconds > 0 {
		exec.Timeout = time.Duration(cfg.ActionTimeoutSeconds) * time.Second
	}
	dispatcher := event.NewDispatcher(extensions, exec)

	store, err := openLedger(scope)
	if err != nil {
		// A corrupt or unopenable ledger degrades to an empty scope
		// rather than blocking operations outright.
		fmt.Fprintf(os.Stderr, "Warning: %v; continuing without history for this run\n", err)
		store = nil
	}

	ledgers := make(map[op.Scope]*ledger.Store)
	if store != nil {
		ledgers[scope] = store
	}

	eng := engine.New(backends, dispatcher, ledgers)

	return &runtime{
		engine:     eng,
		extensions: extensions,
		scope:      scope,
		close: func() {
			if store != nil {
				store.Close()
			}
		},
	}, nil
}

// buildBackends registers every builtin backend, applying config
// overrides for enablement and binary paths.
func buildBackends(cfg *config.Config) (*backend.Registry, error) {
	timeout := time.Duration(cfg.BackendTimeoutSeconds) * time.Second
	runner := backend.NewRunner(timeout)

	reg := backend.NewRegistry()
	for _, def := range backend.Builtins() {
		if override, ok := cfg.Backends[def.Name]; ok && override.Bin != "" {
			def.Bin = override.Bin
		}
		if err := reg.Register(backend.NewCLI(def, runner)); err != nil {
			return nil, err
		}
	}
	for name, override := range cfg.Backends {
		if override.Enabled != nil {
			if err := reg.SetEnabled(name, *override.Enabled); err != nil {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}
	return reg, nil
}

// loadExtensions loads user and system extensions. System extension IDs
// carry a "system-" prefix so they never collide with user extensions.
// Enable/disable toggles persisted in the state file override the
// enabled flag each plugin.conf declares.
func loadExtensions(cfgDir string) (*extension.Registry, error) {
	reg, err := extension.NewRegistry(
		filepath.Join(cfgDir, "plugins.audit.log"),
		filepath.Join(cfgDir, extension.StateFile),
	)
	if err != nil {
		return nil, err
	}

	userDir, err := config.ExtensionDir()
	if err != nil {
		return nil, err
	}
	userExts, err := extension.LoadDir(userDir, "")
	if err != nil {
		return nil, err
	}
	sysExts, err := extension.LoadDir(config.SystemExtensionDir, "system-")
	if err != nil {
		return nil, err
	}

	for _, ext := range append(sysExts, userExts...) {
		if err := reg.Add(ext); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// openLedger opens the ledger store for a scope, creating the data
// directory on first use.
func openLedger(scope op.Scope) (*ledger.Store, error) {
	var dir string
	if scope == op.ScopeSystem {
		dir = config.SystemDataDir
	} else {
		var err error
		dir, err = config.DataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate data directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return ledger.New(filepath.Join(dir, "ledger.db"))
}

// runSession wraps a command body in session-start / session-end events.
func runSession(rt *runtime, body func(ctx context.Context) error) error {
	ctx := context.Background()
	rt.engine.EmitSession(ctx, event.SessionStart)
	defer rt.engine.EmitSession(ctx, event.SessionEnd)
	return body(ctx)
}

// reportActionFailures prints any extension action failures collected
// during an operation. Failures never change the operation's outcome.
func reportActionFailures(res *engine.Result) {
	if res == nil {
		return
	}
	for _, f := range res.Failures() {
		fmt.Fprintf(os.Stderr, "Warning: extension %s: action %s failed: %v\n",
			f.ExtensionID, f.Action, f.Err)
	}
}

// Package engine orchestrates package operations: it resolves the
// backend, walks the operation through its lifecycle events, and records
// the result in the ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/blackwell-systems/pkgmux/internal/action"
	"github.com/blackwell-systems/pkgmux/internal/backend"
	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/ledger"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

// Emitter delivers lifecycle events. The event dispatcher implements it;
// tests substitute a recorder.
type Emitter interface {
	Dispatch(ctx context.Context, name event.Name, vars action.Vars) event.Report
}

// Engine drives operations end to end. It is safe for sequential use;
// the only internal concurrency is the search fan-out, which is bounded
// to one worker per enabled backend.
type Engine struct {
	backends *backend.Registry
	emitter  Emitter
	ledgers  map[op.Scope]*ledger.Store
	username string
}

// New builds an engine over a backend registry, an event emitter, and
// the per-scope ledger stores. Scopes without a store simply skip ledger
// recording (search-only setups do this in tests).
func New(backends *backend.Registry, emitter Emitter, ledgers map[op.Scope]*ledger.Store) *Engine {
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	return &Engine{
		backends: backends,
		emitter:  emitter,
		ledgers:  ledgers,
		username: username,
	}
}

// Result is what an operation hands back to the caller: the immutable
// context it ran under, how it finished, any packages it produced, and
// the dispatch reports collected along the way.
type Result struct {
	Context  op.Context
	Outcome  op.Outcome
	Packages []backend.PackageInfo
	Reports  []event.Report
	LedgerID int64 // entry recorded for a successful install, else 0

	// err keeps the typed error for multi-backend runs so the aggregate
	// can classify without reparsing outcome strings.
	err error
}

// Failures flattens the action failures across every dispatch report.
func (r *Result) Failures() []event.Failure {
	var out []event.Failure
	for _, rep := range r.Reports {
		out = append(out, rep.Failures...)
	}
	return out
}

// Install runs the install lifecycle against one backend, resolving it
// by search when backendName is empty.
func (e *Engine) Install(ctx context.Context, backendName string, packages []string, scope op.Scope) (*Result, error) {
	return e.runMutation(ctx, op.Install, backendName, packages, scope,
		func(b backend.Backend) (*backend.Result, error) { return b.Install(ctx, packages) })
}

// Remove runs the remove lifecycle.
func (e *Engine) Remove(ctx context.Context, backendName string, packages []string, scope op.Scope) (*Result, error) {
	return e.runMutation(ctx, op.Remove, backendName, packages, scope,
		func(b backend.Backend) (*backend.Result, error) { return b.Remove(ctx, packages) })
}

// Purge runs the purge lifecycle (remove plus configuration).
func (e *Engine) Purge(ctx context.Context, backendName string, packages []string, scope op.Scope) (*Result, error) {
	return e.runMutation(ctx, op.Purge, backendName, packages, scope,
		func(b backend.Backend) (*backend.Result, error) { return b.Purge(ctx, packages) })
}

// Upgrade runs the upgrade lifecycle for the named packages against one
// backend. Use UpgradeAll to upgrade everything across all backends.
func (e *Engine) Upgrade(ctx context.Context, backendName string, packages []string, scope op.Scope) (*Result, error) {
	return e.runMutation(ctx, op.Upgrade, backendName, packages, scope,
		func(b backend.Backend) (*backend.Result, error) { return b.Upgrade(ctx, packages) })
}

// runMutation walks one mutating operation through its lifecycle:
// pre event, backend resolution, optional pre-success event, the backend
// call, the specific post event, the generalized post event, and ledger
// recording. Every path out of this function has fired the post-failure
// or post-success event plus exactly one generalized post event, aborted
// operations included.
func (e *Engine) runMutation(ctx context.Context, kind op.Kind, backendName string, packages []string, scope op.Scope, call func(backend.Backend) (*backend.Result, error)) (*Result, error) {
	if len(packages) == 0 {
		return nil, fmt.Errorf("%s requires at least one package", kind)
	}
	if backendName != "" && e.backends.Get(backendName) == nil {
		return nil, &UnknownBackendError{Name: backendName}
	}

	opCtx := op.NewContext(kind, backendName, packages, scope, nil)
	res := &Result{Context: opCtx}

	e.emit(ctx, res, event.Pre(kind), opCtx, nil)

	b, resolvable, err := e.resolveBackend(ctx, kind, backendName, packages)
	if err != nil {
		e.finishFailure(ctx, res, err.Error())
		return res, err
	}
	// Resolution by claims fixes the backend name after the fact; the
	// stored context keeps the name the operation actually ran against.
	opCtx.BackendName = b.Name()
	res.Context = opCtx

	if pre := event.PreSuccessFor(kind); pre != "" && resolvable {
		e.emit(ctx, res, pre, opCtx, nil)
	}

	backendRes, err := call(b)
	if err != nil {
		msg := err.Error()
		e.finishFailure(ctx, res, msg)
		if errors.Is(err, backend.ErrTimeout) {
			return res, err
		}
		return res, fmt.Errorf("%s via %s: %w", kind, b.Name(), err)
	}

	if !backendRes.Success {
		e.finishFailure(ctx, res, backendRes.Error)
		return res, nil
	}

	res.Outcome = op.Outcome{Success: true, Details: backendRes.Details}
	res.Packages = backendRes.Packages
	e.emit(ctx, res, event.PostSuccessFor(kind), opCtx, &res.Outcome)
	e.emit(ctx, res, event.Post(kind), opCtx, &res.Outcome)

	e.recordOutcome(ctx, res)
	return res, nil
}

// finishFailure stamps a failed outcome and fires the post-failure and
// generalized post events.
func (e *Engine) finishFailure(ctx context.Context, res *Result, msg string) {
	res.Outcome = op.Outcome{Success: false, Error: msg}
	e.emit(ctx, res, event.PostFailureFor(res.Context.Kind), res.Context, &res.Outcome)
	e.emit(ctx, res, event.Post(res.Context.Kind), res.Context, &res.Outcome)
}

// resolveBackend picks the backend for an operation. With an explicit
// name it verifies availability and probes whether at least one package
// resolves. Without one it searches every active backend and requires
// exactly one claimant per requested package set.
func (e *Engine) resolveBackend(ctx context.Context, kind op.Kind, backendName string, packages []string) (backend.Backend, bool, error) {
	if backendName != "" {
		b := e.backends.Get(backendName)
		if !e.backends.Enabled(backendName) || !b.IsAvailable() {
			return nil, false, fmt.Errorf("%w: %s", ErrBackendUnavailable, backendName)
		}
		// Removal verbs act on installed packages, so their probe is the
		// installed list rather than the remote index.
		resolvable := true
		switch kind {
		case op.Install, op.Upgrade:
			resolvable = e.anyResolvable(ctx, b, packages)
		case op.Remove, op.Purge:
			resolvable = e.anyInstalled(ctx, b, packages)
		}
		return b, resolvable, nil
	}

	claimants := e.claimants(ctx, kind, packages)
	switch len(claimants) {
	case 0:
		return nil, false, ErrNoProvider
	case 1:
		return claimants[0], true, nil
	default:
		names := make([]string, len(claimants))
		for i, c := range claimants {
			names[i] = c.Name()
		}
		return nil, false, &AmbiguityError{Package: packages[0], Backends: names}
	}
}

// anyResolvable reports whether the backend's search resolves at least
// one of the requested packages by exact name.
func (e *Engine) anyResolvable(ctx context.Context, b backend.Backend, packages []string) bool {
	for _, pkg := range packages {
		res, err := b.Search(ctx, pkg)
		if err != nil || !res.Success {
			continue
		}
		for _, found := range res.Packages {
			if found.Name == pkg {
				return true
			}
		}
	}
	return false
}

// anyInstalled reports whether the backend has at least one of the
// requested packages installed.
func (e *Engine) anyInstalled(ctx context.Context, b backend.Backend, packages []string) bool {
	installed, err := b.ListInstalled(ctx)
	if err != nil {
		return false
	}
	set := make(map[string]bool, len(installed))
	for _, p := range installed {
		set[p.Name] = true
	}
	for _, pkg := range packages {
		if set[pkg] {
			return true
		}
	}
	return false
}

// claimants returns the active backends that claim every requested
// package. Install and upgrade consult the backend's search index;
// remove and purge consult what each backend actually has installed,
// since a removal target need not exist in any remote index.
func (e *Engine) claimants(ctx context.Context, kind op.Kind, packages []string) []backend.Backend {
	var out []backend.Backend
	for _, b := range e.backends.Active() {
		if e.claimsAll(ctx, b, kind, packages) {
			out = append(out, b)
		}
	}
	return out
}

func (e *Engine) claimsAll(ctx context.Context, b backend.Backend, kind op.Kind, packages []string) bool {
	if kind == op.Remove || kind == op.Purge {
		installed, err := b.ListInstalled(ctx)
		if err != nil {
			return false
		}
		set := make(map[string]bool, len(installed))
		for _, p := range installed {
			set[p.Name] = true
		}
		for _, pkg := range packages {
			if !set[pkg] {
				return false
			}
		}
		return true
	}

	for _, pkg := range packages {
		res, err := b.Search(ctx, pkg)
		if err != nil || !res.Success {
			return false
		}
		found := false
		for _, p := range res.Packages {
			if p.Name == pkg {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// recordOutcome persists a successful mutation into the scope's ledger
// and fires history-recorded. Ledger problems are reported to stderr but
// never fail an operation that already succeeded on the backend.
func (e *Engine) recordOutcome(ctx context.Context, res *Result) {
	store, ok := e.ledgers[res.Context.Scope]
	if !ok || !res.Outcome.Success {
		return
	}

	switch res.Context.Kind {
	case op.Install:
		// Backend-reported versions, when present, enrich the entry.
		versions := make(map[string]string, len(res.Packages))
		for _, p := range res.Packages {
			if p.Version != "" {
				versions[p.Name] = p.Version
			}
		}
		pkgs := make([]ledger.Package, len(res.Context.Packages))
		for i, name := range res.Context.Packages {
			pkgs[i] = ledger.Package{Name: name, Version: versions[name]}
		}
		id, err := store.RecordInstall(res.Context.BackendName, pkgs, string(res.Context.Scope), e.username)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pkgmux: ledger record failed: %v\n", err)
			return
		}
		res.LedgerID = id
		e.emit(ctx, res, event.HistoryRecorded, res.Context, &res.Outcome)

	case op.Remove, op.Purge:
		changed, err := store.MarkRemoved(res.Context.BackendName, res.Context.Packages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pkgmux: ledger update failed: %v\n", err)
			return
		}
		if len(changed) > 0 {
			e.emit(ctx, res, event.HistoryRecorded, res.Context, &res.Outcome)
		}
	}
}

// emit dispatches one event and appends the report to the result.
func (e *Engine) emit(ctx context.Context, res *Result, name event.Name, opCtx op.Context, outcome *op.Outcome) {
	if name == "" {
		return
	}
	report := e.emitter.Dispatch(ctx, name, action.BuildVars(opCtx, outcome))
	res.Reports = append(res.Reports, report)
}

// Ledger returns the ledger store for a scope, or nil.
func (e *Engine) Ledger(scope op.Scope) *ledger.Store {
	return e.ledgers[scope]
}

// Backends returns the engine's backend registry.
func (e *Engine) Backends() *backend.Registry {
	return e.backends
}

// Emitter returns the engine's event emitter.
func (e *Engine) Emitter() Emitter {
	return e.emitter
}

// EmitSession fires a session marker (session-start or session-end).
func (e *Engine) EmitSession(ctx context.Context, name event.Name) {
	opCtx := op.Context{}
	e.emitter.Dispatch(ctx, name, action.BuildVars(opCtx, nil))
}

// EmitNamed fires an arbitrary event with the given operation context.
// Used for out-of-band events like plugin-enabled.
func (e *Engine) EmitNamed(ctx context.Context, name event.Name, opCtx op.Context) event.Report {
	return e.emitter.Dispatch(ctx, name, action.BuildVars(opCtx, nil))
}

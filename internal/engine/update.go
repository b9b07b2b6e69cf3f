package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackwell-systems/pkgmux/internal/backend"
	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

// Update refreshes package metadata. With a backend name it updates just
// that backend; otherwise it walks every active backend sequentially.
// Native package managers take system-wide locks, so concurrent mutation
// across backends is deliberately avoided here.
func (e *Engine) Update(ctx context.Context, backendName string, scope op.Scope) ([]*Result, error) {
	return e.runPerBackend(ctx, op.Update, backendName, scope,
		func(b backend.Backend) (*backend.Result, error) { return b.Update(ctx) })
}

// UpgradeAll upgrades every package on one backend, or on every active
// backend sequentially when backendName is empty.
func (e *Engine) UpgradeAll(ctx context.Context, backendName string, scope op.Scope) ([]*Result, error) {
	return e.runPerBackend(ctx, op.Upgrade, backendName, scope,
		func(b backend.Backend) (*backend.Result, error) { return b.Upgrade(ctx, nil) })
}

// runPerBackend runs one packageless lifecycle per target backend and
// collects the per-backend results. The first hard error (timeout,
// adapter fault) is returned after all backends have been attempted.
func (e *Engine) runPerBackend(ctx context.Context, kind op.Kind, backendName string, scope op.Scope, call func(backend.Backend) (*backend.Result, error)) ([]*Result, error) {
	var targets []backend.Backend
	if backendName != "" {
		b := e.backends.Get(backendName)
		if b == nil {
			return nil, &UnknownBackendError{Name: backendName}
		}
		targets = []backend.Backend{b}
	} else {
		targets = e.backends.Active()
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no active backends")
	}

	var results []*Result
	var firstErr error
	for _, b := range targets {
		res := e.runOneBackend(ctx, kind, b, scope, call)
		results = append(results, res)
		if !res.Outcome.Success && firstErr == nil && res.Outcome.Error != "" {
			if errors.Is(res.err, backend.ErrTimeout) || errors.Is(res.err, ErrBackendUnavailable) {
				firstErr = res.err
			}
		}
	}
	return results, firstErr
}

// runOneBackend walks one backend through the packageless lifecycle.
func (e *Engine) runOneBackend(ctx context.Context, kind op.Kind, b backend.Backend, scope op.Scope, call func(backend.Backend) (*backend.Result, error)) *Result {
	opCtx := op.NewContext(kind, b.Name(), nil, scope, nil)
	res := &Result{Context: opCtx}

	e.emit(ctx, res, event.Pre(kind), opCtx, nil)

	if !e.backends.Enabled(b.Name()) || !b.IsAvailable() {
		res.err = fmt.Errorf("%w: %s", ErrBackendUnavailable, b.Name())
		e.finishFailure(ctx, res, res.err.Error())
		return res
	}

	backendRes, err := call(b)
	if err != nil {
		res.err = err
		e.finishFailure(ctx, res, err.Error())
		return res
	}
	if !backendRes.Success {
		e.finishFailure(ctx, res, backendRes.Error)
		return res
	}

	res.Outcome = op.Outcome{Success: true, Details: backendRes.Details}
	e.emit(ctx, res, event.PostSuccessFor(kind), opCtx, &res.Outcome)
	e.emit(ctx, res, event.Post(kind), opCtx, &res.Outcome)
	return res
}

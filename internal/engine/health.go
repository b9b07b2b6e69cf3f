package engine

import (
	"context"
	"errors"

	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/ledger"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

// BackendHealth is the probe result for one backend.
type BackendHealth struct {
	Name      string
	Enabled   bool
	Available bool
}

// LedgerHealth is the integrity result for one scope's ledger.
type LedgerHealth struct {
	Scope   op.Scope
	Entries int
	Corrupt bool
	Err     string
}

// HealthReport is what the health operation hands back.
type HealthReport struct {
	Backends []BackendHealth
	Ledgers  []LedgerHealth
	Result   *Result
}

// Healthy reports whether every probe passed: at least one backend is
// usable and no ledger is corrupt.
func (h *HealthReport) Healthy() bool {
	usable := false
	for _, b := range h.Backends {
		if b.Enabled && b.Available {
			usable = true
			break
		}
	}
	if !usable {
		return false
	}
	for _, l := range h.Ledgers {
		if l.Corrupt {
			return false
		}
	}
	return true
}

// CheckHealth probes every registered backend and every scope ledger,
// wrapped in the health lifecycle events. Available backends fire
// manager-detected so extensions can react to the discovered toolset.
func (e *Engine) CheckHealth(ctx context.Context, scope op.Scope) *HealthReport {
	opCtx := op.NewContext(op.Health, "", nil, scope, nil)
	res := &Result{Context: opCtx}
	report := &HealthReport{Result: res}

	e.emit(ctx, res, event.PreHealth, opCtx, nil)
	e.emit(ctx, res, event.HealthCheck, opCtx, nil)

	for _, b := range e.backends.All() {
		h := BackendHealth{
			Name:    b.Name(),
			Enabled: e.backends.Enabled(b.Name()),
		}
		if h.Enabled {
			h.Available = b.IsAvailable()
		}
		if h.Available {
			detected := op.NewContext(op.Health, b.Name(), nil, scope, nil)
			e.emit(ctx, res, event.ManagerDetected, detected, nil)
		}
		report.Backends = append(report.Backends, h)
	}

	for sc, store := range e.ledgers {
		lh := LedgerHealth{Scope: sc}
		stats, err := store.Stats()
		if err != nil {
			lh.Err = err.Error()
			lh.Corrupt = true
		} else {
			lh.Entries = stats.Total
			// A stats pass can succeed while individual rows are
			// malformed; a full read exposes those.
			if _, err := store.Entries(); err != nil {
				lh.Err = err.Error()
				lh.Corrupt = errors.Is(err, ledger.ErrCorrupt)
			}
		}
		report.Ledgers = append(report.Ledgers, lh)
	}

	if report.Healthy() {
		res.Outcome = op.Outcome{Success: true}
		e.emit(ctx, res, event.PostHealthSuccess, opCtx, &res.Outcome)
		e.emit(ctx, res, event.PostHealth, opCtx, &res.Outcome)
	} else {
		e.finishFailure(ctx, res, "health checks failed")
	}
	return report
}

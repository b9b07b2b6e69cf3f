package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackwell-systems/pkgmux/internal/action"
	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/ledger"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

// ErrNoLedger means no ledger store is configured for the scope.
var ErrNoLedger = errors.New("no ledger for scope")

// Reconcile brings the scope's ledger in line with what the backends
// report as installed. A corrupt ledger is surfaced as ledger.ErrCorrupt
// so the caller can warn and treat the scope as empty.
func (e *Engine) Reconcile(ctx context.Context, scope op.Scope) (*ledger.Report, error) {
	store, ok := e.ledgers[scope]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLedger, scope)
	}

	report, err := store.Reconcile(ctx, e.backends)
	if err != nil {
		return nil, err
	}

	if report.Changed() {
		// Out-of-band event: no operation kind, so $operation expands
		// to nothing instead of naming an operation that never ran.
		opCtx := op.NewContext("", "", nil, scope, map[string]string{
			"reconciled": fmt.Sprintf("%d", len(report.Changes)),
		})
		outcome := op.Outcome{Success: true}
		e.emitter.Dispatch(ctx, event.HistoryRecorded, action.BuildVars(opCtx, &outcome))
	}
	return report, nil
}

// Rollback undoes a past install by removing its packages through the
// backend that installed them, then records the rollback. Only entries
// still marked installed can be rolled back.
func (e *Engine) Rollback(ctx context.Context, scope op.Scope, entryID int64) (*Result, error) {
	store, ok := e.ledgers[scope]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLedger, scope)
	}

	entry, err := store.Entry(entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != ledger.StatusInstalled {
		return nil, fmt.Errorf("entry %d is %s; only installed entries can be rolled back", entryID, entry.Status)
	}

	names := make([]string, len(entry.Packages))
	for i, p := range entry.Packages {
		names[i] = p.Name
	}

	res, err := e.Remove(ctx, entry.Backend, names, scope)
	if err != nil {
		return res, err
	}
	if !res.Outcome.Success {
		return res, nil
	}

	if _, err := store.RecordRollback(entryID, e.username); err != nil {
		return res, fmt.Errorf("rollback succeeded but could not be recorded: %w", err)
	}
	return res, nil
}

// ClearHistory deletes every ledger entry in the scope and fires
// history-cleared.
func (e *Engine) ClearHistory(ctx context.Context, scope op.Scope) error {
	store, ok := e.ledgers[scope]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoLedger, scope)
	}
	if err := store.Clear(); err != nil {
		return err
	}

	opCtx := op.NewContext("", "", nil, scope, nil)
	outcome := op.Outcome{Success: true}
	e.emitter.Dispatch(ctx, event.HistoryCleared, action.BuildVars(opCtx, &outcome))
	return nil
}

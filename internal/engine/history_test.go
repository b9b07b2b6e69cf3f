package engine

import (
	"context"
	"testing"

	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/ledger"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

func TestCheckHealthHealthy(t *testing.T) {
	apt := &stubBackend{name: "apt", available: true}
	gone := &stubBackend{name: "dnf", available: false}
	eng, emitter, _ := testEngine(t, apt, gone)

	report := eng.CheckHealth(context.Background(), op.ScopeUser)
	if !report.Healthy() {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Backends) != 2 {
		t.Fatalf("probed %d backends, want 2", len(report.Backends))
	}
	if len(report.Ledgers) != 1 || report.Ledgers[0].Corrupt {
		t.Errorf("ledgers = %+v", report.Ledgers)
	}

	// manager-detected fires once, for the one available backend.
	assertEvents(t, emitter,
		event.PreHealth,
		event.HealthCheck,
		event.ManagerDetected,
		event.PostHealthSuccess,
		event.PostHealth,
	)
}

func TestCheckHealthNoUsableBackend(t *testing.T) {
	eng, emitter, _ := testEngine(t, &stubBackend{name: "apt", available: false})

	report := eng.CheckHealth(context.Background(), op.ScopeUser)
	if report.Healthy() {
		t.Fatal("healthy with no usable backend")
	}

	assertEvents(t, emitter,
		event.PreHealth,
		event.HealthCheck,
		event.PostHealthFailure,
		event.PostHealth,
	)
}

func TestCheckHealthCorruptLedger(t *testing.T) {
	apt := &stubBackend{name: "apt", available: true}
	eng, _, store := testEngine(t, apt)

	if _, err := store.DB().Exec(`
		INSERT INTO entries (backend, packages, scope, recorded_at, status, status_changed_at, ever_confirmed)
		VALUES ('apt', '{bad', 'user', '2026-01-01T00:00:00Z', 'installed', '2026-01-01T00:00:00Z', 0)`); err != nil {
		t.Fatal(err)
	}

	report := eng.CheckHealth(context.Background(), op.ScopeUser)
	if report.Healthy() {
		t.Fatal("healthy with a corrupt ledger")
	}
	if len(report.Ledgers) != 1 || !report.Ledgers[0].Corrupt {
		t.Errorf("ledgers = %+v", report.Ledgers)
	}
}

func TestEngineReconcile(t *testing.T) {
	apt := &stubBackend{name: "apt", available: true, installed: []string{"vim"}}
	eng, emitter, store := testEngine(t, apt)

	if _, err := store.RecordInstall("apt", []ledger.Package{{Name: "vim"}}, "user", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordInstall("apt", []ledger.Package{{Name: "gone"}}, "user", ""); err != nil {
		t.Fatal(err)
	}

	report, err := eng.Reconcile(context.Background(), op.ScopeUser)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Confirmed != 1 || report.Removed != 1 {
		t.Errorf("report = %+v", report)
	}
	assertEvents(t, emitter, event.HistoryRecorded)

	// history-recorded is not tied to any operation; $operation must
	// expand to nothing rather than a stand-in kind.
	if got := emitter.vars[0]["$operation"]; got != "" {
		t.Errorf("$operation = %q, want empty", got)
	}
	if got := emitter.vars[0]["$success"]; got != "true" {
		t.Errorf("$success = %q, want %q", got, "true")
	}
}

func TestEngineReconcileNoLedgerScope(t *testing.T) {
	eng, _, _ := testEngine(t, &stubBackend{name: "apt", available: true})
	if _, err := eng.Reconcile(context.Background(), op.ScopeSystem); err == nil {
		t.Fatal("reconcile on scope without a ledger succeeded")
	}
}

func TestRollback(t *testing.T) {
	apt := &stubBackend{name: "apt", available: true, installed: []string{"vim"}}
	eng, _, store := testEngine(t, apt)

	id, err := store.RecordInstall("apt", []ledger.Package{{Name: "vim"}}, "user", "")
	if err != nil {
		t.Fatal(err)
	}

	res, err := eng.Rollback(context.Background(), op.ScopeUser, id)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if !res.Outcome.Success {
		t.Fatalf("outcome = %+v", res.Outcome)
	}

	e, err := store.Entry(id)
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != ledger.StatusRemoved {
		t.Errorf("entry status = %q, want removed", e.Status)
	}

	rbs, err := store.Rollbacks()
	if err != nil {
		t.Fatal(err)
	}
	if len(rbs) != 1 || rbs[0].EntryID != id {
		t.Errorf("rollbacks = %+v", rbs)
	}
}

func TestRollbackRejectsRemovedEntry(t *testing.T) {
	apt := &stubBackend{name: "apt", available: true}
	eng, _, store := testEngine(t, apt)

	id, err := store.RecordInstall("apt", []ledger.Package{{Name: "vim"}}, "user", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.MarkRemoved("apt", []string{"vim"}); err != nil {
		t.Fatal(err)
	}

	if _, err := eng.Rollback(context.Background(), op.ScopeUser, id); err == nil {
		t.Fatal("rollback of a removed entry succeeded")
	}
	// The rejected rollback must not touch the backend.
	if len(apt.calls) != 0 {
		t.Errorf("backend calls = %v", apt.calls)
	}
}

func TestClearHistory(t *testing.T) {
	apt := &stubBackend{name: "apt", available: true}
	eng, emitter, store := testEngine(t, apt)

	if _, err := store.RecordInstall("apt", []ledger.Package{{Name: "vim"}}, "user", ""); err != nil {
		t.Fatal(err)
	}

	if err := eng.ClearHistory(context.Background(), op.ScopeUser); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	assertEvents(t, emitter, event.HistoryCleared)
	if got := emitter.vars[0]["$operation"]; got != "" {
		t.Errorf("$operation = %q, want empty", got)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 {
		t.Errorf("stats after clear = %+v", stats)
	}
}

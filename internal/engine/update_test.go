package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/blackwell-systems/pkgmux/internal/backend"
	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

func TestUpdateWalksActiveBackends(t *testing.T) {
	apt := &stubBackend{name: "apt", available: true}
	brew := &stubBackend{name: "brew", available: true}
	gone := &stubBackend{name: "dnf", available: false}
	eng, emitter, _ := testEngine(t, apt, brew, gone)

	results, err := eng.Update(context.Background(), "", op.ScopeUser)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (unavailable backend skipped)", len(results))
	}
	for _, res := range results {
		if !res.Outcome.Success {
			t.Errorf("%s outcome = %+v", res.Context.BackendName, res.Outcome)
		}
	}

	// One full packageless cycle per backend, no pre-success stage.
	assertEvents(t, emitter,
		event.PreUpdate, event.PostUpdateSuccess, event.PostUpdate,
		event.PreUpdate, event.PostUpdateSuccess, event.PostUpdate,
	)

	if len(apt.calls) != 1 || apt.calls[0] != "update" {
		t.Errorf("apt calls = %v", apt.calls)
	}
	if len(gone.calls) != 0 {
		t.Errorf("unavailable backend was invoked: %v", gone.calls)
	}
}

func TestUpdateExplicitUnavailableBackend(t *testing.T) {
	gone := &stubBackend{name: "dnf", available: false}
	eng, emitter, _ := testEngine(t, gone)

	results, err := eng.Update(context.Background(), "dnf", op.ScopeUser)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	if len(results) != 1 || results[0].Outcome.Success {
		t.Fatalf("results = %+v", results)
	}

	assertEvents(t, emitter,
		event.PreUpdate,
		event.PostUpdateFailure,
		event.PostUpdate,
	)
}

func TestUpdateNoActiveBackends(t *testing.T) {
	eng, _, _ := testEngine(t, &stubBackend{name: "apt", available: false})
	if _, err := eng.Update(context.Background(), "", op.ScopeUser); err == nil {
		t.Fatal("update with no active backends succeeded")
	}
}

func TestUpgradeAllContinuesPastFailure(t *testing.T) {
	bad := &stubBackend{name: "apt", available: true, fail: true}
	good := &stubBackend{name: "brew", available: true}
	eng, _, _ := testEngine(t, bad, good)

	results, err := eng.UpgradeAll(context.Background(), "", op.ScopeUser)
	if err != nil {
		t.Fatalf("a backend-reported failure is not a hard error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Outcome.Success {
		t.Error("failed backend reported success")
	}
	if !results[1].Outcome.Success {
		t.Errorf("healthy backend did not run: %+v", results[1].Outcome)
	}
	if len(good.calls) != 1 || good.calls[0] != "upgrade" {
		t.Errorf("good backend calls = %v", good.calls)
	}
}

func TestUpgradeAllSurfacesTimeout(t *testing.T) {
	slow := &stubBackend{name: "apt", available: true, callErr: backend.ErrTimeout}
	good := &stubBackend{name: "brew", available: true}
	eng, _, _ := testEngine(t, slow, good)

	results, err := eng.UpgradeAll(context.Background(), "", op.ScopeUser)
	if !errors.Is(err, backend.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	// The timeout on one backend does not stop the walk.
	if len(results) != 2 || !results[1].Outcome.Success {
		t.Fatalf("results = %+v", results)
	}
}

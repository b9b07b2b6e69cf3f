package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/blackwell-systems/pkgmux/internal/backend"
)

// stubBackend implements the parts of backend.Backend reconciliation
// touches: availability and the installed list.
type stubBackend struct {
	name      string
	available bool
	installed []string
	listErr   error
}

func (s *stubBackend) Name() string      { return s.name }
func (s *stubBackend) IsAvailable() bool { return s.available }

func (s *stubBackend) ListInstalled(ctx context.Context) ([]backend.PackageInfo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]backend.PackageInfo, len(s.installed))
	for i, name := range s.installed {
		out[i] = backend.PackageInfo{Name: name}
	}
	return out, nil
}

func (s *stubBackend) Search(context.Context, string) (*backend.Result, error) {
	return &backend.Result{Success: true}, nil
}
func (s *stubBackend) Install(context.Context, []string) (*backend.Result, error) {
	return &backend.Result{Success: true}, nil
}
func (s *stubBackend) Remove(context.Context, []string) (*backend.Result, error) {
	return &backend.Result{Success: true}, nil
}
func (s *stubBackend) Purge(context.Context, []string) (*backend.Result, error) {
	return &backend.Result{Success: true}, nil
}
func (s *stubBackend) Update(context.Context) (*backend.Result, error) {
	return &backend.Result{Success: true}, nil
}
func (s *stubBackend) Upgrade(context.Context, []string) (*backend.Result, error) {
	return &backend.Result{Success: true}, nil
}

// stubSource resolves backend names to stubs.
type stubSource map[string]backend.Backend

func (s stubSource) Get(name string) backend.Backend { return s[name] }

func TestReconcileConfirmsAndRemoves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	present, _ := s.RecordInstall("apt", []Package{{Name: "vim"}}, "user", "")
	gone, _ := s.RecordInstall("apt", []Package{{Name: "tmux"}}, "user", "")

	src := stubSource{"apt": &stubBackend{name: "apt", available: true, installed: []string{"vim"}}}

	report, err := s.Reconcile(ctx, src)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Examined != 2 || report.Confirmed != 1 || report.Removed != 1 {
		t.Errorf("report = %+v", report)
	}

	e, _ := s.Entry(present)
	if e.Status != StatusInstalled || !e.EverConfirmed {
		t.Errorf("present entry = status %q confirmed %t", e.Status, e.EverConfirmed)
	}
	e, _ = s.Entry(gone)
	if e.Status != StatusRemoved {
		t.Errorf("gone entry status = %q, want removed", e.Status)
	}
}

func TestReconcilePartialPresenceStaysInstalled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.RecordInstall("apt", []Package{{Name: "vim"}, {Name: "tmux"}}, "user", "")
	src := stubSource{"apt": &stubBackend{name: "apt", available: true, installed: []string{"vim"}}}

	if _, err := s.Reconcile(ctx, src); err != nil {
		t.Fatal(err)
	}

	e, _ := s.Entry(id)
	if e.Status != StatusInstalled {
		t.Errorf("partially present entry status = %q, want installed", e.Status)
	}
	if !e.EverConfirmed {
		t.Error("partially present entry not marked confirmed")
	}
}

func TestReconcileIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.RecordInstall("apt", []Package{{Name: "vim"}}, "user", "")
	s.RecordInstall("apt", []Package{{Name: "gone"}}, "user", "")
	src := stubSource{"apt": &stubBackend{name: "apt", available: true, installed: []string{"vim"}}}

	first, err := s.Reconcile(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Changed() {
		t.Fatal("first run reported no changes")
	}

	second, err := s.Reconcile(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	if second.Changed() {
		t.Errorf("second run changed entries: %+v", second.Changes)
	}
}

func TestReconcileIndeterminateBackend(t *testing.T) {
	tests := []struct {
		name string
		src  stubSource
	}{
		{"backend missing", stubSource{}},
		{"backend unavailable", stubSource{"apt": &stubBackend{name: "apt", available: false}}},
		{"listing fails", stubSource{"apt": &stubBackend{name: "apt", available: true, listErr: errors.New("locked")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()

			never, _ := s.RecordInstall("apt", []Package{{Name: "vim"}}, "user", "")
			confirmed, _ := s.RecordInstall("apt", []Package{{Name: "git"}}, "user", "")
			if err := s.SetStatus(confirmed, StatusInstalled, true); err != nil {
				t.Fatal(err)
			}

			report, err := s.Reconcile(ctx, tt.src)
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}

			// Never-confirmed entry demotes to unknown; the confirmed
			// one keeps its last known status.
			e, _ := s.Entry(never)
			if e.Status != StatusUnknown {
				t.Errorf("never-confirmed entry status = %q, want unknown", e.Status)
			}
			e, _ = s.Entry(confirmed)
			if e.Status != StatusInstalled {
				t.Errorf("confirmed entry status = %q, want installed", e.Status)
			}
			if report.Unknown != 1 || report.Skipped != 1 {
				t.Errorf("report = %+v", report)
			}
		})
	}
}

func TestReconcileNeverFabricatesEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Backend reports packages the ledger never recorded.
	src := stubSource{"apt": &stubBackend{name: "apt", available: true, installed: []string{"mystery"}}}

	if _, err := s.Reconcile(ctx, src); err != nil {
		t.Fatal(err)
	}
	entries, err := s.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("reconcile invented %d entries", len(entries))
	}
}

func TestReconcileCorruptLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.DB().Exec(`
		INSERT INTO entries (backend, packages, scope, recorded_at, status, status_changed_at, ever_confirmed)
		VALUES ('apt', '{bad', 'user', '2026-01-01T00:00:00Z', 'installed', '2026-01-01T00:00:00Z', 0)`); err != nil {
		t.Fatal(err)
	}

	_, err := s.Reconcile(ctx, stubSource{})
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

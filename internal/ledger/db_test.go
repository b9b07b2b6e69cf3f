package ledger

import (
	"errors"
	"testing"
)

// newTestStore creates an in-memory ledger store for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordInstallMonotonicIDs(t *testing.T) {
	s := newTestStore(t)

	var last int64
	for i := 0; i < 5; i++ {
		id, err := s.RecordInstall("apt", []Package{{Name: "vim"}}, "user", "alice")
		if err != nil {
			t.Fatalf("RecordInstall: %v", err)
		}
		if id <= last {
			t.Fatalf("entry id %d not greater than previous %d", id, last)
		}
		last = id
	}
}

func TestRecordInstallRoundTrip(t *testing.T) {
	s := newTestStore(t)

	pkgs := []Package{{Name: "vim", Version: "9.1"}, {Name: "git"}}
	id, err := s.RecordInstall("brew", pkgs, "user", "alice")
	if err != nil {
		t.Fatalf("RecordInstall: %v", err)
	}

	e, err := s.Entry(id)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if e.Backend != "brew" {
		t.Errorf("Backend = %q, want %q", e.Backend, "brew")
	}
	if e.Scope != "user" {
		t.Errorf("Scope = %q, want %q", e.Scope, "user")
	}
	if e.Status != StatusInstalled {
		t.Errorf("Status = %q, want %q", e.Status, StatusInstalled)
	}
	if e.EverConfirmed {
		t.Error("EverConfirmed = true for fresh entry")
	}
	if e.User != "alice" {
		t.Errorf("User = %q, want %q", e.User, "alice")
	}
	if len(e.Packages) != 2 || e.Packages[0].Name != "vim" || e.Packages[0].Version != "9.1" {
		t.Errorf("Packages = %+v", e.Packages)
	}
	if e.RecordedAt.IsZero() || e.StatusChangedAt.IsZero() {
		t.Error("timestamps not populated")
	}
}

func TestMarkRemoved(t *testing.T) {
	s := newTestStore(t)

	full, err := s.RecordInstall("apt", []Package{{Name: "vim"}, {Name: "git"}}, "user", "")
	if err != nil {
		t.Fatal(err)
	}
	partial, err := s.RecordInstall("apt", []Package{{Name: "vim"}, {Name: "tmux"}}, "user", "")
	if err != nil {
		t.Fatal(err)
	}
	otherBackend, err := s.RecordInstall("brew", []Package{{Name: "vim"}}, "user", "")
	if err != nil {
		t.Fatal(err)
	}

	changed, err := s.MarkRemoved("apt", []string{"vim", "git"})
	if err != nil {
		t.Fatalf("MarkRemoved: %v", err)
	}
	if len(changed) != 1 || changed[0] != full {
		t.Fatalf("changed = %v, want [%d]", changed, full)
	}

	assertStatus := func(id int64, want string) {
		t.Helper()
		e, err := s.Entry(id)
		if err != nil {
			t.Fatal(err)
		}
		if e.Status != want {
			t.Errorf("entry %d status = %q, want %q", id, e.Status, want)
		}
	}

	// Fully covered entry is removed; partially covered and
	// other-backend entries stay installed.
	assertStatus(full, StatusRemoved)
	assertStatus(partial, StatusInstalled)
	assertStatus(otherBackend, StatusInstalled)
}

func TestEntriesNewestFirst(t *testing.T) {
	s := newTestStore(t)

	first, _ := s.RecordInstall("apt", []Package{{Name: "a"}}, "user", "")
	second, _ := s.RecordInstall("apt", []Package{{Name: "b"}}, "user", "")

	entries, err := s.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != second || entries[1].ID != first {
		t.Errorf("entries not newest first: %d, %d", entries[0].ID, entries[1].ID)
	}
}

func TestStatsAndClear(t *testing.T) {
	s := newTestStore(t)

	id1, _ := s.RecordInstall("apt", []Package{{Name: "a"}}, "user", "")
	s.RecordInstall("apt", []Package{{Name: "b"}}, "user", "")
	if _, err := s.MarkRemoved("apt", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordRollback(id1, "alice"); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 || stats.Installed != 1 || stats.Removed != 1 || stats.Rollbacks != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err = s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 || stats.Rollbacks != 0 {
		t.Errorf("stats after clear = %+v", stats)
	}
}

func TestRollbacks(t *testing.T) {
	s := newTestStore(t)

	id, _ := s.RecordInstall("apt", []Package{{Name: "a"}}, "user", "")
	if _, err := s.RecordRollback(id, "bob"); err != nil {
		t.Fatalf("RecordRollback: %v", err)
	}

	rbs, err := s.Rollbacks()
	if err != nil {
		t.Fatalf("Rollbacks: %v", err)
	}
	if len(rbs) != 1 || rbs[0].EntryID != id || rbs[0].User != "bob" {
		t.Errorf("rollbacks = %+v", rbs)
	}
}

func TestCorruptEntrySurfacesErrCorrupt(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.DB().Exec(`
		INSERT INTO entries (backend, packages, scope, recorded_at, status, status_changed_at, ever_confirmed)
		VALUES ('apt', 'not json', 'user', '2026-01-01T00:00:00Z', 'installed', '2026-01-01T00:00:00Z', 0)`); err != nil {
		t.Fatal(err)
	}

	_, err := s.Entries()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

func TestEntryMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Entry(42); err == nil {
		t.Fatal("missing entry returned nil error")
	}
}

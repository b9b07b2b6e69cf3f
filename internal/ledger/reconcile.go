package ledger

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/pkgmux/internal/backend"
)

// BackendSource resolves backend names to adapters during
// reconciliation. The backend registry implements it.
type BackendSource interface {
	Get(name string) backend.Backend
}

// Change records one entry whose status was updated by a reconcile run.
type Change struct {
	EntryID    int64
	Backend    string
	PrevStatus string
	NewStatus  string
}

// Report summarizes one reconcile run.
type Report struct {
	Examined  int
	Confirmed int // entries confirmed still present
	Removed   int // entries transitioned to removed
	Unknown   int // entries transitioned to unknown
	Skipped   int // entries left untouched (backend indeterminate, previously confirmed)
	Changes   []Change
}

// Changed reports whether the run updated any entry.
func (r *Report) Changed() bool { return len(r.Changes) > 0 }

// Reconcile compares every installed entry against what its backend
// currently reports and updates entry status to match reality. The pass
// never invents entries and never deletes them:
//
//   - every entry package still present: entry stays installed and is
//     marked ever-confirmed
//   - some packages present: still installed (a partial removal does not
//     invalidate the original install record)
//   - no packages present: entry becomes removed
//   - backend missing, unavailable, or failing to list: indeterminate;
//     the entry becomes unknown only if it was never confirmed present,
//     otherwise it keeps its last known status
//
// Running reconcile twice in a row without external changes yields an
// empty second report.
func (s *Store) Reconcile(ctx context.Context, src BackendSource) (*Report, error) {
	entries, err := s.EntriesByStatus(StatusInstalled)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	report := &Report{Examined: len(entries)}

	// One installed-package listing per backend, shared across entries.
	listings := make(map[string]map[string]bool)
	failed := make(map[string]bool)

	for _, e := range entries {
		installed, ok := listings[e.Backend]
		if !ok && !failed[e.Backend] {
			installed = listInstalledSet(ctx, src, e.Backend)
			if installed == nil {
				failed[e.Backend] = true
			} else {
				listings[e.Backend] = installed
			}
		}

		if failed[e.Backend] {
			// Indeterminate. Only demote entries that were never
			// confirmed present.
			if e.EverConfirmed {
				report.Skipped++
				continue
			}
			if err := s.SetStatus(e.ID, StatusUnknown, false); err != nil {
				return report, err
			}
			report.Unknown++
			report.Changes = append(report.Changes, Change{
				EntryID: e.ID, Backend: e.Backend,
				PrevStatus: e.Status, NewStatus: StatusUnknown,
			})
			continue
		}

		present := 0
		for _, pkg := range e.Packages {
			if installed[pkg.Name] {
				present++
			}
		}

		if present > 0 {
			report.Confirmed++
			if !e.EverConfirmed {
				if err := s.SetStatus(e.ID, StatusInstalled, true); err != nil {
					return report, err
				}
			}
			continue
		}

		if err := s.SetStatus(e.ID, StatusRemoved, false); err != nil {
			return report, err
		}
		report.Removed++
		report.Changes = append(report.Changes, Change{
			EntryID: e.ID, Backend: e.Backend,
			PrevStatus: e.Status, NewStatus: StatusRemoved,
		})
	}

	return report, nil
}

// listInstalledSet queries one backend for its installed packages. A nil
// return means the listing is indeterminate.
func listInstalledSet(ctx context.Context, src BackendSource, name string) map[string]bool {
	b := src.Get(name)
	if b == nil || !b.IsAvailable() {
		return nil
	}
	pkgs, err := b.ListInstalled(ctx)
	if err != nil {
		return nil
	}
	set := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		set[p.Name] = true
	}
	return set
}

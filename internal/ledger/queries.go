package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status values for ledger entries.
const (
	StatusInstalled = "installed"
	StatusRemoved   = "removed"
	// StatusUnknown marks entries whose packages could not be confirmed
	// either way and that were never confirmed present in the past.
	StatusUnknown = "unknown"
)

// Package is one package recorded in a ledger entry.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Entry is one ledger row. IDs are assigned by SQLite and strictly
// increase within a scope; entries are never renumbered.
type Entry struct {
	ID              int64
	Backend         string
	Packages        []Package
	Scope           string
	RecordedAt      time.Time
	Status          string
	StatusChangedAt time.Time
	EverConfirmed   bool
	User            string
}

// Rollback is one recorded rollback of a ledger entry.
type Rollback struct {
	ID          int64
	EntryID     int64
	PerformedAt time.Time
	User        string
}

// RecordInstall appends an entry for a successful install and returns
// its ID.
func (s *Store) RecordInstall(backendName string, packages []Package, scope, user string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkgJSON, err := json.Marshal(packages)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal packages: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	res, err := s.db.Exec(`
		INSERT INTO entries (backend, packages, scope, recorded_at, status, status_changed_at, ever_confirmed, username)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		backendName, string(pkgJSON), scope, now, StatusInstalled, now, user)
	if err != nil {
		return 0, fmt.Errorf("failed to record install: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get entry id: %w", err)
	}
	return id, nil
}

// MarkRemoved transitions installed entries to removed when every one of
// their packages appears in the removed set for the given backend. It
// returns the IDs of the entries that changed. Entries only partially
// covered by the removal keep their installed status.
func (s *Store) MarkRemoved(backendName string, removed []string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removedSet := make(map[string]bool, len(removed))
	for _, name := range removed {
		removedSet[name] = true
	}

	entries, err := s.queryEntries(`WHERE status = ? AND backend = ?`, StatusInstalled, backendName)
	if err != nil {
		return nil, err
	}

	var changed []int64
	now := time.Now().Format(time.RFC3339)
	for _, e := range entries {
		covered := len(e.Packages) > 0
		for _, pkg := range e.Packages {
			if !removedSet[pkg.Name] {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}
		if _, err := s.db.Exec(
			`UPDATE entries SET status = ?, status_changed_at = ? WHERE id = ?`,
			StatusRemoved, now, e.ID); err != nil {
			return changed, fmt.Errorf("failed to mark entry %d removed: %w", e.ID, err)
		}
		changed = append(changed, e.ID)
	}
	return changed, nil
}

// SetStatus updates one entry's status. confirmed, when true, also sets
// the ever_confirmed flag (it is never cleared).
func (s *Store) SetStatus(id int64, status string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	var err error
	if confirmed {
		_, err = s.db.Exec(
			`UPDATE entries SET status = ?, status_changed_at = ?, ever_confirmed = 1 WHERE id = ?`,
			status, now, id)
	} else {
		_, err = s.db.Exec(
			`UPDATE entries SET status = ?, status_changed_at = ? WHERE id = ?`,
			status, now, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update entry %d: %w", id, err)
	}
	return nil
}

// Entry returns one entry by ID.
func (s *Store) Entry(id int64) (*Entry, error) {
	entries, err := s.queryEntries(`WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no ledger entry with id %d", id)
	}
	return entries[0], nil
}

// Entries returns every entry, newest first.
func (s *Store) Entries() ([]*Entry, error) {
	return s.queryEntries(`ORDER BY id DESC`)
}

// EntriesByStatus returns the entries with the given status, oldest
// first (reconciliation order).
func (s *Store) EntriesByStatus(status string) ([]*Entry, error) {
	return s.queryEntries(`WHERE status = ? ORDER BY id ASC`, status)
}

// queryEntries runs a SELECT over entries with the given tail clause.
// Malformed rows (bad timestamps, bad package JSON) surface as
// ErrCorrupt so callers can warn and degrade.
func (s *Store) queryEntries(tail string, args ...interface{}) ([]*Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, backend, packages, scope, recorded_at, status, status_changed_at, ever_confirmed, COALESCE(username, '')
		FROM entries `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %v", ErrCorrupt, err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var pkgJSON, recordedAt, statusChangedAt string
		if err := rows.Scan(&e.ID, &e.Backend, &pkgJSON, &e.Scope, &recordedAt,
			&e.Status, &statusChangedAt, &e.EverConfirmed, &e.User); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", ErrCorrupt, err)
		}
		if err := json.Unmarshal([]byte(pkgJSON), &e.Packages); err != nil {
			return nil, fmt.Errorf("%w: entry %d has malformed package data: %v", ErrCorrupt, e.ID, err)
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339, recordedAt); err != nil {
			return nil, fmt.Errorf("%w: entry %d has malformed recorded_at: %v", ErrCorrupt, e.ID, err)
		}
		if e.StatusChangedAt, err = time.Parse(time.RFC3339, statusChangedAt); err != nil {
			return nil, fmt.Errorf("%w: entry %d has malformed status_changed_at: %v", ErrCorrupt, e.ID, err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate entries: %v", ErrCorrupt, err)
	}
	return entries, nil
}

// RecordRollback appends a rollback row referencing the entry it undid.
func (s *Store) RecordRollback(entryID int64, user string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO rollbacks (entry_id, performed_at, username) VALUES (?, ?, ?)`,
		entryID, time.Now().Format(time.RFC3339), user)
	if err != nil {
		return 0, fmt.Errorf("failed to record rollback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get rollback id: %w", err)
	}
	return id, nil
}

// Rollbacks returns every recorded rollback, newest first.
func (s *Store) Rollbacks() ([]*Rollback, error) {
	rows, err := s.db.Query(`
		SELECT id, entry_id, performed_at, COALESCE(username, '') FROM rollbacks ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rollbacks: %w", err)
	}
	defer rows.Close()

	var out []*Rollback
	for rows.Next() {
		var r Rollback
		var performedAt string
		if err := rows.Scan(&r.ID, &r.EntryID, &performedAt, &r.User); err != nil {
			return nil, fmt.Errorf("failed to scan rollback: %w", err)
		}
		if r.PerformedAt, err = time.Parse(time.RFC3339, performedAt); err != nil {
			return nil, fmt.Errorf("rollback %d has malformed performed_at: %w", r.ID, err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rollbacks: %w", err)
	}
	return out, nil
}

// Stats summarizes the ledger by status.
type Stats struct {
	Total     int
	Installed int
	Removed   int
	Unknown   int
	Rollbacks int
}

// Stats returns entry counts grouped by status.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM entries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats.Total += count
		switch status {
		case StatusInstalled:
			stats.Installed = count
		case StatusRemoved:
			stats.Removed = count
		case StatusUnknown:
			stats.Unknown = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stats: %w", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM rollbacks`).Scan(&stats.Rollbacks); err != nil {
		return nil, fmt.Errorf("failed to count rollbacks: %w", err)
	}
	return stats, nil
}

// Clear deletes every entry and rollback. This is the only operation
// that physically deletes ledger rows.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin clear: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM rollbacks`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear rollbacks: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

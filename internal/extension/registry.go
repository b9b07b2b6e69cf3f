package extension

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/blackwell-systems/pkgmux/internal/event"
)

// Registry holds the loaded extensions and serves subscription lookups
// to the event dispatcher. Enable/disable toggles are the only runtime
// mutation; each toggle is appended to an audit log file and persisted
// to a state file so it outlives the process.
type Registry struct {
	mu        sync.RWMutex
	exts      map[string]*Extension
	overrides map[string]bool // persisted toggles, keyed by extension ID
	auditLog  string          // path to the audit log; empty disables auditing
	statePath string          // path to the state file; empty disables persistence
}

// NewRegistry returns an empty registry. auditLog may be "" to skip
// audit logging and statePath "" to skip toggle persistence (tests do
// both). Overrides already persisted at statePath apply to every
// extension added afterwards.
func NewRegistry(auditLog, statePath string) (*Registry, error) {
	overrides := map[string]bool{}
	if statePath != "" {
		var err error
		overrides, err = loadOverrides(statePath)
		if err != nil {
			return nil, err
		}
	}
	return &Registry{
		exts:      make(map[string]*Extension),
		overrides: overrides,
		auditLog:  auditLog,
		statePath: statePath,
	}, nil
}

// Add registers an extension. A duplicate ID is an error: IDs are the
// dispatch ordering key and must be unique. A persisted toggle for the
// ID wins over the enabled flag in plugin.conf.
func (r *Registry) Add(ext *Extension) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.exts[ext.ID]; exists {
		return fmt.Errorf("duplicate extension id %q", ext.ID)
	}
	if v, ok := r.overrides[ext.ID]; ok {
		ext.Enabled = v
	}
	r.exts[ext.ID] = ext
	return nil
}

// Get returns the extension with the given ID, or nil.
func (r *Registry) Get(id string) *Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exts[id]
}

// All returns every registered extension, sorted by ID.
func (r *Registry) All() []*Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Extension, 0, len(r.exts))
	for _, ext := range r.exts {
		out = append(out, ext)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetEnabled toggles an extension, persists the toggle to the state
// file, and appends the change to the audit log. Toggling to the
// current state is a no-op: nothing is written.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ext, ok := r.exts[id]
	if !ok {
		return fmt.Errorf("unknown extension %q", id)
	}
	if ext.Enabled == enabled {
		return nil
	}
	ext.Enabled = enabled
	r.overrides[id] = enabled

	if r.statePath != "" {
		if err := saveOverrides(r.statePath, r.overrides); err != nil {
			return fmt.Errorf("persist toggle: %w", err)
		}
	}

	if r.auditLog == "" {
		return nil
	}
	verb := "disabled"
	if enabled {
		verb = "enabled"
	}
	if err := appendAudit(r.auditLog, fmt.Sprintf("%s %s", verb, id)); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	return nil
}

// Subscribers returns the enabled extensions subscribed to an event.
// This implements the dispatcher's Source interface. The result is a
// snapshot; later enable/disable calls do not affect a dispatch already
// in flight.
func (r *Registry) Subscribers(name event.Name) []event.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var subs []event.Subscription
	for _, ext := range r.exts {
		if !ext.Enabled || !ext.SubscribedTo(name) {
			continue
		}
		actions := ext.Subscriptions[name]
		subs = append(subs, event.Subscription{
			ExtensionID:  ext.ID,
			ExtensionDir: ext.Dir,
			Actions:      actions,
		})
	}
	return subs
}

// Reload replaces the registry contents with a fresh load, preserving
// the enabled state of extensions that survive the reload. Persisted
// overrides apply the same way they do in Add.
func (r *Registry) Reload(exts []*Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]*Extension, len(exts))
	for _, ext := range exts {
		if prev, ok := r.exts[ext.ID]; ok {
			ext.Enabled = prev.Enabled
		}
		if v, ok := r.overrides[ext.ID]; ok {
			ext.Enabled = v
		}
		next[ext.ID] = ext
	}
	r.exts = next
}

// appendAudit appends one timestamped line to the audit log file.
func appendAudit(path, msg string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "[%s] %s\n", time.Now().Format(time.RFC3339), msg)
	return err
}

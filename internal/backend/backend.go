// Package backend defines the package-manager adapter boundary and a
// data-driven adapter that drives native package-manager CLIs.
package backend

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a backend subprocess exceeds its deadline.
// The subprocess is killed before the error surfaces.
var ErrTimeout = errors.New("backend command timed out")

// ErrUnavailable is returned when a backend's tool is not installed or
// not usable on this host.
var ErrUnavailable = errors.New("backend unavailable")

// PackageInfo describes one package as reported by a backend.
type PackageInfo struct {
	Name    string
	Version string
	// Backend is the reporting backend's name. Populated by aggregation
	// layers; individual backends leave it empty.
	Backend string
}

// Result is the uniform outcome of a backend operation. Backend command
// failures are carried here rather than as errors: an exit status of 1
// from a search is data, not a fault in the adapter.
type Result struct {
	Success  bool
	Error    string
	Packages []PackageInfo
	Details  map[string]string
}

// Backend is the capability surface every package-manager adapter
// provides. All blocking calls take a context; implementations must kill
// in-flight subprocesses when it expires.
type Backend interface {
	// Name returns the backend's stable identifier (e.g. "apt").
	Name() string

	// IsAvailable reports whether the backend's tool is usable here.
	IsAvailable() bool

	Search(ctx context.Context, query string) (*Result, error)
	Install(ctx context.Context, packages []string) (*Result, error)
	Remove(ctx context.Context, packages []string) (*Result, error)

	// Purge removes packages together with their configuration. Backends
	// without a distinct purge verb fall back to Remove.
	Purge(ctx context.Context, packages []string) (*Result, error)

	// Update refreshes the backend's package metadata.
	Update(ctx context.Context) (*Result, error)

	// Upgrade upgrades the named packages, or everything when the list
	// is empty.
	Upgrade(ctx context.Context, packages []string) (*Result, error)

	// ListInstalled reports the currently installed packages. Used by
	// history reconciliation.
	ListInstalled(ctx context.Context) ([]PackageInfo, error)
}

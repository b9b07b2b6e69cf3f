// Package op defines the operation vocabulary shared by the engine,
// event dispatcher, and ledger.
package op

import "time"

// Kind identifies a package operation.
type Kind string

const (
	Search  Kind = "search"
	Install Kind = "install"
	Remove  Kind = "remove"
	Purge   Kind = "purge"
	Update  Kind = "update"
	Upgrade Kind = "upgrade"
	Health  Kind = "health"
)

// Kinds lists every operation kind in declaration order.
var Kinds = []Kind{Search, Install, Remove, Purge, Update, Upgrade, Health}

// Valid reports whether k is a known operation kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Mutating reports whether the operation changes installed package state.
func (k Kind) Mutating() bool {
	switch k {
	case Install, Remove, Purge, Update, Upgrade:
		return true
	}
	return false
}

// Scope names which installation root an operation targets.
type Scope string

const (
	ScopeUser   Scope = "user"
	ScopeSystem Scope = "system"
)

// Context carries everything known about an operation before it runs.
// A Context is built once by the engine and never modified afterwards;
// callers that need derived state use Outcome.
type Context struct {
	Kind        Kind
	BackendName string // empty when the backend is resolved by search
	Packages    []string
	Options     map[string]string
	Scope       Scope
	StartedAt   time.Time
}

// Outcome records how an operation finished.
type Outcome struct {
	Success bool
	Error   string // empty on success
	Details map[string]string
}

// NewContext builds an operation context stamped with the current time.
// The packages slice is copied so later caller mutations cannot leak in.
func NewContext(kind Kind, backend string, packages []string, scope Scope, options map[string]string) Context {
	pkgs := make([]string, len(packages))
	copy(pkgs, packages)
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[k] = v
	}
	return Context{
		Kind:        kind,
		BackendName: backend,
		Packages:    pkgs,
		Options:     opts,
		Scope:       scope,
		StartedAt:   time.Now(),
	}
}

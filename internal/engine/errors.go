package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBackendUnavailable means the selected backend's tool is not usable
// on this host. The operation is aborted before any backend call.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrNoProvider means no enabled backend claims any of the requested
// packages during automatic backend resolution.
var ErrNoProvider = errors.New("no backend provides the requested packages")

// AmbiguityError is returned when more than one backend claims a
// requested package and no explicit backend was named. The engine never
// guesses between claimants; the caller must disambiguate.
type AmbiguityError struct {
	Package  string
	Backends []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("package %q is provided by multiple backends (%s); pick one with --backend",
		e.Package, strings.Join(e.Backends, ", "))
}

// UnknownBackendError is returned when an explicitly named backend is
// not registered at all.
type UnknownBackendError struct {
	Name string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown backend %q", e.Name)
}

package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/blackwell-systems/pkgmux/internal/backend"
	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

// Search fans the query out to every active backend concurrently (one
// worker per backend), waits for all of them, and returns the union of
// their results, each tagged with its origin backend. Individual backend
// failures degrade the result rather than aborting it; the search fails
// outright only when every backend fails or none is active.
func (e *Engine) Search(ctx context.Context, backendName, query string, scope op.Scope) (*Result, error) {
	opCtx := op.NewContext(op.Search, backendName, []string{query}, scope, nil)
	res := &Result{Context: opCtx}

	e.emit(ctx, res, event.PreSearch, opCtx, nil)

	var targets []backend.Backend
	if backendName != "" {
		b := e.backends.Get(backendName)
		if b == nil {
			err := &UnknownBackendError{Name: backendName}
			e.finishFailure(ctx, res, err.Error())
			return res, err
		}
		if !e.backends.Enabled(backendName) || !b.IsAvailable() {
			e.finishFailure(ctx, res, "backend unavailable: "+backendName)
			return res, ErrBackendUnavailable
		}
		targets = []backend.Backend{b}
	} else {
		targets = e.backends.Active()
	}

	if len(targets) == 0 {
		e.finishFailure(ctx, res, "no active backends")
		return res, nil
	}

	type found struct {
		backend string
		pkgs    []backend.PackageInfo
		err     error
	}

	results := make([]found, len(targets))
	var wg sync.WaitGroup
	for i, b := range targets {
		wg.Add(1)
		go func(i int, b backend.Backend) {
			defer wg.Done()
			r, err := b.Search(ctx, query)
			if err != nil {
				results[i] = found{backend: b.Name(), err: err}
				return
			}
			if !r.Success {
				results[i] = found{backend: b.Name()}
				return
			}
			results[i] = found{backend: b.Name(), pkgs: r.Packages}
		}(i, b)
	}
	wg.Wait()

	failures := 0
	for _, f := range results {
		if f.err != nil {
			failures++
			continue
		}
		for _, p := range f.pkgs {
			p.Backend = f.backend
			res.Packages = append(res.Packages, p)
		}
	}
	sort.SliceStable(res.Packages, func(i, j int) bool {
		if res.Packages[i].Backend != res.Packages[j].Backend {
			return res.Packages[i].Backend < res.Packages[j].Backend
		}
		return res.Packages[i].Name < res.Packages[j].Name
	})

	if failures == len(targets) {
		e.finishFailure(ctx, res, "all backends failed to search")
		return res, nil
	}

	res.Outcome = op.Outcome{Success: true}
	e.emit(ctx, res, event.SearchSuccess, opCtx, &res.Outcome)
	e.emit(ctx, res, event.PostSearch, opCtx, &res.Outcome)
	return res, nil
}

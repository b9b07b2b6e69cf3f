package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

func TestSearchUnionTagsAndSorts(t *testing.T) {
	brew := &stubBackend{name: "brew", available: true, index: []string{"vim", "jq"}}
	apt := &stubBackend{name: "apt", available: true, index: []string{"vim"}}
	eng, emitter, _ := testEngine(t, brew, apt)

	res, err := eng.Search(context.Background(), "", "", op.ScopeUser)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !res.Outcome.Success {
		t.Fatalf("outcome = %+v", res.Outcome)
	}

	assertEvents(t, emitter,
		event.PreSearch,
		event.SearchSuccess,
		event.PostSearch,
	)

	// Sorted by backend then name, each hit tagged with its origin.
	want := []struct{ backend, name string }{
		{"apt", "vim"},
		{"brew", "jq"},
		{"brew", "vim"},
	}
	if len(res.Packages) != len(want) {
		t.Fatalf("got %d packages, want %d: %+v", len(res.Packages), len(want), res.Packages)
	}
	for i, w := range want {
		if res.Packages[i].Backend != w.backend || res.Packages[i].Name != w.name {
			t.Errorf("pkg[%d] = %s/%s, want %s/%s",
				i, res.Packages[i].Backend, res.Packages[i].Name, w.backend, w.name)
		}
	}
}

func TestSearchDegradesOnPartialFailure(t *testing.T) {
	ok := &stubBackend{name: "apt", available: true, index: []string{"vim"}}
	broken := &stubBackend{name: "brew", available: true, searchErr: errors.New("network down")}
	eng, _, _ := testEngine(t, ok, broken)

	res, err := eng.Search(context.Background(), "", "vim", op.ScopeUser)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !res.Outcome.Success {
		t.Fatalf("one working backend should carry the search: %+v", res.Outcome)
	}
	if len(res.Packages) != 1 || res.Packages[0].Backend != "apt" {
		t.Errorf("packages = %+v", res.Packages)
	}
}

func TestSearchAllBackendsFail(t *testing.T) {
	a := &stubBackend{name: "apt", available: true, searchErr: errors.New("down")}
	b := &stubBackend{name: "brew", available: true, searchErr: errors.New("down")}
	eng, emitter, _ := testEngine(t, a, b)

	res, err := eng.Search(context.Background(), "", "vim", op.ScopeUser)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Outcome.Success {
		t.Fatal("search succeeded with every backend failing")
	}

	assertEvents(t, emitter,
		event.PreSearch,
		event.SearchFailure,
		event.PostSearch,
	)
}

func TestSearchExplicitUnknownBackend(t *testing.T) {
	eng, emitter, _ := testEngine(t, &stubBackend{name: "apt", available: true})

	var unknown *UnknownBackendError
	_, err := eng.Search(context.Background(), "nope", "vim", op.ScopeUser)
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownBackendError", err)
	}

	// Search already entered the lifecycle, so it still closes it out.
	assertEvents(t, emitter,
		event.PreSearch,
		event.SearchFailure,
		event.PostSearch,
	)
}

func TestSearchSkipsDisabledBackend(t *testing.T) {
	apt := &stubBackend{name: "apt", available: true, index: []string{"vim"}}
	brew := &stubBackend{name: "brew", available: true, index: []string{"vim"}}
	eng, _, _ := testEngine(t, apt, brew)

	if err := eng.Backends().SetEnabled("brew", false); err != nil {
		t.Fatal(err)
	}

	res, err := eng.Search(context.Background(), "", "vim", op.ScopeUser)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range res.Packages {
		if p.Backend == "brew" {
			t.Errorf("disabled backend appears in results: %+v", p)
		}
	}
}

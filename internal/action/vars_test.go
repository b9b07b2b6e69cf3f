package action

import (
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/pkgmux/internal/op"
)

func TestBuildVarsPackages(t *testing.T) {
	opCtx := op.NewContext(op.Install, "apt", []string{"vim", "git"}, op.ScopeUser, nil)
	vars := BuildVars(opCtx, nil)

	if got := vars["$packages"]; got != "vim, git" {
		t.Errorf("$packages = %q, want %q", got, "vim, git")
	}
	if got := vars["$package-count"]; got != "2" {
		t.Errorf("$package-count = %q, want %q", got, "2")
	}
	if got := vars["$package-manager"]; got != "apt" {
		t.Errorf("$package-manager = %q, want %q", got, "apt")
	}
	if got := vars["$operation"]; got != "install" {
		t.Errorf("$operation = %q, want %q", got, "install")
	}
	// No outcome yet: success and error expand to empty strings.
	if got := vars["$success"]; got != "" {
		t.Errorf("$success = %q, want empty", got)
	}
}

func TestBuildVarsOutcome(t *testing.T) {
	opCtx := op.NewContext(op.Remove, "brew", []string{"jq"}, op.ScopeUser, nil)

	tests := []struct {
		name        string
		outcome     op.Outcome
		wantSuccess string
		wantError   string
	}{
		{"success", op.Outcome{Success: true}, "true", ""},
		{"failure", op.Outcome{Success: false, Error: "exit status 1"}, "false", "exit status 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := BuildVars(opCtx, &tt.outcome)
			if got := vars["$success"]; got != tt.wantSuccess {
				t.Errorf("$success = %q, want %q", got, tt.wantSuccess)
			}
			if got := vars["$error"]; got != tt.wantError {
				t.Errorf("$error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestExpandTimestampBeforeTime(t *testing.T) {
	// $time is a prefix of $timestamp; a payload using both must not end
	// up with the time value glued to a dangling "stamp".
	vars := Vars{
		"$timestamp": "2026-08-23T10:00:00Z",
		"$time":      "10:00:00",
		"$date":      "2026-08-23",
	}

	got := vars.Expand("at $time on $date ($timestamp)")
	want := "at 10:00:00 on 2026-08-23 (2026-08-23T10:00:00Z)"
	if got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
}

func TestExpandUnknownTokenPassesThrough(t *testing.T) {
	vars := Vars{"$packages": "vim"}

	got := vars.Expand("install $packages with $unknown-token")
	if !strings.Contains(got, "$unknown-token") {
		t.Errorf("unknown token was rewritten: %q", got)
	}
	if !strings.Contains(got, "vim") {
		t.Errorf("known token was not expanded: %q", got)
	}
}

func TestExpandPackagePrefixFamily(t *testing.T) {
	vars := Vars{
		"$packages":        "vim, git",
		"$package-count":   "2",
		"$package-manager": "apt",
	}

	got := vars.Expand("$package-count packages via $package-manager: $packages")
	want := "2 packages via apt: vim, git"
	if got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
}

func TestBuildVarsTimestampFromContext(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	opCtx := op.Context{
		Kind:      op.Install,
		Packages:  []string{"vim"},
		Scope:     op.ScopeUser,
		StartedAt: started,
	}

	pre := BuildVars(opCtx, nil)
	post := BuildVars(opCtx, &op.Outcome{Success: true})

	if got := pre["$timestamp"]; got != "2026-03-14T09:26:53Z" {
		t.Errorf("$timestamp = %q, want the operation start time", got)
	}
	if pre["$date"] != "2026-03-14" || pre["$time"] != "09:26:53" {
		t.Errorf("$date/$time = %q/%q", pre["$date"], pre["$time"])
	}
	// Pre and post events of one operation see identical timestamps.
	if pre["$timestamp"] != post["$timestamp"] {
		t.Errorf("pre %q != post %q", pre["$timestamp"], post["$timestamp"])
	}
}

func TestBuildVarsTimestampFormat(t *testing.T) {
	opCtx := op.NewContext(op.Search, "", []string{"x"}, op.ScopeUser, nil)
	vars := BuildVars(opCtx, nil)

	if _, err := time.Parse(time.RFC3339, vars["$timestamp"]); err != nil {
		t.Errorf("$timestamp %q is not RFC3339: %v", vars["$timestamp"], err)
	}
	if _, err := time.Parse("2006-01-02", vars["$date"]); err != nil {
		t.Errorf("$date %q is not a date: %v", vars["$date"], err)
	}
	if _, err := time.Parse("15:04:05", vars["$time"]); err != nil {
		t.Errorf("$time %q is not a time: %v", vars["$time"], err)
	}
}

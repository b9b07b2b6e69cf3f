package action

import (
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/blackwell-systems/pkgmux/internal/op"
)

// Vars is the substitution table applied to action payloads before they
// run. Keys include the leading "$".
type Vars map[string]string

// BuildVars derives the substitution table from an operation context and
// its outcome. Outcome may be nil for pre-operation events, in which case
// $success and $error expand to empty strings.
func BuildVars(opCtx op.Context, outcome *op.Outcome) Vars {
	// Timestamps come from the operation's start time, so pre and post
	// events of one lifecycle expand to the same values. Out-of-band
	// events carry a zero context and fall back to the wall clock.
	now := opCtx.StartedAt
	if now.IsZero() {
		now = time.Now()
	}

	vars := Vars{
		"$packages":        strings.Join(opCtx.Packages, ", "),
		"$package-count":   fmt.Sprintf("%d", len(opCtx.Packages)),
		"$package-manager": opCtx.BackendName,
		"$operation":       string(opCtx.Kind),
		"$success":         "",
		"$error":           "",
		"$timestamp":       now.Format(time.RFC3339),
		"$date":            now.Format("2006-01-02"),
		"$time":            now.Format("15:04:05"),
	}

	if outcome != nil {
		vars["$success"] = fmt.Sprintf("%t", outcome.Success)
		vars["$error"] = outcome.Error
	}

	if u, err := user.Current(); err == nil {
		vars["$user"] = u.Username
	}
	if home, err := os.UserHomeDir(); err == nil {
		vars["$home"] = home
	}
	if host, err := os.Hostname(); err == nil {
		vars["$hostname"] = host
	}

	return vars
}

// expandOrder fixes the replacement order so that tokens sharing a prefix
// expand correctly: $timestamp must be replaced before $time, and
// $package-count / $package-manager / $packages before any bare $package
// a payload might contain.
var expandOrder = []string{
	"$timestamp",
	"$time",
	"$date",
	"$package-count",
	"$package-manager",
	"$packages",
	"$operation",
	"$success",
	"$error",
	"$user",
	"$hostname",
	"$home",
	"$plugin-name",
	"$plugin-dir",
}

// Expand applies the substitution table to a payload. Tokens not present
// in the table pass through unchanged.
func (v Vars) Expand(payload string) string {
	for _, key := range expandOrder {
		val, ok := v[key]
		if !ok {
			continue
		}
		payload = strings.ReplaceAll(payload, key, val)
	}
	return payload
}

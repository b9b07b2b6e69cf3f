// Package action models the actions an extension can attach to lifecycle
// events and executes them with variable substitution applied.
package action

import (
	"fmt"
	"strings"
)

// Kind identifies what an action does when executed.
type Kind string

const (
	// Run executes a shell command line.
	Run Kind = "run"
	// Script executes an executable file, resolved relative to the
	// extension directory when the path is not absolute.
	Script Kind = "script"
	// Notify shows a desktop notification through the first available
	// notifier on the host.
	Notify Kind = "notify"
	// Log appends a timestamped line to the extension's plugin.log.
	Log Kind = "log"
)

// Action is one executable behavior declared in an extension config.
type Action struct {
	Kind    Kind
	Payload string
}

// Parse parses an action declaration of the form "kind:payload".
// The payload may itself contain colons; only the first one splits.
func Parse(raw string) (Action, error) {
	idx := strings.IndexByte(raw, ':')
	if idx <= 0 {
		return Action{}, fmt.Errorf("malformed action %q: want kind:payload", raw)
	}

	kind := Kind(strings.TrimSpace(raw[:idx]))
	payload := strings.TrimSpace(raw[idx+1:])

	switch kind {
	case Run, Script, Notify, Log:
	default:
		return Action{}, fmt.Errorf("unknown action kind %q", string(kind))
	}
	if payload == "" {
		return Action{}, fmt.Errorf("action %q has an empty payload", string(kind))
	}

	return Action{Kind: kind, Payload: payload}, nil
}

// String renders the action back into its config form.
func (a Action) String() string {
	return string(a.Kind) + ":" + a.Payload
}

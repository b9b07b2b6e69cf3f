// Package extension loads and manages lifecycle extensions. An extension
// is a directory holding a plugin.conf file that subscribes actions to
// lifecycle events.
package extension

import (
	"github.com/blackwell-systems/pkgmux/internal/action"
	"github.com/blackwell-systems/pkgmux/internal/event"
)

// Extension is one loaded extension. Only Enabled changes after load;
// everything else is fixed by the config file on disk.
type Extension struct {
	// ID is the extension's unique identifier. System-scope extensions
	// carry a "system-" prefix so a user extension of the same name
	// cannot collide with them.
	ID          string
	Enabled     bool
	Description string
	Version     string
	Author      string

	// Dir is the directory holding plugin.conf. Script actions and the
	// plugin.log file resolve against it.
	Dir string

	// Subscriptions maps each subscribed event to the actions to run,
	// in declaration order.
	Subscriptions map[event.Name][]action.Action
}

// SubscribedTo reports whether the extension has at least one action
// attached to the event.
func (e *Extension) SubscribedTo(name event.Name) bool {
	return len(e.Subscriptions[name]) > 0
}

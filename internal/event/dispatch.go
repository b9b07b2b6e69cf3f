package event

import (
	"context"
	"sort"

	"github.com/blackwell-systems/pkgmux/internal/action"
)

// Subscription is one extension's interest in an event, resolved to the
// actions it wants to run.
type Subscription struct {
	ExtensionID  string
	ExtensionDir string
	Actions      []action.Action
}

// Source supplies the subscriptions for an event at dispatch time. The
// extension registry implements this; dispatchers never hold extension
// state themselves.
type Source interface {
	Subscribers(Name) []Subscription
}

// Runner executes a single action. The action executor implements it.
type Runner interface {
	Run(ctx context.Context, extDir string, a action.Action, vars action.Vars) error
}

// Failure records one action that failed during a dispatch.
type Failure struct {
	ExtensionID string
	Action      action.Action
	Err         error
}

// Report summarizes one dispatch: how many actions ran and which failed.
// A dispatch never aborts on failure; every subscribed action is
// attempted and failures are collected here.
type Report struct {
	Event    Name
	Executed int
	Failures []Failure
}

// Failed reports whether any action in the dispatch failed.
func (r Report) Failed() bool { return len(r.Failures) > 0 }

// Dispatcher fans events out to subscribed extensions.
type Dispatcher struct {
	src Source
	run Runner
}

// NewDispatcher builds a dispatcher over a subscription source and an
// action runner.
func NewDispatcher(src Source, run Runner) *Dispatcher {
	return &Dispatcher{src: src, run: run}
}

// Dispatch delivers one event. The subscriber set is snapshotted up
// front and iterated in lexicographic extension-ID order; within an
// extension, actions run in declaration order. Action failures are
// isolated: they land in the report and never stop the remaining
// actions or extensions. An event with no subscribers returns an empty
// report.
func (d *Dispatcher) Dispatch(ctx context.Context, name Name, vars action.Vars) Report {
	report := Report{Event: name}

	subs := d.src.Subscribers(name)
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].ExtensionID < subs[j].ExtensionID
	})

	for _, sub := range subs {
		// Per-extension variables overlay the operation variables.
		extVars := make(action.Vars, len(vars)+2)
		for k, v := range vars {
			extVars[k] = v
		}
		extVars["$plugin-name"] = sub.ExtensionID
		extVars["$plugin-dir"] = sub.ExtensionDir

		for _, a := range sub.Actions {
			report.Executed++
			if err := d.run.Run(ctx, sub.ExtensionDir, a, extVars); err != nil {
				report.Failures = append(report.Failures, Failure{
					ExtensionID: sub.ExtensionID,
					Action:      a,
					Err:         err,
				})
			}
		}
	}

	return report
}

// Package event defines the lifecycle event vocabulary and the dispatcher
// that fans events out to subscribed extensions.
package event

import "github.com/blackwell-systems/pkgmux/internal/op"

// Name identifies a lifecycle event. The vocabulary is closed: extension
// configs naming anything outside this set are rejected at load time.
type Name string

const (
	// Search lifecycle.
	PreSearch     Name = "pre-search"
	SearchSuccess Name = "search-success"
	SearchFailure Name = "search-failure"
	PostSearch    Name = "post-search"

	// Install lifecycle.
	PreInstall         Name = "pre-install"
	PreInstallSuccess  Name = "pre-install-success"
	PostInstallSuccess Name = "post-install-success"
	PostInstallFailure Name = "post-install-failure"
	PostInstall        Name = "post-install"

	// Remove lifecycle.
	PreRemove         Name = "pre-remove"
	PreRemoveSuccess  Name = "pre-remove-success"
	PostRemoveSuccess Name = "post-remove-success"
	PostRemoveFailure Name = "post-remove-failure"
	PostRemove        Name = "post-remove"

	// Purge lifecycle.
	PrePurge         Name = "pre-purge"
	PrePurgeSuccess  Name = "pre-purge-success"
	PostPurgeSuccess Name = "post-purge-success"
	PostPurgeFailure Name = "post-purge-failure"
	PostPurge        Name = "post-purge"

	// Update lifecycle. Update refreshes metadata rather than acting on
	// named packages, so it has no pre-success stage.
	PreUpdate         Name = "pre-update"
	PostUpdateSuccess Name = "post-update-success"
	PostUpdateFailure Name = "post-update-failure"
	PostUpdate        Name = "post-update"

	// Upgrade lifecycle.
	PreUpgrade         Name = "pre-upgrade"
	PreUpgradeSuccess  Name = "pre-upgrade-success"
	PostUpgradeSuccess Name = "post-upgrade-success"
	PostUpgradeFailure Name = "post-upgrade-failure"
	PostUpgrade        Name = "post-upgrade"

	// Health lifecycle.
	PreHealth         Name = "pre-health"
	HealthCheck       Name = "health-check"
	HealthFix         Name = "health-fix"
	PostHealthSuccess Name = "post-health-success"
	PostHealthFailure Name = "post-health-failure"
	PostHealth        Name = "post-health"

	// Session markers.
	SessionStart Name = "session-start"
	SessionEnd   Name = "session-end"

	// Diagnostics.
	Error   Name = "error"
	Warning Name = "warning"

	// Configuration changes.
	ConfigChanged  Name = "config-changed"
	PluginEnabled  Name = "plugin-enabled"
	PluginDisabled Name = "plugin-disabled"

	// Backend discovery.
	ManagerDetected Name = "manager-detected"
	ManagerEnabled  Name = "manager-enabled"
	ManagerDisabled Name = "manager-disabled"

	// History.
	HistoryRecorded Name = "history-recorded"
	HistoryCleared  Name = "history-cleared"

	// Metadata cache.
	CacheUpdated Name = "cache-updated"
	CacheCleared Name = "cache-cleared"
)

var allNames = map[Name]struct{}{
	PreSearch: {}, SearchSuccess: {}, SearchFailure: {}, PostSearch: {},
	PreInstall: {}, PreInstallSuccess: {}, PostInstallSuccess: {}, PostInstallFailure: {}, PostInstall: {},
	PreRemove: {}, PreRemoveSuccess: {}, PostRemoveSuccess: {}, PostRemoveFailure: {}, PostRemove: {},
	PrePurge: {}, PrePurgeSuccess: {}, PostPurgeSuccess: {}, PostPurgeFailure: {}, PostPurge: {},
	PreUpdate: {}, PostUpdateSuccess: {}, PostUpdateFailure: {}, PostUpdate: {},
	PreUpgrade: {}, PreUpgradeSuccess: {}, PostUpgradeSuccess: {}, PostUpgradeFailure: {}, PostUpgrade: {},
	PreHealth: {}, HealthCheck: {}, HealthFix: {}, PostHealthSuccess: {}, PostHealthFailure: {}, PostHealth: {},
	SessionStart: {}, SessionEnd: {},
	Error: {}, Warning: {},
	ConfigChanged: {}, PluginEnabled: {}, PluginDisabled: {},
	ManagerDetected: {}, ManagerEnabled: {}, ManagerDisabled: {},
	HistoryRecorded: {}, HistoryCleared: {},
	CacheUpdated: {}, CacheCleared: {},
}

// Valid reports whether n is part of the event vocabulary.
func (n Name) Valid() bool {
	_, ok := allNames[n]
	return ok
}

// Pre returns the pre-operation event for an operation kind.
func Pre(kind op.Kind) Name {
	return Name("pre-" + string(kind))
}

// PreSuccessFor returns the pre-success event for an operation kind, or
// "" for kinds that do not have one (search, update, health).
func PreSuccessFor(kind op.Kind) Name {
	switch kind {
	case op.Install, op.Remove, op.Purge, op.Upgrade:
		return Name("pre-" + string(kind) + "-success")
	}
	return ""
}

// PostSuccessFor returns the post-success event for an operation kind.
func PostSuccessFor(kind op.Kind) Name {
	if kind == op.Search {
		return SearchSuccess
	}
	return Name("post-" + string(kind) + "-success")
}

// PostFailureFor returns the post-failure event for an operation kind.
func PostFailureFor(kind op.Kind) Name {
	if kind == op.Search {
		return SearchFailure
	}
	return Name("post-" + string(kind) + "-failure")
}

// Post returns the generalized post-operation event for an operation kind.
func Post(kind op.Kind) Name {
	return Name("post-" + string(kind))
}

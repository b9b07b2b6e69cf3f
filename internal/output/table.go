// Package output provides terminal output utilities for pkgmux: table
// rendering for search results, history, backends, and extensions, plus
// progress indicators for long-running operations.
//
// Tables use ASCII characters and ANSI color codes; color is suppressed
// when stdout is not a TTY or NO_COLOR is set. Progress indicators are
// thread-safe.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/pkgmux/internal/backend"
	"github.com/blackwell-systems/pkgmux/internal/engine"
	"github.com/blackwell-systems/pkgmux/internal/extension"
	"github.com/blackwell-systems/pkgmux/internal/ledger"
)

// ANSI color codes for status display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderSearchResults renders the packages found by a search, grouped
// under their origin backend.
func RenderSearchResults(packages []backend.PackageInfo) string {
	if len(packages) == 0 {
		return "No packages found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-12s %-32s %s\n", "Backend", "Package", "Version"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	for _, pkg := range packages {
		version := pkg.Version
		if version == "" {
			version = "—"
		}
		sb.WriteString(fmt.Sprintf("%-12s %-32s %s\n",
			truncate(pkg.Backend, 12),
			truncate(pkg.Name, 32),
			truncate(version, 20)))
	}

	return sb.String()
}

// RenderHistoryTable renders ledger entries, newest first.
func RenderHistoryTable(entries []*ledger.Entry) string {
	if len(entries) == 0 {
		return "No history entries.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-5s %-10s %-10s %-13s %s\n",
		"ID", "Backend", "Status", "Recorded", "Packages"))
	sb.WriteString(strings.Repeat("─", 76))
	sb.WriteString("\n")

	for _, e := range entries {
		names := make([]string, len(e.Packages))
		for i, p := range e.Packages {
			names[i] = p.Name
		}

		status := e.Status
		switch e.Status {
		case ledger.StatusInstalled:
			status = colorize(colorGreen, e.Status)
		case ledger.StatusRemoved:
			status = colorize(colorGray, e.Status)
		case ledger.StatusUnknown:
			status = colorize(colorYellow, e.Status)
		}

		sb.WriteString(fmt.Sprintf("%-5d %-10s %-10s %-13s %s\n",
			e.ID,
			truncate(e.Backend, 10),
			status,
			formatRelativeTime(e.RecordedAt),
			truncate(strings.Join(names, ", "), 36)))
	}

	return sb.String()
}

// RenderReconcileReport renders the result of a reconcile run.
func RenderReconcileReport(report *ledger.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Examined %d entries: %d confirmed, %d removed, %d unknown, %d skipped\n",
		report.Examined, report.Confirmed, report.Removed, report.Unknown, report.Skipped))

	if len(report.Changes) == 0 {
		sb.WriteString("Ledger already matches backend state.\n")
		return sb.String()
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-8s %-10s %s\n", "Entry", "Backend", "Change"))
	sb.WriteString(strings.Repeat("─", 44))
	sb.WriteString("\n")
	for _, c := range report.Changes {
		sb.WriteString(fmt.Sprintf("%-8d %-10s %s → %s\n",
			c.EntryID, truncate(c.Backend, 10), c.PrevStatus, c.NewStatus))
	}

	return sb.String()
}

// RenderBackendTable renders backend health probes.
func RenderBackendTable(backends []engine.BackendHealth) string {
	if len(backends) == 0 {
		return "No backends registered.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-10s %-9s %s\n", "Backend", "Enabled", "Available"))
	sb.WriteString(strings.Repeat("─", 32))
	sb.WriteString("\n")

	for _, b := range backends {
		avail := colorize(colorGray, "no")
		if b.Available {
			avail = colorize(colorGreen, "yes")
		} else if b.Enabled {
			avail = colorize(colorRed, "no")
		}
		enabled := "yes"
		if !b.Enabled {
			enabled = "no"
		}
		sb.WriteString(fmt.Sprintf("%-10s %-9s %s\n", b.Name, enabled, avail))
	}

	return sb.String()
}

// RenderExtensionTable renders the loaded extensions, sorted by ID.
func RenderExtensionTable(exts []*extension.Extension) string {
	if len(exts) == 0 {
		return "No extensions installed.\n"
	}

	sorted := make([]*extension.Extension, len(exts))
	copy(sorted, exts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-20s %-9s %-9s %-8s %s\n",
		"Extension", "Enabled", "Events", "Version", "Description"))
	sb.WriteString(strings.Repeat("─", 78))
	sb.WriteString("\n")

	for _, ext := range sorted {
		enabled := colorize(colorGreen, "yes")
		if !ext.Enabled {
			enabled = colorize(colorGray, "no")
		}
		version := ext.Version
		if version == "" {
			version = "—"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-9s %-9d %-8s %s\n",
			truncate(ext.ID, 20),
			enabled,
			len(ext.Subscriptions),
			truncate(version, 8),
			truncate(ext.Description, 30)))
	}

	return sb.String()
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	case diff < 365*24*time.Hour:
		months := int(diff.Hours() / 24 / 30)
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	default:
		years := int(diff.Hours() / 24 / 365)
		if years == 1 {
			return "1 year ago"
		}
		return fmt.Sprintf("%d years ago", years)
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

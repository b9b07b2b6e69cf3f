package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgmux/internal/output"
)

var historyClearYes bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage the operation ledger",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger entries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		store := rt.engine.Ledger(rt.scope)
		if store == nil {
			fmt.Println("No history available for this scope.")
			return nil
		}
		entries, err := store.Entries()
		if err != nil {
			return err
		}
		fmt.Print(output.RenderHistoryTable(entries))
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one ledger entry in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id %q", args[0])
		}

		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		store := rt.engine.Ledger(rt.scope)
		if store == nil {
			return fmt.Errorf("no history available for this scope")
		}
		entry, err := store.Entry(id)
		if err != nil {
			return err
		}

		names := make([]string, len(entry.Packages))
		for i, p := range entry.Packages {
			if p.Version != "" {
				names[i] = p.Name + " " + p.Version
			} else {
				names[i] = p.Name
			}
		}

		fmt.Printf("Entry:     %d\n", entry.ID)
		fmt.Printf("Backend:   %s\n", entry.Backend)
		fmt.Printf("Scope:     %s\n", entry.Scope)
		fmt.Printf("Status:    %s\n", entry.Status)
		fmt.Printf("Packages:  %s\n", strings.Join(names, ", "))
		fmt.Printf("Recorded:  %s\n", entry.RecordedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Changed:   %s\n", entry.StatusChangedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Confirmed: %t\n", entry.EverConfirmed)
		if entry.User != "" {
			fmt.Printf("User:      %s\n", entry.User)
		}
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the ledger by status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		store := rt.engine.Ledger(rt.scope)
		if store == nil {
			fmt.Println("No history available for this scope.")
			return nil
		}
		stats, err := store.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("Entries:   %d\n", stats.Total)
		fmt.Printf("Installed: %d\n", stats.Installed)
		fmt.Printf("Removed:   %d\n", stats.Removed)
		fmt.Printf("Unknown:   %d\n", stats.Unknown)
		fmt.Printf("Rollbacks: %d\n", stats.Rollbacks)
		return nil
	},
}

var historyRollbackCmd = &cobra.Command{
	Use:   "rollback <id>",
	Short: "Undo a past install by removing its packages",
	Long: `Rollback removes the packages of a past install through the backend that
installed them, records the rollback, and marks the entry removed. Only
entries still marked installed can be rolled back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id %q", args[0])
		}

		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		return runSession(rt, func(ctx context.Context) error {
			res, err := rt.engine.Rollback(ctx, rt.scope, id)
			reportActionFailures(res)
			if err != nil {
				return err
			}
			if !res.Outcome.Success {
				return fmt.Errorf("rollback failed: %s", res.Outcome.Error)
			}
			fmt.Printf("Rolled back entry %d via %s\n", id, res.Context.BackendName)
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every ledger entry in this scope",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !historyClearYes && !confirm("Delete all history entries?") {
			fmt.Println("Aborted.")
			return nil
		}

		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		return runSession(rt, func(ctx context.Context) error {
			if err := rt.engine.ClearHistory(ctx, rt.scope); err != nil {
				return err
			}
			fmt.Println("History cleared.")
			return nil
		})
	},
}

func init() {
	historyClearCmd.Flags().BoolVarP(&historyClearYes, "yes", "y", false, "skip the confirmation prompt")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyRollbackCmd)
	historyCmd.AddCommand(historyClearCmd)
}

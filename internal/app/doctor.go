package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgmux/internal/output"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check backend availability and ledger integrity",
	Long: `Doctor probes every registered backend for its tool, checks the scope's
history ledger for corruption, and reports what it finds. The command
exits non-zero when no backend is usable or a ledger is corrupt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		return runSession(rt, func(ctx context.Context) error {
			report := rt.engine.CheckHealth(ctx, rt.scope)
			reportActionFailures(report.Result)

			fmt.Print(output.RenderBackendTable(report.Backends))
			fmt.Println()

			for _, l := range report.Ledgers {
				if l.Corrupt {
					fmt.Printf("Ledger (%s): CORRUPT: %s\n", l.Scope, l.Err)
				} else {
					fmt.Printf("Ledger (%s): %d entries, ok\n", l.Scope, l.Entries)
				}
			}
			if len(report.Ledgers) == 0 {
				fmt.Println("Ledger: not available for this scope")
			}

			if !report.Healthy() {
				return fmt.Errorf("health checks failed")
			}
			fmt.Println("\nAll checks passed.")
			return nil
		})
	},
}

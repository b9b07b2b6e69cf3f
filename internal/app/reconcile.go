package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgmux/internal/ledger"
	"github.com/blackwell-systems/pkgmux/internal/output"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Bring the history ledger in line with backend state",
	Long: `Reconcile asks each backend what is actually installed and updates the
status of ledger entries to match: entries whose packages are gone become
removed, entries that cannot be checked and were never confirmed become
unknown. Entries are never invented or deleted, and running reconcile
twice in a row changes nothing the second time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		return runSession(rt, func(ctx context.Context) error {
			spinner := output.NewSpinner("Reconciling history")
			spinner.Start()
			report, err := rt.engine.Reconcile(ctx, rt.scope)
			spinner.Stop()

			if errors.Is(err, ledger.ErrCorrupt) {
				fmt.Fprintf(os.Stderr, "Warning: %v; treating scope history as empty\n", err)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Print(output.RenderReconcileReport(report))
			return nil
		})
	},
}

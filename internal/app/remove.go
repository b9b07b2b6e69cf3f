package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgmux/internal/engine"
)

var (
	removeYes bool
	purgeYes  bool
)

var removeCmd = &cobra.Command{
	Use:   "remove <package>...",
	Short: "Remove packages through the backend that has them installed",
	Long: `Remove uninstalls the requested packages. Without --backend, the backend
is resolved from which one actually has the packages installed; if more
than one does, the command fails and lists them.

Matching history entries are marked removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemoval(args, false, removeYes)
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge <package>...",
	Short: "Remove packages together with their configuration",
	Long: `Purge removes packages and their configuration files. Backends without
a distinct purge verb fall back to a plain remove.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemoval(args, true, purgeYes)
	},
}

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip the confirmation prompt")
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "skip the confirmation prompt")
}

func runRemoval(packages []string, purge, skipConfirm bool) error {
	verb := "remove"
	if purge {
		verb = "purge"
	}

	if !skipConfirm {
		fmt.Printf("About to %s: %s\n", verb, strings.Join(packages, ", "))
		if !confirm("Continue?") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	return runSession(rt, func(ctx context.Context) error {
		var res *engine.Result
		var err error
		if purge {
			res, err = rt.engine.Purge(ctx, flagBackend, packages, rt.scope)
		} else {
			res, err = rt.engine.Remove(ctx, flagBackend, packages, rt.scope)
		}
		reportActionFailures(res)
		if err != nil {
			return err
		}
		if !res.Outcome.Success {
			return fmt.Errorf("%s failed: %s", verb, res.Outcome.Error)
		}

		fmt.Printf("Removed %s via %s\n", strings.Join(packages, ", "), res.Context.BackendName)
		return nil
	})
}

// confirm prompts on stdin and returns true for an explicit yes.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

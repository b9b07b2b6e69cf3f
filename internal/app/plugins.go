package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgmux/internal/config"
	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/extension"
	"github.com/blackwell-systems/pkgmux/internal/op"
	"github.com/blackwell-systems/pkgmux/internal/output"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Manage lifecycle extensions",
	Long: `Extensions live under ` + "`{config}/plugins/<name>/plugin.conf`" + ` and attach
actions (run, script, notify, log) to lifecycle events. System-wide
extensions load from /etc/pkgmux/plugins with a "system-" ID prefix.`,
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		fmt.Print(output.RenderExtensionTable(rt.extensions.All()))
		return nil
	},
}

var pluginsEnableCmd = &cobra.Command{
	Use:   "enable <extension>",
	Short: "Enable an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setExtensionEnabled(args[0], true)
	},
}

var pluginsDisableCmd = &cobra.Command{
	Use:   "disable <extension>",
	Short: "Disable an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setExtensionEnabled(args[0], false)
	},
}

func setExtensionEnabled(id string, enabled bool) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	return runSession(rt, func(ctx context.Context) error {
		if err := rt.extensions.SetEnabled(id, enabled); err != nil {
			return err
		}

		name := event.PluginDisabled
		verb := "Disabled"
		if enabled {
			name = event.PluginEnabled
			verb = "Enabled"
		}
		opCtx := op.NewContext("", "", nil, rt.scope, map[string]string{"plugin": id})
		rt.engine.EmitNamed(ctx, name, opCtx)

		fmt.Printf("%s extension %s\n", verb, id)
		return nil
	})
}

var pluginsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every extension config without loading it",
	Long: `Check parses each plugin.conf under the user and system extension
directories and reports syntax problems, unknown event names, and
malformed actions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userDir, err := config.ExtensionDir()
		if err != nil {
			return err
		}

		var confs []string
		for _, dir := range []string{userDir, config.SystemExtensionDir} {
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				path := filepath.Join(dir, entry.Name(), extension.ConfFile)
				if _, err := os.Stat(path); err == nil {
					confs = append(confs, path)
				}
			}
		}

		if len(confs) == 0 {
			fmt.Println("No extension configs found.")
			return nil
		}

		bar := output.NewProgress(len(confs), "Checking extension configs")
		problems := 0
		for _, path := range confs {
			if _, err := extension.ParseConf(path); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				problems++
			}
			bar.Increment()
		}
		bar.Finish()

		if problems > 0 {
			return fmt.Errorf("%d of %d extension configs have problems", problems, len(confs))
		}
		fmt.Printf("All %d extension configs are valid.\n", len(confs))
		return nil
	},
}

func init() {
	pluginsCmd.AddCommand(pluginsListCmd)
	pluginsCmd.AddCommand(pluginsEnableCmd)
	pluginsCmd.AddCommand(pluginsDisableCmd)
	pluginsCmd.AddCommand(pluginsCheckCmd)
}

package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgmux/internal/config"
	"github.com/blackwell-systems/pkgmux/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch extension directories and reload config on change",
	Long: `Watch runs in the foreground, monitoring the user and system extension
directories. When a plugin.conf changes, the extension set is re-parsed
and swapped in, and the config-changed event fires. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		userDir, err := config.ExtensionDir()
		if err != nil {
			return err
		}

		dirs := []watcher.Dir{
			{Path: userDir},
			{Path: config.SystemExtensionDir, IDPrefix: "system-"},
		}

		w, err := watcher.New(dirs, rt.extensions, rt.engine.Emitter())
		if err != nil {
			return err
		}
		w.Start()
		defer w.Stop()

		fmt.Printf("Watching %s and %s for extension changes. Ctrl-C to stop.\n",
			userDir, config.SystemExtensionDir)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nStopping.")
		return nil
	},
}

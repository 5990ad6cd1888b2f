// sync-menu is the interactive dispatcher for the configured sync profiles.
// It prints the profile table, reads one choice, and hands off to the
// remote-sync tool with that profile's arguments.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wangguanran/Tools/internal/config"
	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/menu"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sync-menu",
	Short: "Interactive dispatcher for the configured sync profiles",
	Long: `sync-menu shows the sync profile table, reads one choice and runs the
remote-sync tool with that profile's resource and destination. The tool's
prompts and progress pass straight through to the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"config file (default sync.yaml in . then $HOME)")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return menu.New(cfg).Run(cmd.Context())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// An unmatched choice was already answered on screen; it is not a
		// failure of the dispatcher itself.
		if errs.Is(err, errs.CodeInvalidChoice) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

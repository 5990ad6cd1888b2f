// remote-sync mirrors a remote SMB share into a local working copy: one full
// pass first, then a watch loop that mirrors individual changes, with the
// retry and share-remapping behavior flaky links need.
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
	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/logging"
	"github.com/wangguanran/Tools/internal/sync/engine"
)

var opts struct {
	resource     string
	destination  string
	initialSync  bool
	noWatch      bool
	checksum     bool
	sizeOnly     bool
	deleteExtra  bool
	dryRun       bool
	skipExisting bool
	schedule     string
	excludes     []string
	configPath   string
	logFile      string
	concurrency  int
	forcePoll    bool
	verbose      bool
}

var rootCmd = &cobra.Command{
	Use:   "remote-sync --resource \\\\host\\share\\dir --destination D:\\dir",
	Short: "Mirror a remote share into a local directory",
	Long: `remote-sync copies a remote tree to a local one and optionally keeps
watching the source, mirroring changes as they happen. Build directories are
ignored, copies are retried, and a vanished share is remapped and waited for
before the session gives up.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.resource, "resource", "", "UNC path of the remote tree (\\\\host\\share\\dir)")
	f.StringVar(&opts.destination, "destination", "", "local directory to mirror into")
	f.BoolVar(&opts.initialSync, "initial-sync", false, "run the full first pass without asking")
	f.BoolVar(&opts.noWatch, "no-watch", false, "exit after the initial pass instead of watching")
	f.BoolVar(&opts.checksum, "checksum", false, "compare file contents instead of size and mtime")
	f.BoolVar(&opts.sizeOnly, "size-only", false, "compare file sizes only, ignoring timestamps")
	f.BoolVar(&opts.deleteExtra, "delete", false, "remove local files that are gone on the remote")
	f.BoolVar(&opts.dryRun, "dry-run", false, "plan and report without changing anything")
	f.BoolVar(&opts.skipExisting, "skip-existing", false, "never overwrite files that already exist locally")
	f.StringVar(&opts.schedule, "schedule", "", "cron expression for repeated passes (requires --no-watch)")
	f.StringSliceVar(&opts.excludes, "exclude", nil, "glob patterns to leave out")
	f.StringVar(&opts.configPath, "config", "", "config file (default sync.yaml in . then $HOME)")
	f.StringVar(&opts.logFile, "log-file", "", "plain-text log copy (default from config)")
	f.IntVar(&opts.concurrency, "concurrency", 0, "parallel copy workers (default from config)")
	f.BoolVar(&opts.forcePoll, "poll", false, "poll for changes instead of native notifications")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	_ = rootCmd.MarkFlagRequired("resource")
	_ = rootCmd.MarkFlagRequired("destination")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logFile := cfg.LogFile
	if cmd.Flags().Changed("log-file") {
		logFile = opts.logFile
	}
	if err := logging.Init(logFile, opts.verbose); err != nil {
		return err
	}
	log := logging.L()

	if opts.schedule != "" && !opts.noWatch {
		return errs.New(errs.CodeInvalidInput, "--schedule requires --no-watch")
	}

	concurrency := cfg.Sync.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	engineCfg := &engine.Config{
		Source:          opts.resource,
		Destination:     opts.destination,
		ExcludePatterns: opts.excludes,
		DeleteExtra:     opts.deleteExtra,
		DryRun:          opts.dryRun,
		SkipIfExists:    opts.skipExisting || cfg.Sync.SkipIfExists,
		Checksum:        opts.checksum,
		SizeOnly:        opts.sizeOnly,
		Concurrency:     concurrency,
		OpTimeout:       cfg.Sync.Timeout,
		MaxAttempts:     cfg.Sync.MaxRetries,
		RetryDelay:      cfg.Sync.RetryDelay,
		Logger:          log,
	}

	sessionCfg := &engine.SessionConfig{
		Engine:        engineCfg,
		InitialSync:   opts.initialSync,
		Watch:         !opts.noWatch,
		Schedule:      opts.schedule,
		ReconnectWait: cfg.Sync.ReconnectWait,
		PollInterval:  cfg.Sync.PollInterval,
		SettlingDelay: cfg.Sync.SettlingDelay,
		ForcePolling:  opts.forcePoll,
	}

	session, err := engine.NewSession(fsys.NewOSFS(""), fsys.NewOSFS(""), sessionCfg)
	if err != nil {
		return err
	}
	return session.Run(cmd.Context())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

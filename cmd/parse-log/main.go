// parse-log extracts charging information from Android device log bundles:
// it unpacks the archives inside, merges the charging-related kernel log
// lines into one chronological file, and decodes CX2560X charger register
// dumps into their datasheet meaning.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/logging"
	"github.com/wangguanran/Tools/internal/parselog"
)

var opts struct {
	chargeLog   string
	chargerFile string
	register    bool
	output      string
	year        int
	noColor     bool
	verbose     bool
}

var rootCmd = &cobra.Command{
	Use:   "parse-log",
	Short: "Extract charging info from Android log bundles",
	Long: `parse-log digs the charging story out of a device log bundle. It unpacks
the archives inside, merges charging-related kernel log lines into a single
chronological charge.log, and decodes CX2560X charger register dumps.

Register values can also be decoded one-off (--parse-register 06 a2) or
pasted interactively (--parse-charger-cx2560x without a file).`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.chargeLog, "output-charge-log", "",
		"build charge.log from a directory or archive (bare flag means the working directory)")
	f.Lookup("output-charge-log").NoOptDefVal = "."
	f.StringVar(&opts.chargerFile, "parse-charger-cx2560x", "",
		"decode register dumps from a log file, or interactively when no file is given")
	f.Lookup("parse-charger-cx2560x").NoOptDefVal = "-"
	f.BoolVar(&opts.register, "parse-register", false,
		"decode one register value: --parse-register REG VALUE")
	f.StringVarP(&opts.output, "output", "o", "out", "directory for generated files")
	f.IntVar(&opts.year, "year", 0, "year assumed for log timestamps (default 2024)")
	f.BoolVar(&opts.noColor, "no-color", false, "disable ANSI colors")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	if err := logging.Init("", opts.verbose); err != nil {
		return err
	}

	p := parselog.New(fsys.NewOSFS(""), opts.output,
		parselog.WithYear(opts.year),
		parselog.WithColor(!opts.noColor),
		parselog.WithConsole(cmd.OutOrStdout()),
		parselog.WithLogger(logging.L()),
	)
	out := cmd.OutOrStdout()

	ran := false

	if opts.chargeLog != "" {
		ran = true
		path, lines, err := p.BuildChargeLog(cmd.Context(), opts.chargeLog)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s (%d lines)\n", path, lines)

		report, err := p.DecodeChargerDump(path)
		if err != nil {
			return err
		}
		if report.Detected {
			fmt.Fprintf(out, "CX2560X charger detected: %d registers decoded into %s\n",
				report.Registers, report.ReportPath)
		}
	}

	if opts.chargerFile != "" {
		ran = true
		if opts.chargerFile == "-" {
			report, err := p.DecodeInteractive(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if report.Registers > 0 {
				fmt.Fprintf(out, "\n%d registers decoded into %s\n",
					report.Registers, report.ReportPath)
			}
		} else {
			report, err := p.DecodeChargerDump(opts.chargerFile)
			if err != nil {
				return err
			}
			if !report.Detected {
				fmt.Fprintln(out, "No CX2560X driver found in the log.")
			} else {
				fmt.Fprintf(out, "%d registers decoded into %s\n",
					report.Registers, report.ReportPath)
			}
		}
	}

	if opts.register {
		ran = true
		if len(args) != 2 {
			return errs.New(errs.CodeInvalidInput,
				"--parse-register needs REG and VALUE, e.g. --parse-register 00 04")
		}
		if err := p.DecodeRegister(args[0], args[1]); err != nil {
			return err
		}
	}

	if !ran {
		return cmd.Help()
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

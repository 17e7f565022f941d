// Package main provides the CLI entry point for xpln-go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ukaji3/xpln-go/internal/logger"
	"github.com/ukaji3/xpln-go/pkg/xpln"
	"github.com/ukaji3/xpln-go/pkg/xpln/export"
	"github.com/ukaji3/xpln-go/pkg/xpln/loader"
	"github.com/ukaji3/xpln-go/pkg/xpln/output"
	"github.com/ukaji3/xpln-go/pkg/xpln/store"
	"github.com/ukaji3/xpln-go/pkg/xpln/summary"
)

var (
	outputDir   string
	format      string
	inputFormat string
	pretty      bool
	layoutPath  string
	reportPath  string
	dsn         string
	dumpTables  bool
	dumpDomain  bool
	showSummary bool
	concurrency int
	watch       bool
	verbose     bool
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xpln [input.ods]",
		Short: "Export per-station timetables from a railway plan spreadsheet",
		Long: `xpln-go reads stations, tracks, trains and timetables from an
OpenDocument (or xlsx) spreadsheet and writes one schedule file per station,
sorted by arrival time.`,
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&outputDir, "output-dir", "o", "stations", "Directory for per-station output files")
	flags.StringVar(&format, "format", "text", "Station file format: text, json")
	flags.StringVar(&inputFormat, "input-format", string(xpln.FormatAuto), "Input format: auto, ods, xlsx")
	flags.BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	flags.StringVar(&layoutPath, "layout", os.Getenv("XPLN_LAYOUT"), "TOML file overriding the table layout")
	flags.StringVar(&reportPath, "report", "", "Write skipped rows to this file (- for stdout)")
	flags.StringVar(&dsn, "db", os.Getenv("XPLN_DB"), "Store the loaded plan in a database (sqlite path or postgres:// URL)")
	flags.BoolVar(&dumpTables, "dump-tables", false, "Print every parsed table")
	flags.BoolVar(&dumpDomain, "dump-domain", false, "Print loaded stations and trains")
	flags.BoolVar(&showSummary, "summary", false, "Print per-station statistics")
	flags.IntVar(&concurrency, "concurrency", xpln.DefaultOptions().Concurrency, "Stations exported in parallel (0 = unlimited)")
	flags.BoolVar(&watch, "watch", false, "Re-run whenever the input file changes")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging to stderr")

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	logger.SetVerbose(verbose)

	renderer, err := rendererFor(format)
	if err != nil {
		return err
	}

	opts := xpln.DefaultOptions()
	opts.Format = xpln.Format(inputFormat)
	opts.Concurrency = concurrency
	if layoutPath != "" {
		layout, err := loader.LoadLayout(layoutPath)
		if err != nil {
			return fmt.Errorf("loading layout: %w", err)
		}
		opts.Layout = &layout
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if watch {
		return watchFile(ctx, inputPath, func() error {
			return process(ctx, cmd, inputPath, opts, renderer)
		})
	}
	return process(ctx, cmd, inputPath, opts, renderer)
}

func rendererFor(name string) (export.Renderer, error) {
	switch name {
	case "text":
		return output.TextRenderer{}, nil
	case "json":
		return output.JSONRenderer{Pretty: pretty}, nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be text or json)", name)
	}
}

func process(ctx context.Context, cmd *cobra.Command, inputPath string, opts xpln.Options, renderer export.Renderer) error {
	out := cmd.OutOrStdout()

	result, err := xpln.Extract(inputPath, opts)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if dumpTables {
		for i := range result.Spreadsheet.Tables {
			if err := output.WriteTable(out, &result.Spreadsheet.Tables[i]); err != nil {
				return err
			}
		}
	}
	if dumpDomain {
		if err := output.WriteDomain(out, result.Domain); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := result.Export(ctx, export.DirSink{Dir: outputDir}, renderer); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d station files to %s\n", result.Domain.StationCount(), outputDir)

	if err := writeReport(cmd, result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if showSummary {
		stations, err := summary.Summarize(result.Domain)
		if err != nil {
			return fmt.Errorf("summary failed: %w", err)
		}
		if err := output.WriteSummary(out, stations); err != nil {
			return err
		}
	}

	if dsn != "" {
		if err := saveRun(ctx, cmd, result); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(cmd *cobra.Command, result *xpln.Result) error {
	switch reportPath {
	case "":
		if n := len(result.Diagnostics); n > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d rows skipped (use --report for details)\n", n)
		}
		return nil
	case "-":
		return output.WriteReport(cmd.OutOrStdout(), result.Diagnostics)
	}

	if err := os.MkdirAll(filepath.Dir(reportPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	if err := output.WriteReport(f, result.Diagnostics); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func saveRun(ctx context.Context, cmd *cobra.Command, result *xpln.Result) error {
	s, err := store.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	source, err := filepath.Abs(result.Path)
	if err != nil {
		source = result.Path
	}
	run := store.NewRun(source)
	if err := s.Save(ctx, run, result.Domain, result.Diagnostics); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved run %s\n", run.ID)
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/discmatch/internal/probe"
	"github.com/okian/discmatch/pkg/logger"
	"github.com/spf13/cobra"
)

// Default configuration constants.
const (
	defaultBaseURL = "http://localhost:9080"
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultTimeout = 30 * time.Second
)

type options struct {
	baseURL string
	timeout time.Duration
	verbose bool
	format  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "probe",
		Short: "Exercise a running discmatch service",
		Long: `probe talks to a running discmatch service over HTTP.

Examples:
  probe status
  probe match --name Buzzz --manufacturer Discraft
  probe run --workers 16 --output reports/probe.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithFormat(opts.format, cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if opts.verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", defaultBaseURL, "Base URL of the service")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&opts.format, "log-format", "text", "Log format: text or json")

	root.AddCommand(newRunCmd(opts), newStatusCmd(opts), newMatchCmd(opts))
	return root
}

func newRunCmd(opts *options) *cobra.Command {
	var (
		workers int
		output  string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Match the whole reference catalog and verify every answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := probe.Run(cmd.Context(), &probe.Config{
				BaseURL:    opts.baseURL,
				Workers:    workers,
				Timeout:    opts.timeout,
				OutputFile: output,
				Verbose:    opts.verbose,
			})
			if err != nil {
				return err
			}
			for _, v := range report.Violations {
				fmt.Fprintln(cmd.OutOrStdout(), "violation:", v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d matched from %s source in %s\n",
				report.Matched, report.ReferenceDisc, report.SourceInUse, report.Duration.Round(time.Millisecond))
			if !report.OK() {
				return fmt.Errorf("probe failed: %d errors, %d violations", report.Failed, len(report.Violations))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent match requests")
	cmd.Flags().StringVar(&output, "output", "", "Write a JSON report to this file")
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which tier each dataset is served from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := probe.NewClient(opts.baseURL, opts.timeout).Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newMatchCmd(opts *options) *cobra.Command {
	var name, manufacturer string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank the target catalog against one reference disc",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := probe.NewClient(opts.baseURL, opts.timeout).Match(cmd.Context(), name, manufacturer)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Reference disc name")
	cmd.Flags().StringVar(&manufacturer, "manufacturer", "", "Manufacturer, when several share a name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

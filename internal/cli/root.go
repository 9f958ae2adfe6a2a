package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	_ "cvetl/internal/cvdw"
	"cvetl/internal/etl"
)

type rootOptions struct {
	envFile  string
	since    string
	logLevel string
}

// Execute runs the command line and exits 1 when any pipeline aborted
// or a command failed.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "cvetl COMMAND [FLAG ...]",
		Short: "Extract CRM data-warehouse resources into the relational store",
		Long: `cvetl pulls paginated records from the CRM data-warehouse API
(reservations, pre-registrations, visits), normalizes them into fixed
tables and upserts them by natural key.

Configuration comes from a .env file and the environment.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default .env when present)")
	root.PersistentFlags().StringVar(&opts.since, "since", "", "only records created at or after this time, e.g. \"2023-01-01 00:00:00\" (overrides CVCRM_SINCE)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "logging level: trace, debug, info, warn, error (overrides LOG_LEVEL)")

	for _, spec := range etl.ListEntities() {
		root.AddCommand(pipelineCmd(opts, spec))
	}
	root.AddCommand(allCmd(opts), runsCmd(opts), listCmd())
	return root
}

// withApp starts an App for the command, runs fn and shuts it down.
// SIGINT and SIGTERM cancel the context, which stops runs between pages.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &App{}
	if err := a.Startup(ctx, opts); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		a.Shutdown(shutdownCtx)
	}()

	err := fn(ctx, a)
	a.PushMetrics(context.Background())
	return err
}

func pipelineCmd(opts *rootOptions, spec etl.EntitySpec) *cobra.Command {
	return &cobra.Command{
		Use:   spec.Name,
		Short: "Run the " + strings.ToLower(spec.Label) + " pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *App) error {
				_, err := a.etl.RunJob(ctx, spec.Name)
				return err
			})
		},
	}
}

func allCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "all [PIPELINE ...]",
		Short: "Run several pipelines concurrently (every pipeline when none is named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				for _, s := range etl.ListEntities() {
					names = append(names, s.Name)
				}
			}
			for _, n := range names {
				if _, err := etl.GetEntity(n); err != nil {
					return err
				}
			}
			return withApp(cmd, opts, func(ctx context.Context, a *App) error {
				results, err := a.etl.RunAll(ctx, names)
				printResults(cmd, results)
				return err
			})
		},
	}
}

func runsCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [PIPELINE]",
		Short: "List recent runs from the run log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := ""
			if len(args) == 1 {
				pipeline = args[0]
				// Runs are logged under the entity name, e.g. cv_visitas.
				if e, err := etl.NewEntity(pipeline); err == nil {
					pipeline = e.Name
				}
			}
			return withApp(cmd, opts, func(ctx context.Context, a *App) error {
				logs, err := a.etl.ListRunLogs(ctx, pipeline, limit)
				if err != nil {
					return err
				}
				printRunLogs(cmd, logs)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available pipelines and their tables",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PIPELINE\tDESCRIPTION\tTABLES")
			for _, s := range etl.ListEntities() {
				e := s.New()
				tables := []string{e.Base.Name}
				for _, c := range e.Children {
					tables = append(tables, c.Table.Name)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Label, strings.Join(tables, ", "))
			}
			w.Flush()
		},
	}
}

func printResults(cmd *cobra.Command, results []*etl.SyncResult) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PIPELINE\tSTATUS\tPAGES\tRECORDS\tUPSERTS\tDURATION")
	for _, r := range results {
		if r == nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.Entity, r.Status, r.Pages, r.RecordsReceived, r.RowsUpserted, r.Duration.Round(time.Millisecond))
	}
	w.Flush()
}

func printRunLogs(cmd *cobra.Command, logs []etl.SyncRunLog) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tPIPELINE\tSTATUS\tPAGES\tRECORDS\tUPSERTS\tERROR")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			l.StartedAt.Format("2006-01-02 15:04:05"), l.Pipeline, l.Status,
			l.Pages, l.RecordsReceived, l.RowsUpserted, l.Error)
	}
	w.Flush()
}

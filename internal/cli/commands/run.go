package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cadac-labs/cadac/internal/cli/config"
	"github.com/cadac-labs/cadac/internal/runner"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Model      string
	Upstream   bool
	Downstream bool
	Depth      int
	DryRun     bool
	FailFast   bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all models or a selected model",
		Long: `Execute SQL models in dependency order against the configured
database.

By default, runs all discovered models. Use --select to run one model;
--upstream and --downstream widen the selection to its neighbors, and
--depth controls how many hops are included (negative for all).`,
		Example: `  # Run all models
  cadac run --conn duckdb://warehouse.db

  # Run one model and everything it depends on
  cadac run --select gold.revenue --upstream --depth -1

  # Plan without executing
  cadac run --dry-run`,
		Aliases: []string{"build"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "select", "s", "", "Qualified model name to run")
	cmd.Flags().BoolVar(&opts.Upstream, "upstream", false, "Include dependencies of the selected model")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", false, "Include dependents of the selected model")
	cmd.Flags().IntVar(&opts.Depth, "depth", 1, "Selection depth in hops (negative for transitive)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Plan the run without executing")
	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", true, "Abort the run at the first model failure")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	c, err := buildCatalog(cmd)
	if err != nil {
		return err
	}

	r := runner.New(runner.Config{
		Catalog:  c,
		Registry: newRegistry(cmd),
		Logger:   logger,
	})

	failFast := cfg.FailFast
	if cmd.Flags().Changed("fail-fast") {
		failFast = opts.FailFast
	}

	runOpts := runner.Options{
		Model:             opts.Model,
		IncludeUpstream:   opts.Upstream,
		IncludeDownstream: opts.Downstream,
		Depth:             opts.Depth,
		DryRun:            opts.DryRun,
		FailFast:          failFast,
		ConnString:        cfg.Connection,
	}

	summary, err := r.Run(cmd.Context(), runOpts)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if summary.DryRun {
		_, _ = fmt.Fprintf(w, "Dry run %s: %d models planned\n\n", summary.RunID, len(summary.Planned))
		for i, name := range summary.Planned {
			_, _ = fmt.Fprintf(w, "%2d. %s\n", i+1, name)
		}
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Status", "Rows", "Time"})
	for _, res := range summary.Results {
		t.AppendRow(table.Row{
			res.Name,
			string(res.Result.Status),
			res.Result.RowsAffected,
			res.Result.ExecutionTime.Round(time.Millisecond),
		})
	}
	t.Render()

	_, _ = fmt.Fprintf(w, "\nRun %s: %d succeeded, %d failed, %d skipped in %s\n",
		summary.RunID, summary.Succeeded, summary.Failed, summary.Skipped,
		summary.Duration.Round(time.Millisecond))

	if summary.Failure() {
		return fmt.Errorf("run failed: %s", strings.Join(summary.FailedModels(), ", "))
	}
	return nil
}

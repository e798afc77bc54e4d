// Package runner orchestrates model execution: it selects a model
// subset, plans an execution order from the dependency graph, resolves
// a dialect adapter from the connection string, and runs the plan
// sequentially on one connection.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cadac-labs/cadac/internal/catalog"
	"github.com/cadac-labs/cadac/pkg/adapter"
)

// Options controls one run.
type Options struct {
	// Model selects a single model by qualified name; empty runs the
	// whole catalog.
	Model string
	// IncludeUpstream adds the selected model's dependencies.
	IncludeUpstream bool
	// IncludeDownstream adds the selected model's dependents.
	IncludeDownstream bool
	// Depth limits upstream/downstream selection to this many hops.
	// Zero means one hop; negative walks the full transitive closure.
	Depth int
	// DryRun plans without contacting any database.
	DryRun bool
	// FailFast aborts the run at the first model failure.
	FailFast bool
	// ConnString selects and configures the target database.
	ConnString string
}

// DefaultOptions returns the default run options: fail-fast on, one
// selection hop.
func DefaultOptions() Options {
	return Options{FailFast: true, Depth: 1}
}

// ModelResult pairs a model with its execution outcome.
type ModelResult struct {
	Name   string
	Result *adapter.ExecutionResult
}

// Summary is the outcome of one run.
type Summary struct {
	// RunID uniquely identifies this run.
	RunID string
	// Planned is the ordered model list the run executed (or would
	// have, for dry runs).
	Planned []string
	// Results holds one entry per planned model, in plan order.
	// Empty for dry runs.
	Results []ModelResult
	// Succeeded, Failed, and Skipped tally the results.
	Succeeded int
	Failed    int
	Skipped   int
	// Duration is the total wall time of the run.
	Duration time.Duration
	// DryRun records whether execution was skipped.
	DryRun bool
}

// Failure reports whether the run counts as failed. Any failed model
// fails the run, regardless of the fail-fast setting.
func (s *Summary) Failure() bool {
	return s.Failed > 0
}

// FailedModels returns the names of the models that failed, in plan
// order.
func (s *Summary) FailedModels() []string {
	var names []string
	for _, r := range s.Results {
		if r.Result.Status == adapter.StatusFailed {
			names = append(names, r.Name)
		}
	}
	return names
}

// Config holds runner configuration.
type Config struct {
	// Catalog is the discovered model catalog.
	Catalog *catalog.Catalog
	// Registry resolves connection strings to adapters.
	Registry *adapter.Registry
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Runner executes model plans. Build the catalog and its graph before
// constructing one.
type Runner struct {
	catalog  *catalog.Catalog
	registry *adapter.Registry
	logger   *slog.Logger
}

// New creates a runner.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		catalog:  cfg.Catalog,
		registry: cfg.Registry,
		logger:   logger,
	}
}

// Plan resolves the model selection into an ordered execution plan.
// Planning fails before any execution if the graph has a cycle or the
// selected model is unknown.
func (r *Runner) Plan(opts Options) ([]string, error) {
	graph := r.catalog.Graph()

	selected := make(map[string]bool)
	if opts.Model != "" {
		if _, ok := r.catalog.Model(opts.Model); !ok {
			return nil, fmt.Errorf("model %q not found in catalog", opts.Model)
		}
		selected[opts.Model] = true

		depth := opts.Depth
		if depth == 0 {
			depth = 1
		}
		if opts.IncludeUpstream {
			for _, name := range graph.Upstream(opts.Model, depth) {
				selected[name] = true
			}
		}
		if opts.IncludeDownstream {
			for _, name := range graph.Downstream(opts.Model, depth) {
				selected[name] = true
			}
		}
	} else {
		for _, name := range r.catalog.ModelNames() {
			selected[name] = true
		}
	}

	// The full topological order, filtered to the working set with
	// relative order preserved.
	order, err := graph.ExecutionOrder()
	if err != nil {
		return nil, err
	}

	var plan []string
	for _, name := range order {
		if selected[name] {
			plan = append(plan, name)
		}
	}
	return plan, nil
}

// Run executes the planned models sequentially. Model failures are
// recorded in the summary, not returned as errors; the error return is
// reserved for configuration and infrastructure problems that stop the
// run before or during execution.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	started := time.Now()

	plan, err := r.Plan(opts)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:   uuid.NewString(),
		Planned: plan,
		DryRun:  opts.DryRun,
	}

	if opts.DryRun {
		r.logger.Info("dry run, skipping execution", "run_id", summary.RunID, "models", len(plan))
		summary.Duration = time.Since(started)
		return summary, nil
	}

	dialectAdapter, err := r.registry.Resolve(opts.ConnString)
	if err != nil {
		return nil, err
	}
	if err := dialectAdapter.ValidateConnectionString(opts.ConnString); err != nil {
		return nil, err
	}

	conn, err := dialectAdapter.Connect(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	r.logger.Info("starting run",
		"run_id", summary.RunID,
		"dialect", conn.Dialect(),
		"models", len(plan))

	for i, name := range plan {
		sql, ok := r.catalog.SQL(name)
		if !ok {
			return nil, fmt.Errorf("model %q has no SQL in catalog", name)
		}

		result, err := conn.ExecuteSQL(ctx, sql)
		if err != nil {
			// Adapter-level errors (lost connection) count as a model
			// failure for fail-fast purposes.
			result = &adapter.ExecutionResult{
				Status:    adapter.StatusFailed,
				StartedAt: time.Now(),
				QueryHash: adapter.HashQuery(sql),
				Message:   fmt.Sprintf("execution error: %v", err),
			}
		}
		summary.Results = append(summary.Results, ModelResult{Name: name, Result: result})

		switch result.Status {
		case adapter.StatusSuccess:
			summary.Succeeded++
			r.logger.Info("model succeeded",
				"run_id", summary.RunID,
				"model", name,
				"rows", result.RowsAffected,
				"elapsed", result.ExecutionTime)
		default:
			summary.Failed++
			r.logger.Error("model failed",
				"run_id", summary.RunID,
				"model", name,
				"message", result.Message)
			if opts.FailFast {
				r.skipRemaining(summary, plan[i+1:])
				summary.Duration = time.Since(started)
				return summary, nil
			}
		}
	}

	summary.Duration = time.Since(started)
	return summary, nil
}

// skipRemaining records a skipped result for every model the fail-fast
// abort left unexecuted.
func (r *Runner) skipRemaining(summary *Summary, remaining []string) {
	for _, name := range remaining {
		summary.Skipped++
		summary.Results = append(summary.Results, ModelResult{
			Name: name,
			Result: &adapter.ExecutionResult{
				Status:    adapter.StatusSkipped,
				StartedAt: time.Now(),
				Message:   "Skipped due to fail-fast abort",
			},
		})
		r.logger.Warn("model skipped", "run_id", summary.RunID, "model", name)
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulesfoundation/rac/internal/deps"
	"github.com/rulesfoundation/rac/internal/engine"
	"github.com/rulesfoundation/rac/internal/ir"
	"github.com/rulesfoundation/rac/internal/params"
	"github.com/rulesfoundation/rac/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Data      string
	Entity    string
	ParamsDir string
	AsOf      string
	Database  string
	Workers   int

	// RunIDs allows overriding the run ID source (for testing).
	// If nil, defaults to UUIDv7Source.
	RunIDs store.RunIDSource
}

// RunOutput is the result payload of the run command.
type RunOutput struct {
	RunID    string            `json:"run_id,omitempty"`
	PlanHash string            `json:"plan_hash"`
	Entity   string            `json:"entity"`
	Scalars  engine.Bindings   `json:"scalars"`
	Rows     []engine.Bindings `json:"rows"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <rules-dir>",
		Short: "Execute a rule set over a dataset",
		Long: `Execute a compiled rule set over a dataset.

Scalar rules compute once in dependency order; entity-scoped rules then
apply to every row of the matching dataset slice in parallel. Output
rows stay index-aligned with the input.

Example:
  rac run ./rules --data households.json --entity person
  rac run ./rules --data h.json --entity person --params ./params --as-of 2023-01-01
  rac run ./rules --data h.json --entity person --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "path to JSON dataset (required)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "entity whose rows the row phase runs over")
	cmd.Flags().StringVar(&opts.ParamsDir, "params", "", "directory of YAML parameter files")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "parameter effective date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to record the run in")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "row-phase worker count (default GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runExecute(opts *RunOptions, rulesDir string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loadResult, err := LoadRules(rulesDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	slog.Debug("rules compiled", "dir", rulesDir, "rules", len(loadResult.Variables))

	vars := loadResult.Variables
	if opts.ParamsDir != "" {
		paramVars, err := loadParamVariables(opts.ParamsDir, opts.AsOf)
		if err != nil {
			return outputLoadError(formatter, err)
		}
		slog.Debug("parameters resolved", "dir", opts.ParamsDir, "count", len(paramVars))
		// Parameters come first so a rule defining the same path wins.
		vars = append(paramVars, vars...)
	}

	order, err := deps.Order(vars)
	if err != nil {
		var cycleErr *deps.CycleError
		if errors.As(err, &cycleErr) {
			_ = formatter.Error(ErrCodeCycle, cycleErr.Error(), cycleErr.Paths)
			return WrapExitError(ExitFailure, "dependency cycle in rule set", err)
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "resolving execution order", err)
	}

	hash, err := ir.PlanHash(vars, order)
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing plan", err)
	}

	rows, err := loadDatasetRows(opts.Data, opts.Entity)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	slog.Debug("dataset loaded", "path", opts.Data, "entity", opts.Entity, "rows", len(rows))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := engine.Execute(ctx, vars, order, opts.Entity, rows, engine.WithWorkers(opts.Workers))
	if err != nil {
		return WrapExitError(ExitFailure, "executing rule set", err)
	}

	output := &RunOutput{
		PlanHash: hash,
		Entity:   opts.Entity,
		Scalars:  result.Scalars,
		Rows:     result.Rows,
	}

	if opts.Database != "" {
		runID, err := recordRun(ctx, opts, hash, result)
		if err != nil {
			return WrapExitError(ExitCommandError, "recording run", err)
		}
		output.RunID = runID
		slog.Info("run recorded", "id", runID, "db", opts.Database)
	}

	return outputRunResult(formatter, output)
}

// loadParamVariables resolves time-varying parameters at the given date
// and lifts them into literal scalar variables. Rules can reference them
// by path like any other variable.
func loadParamVariables(dir, asOf string) ([]ir.Variable, error) {
	ps := params.NewStore()
	if err := ps.LoadDir(dir); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("loading parameters: %v", err)}
	}

	at := time.Now().UTC()
	if asOf != "" {
		parsed, err := params.ParseDate(asOf)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("invalid --as-of date: %v", err)}
		}
		at = parsed
	}

	resolved := ps.Resolve(at)
	paths := make([]string, 0, len(resolved))
	for path := range resolved {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	vars := make([]ir.Variable, 0, len(paths))
	for _, path := range paths {
		vars = append(vars, ir.Variable{Path: path, Expr: ir.Literal{Value: resolved[path]}})
	}
	return vars, nil
}

// loadDatasetRows reads the dataset file and returns the rows for the
// given entity. An entity absent from the dataset yields zero rows, not
// an error; the scalar pass still runs.
func loadDatasetRows(path, entity string) ([]engine.Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading dataset: %v", err)}
	}
	dataset, err := engine.DecodeDataset(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing dataset: %v", err)}
	}
	return dataset[entity], nil
}

// recordRun persists the run and returns its ID.
func recordRun(ctx context.Context, opts *RunOptions, hash string, result *engine.Result) (string, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	src := opts.RunIDs
	if src == nil {
		src = store.UUIDv7Source{}
	}

	run := store.Run{
		ID:       src.NewRunID(),
		PlanHash: hash,
		Entity:   opts.Entity,
		AsOf:     opts.AsOf,
	}
	if err := st.WriteRun(ctx, run, result); err != nil {
		return "", err
	}
	return run.ID, nil
}

// outputRunResult renders the run output in the configured format.
func outputRunResult(formatter *OutputFormatter, output *RunOutput) error {
	if formatter.Format == "json" {
		return formatter.Success(output)
	}

	if output.RunID != "" {
		fmt.Fprintf(formatter.Writer, "Run %s\n", output.RunID)
	}
	fmt.Fprintf(formatter.Writer, "Plan %s\n\n", output.PlanHash)

	if len(output.Scalars) > 0 {
		fmt.Fprintln(formatter.Writer, "Scalars:")
		for _, path := range sortedBindingPaths(output.Scalars) {
			fmt.Fprintf(formatter.Writer, "  %s = %v\n", path, output.Scalars[path])
		}
		fmt.Fprintln(formatter.Writer)
	}

	fmt.Fprintf(formatter.Writer, "Rows (%d):\n", len(output.Rows))
	for i, row := range output.Rows {
		fmt.Fprintf(formatter.Writer, "  [%d]", i)
		for _, path := range sortedBindingPaths(row) {
			fmt.Fprintf(formatter.Writer, " %s=%v", path, row[path])
		}
		fmt.Fprintln(formatter.Writer)
	}

	return nil
}

// sortedBindingPaths returns binding paths in lexicographic order for
// stable text output.
func sortedBindingPaths(b engine.Bindings) []string {
	paths := make([]string, 0, len(b))
	for p := range b {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulesfoundation/rac/internal/engine"
	"github.com/rulesfoundation/rac/internal/query"
	"github.com/rulesfoundation/rac/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Where    []string
}

// RunRecord is the JSON shape of one stored run in listings.
type RunRecord struct {
	ID        string `json:"id"`
	PlanHash  string `json:"plan_hash"`
	Entity    string `json:"entity"`
	RowCount  int    `json:"row_count"`
	AsOf      string `json:"as_of,omitempty"`
	CreatedAt string `json:"created_at"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs or show one run's results",
		Long: `List the runs recorded in a database, newest first.

With a run ID, shows that run's stored scalars and row results instead,
index-aligned with the original dataset. One or more --where filters
restrict the shown rows; several filters must all hold.

Example:
  rac runs --db runs.db
  rac runs <run-id> --db runs.db --where "benefit > 0" --where "age >= 18"`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowRun(opts, args[0], cmd)
			}
			return runListRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, `row filter of the form "path op value" (repeatable)`)
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// openRunStore opens an existing run database; a missing file is a
// command error rather than an empty listing.
func openRunStore(opts *RunsOptions) (*store.Store, error) {
	if _, err := os.Stat(opts.Database); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database), err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening database", err)
	}
	return st, nil
}

func runListRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openRunStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "listing runs", err)
	}

	records := make([]RunRecord, len(runs))
	for i, r := range runs {
		records[i] = RunRecord{
			ID:        r.ID,
			PlanHash:  r.PlanHash,
			Entity:    r.Entity,
			RowCount:  r.RowCount,
			AsOf:      r.AsOf,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(formatter.Writer, "%s  %s  entity=%s rows=%d plan=%.12s\n",
			r.ID, r.CreatedAt, r.Entity, r.RowCount, r.PlanHash)
	}
	return nil
}

func runShowRun(opts *RunsOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openRunStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		return WrapExitError(ExitCommandError, "reading run", err)
	}

	result, err := st.ReadResult(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading run results", err)
	}

	if len(opts.Where) > 0 {
		return showFilteredRun(ctx, formatter, st, run, result, opts.Where)
	}

	return outputRunResult(formatter, &RunOutput{
		RunID:    run.ID,
		PlanHash: run.PlanHash,
		Entity:   run.Entity,
		Scalars:  result.Scalars,
		Rows:     result.Rows,
	})
}

// FilteredRunOutput is the result payload when --where filters apply.
// Rows aligns with Matched, which holds the original row indexes.
type FilteredRunOutput struct {
	RunID    string            `json:"run_id"`
	PlanHash string            `json:"plan_hash"`
	Entity   string            `json:"entity"`
	Total    int               `json:"total"`
	Matched  []int             `json:"matched"`
	Rows     []engine.Bindings `json:"rows"`
}

func showFilteredRun(ctx context.Context, formatter *OutputFormatter, st *store.Store, run *store.Run, result *engine.Result, where []string) error {
	pred, err := query.ParseAll(where)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parsing --where filter", err)
	}

	matched, err := st.FilterRowIndexes(ctx, run.ID, pred)
	if err != nil {
		return WrapExitError(ExitCommandError, "filtering rows", err)
	}

	output := &FilteredRunOutput{
		RunID:    run.ID,
		PlanHash: run.PlanHash,
		Entity:   run.Entity,
		Total:    len(result.Rows),
		Matched:  matched,
		Rows:     make([]engine.Bindings, 0, len(matched)),
	}
	for _, idx := range matched {
		output.Rows = append(output.Rows, result.Rows[idx])
	}

	if formatter.Format == "json" {
		return formatter.Success(output)
	}

	fmt.Fprintf(formatter.Writer, "Run %s\n", output.RunID)
	fmt.Fprintf(formatter.Writer, "Matched %d of %d row(s):\n", len(output.Matched), output.Total)
	for i, idx := range output.Matched {
		fmt.Fprintf(formatter.Writer, "  [%d]", idx)
		for _, path := range sortedBindingPaths(output.Rows[i]) {
			fmt.Fprintf(formatter.Writer, " %s=%v", path, output.Rows[i][path])
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}

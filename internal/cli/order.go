package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rulesfoundation/rac/internal/deps"
	"github.com/rulesfoundation/rac/internal/ir"
)

// OrderResult holds the resolved execution order of a rule set.
type OrderResult struct {
	Order []string `json:"order"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <rules-dir>",
		Short: "Resolve the evaluation order of a rule set",
		Long: `Resolve the dependency-sorted evaluation order of a rule set.

Each rule's variable references determine its dependencies. The order
lists every defined rule with dependencies before dependents; ties break
alphabetically so the order is stable across runs. Reports a cycle if
the rule set cannot be ordered.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runOrder(opts *RootOptions, rulesDir string, cmd *cobra.Command) error {
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

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, rulesDir)

	if opts.Verbose {
		graph := deps.FromVariables(loadResult.Variables)
		for _, v := range loadResult.Variables {
			formatter.VerboseLog("%s -> [%s]", v.Path, strings.Join(graph.Dependencies(v.Path), ", "))
		}
	}

	order, err := deps.Order(loadResult.Variables)
	if err != nil {
		var cycleErr *deps.CycleError
		if errors.As(err, &cycleErr) {
			_ = formatter.Error(ErrCodeCycle, cycleErr.Error(), cycleErr.Paths)
			return WrapExitError(ExitFailure, "dependency cycle in rule set", err)
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "resolving execution order", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(&OrderResult{Order: order})
	}

	for _, path := range order {
		fmt.Fprintln(formatter.Writer, path)
	}
	return nil
}

// primitiveInputs returns the referenced paths that no rule defines.
// These are the inputs the dataset (or parameters) must supply.
func primitiveInputs(vars []ir.Variable) []string {
	defined := make(map[string]bool, len(vars))
	for _, v := range vars {
		defined[v.Path] = true
	}
	seen := make(map[string]bool)
	var inputs []string
	for _, v := range vars {
		for _, ref := range ir.Refs(v.Expr) {
			if !defined[ref] && !seen[ref] {
				seen[ref] = true
				inputs = append(inputs, ref)
			}
		}
	}
	return inputs
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulesfoundation/rac/internal/deps"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	OrderFile string // optional JSON file with an explicit execution order to check
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool       `json:"valid"`
	Rules  int        `json:"rules"`
	Inputs []string   `json:"inputs,omitempty"` // referenced paths no rule defines
	Errors []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Validate a rule set without executing it",
		Long: `Validate CUE rule files without executing them.

Checks that the rule set compiles, that its dependency graph is acyclic,
and lists the primitive inputs the dataset must supply. With --order,
additionally checks that an explicit execution order covers every rule
with dependencies before dependents.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OrderFile, "order", "", "JSON file holding an explicit execution order to check")

	return cmd
}

func runValidate(opts *ValidateOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, err := LoadRules(rulesDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, rulesDir)

	result := &ValidationResult{
		Valid:  true,
		Rules:  len(loadResult.Variables),
		Inputs: primitiveInputs(loadResult.Variables),
	}

	if _, err := deps.Order(loadResult.Variables); err != nil {
		var cycleErr *deps.CycleError
		code := ErrCodeGeneric
		var details interface{}
		if errors.As(err, &cycleErr) {
			code = ErrCodeCycle
			details = cycleErr.Paths
		}
		result.Valid = false
		result.Errors = append(result.Errors, CLIError{Code: code, Message: err.Error(), Details: details})
	}

	if opts.OrderFile != "" {
		if err := checkOrderFile(loadResult, opts.OrderFile); err != nil {
			result.Valid = false
			code := ErrCodeInvalidOrder
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				code = loadErr.Code
			}
			result.Errors = append(result.Errors, CLIError{Code: code, Message: err.Error()})
		}
	}

	return outputValidationResult(formatter, result)
}

// checkOrderFile reads an explicit execution order from a JSON array and
// checks it against the rule set's dependency graph.
func checkOrderFile(loadResult *LoadResult, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading order file: %v", err)}
	}
	var order []string
	if err := json.Unmarshal(data, &order); err != nil {
		return &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing order file: %v", err)}
	}
	return deps.ValidateOrder(loadResult.Variables, order)
}

// outputValidationResult outputs the validation result and sets the exit
// code: 0 when valid, 1 when validation failed.
func outputValidationResult(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(formatter.Writer, "✓ %d rule(s) valid\n", result.Rules)
		if len(result.Inputs) > 0 {
			fmt.Fprintln(formatter.Writer, "Required inputs:")
			for _, input := range result.Inputs {
				fmt.Fprintf(formatter.Writer, "  %s\n", input)
			}
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", e.Code, e.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

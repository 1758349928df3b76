package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"bakehouse/internal/costing"
	"bakehouse/internal/report"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Costing failure (cycle, zero weight, invalid yield)
	ExitCommandError = 2 // Command error (bad arguments, unknown recipe, database unreachable)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not
// ExitErrors come from cobra's own argument and flag checks.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// costingError classifies an engine error: bad references are command errors,
// everything else the engine reports is a costing failure.
func costingError(message string, err error) *ExitError {
	switch {
	case errors.Is(err, costing.ErrUnknownReference), errors.Is(err, costing.ErrInvalidQuantity):
		return WrapExitError(ExitCommandError, message, err)
	case costing.IsRecoverable(err):
		return WrapExitError(ExitFailure, message, err)
	default:
		return WrapExitError(ExitCommandError, message, err)
	}
}

// render writes value as JSON or YAML, or hands off to text for the
// human-readable form.
func render(w io.Writer, format string, value any, text func(io.Writer) error) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

const (
	costLineFormat  = "  %-32s %-12s %10s %-6s %10s %10s\n"
	productFormat   = "  %-28s %10s %10s %7s %10s\n"
	usageFormat     = "  %-28s %10s %-6s %10s\n"
	subRecipeFormat = "  %-28s %10s %10s %10s\n"
	breakdownFormat = "  %-32s %-12s %10s %-6s %10s\n"
)

func writeCostText(w io.Writer, c report.Cost) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (recipe %d)\n", c.Name, c.RecipeID)
	fmt.Fprintf(&b, "  quantity       %s\n", c.Quantity)
	fmt.Fprintf(&b, "  composition    %s\n", c.Weight)
	fmt.Fprintf(&b, "  cost           %s\n", c.Cost)
	fmt.Fprintf(&b, "  yield          %s%%\n", c.YieldPercent)
	fmt.Fprintf(&b, "  adjusted cost  %s\n", c.AdjustedCost)
	fmt.Fprintf(&b, "  cost per unit  %s\n", c.CostPerWeight)

	b.WriteString("\n")
	fmt.Fprintf(&b, costLineFormat, "SOURCE", "INGREDIENT", "QUANTITY", "UNIT", "UNIT COST", "COST")
	for _, line := range c.Lines {
		fmt.Fprintf(&b, costLineFormat, line.Source, line.Name, line.Quantity, line.Unit, line.UnitCost, line.Cost)
	}
	writeList(&b, "issues", c.Issues)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeBatchText(w io.Writer, batch report.Batch) error {
	var b strings.Builder
	fmt.Fprintf(&b, "batch %s (%s)\n", batch.RunID, batch.RunDate.Format("2006-01-02 15:04 MST"))

	b.WriteString("\nproducts\n")
	fmt.Fprintf(&b, productFormat, "NAME", "QUANTITY", "COST", "YIELD", "ADJUSTED")
	for _, p := range batch.Products {
		fmt.Fprintf(&b, productFormat, p.Name, p.Quantity, p.Cost, p.YieldPercent+"%", p.AdjustedCost)
	}

	b.WriteString("\ningredients\n")
	fmt.Fprintf(&b, usageFormat, "NAME", "QUANTITY", "UNIT", "COST")
	for _, ing := range batch.Ingredients {
		fmt.Fprintf(&b, usageFormat, ing.Name, ing.Quantity, ing.Unit, ing.Cost)
	}

	if len(batch.SubRecipes) > 0 {
		b.WriteString("\nsub-recipes\n")
		fmt.Fprintf(&b, subRecipeFormat, "NAME", "QUANTITY", "UNIT COST", "TOTAL")
		for _, sub := range batch.SubRecipes {
			fmt.Fprintf(&b, subRecipeFormat, sub.Name, sub.Quantity, sub.UnitCost, sub.TotalCost)
		}
	}

	b.WriteString("\nbreakdown\n")
	fmt.Fprintf(&b, breakdownFormat, "SOURCE", "INGREDIENT", "QUANTITY", "UNIT", "COST")
	for _, line := range batch.Breakdown {
		fmt.Fprintf(&b, breakdownFormat, line.Source, line.Name, line.Quantity, line.Unit, line.Cost)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "total cost     %s\n", batch.TotalCost)
	fmt.Fprintf(&b, "adjusted cost  %s\n", batch.AdjustedCost)
	writeList(&b, "warnings", batch.Warnings)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

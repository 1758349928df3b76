package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bakehouse/internal/costing"
	"bakehouse/internal/report"
)

// CostOptions holds flags for the cost command.
type CostOptions struct {
	*RootOptions
	Quantity float64
	Pieces   float64
}

// NewCostCommand creates the cost command.
func NewCostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cost <recipe>",
		Short: "Resolve the cost of one recipe",
		Long: `Resolve a recipe down to its leaf ingredients and print the cost of
every ingredient line with its provenance path.

The recipe is given by id or name. Without --quantity or --pieces a single
piece, one full composition, is costed.

Example:
  bakectl cost "Chocolate Cake" --pieces 3
  bakectl cost 1 --quantity 1600 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCost(cmd, opts, args[0])
		},
	}

	cmd.Flags().Float64Var(&opts.Quantity, "quantity", 0, "quantity in working units")
	cmd.Flags().Float64Var(&opts.Pieces, "pieces", 0, "number of whole compositions")
	cmd.MarkFlagsMutuallyExclusive("quantity", "pieces")

	return cmd
}

func runCost(cmd *cobra.Command, opts *CostOptions, ref string) error {
	ctx := cmd.Context()
	if opts.Quantity < 0 || opts.Pieces < 0 {
		return NewExitError(ExitCommandError, "quantity and pieces must not be negative")
	}

	snap, err := opts.loadSnapshot(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	id, err := resolveRecipe(ctx, snap, ref)
	if err != nil {
		return err
	}

	resolver := costing.NewResolver(snap)
	quantity := opts.Quantity
	if !cmd.Flags().Changed("quantity") {
		pieces := opts.Pieces
		if !cmd.Flags().Changed("pieces") {
			pieces = 1
		}
		quantity, err = resolver.PiecesToQuantity(ctx, id, pieces)
		if err != nil {
			return costingError(fmt.Sprintf("convert %v pieces", pieces), err)
		}
	}

	res, err := resolver.Resolve(ctx, id, quantity)
	if err != nil {
		return costingError("cost recipe", err)
	}
	info, err := snap.Recipe(ctx, id)
	if err != nil {
		return costingError("cost recipe", err)
	}

	out := report.FromResolution(res, info.YieldPercent)
	return render(cmd.OutOrStdout(), opts.Format, out, func(w io.Writer) error {
		return writeCostText(w, out)
	})
}

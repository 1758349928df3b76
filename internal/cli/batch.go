package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bakehouse/internal/costing"
	"bakehouse/internal/report"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Pieces bool
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <recipe>=<amount>...",
		Short: "Aggregate a production batch",
		Long: `Resolve several finished products at once and print the combined
ingredient usage, sub-recipe consumption and cost.

Amounts are working quantities unless --pieces is given. A product listed
twice is ordered once with the amounts summed. Products that cannot be
costed are listed as warnings and left out of the totals.

Example:
  bakectl batch "Chocolate Cake=1550" "Vanilla Sponge Cake=810"
  bakectl batch --pieces 3=2 4=1 --format yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Pieces, "pieces", false, "read amounts as whole compositions")

	return cmd
}

type batchArg struct {
	ref    string
	amount float64
}

func parseBatchArgs(args []string) ([]batchArg, error) {
	out := make([]batchArg, 0, len(args))
	for _, arg := range args {
		idx := strings.LastIndex(arg, "=")
		if idx <= 0 || idx == len(arg)-1 {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid order %q: expected <recipe>=<amount>", arg))
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(arg[idx+1:]), 64)
		if err != nil || amount <= 0 {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid amount in %q: must be a positive number", arg))
		}
		out = append(out, batchArg{ref: arg[:idx], amount: amount})
	}
	return out, nil
}

func runBatch(cmd *cobra.Command, opts *BatchOptions, args []string) error {
	ctx := cmd.Context()
	parsed, err := parseBatchArgs(args)
	if err != nil {
		return err
	}

	snap, err := opts.loadSnapshot(ctx, opts.RootOptions)
	if err != nil {
		return err
	}

	resolver := costing.NewResolver(snap)
	orders := make(map[uint]float64, len(parsed))
	for _, arg := range parsed {
		id, err := resolveRecipe(ctx, snap, arg.ref)
		if err != nil {
			return err
		}
		quantity := arg.amount
		if opts.Pieces {
			quantity, err = resolver.PiecesToQuantity(ctx, id, arg.amount)
			if err != nil && !costing.IsRecoverable(err) {
				return WrapExitError(ExitCommandError, "convert pieces", err)
			}
		}
		orders[id] += quantity
	}

	result, err := costing.NewAggregator(snap, costing.WithConcurrency(opts.Concurrency)).Aggregate(ctx, orders)
	if err != nil {
		return WrapExitError(ExitCommandError, "aggregate batch", err)
	}

	out := report.FromBatch(result, opts.newRunID(), opts.now())
	return render(cmd.OutOrStdout(), opts.Format, out, func(w io.Writer) error {
		return writeBatchText(w, out)
	})
}

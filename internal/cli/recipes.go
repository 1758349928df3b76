package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bakehouse/internal/costing"
	"bakehouse/internal/report"
)

// NewRecipesCommand creates the recipes command.
func NewRecipesCommand(rootOpts *RootOptions) *cobra.Command {
	var finishedOnly bool

	cmd := &cobra.Command{
		Use:           "recipes",
		Short:         "List recipes with the cost of one piece",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipes(cmd, rootOpts, finishedOnly)
		},
	}

	cmd.Flags().BoolVar(&finishedOnly, "finished", false, "only list finished products")

	return cmd
}

type recipeRow struct {
	RecipeID      uint   `json:"recipe_id" yaml:"recipe_id"`
	Name          string `json:"name" yaml:"name"`
	Finished      bool   `json:"finished" yaml:"finished"`
	Weight        string `json:"weight,omitempty" yaml:"weight,omitempty"`
	Cost          string `json:"cost,omitempty" yaml:"cost,omitempty"`
	AdjustedCost  string `json:"adjusted_cost,omitempty" yaml:"adjusted_cost,omitempty"`
	CostPerWeight string `json:"cost_per_weight,omitempty" yaml:"cost_per_weight,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

const recipeRowFormat = "  %4s  %-28s %-8s %10s %10s %10s\n"

func runRecipes(cmd *cobra.Command, opts *RootOptions, finishedOnly bool) error {
	ctx := cmd.Context()
	snap, err := opts.loadSnapshot(ctx, opts)
	if err != nil {
		return err
	}

	resolver := costing.NewResolver(snap)
	rows := make([]recipeRow, 0)
	for _, id := range snap.RecipeIDs() {
		info, err := snap.Recipe(ctx, id)
		if err != nil {
			return costingError("load recipe", err)
		}
		if finishedOnly && !info.Finished {
			continue
		}
		row := recipeRow{RecipeID: id, Name: info.Name, Finished: info.Finished}
		product, err := resolver.ProductCost(ctx, id)
		switch {
		case err == nil:
			row.Weight = report.Quantity(product.Weight)
			row.Cost = report.Money(product.BaseCost)
			row.AdjustedCost = report.Money(product.AdjustedCost)
			row.CostPerWeight = report.UnitCost(product.CostPerWeight)
		case costing.IsRecoverable(err):
			row.Error = err.Error()
		default:
			return costingError("cost recipe", err)
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RecipeID < rows[j].RecipeID })

	return render(cmd.OutOrStdout(), opts.Format, rows, func(w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, recipeRowFormat, "ID", "NAME", "KIND", "WEIGHT", "COST", "ADJUSTED")
		for _, row := range rows {
			kind := "base"
			if row.Finished {
				kind = "finished"
			}
			if row.Error != "" {
				fmt.Fprintf(&b, recipeRowFormat, strconv.FormatUint(uint64(row.RecipeID), 10), row.Name, kind, "-", "-", "-")
				continue
			}
			fmt.Fprintf(&b, recipeRowFormat, strconv.FormatUint(uint64(row.RecipeID), 10), row.Name, kind, row.Weight, row.Cost, row.AdjustedCost)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

package costing

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// IngredientTotal is the batch-wide usage of one ingredient.
type IngredientTotal struct {
	IngredientID uint
	Name         string
	Unit         string
	Quantity     float64
	Cost         float64
}

// SubRecipeUsage is the batch-wide consumption of one intermediate recipe.
type SubRecipeUsage struct {
	RecipeID  uint
	Name      string
	Quantity  float64
	UnitCost  float64
	TotalCost float64
}

// BreakdownLine is the usage of one ingredient under one provenance path.
type BreakdownLine struct {
	Source       string
	IngredientID uint
	Name         string
	Unit         string
	Quantity     float64
	Cost         float64
}

// ProductResult is the resolved cost of one requested finished product.
type ProductResult struct {
	RecipeID     uint
	Name         string
	Quantity     float64
	Cost         float64
	YieldPercent float64
	AdjustedCost float64
}

// Warning flags a product, or a branch of one, that could not be fully costed.
type Warning struct {
	RecipeID uint
	Name     string
	Err      error
}

func (w Warning) String() string {
	if w.Name != "" {
		return w.Name + ": " + w.Err.Error()
	}
	return w.Err.Error()
}

// BatchResult is the aggregate of several resolved finished products.
type BatchResult struct {
	Products    []ProductResult
	Ingredients map[uint]IngredientTotal
	SubRecipes  []SubRecipeUsage
	Breakdown   []BreakdownLine
	TotalCost   float64
	Warnings    []Warning
}

// SortedIngredients returns the ingredient totals ordered by name, then id.
func (b *BatchResult) SortedIngredients() []IngredientTotal {
	out := make([]IngredientTotal, 0, len(b.Ingredients))
	for _, total := range b.Ingredients {
		out = append(out, total)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].IngredientID < out[j].IngredientID
	})
	return out
}

// BreakdownCost sums the detailed breakdown. It always equals TotalCost up to
// floating point rounding.
func (b *BatchResult) BreakdownCost() float64 {
	total := 0.0
	for _, line := range b.Breakdown {
		total += line.Cost
	}
	return total
}

// AdjustedCost sums the yield-adjusted cost of every resolved product.
func (b *BatchResult) AdjustedCost() float64 {
	total := 0.0
	for _, p := range b.Products {
		total += p.AdjustedCost
	}
	return total
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency bounds how many products resolve at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// Aggregator resolves a batch of finished products and merges the results.
// The repository must support concurrent reads.
type Aggregator struct {
	repo        Repository
	concurrency int
}

// NewAggregator builds an Aggregator over repo.
func NewAggregator(repo Repository, opts ...Option) *Aggregator {
	a := &Aggregator{repo: repo, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type productOutcome struct {
	resolution Resolution
	info       RecipeInfo
	err        error
}

type breakdownKey struct {
	source       string
	ingredientID uint
}

// Aggregate resolves every (recipe id, quantity) order. Products that cannot
// be resolved are reported in Warnings and left out of the totals; only
// context cancellation or a repository failure aborts the batch.
func (a *Aggregator) Aggregate(ctx context.Context, orders map[uint]float64) (*BatchResult, error) {
	ids := make([]uint, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	outcomes := make([]productOutcome, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			resolution, err := NewResolver(a.repo).Resolve(gctx, id, orders[id])
			if err != nil && !IsRecoverable(err) {
				return err
			}
			info, infoErr := a.repo.Recipe(gctx, id)
			if infoErr != nil && !IsRecoverable(infoErr) {
				return infoErr
			}
			outcomes[i] = productOutcome{resolution: resolution, info: info, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BatchResult{Ingredients: make(map[uint]IngredientTotal)}
	unitCosts := NewResolver(a.repo)
	subRecipes := make(map[uint]*SubRecipeUsage)
	breakdown := make(map[breakdownKey]*BreakdownLine)
	var breakdownOrder []breakdownKey

	for i, id := range ids {
		outcome := outcomes[i]
		name := outcome.resolution.Name
		if name == "" {
			name = outcome.info.Name
		}
		if outcome.err != nil {
			result.Warnings = append(result.Warnings, Warning{RecipeID: id, Name: name, Err: outcome.err})
			continue
		}
		for _, issue := range outcome.resolution.Issues {
			result.Warnings = append(result.Warnings, Warning{RecipeID: id, Name: name, Err: issue})
		}

		for _, c := range outcome.resolution.Contributions {
			total := result.Ingredients[c.IngredientID]
			total.IngredientID = c.IngredientID
			total.Name = c.Name
			total.Unit = c.Unit
			total.Quantity += c.Quantity
			total.Cost += c.Cost
			result.Ingredients[c.IngredientID] = total

			key := breakdownKey{source: c.Source(), ingredientID: c.IngredientID}
			line, ok := breakdown[key]
			if !ok {
				line = &BreakdownLine{Source: key.source, IngredientID: c.IngredientID, Name: c.Name, Unit: c.Unit}
				breakdown[key] = line
				breakdownOrder = append(breakdownOrder, key)
			}
			line.Quantity += c.Quantity
			line.Cost += c.Cost
		}

		for _, use := range outcome.resolution.SubRecipes {
			usage, ok := subRecipes[use.RecipeID]
			if !ok {
				totals, err := unitCosts.WeightAndCost(ctx, use.RecipeID)
				if err != nil && !IsRecoverable(err) {
					return nil, err
				}
				usage = &SubRecipeUsage{RecipeID: use.RecipeID, Name: use.Name, UnitCost: totals.UnitCost()}
				subRecipes[use.RecipeID] = usage
			}
			usage.Quantity += use.Quantity
		}

		cost := outcome.resolution.Cost()
		adjusted, err := AdjustForYield(cost, outcome.info.YieldPercent)
		if err != nil {
			result.Warnings = append(result.Warnings, Warning{RecipeID: id, Name: name, Err: err})
			adjusted = cost
		}
		result.Products = append(result.Products, ProductResult{
			RecipeID:     id,
			Name:         name,
			Quantity:     outcome.resolution.Quantity,
			Cost:         cost,
			YieldPercent: outcome.info.YieldPercent,
			AdjustedCost: adjusted,
		})
	}

	ingredientIDs := make([]uint, 0, len(result.Ingredients))
	for id := range result.Ingredients {
		ingredientIDs = append(ingredientIDs, id)
	}
	sort.Slice(ingredientIDs, func(i, j int) bool { return ingredientIDs[i] < ingredientIDs[j] })
	for _, id := range ingredientIDs {
		result.TotalCost += result.Ingredients[id].Cost
	}

	for _, usage := range subRecipes {
		usage.TotalCost = usage.Quantity * usage.UnitCost
		result.SubRecipes = append(result.SubRecipes, *usage)
	}
	sort.Slice(result.SubRecipes, func(i, j int) bool {
		return result.SubRecipes[i].RecipeID < result.SubRecipes[j].RecipeID
	})

	for _, key := range breakdownOrder {
		result.Breakdown = append(result.Breakdown, *breakdown[key])
	}
	sort.SliceStable(result.Breakdown, func(i, j int) bool {
		if result.Breakdown[i].Source != result.Breakdown[j].Source {
			return result.Breakdown[i].Source < result.Breakdown[j].Source
		}
		return result.Breakdown[i].IngredientID < result.Breakdown[j].IngredientID
	})

	return result, nil
}

package costing

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Totals is the intrinsic weight and cost of one recipe's own composition.
type Totals struct {
	Weight float64
	Cost   float64
}

// Resolvable reports whether proportions can be computed for the recipe.
func (t Totals) Resolvable() bool {
	return t.Weight > 0
}

// UnitCost is the cost per unit of weight, or zero for an unresolvable recipe.
func (t Totals) UnitCost() float64 {
	if !t.Resolvable() {
		return 0
	}
	return t.Cost / t.Weight
}

// Contribution is one leaf ingredient usage scaled to a requested quantity.
type Contribution struct {
	Path         []string
	IngredientID uint
	Name         string
	Unit         string
	Quantity     float64
	UnitCost     float64
	Cost         float64
}

// Source renders the provenance path of the contribution.
func (c Contribution) Source() string {
	return JoinPath(c.Path)
}

// SubRecipeUse records one nested recipe edge crossed during resolution.
// ParentPath is the provenance path of the recipe that consumed it.
type SubRecipeUse struct {
	RecipeID   uint
	Name       string
	ParentPath []string
	Quantity   float64
}

// Resolution is the flattened bill of materials for one recipe at one
// requested quantity.
type Resolution struct {
	RecipeID      uint
	Name          string
	Quantity      float64
	Totals        Totals
	Contributions []Contribution
	SubRecipes    []SubRecipeUse
	Issues        []*Issue
}

// Cost sums the contribution costs.
func (r Resolution) Cost() float64 {
	total := 0.0
	for _, c := range r.Contributions {
		total += c.Cost
	}
	return total
}

// Weight sums the contribution quantities.
func (r Resolution) Weight() float64 {
	total := 0.0
	for _, c := range r.Contributions {
		total += c.Quantity
	}
	return total
}

func (r *Resolution) addIssue(issue *Issue) {
	key := issue.key()
	for _, existing := range r.Issues {
		if existing.key() == key {
			return
		}
	}
	r.Issues = append(r.Issues, issue)
}

// Resolver computes recipe costs against a Repository. A Resolver memoizes
// per recipe id and is meant to live for a single resolution pass over an
// unchanging repository; it is not safe for concurrent use.
type Resolver struct {
	repo   Repository
	memo   map[uint]Totals
	active map[uint]bool
	issues []*Issue
	seen   map[string]bool
}

// NewResolver returns a resolver with an empty memo.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{
		repo:   repo,
		memo:   make(map[uint]Totals),
		active: make(map[uint]bool),
		seen:   make(map[string]bool),
	}
}

// Issues returns the recoverable problems met while computing totals.
func (r *Resolver) Issues() []*Issue {
	return r.issues
}

func (r *Resolver) record(issue *Issue) {
	key := issue.key()
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.issues = append(r.issues, issue)
}

// WeightAndCost returns the total weight and cost of the recipe's own
// composition. Every component quantity counts toward the weight. Nested
// recipes are costed at their own cost per unit weight, which is zero for a
// nested recipe of zero weight. Ingredients without a price, or that no
// longer exist, contribute weight but no cost.
func (r *Resolver) WeightAndCost(ctx context.Context, recipeID uint) (Totals, error) {
	if totals, ok := r.memo[recipeID]; ok {
		return totals, nil
	}
	if r.active[recipeID] {
		return Totals{}, newIssue(ErrCyclicDefinition, recipeID, 0, nil)
	}
	if err := ctx.Err(); err != nil {
		return Totals{}, err
	}

	r.active[recipeID] = true
	defer delete(r.active, recipeID)

	direct, err := r.repo.DirectComponents(ctx, recipeID)
	if err != nil {
		return Totals{}, err
	}
	nested, err := r.repo.NestedComponents(ctx, recipeID)
	if err != nil {
		return Totals{}, err
	}

	var totals Totals
	for _, line := range direct {
		totals.Weight += line.Quantity
		info, err := r.repo.Ingredient(ctx, line.IngredientID)
		if err != nil {
			if errors.Is(err, ErrUnknownReference) {
				r.record(newIssue(ErrUnknownReference, recipeID, line.IngredientID, nil))
				continue
			}
			return Totals{}, err
		}
		if !info.Priced {
			r.record(newIssue(ErrMissingIngredientPrice, recipeID, line.IngredientID, nil))
			continue
		}
		totals.Cost += line.Quantity * info.UnitPrice
	}

	for _, line := range nested {
		totals.Weight += line.Quantity
		child, err := r.WeightAndCost(ctx, line.RecipeID)
		if err != nil {
			if isMissingRecipe(err, line.RecipeID) {
				r.record(newIssue(ErrUnknownReference, line.RecipeID, 0, nil))
				continue
			}
			return Totals{}, err
		}
		totals.Cost += line.Quantity * child.UnitCost()
	}

	r.memo[recipeID] = totals
	return totals, nil
}

// Resolve explodes the recipe into leaf ingredient contributions scaled to
// quantity units of the recipe. Proportions are always taken against the
// immediate parent's weight and multiplied down from the root.
//
// A root of zero weight yields no contributions and an ErrZeroWeightRecipe
// error. Problems confined to a branch are recorded in Resolution.Issues and
// the rest of the tree still resolves.
func (r *Resolver) Resolve(ctx context.Context, recipeID uint, quantity float64) (Resolution, error) {
	res := Resolution{RecipeID: recipeID, Quantity: quantity}
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity < 0 {
		return res, fmt.Errorf("%w: %v", ErrInvalidQuantity, quantity)
	}

	totals, err := r.WeightAndCost(ctx, recipeID)
	if err != nil {
		return res, err
	}
	res.Totals = totals

	name, err := r.repo.RecipeName(ctx, recipeID)
	if err != nil {
		return res, err
	}
	res.Name = name

	path := []string{name}
	if !totals.Resolvable() {
		return res, newIssue(ErrZeroWeightRecipe, recipeID, 0, path)
	}

	if err := r.explode(ctx, recipeID, quantity, path, make(map[uint]bool), &res); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Resolver) explode(ctx context.Context, recipeID uint, quantity float64, path []string, active map[uint]bool, res *Resolution) error {
	if active[recipeID] {
		return newIssue(ErrCyclicDefinition, recipeID, 0, path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	active[recipeID] = true
	defer delete(active, recipeID)

	totals, err := r.WeightAndCost(ctx, recipeID)
	if err != nil {
		return err
	}

	direct, err := r.repo.DirectComponents(ctx, recipeID)
	if err != nil {
		return err
	}
	nested, err := r.repo.NestedComponents(ctx, recipeID)
	if err != nil {
		return err
	}

	for _, line := range direct {
		share := line.Quantity / totals.Weight * quantity
		info, err := r.repo.Ingredient(ctx, line.IngredientID)
		if err != nil {
			if errors.Is(err, ErrUnknownReference) {
				res.addIssue(newIssue(ErrUnknownReference, recipeID, line.IngredientID, path))
				continue
			}
			return err
		}
		contribution := Contribution{
			Path:         clonePath(path),
			IngredientID: line.IngredientID,
			Name:         info.Name,
			Unit:         info.Unit,
			Quantity:     share,
		}
		if info.Priced {
			contribution.UnitCost = info.UnitPrice
			contribution.Cost = share * info.UnitPrice
		} else {
			res.addIssue(newIssue(ErrMissingIngredientPrice, recipeID, line.IngredientID, path))
		}
		res.Contributions = append(res.Contributions, contribution)
	}

	for _, line := range nested {
		share := line.Quantity / totals.Weight * quantity
		name, err := r.repo.RecipeName(ctx, line.RecipeID)
		if err != nil {
			if errors.Is(err, ErrUnknownReference) {
				res.addIssue(newIssue(ErrUnknownReference, line.RecipeID, 0, path))
				continue
			}
			return err
		}
		childPath := appendPath(path, name)
		res.SubRecipes = append(res.SubRecipes, SubRecipeUse{
			RecipeID:   line.RecipeID,
			Name:       name,
			ParentPath: clonePath(path),
			Quantity:   share,
		})

		child, err := r.WeightAndCost(ctx, line.RecipeID)
		if err != nil {
			return err
		}
		if !child.Resolvable() {
			res.addIssue(newIssue(ErrZeroWeightRecipe, line.RecipeID, 0, childPath))
			continue
		}
		if err := r.explode(ctx, line.RecipeID, share, childPath, active, res); err != nil {
			return err
		}
	}
	return nil
}

// PiecesToQuantity converts a count of finished pieces into the recipe's
// working quantity, one piece being the recipe's full composition.
func (r *Resolver) PiecesToQuantity(ctx context.Context, recipeID uint, pieces float64) (float64, error) {
	if math.IsNaN(pieces) || math.IsInf(pieces, 0) || pieces < 0 {
		return 0, fmt.Errorf("%w: %v pieces", ErrInvalidQuantity, pieces)
	}
	totals, err := r.WeightAndCost(ctx, recipeID)
	if err != nil {
		return 0, err
	}
	if !totals.Resolvable() {
		return 0, newIssue(ErrZeroWeightRecipe, recipeID, 0, nil)
	}
	return pieces * totals.Weight, nil
}

// ProductCost summarises the sellable cost of one unit of a recipe's
// composition.
type ProductCost struct {
	RecipeID      uint
	Name          string
	Finished      bool
	Weight        float64
	BaseCost      float64
	YieldPercent  float64
	AdjustedCost  float64
	CostPerWeight float64
}

// ProductCost costs one unit of the recipe's composition and applies its
// yield percentage.
func (r *Resolver) ProductCost(ctx context.Context, recipeID uint) (ProductCost, error) {
	info, err := r.repo.Recipe(ctx, recipeID)
	if err != nil {
		return ProductCost{}, err
	}
	totals, err := r.WeightAndCost(ctx, recipeID)
	if err != nil {
		return ProductCost{}, err
	}
	if !totals.Resolvable() {
		return ProductCost{}, newIssue(ErrZeroWeightRecipe, recipeID, 0, []string{info.Name})
	}
	adjusted, err := AdjustForYield(totals.Cost, info.YieldPercent)
	if err != nil {
		return ProductCost{}, err
	}
	return ProductCost{
		RecipeID:      recipeID,
		Name:          info.Name,
		Finished:      info.Finished,
		Weight:        totals.Weight,
		BaseCost:      totals.Cost,
		YieldPercent:  info.YieldPercent,
		AdjustedCost:  adjusted,
		CostPerWeight: CostPerWeight(adjusted, totals.Weight),
	}, nil
}

func isMissingRecipe(err error, recipeID uint) bool {
	if !errors.Is(err, ErrUnknownReference) {
		return false
	}
	var issue *Issue
	if errors.As(err, &issue) {
		return issue.RecipeID == recipeID
	}
	return true
}

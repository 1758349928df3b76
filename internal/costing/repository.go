package costing

import (
	"context"
	"strings"
)

// ComponentRef points a recipe component at its child. It is either an
// IngredientRef or a RecipeRef.
type ComponentRef interface {
	componentRef()
}

// IngredientRef references a leaf ingredient.
type IngredientRef uint

// RecipeRef references a nested sub-recipe.
type RecipeRef uint

func (IngredientRef) componentRef() {}
func (RecipeRef) componentRef()     {}

// Component is one edge of the recipe graph.
type Component struct {
	Ref      ComponentRef
	Quantity float64
}

// IngredientLine is a direct ingredient component of a recipe.
type IngredientLine struct {
	IngredientID uint
	Quantity     float64
}

// RecipeLine is a nested sub-recipe component of a recipe.
type RecipeLine struct {
	RecipeID uint
	Quantity float64
}

// IngredientInfo is the pricing view of an ingredient. Priced is false when
// the ingredient exists but has no unit price recorded.
type IngredientInfo struct {
	Name      string
	Unit      string
	UnitPrice float64
	Priced    bool
}

// RecipeInfo carries the recipe metadata the engine reports on.
type RecipeInfo struct {
	Name         string
	Finished     bool
	YieldPercent float64
}

// Repository is the read-only source of recipe definitions. Lookups of ids
// that do not exist return an error wrapping ErrUnknownReference.
type Repository interface {
	DirectComponents(ctx context.Context, recipeID uint) ([]IngredientLine, error)
	NestedComponents(ctx context.Context, recipeID uint) ([]RecipeLine, error)
	Ingredient(ctx context.Context, ingredientID uint) (IngredientInfo, error)
	RecipeName(ctx context.Context, recipeID uint) (string, error)
	Recipe(ctx context.Context, recipeID uint) (RecipeInfo, error)
}

// PathSeparator joins provenance path segments for display.
const PathSeparator = " → "

// JoinPath renders a provenance path, e.g. "Cake → Ganache".
func JoinPath(path []string) string {
	return strings.Join(path, PathSeparator)
}

func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}

func appendPath(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}

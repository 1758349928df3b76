package costing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrZeroWeightRecipe       = errors.New("costing: recipe has zero total weight")
	ErrCyclicDefinition       = errors.New("costing: cyclic recipe definition")
	ErrMissingIngredientPrice = errors.New("costing: ingredient has no unit price")
	ErrUnknownReference       = errors.New("costing: unknown reference")
	ErrInvalidQuantity        = errors.New("costing: invalid quantity")
	ErrInvalidYield           = errors.New("costing: invalid yield percentage")
)

// Issue describes a recoverable problem found while resolving a recipe tree.
// It unwraps to one of the sentinel errors above.
type Issue struct {
	Kind         error
	RecipeID     uint
	IngredientID uint
	Path         []string
}

func (i *Issue) Error() string {
	var b strings.Builder
	b.WriteString(i.Kind.Error())
	if i.RecipeID != 0 {
		fmt.Fprintf(&b, " (recipe %d)", i.RecipeID)
	}
	if i.IngredientID != 0 {
		fmt.Fprintf(&b, " (ingredient %d)", i.IngredientID)
	}
	if len(i.Path) > 0 {
		fmt.Fprintf(&b, " at %s", JoinPath(i.Path))
	}
	return b.String()
}

func (i *Issue) Unwrap() error {
	return i.Kind
}

func (i *Issue) key() string {
	return fmt.Sprintf("%p|%d|%d|%s", i.Kind, i.RecipeID, i.IngredientID, JoinPath(i.Path))
}

func newIssue(kind error, recipeID, ingredientID uint, path []string) *Issue {
	return &Issue{
		Kind:         kind,
		RecipeID:     recipeID,
		IngredientID: ingredientID,
		Path:         clonePath(path),
	}
}

// IsRecoverable reports whether err is one of the per-recipe conditions a
// batch can skip past. Context cancellation and storage failures are not.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrZeroWeightRecipe) ||
		errors.Is(err, ErrCyclicDefinition) ||
		errors.Is(err, ErrMissingIngredientPrice) ||
		errors.Is(err, ErrUnknownReference) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidYield)
}

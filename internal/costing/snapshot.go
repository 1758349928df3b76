package costing

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Snapshot is an in-memory Repository. Populate it with the Add methods,
// then treat it as read-only: once shared, a Snapshot is safe for concurrent
// readers.
type Snapshot struct {
	ingredients map[uint]IngredientInfo
	recipes     map[uint]RecipeInfo
	components  map[uint][]Component
}

var _ Repository = (*Snapshot)(nil)

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ingredients: make(map[uint]IngredientInfo),
		recipes:     make(map[uint]RecipeInfo),
		components:  make(map[uint][]Component),
	}
}

// AddIngredient registers an ingredient.
func (s *Snapshot) AddIngredient(id uint, info IngredientInfo) {
	s.ingredients[id] = info
}

// AddRecipe registers a recipe.
func (s *Snapshot) AddRecipe(id uint, info RecipeInfo) {
	s.recipes[id] = info
}

// AddComponent appends a component to the recipe identified by parentID.
func (s *Snapshot) AddComponent(parentID uint, component Component) {
	s.components[parentID] = append(s.components[parentID], component)
}

// Components returns the components of a recipe in insertion order.
func (s *Snapshot) Components(recipeID uint) []Component {
	return s.components[recipeID]
}

// RecipeIDs returns all recipe ids in ascending order.
func (s *Snapshot) RecipeIDs() []uint {
	ids := make([]uint, 0, len(s.recipes))
	for id := range s.recipes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FindRecipe looks a recipe up by case-insensitive name.
func (s *Snapshot) FindRecipe(name string) (uint, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	for _, id := range s.RecipeIDs() {
		if strings.ToLower(strings.TrimSpace(s.recipes[id].Name)) == target {
			return id, true
		}
	}
	return 0, false
}

// Reaches reports whether target is reachable from start through nested
// recipe edges. A recipe always reaches itself.
func (s *Snapshot) Reaches(start, target uint) bool {
	seen := make(map[uint]bool)
	stack := []uint{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, c := range s.components[id] {
			if ref, ok := c.Ref.(RecipeRef); ok {
				stack = append(stack, uint(ref))
			}
		}
	}
	return false
}

func (s *Snapshot) DirectComponents(_ context.Context, recipeID uint) ([]IngredientLine, error) {
	if _, ok := s.recipes[recipeID]; !ok {
		return nil, fmt.Errorf("recipe %d: %w", recipeID, ErrUnknownReference)
	}
	var lines []IngredientLine
	for _, c := range s.components[recipeID] {
		if ref, ok := c.Ref.(IngredientRef); ok {
			lines = append(lines, IngredientLine{IngredientID: uint(ref), Quantity: c.Quantity})
		}
	}
	return lines, nil
}

func (s *Snapshot) NestedComponents(_ context.Context, recipeID uint) ([]RecipeLine, error) {
	if _, ok := s.recipes[recipeID]; !ok {
		return nil, fmt.Errorf("recipe %d: %w", recipeID, ErrUnknownReference)
	}
	var lines []RecipeLine
	for _, c := range s.components[recipeID] {
		if ref, ok := c.Ref.(RecipeRef); ok {
			lines = append(lines, RecipeLine{RecipeID: uint(ref), Quantity: c.Quantity})
		}
	}
	return lines, nil
}

func (s *Snapshot) Ingredient(_ context.Context, ingredientID uint) (IngredientInfo, error) {
	info, ok := s.ingredients[ingredientID]
	if !ok {
		return IngredientInfo{}, fmt.Errorf("ingredient %d: %w", ingredientID, ErrUnknownReference)
	}
	return info, nil
}

func (s *Snapshot) RecipeName(_ context.Context, recipeID uint) (string, error) {
	info, ok := s.recipes[recipeID]
	if !ok {
		return "", fmt.Errorf("recipe %d: %w", recipeID, ErrUnknownReference)
	}
	return info.Name, nil
}

func (s *Snapshot) Recipe(_ context.Context, recipeID uint) (RecipeInfo, error) {
	info, ok := s.recipes[recipeID]
	if !ok {
		return RecipeInfo{}, fmt.Errorf("recipe %d: %w", recipeID, ErrUnknownReference)
	}
	return info, nil
}

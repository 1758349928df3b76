package store

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	"bakehouse/internal/costing"
	"bakehouse/models"
)

func (s *Store) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *Store) GetIngredient(ctx context.Context, id uint) (models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).First(&ingredient, id).Error
	return ingredient, translate(err, "ingredient", id)
}

func (s *Store) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	if err := validateIngredient(ingredient); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		return translate(err, "ingredient", 0)
	}
	s.Invalidate()
	return nil
}

func (s *Store) UpdateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	if err := validateIngredient(ingredient); err != nil {
		return err
	}
	if _, err := s.GetIngredient(ctx, ingredient.ID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id = ?", ingredient.ID).
		Select("name", "unit", "unit_price", "notes").
		Updates(ingredient).Error
	if err != nil {
		return translate(err, "ingredient", ingredient.ID)
	}
	s.Invalidate()
	return nil
}

func (s *Store) DeleteIngredient(ctx context.Context, id uint) error {
	if _, err := s.GetIngredient(ctx, id); err != nil {
		return err
	}
	var refs int64
	if err := s.db.WithContext(ctx).Model(&models.RecipeComponent{}).Where("ingredient_id = ?", id).Count(&refs).Error; err != nil {
		return fmt.Errorf("count ingredient references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("ingredient %d: %w", id, ErrInUse)
	}
	if err := s.db.WithContext(ctx).Unscoped().Delete(&models.Ingredient{}, id).Error; err != nil {
		return fmt.Errorf("delete ingredient %d: %w", id, err)
	}
	s.Invalidate()
	return nil
}

func (s *Store) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).Order("name asc").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipe loads a recipe together with its components and their targets.
func (s *Store) GetRecipe(ctx context.Context, id uint) (models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Components.Ingredient").
		Preload("Components.SubRecipe").
		First(&recipe, id).Error
	return recipe, translate(err, "recipe", id)
}

func (s *Store) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	if err := validateRecipe(recipe); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Omit("Components").Create(recipe).Error; err != nil {
		return translate(err, "recipe", 0)
	}
	s.Invalidate()
	return nil
}

func (s *Store) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	if err := validateRecipe(recipe); err != nil {
		return err
	}
	if err := s.exists(ctx, &models.Recipe{}, recipe.ID, "recipe"); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipe.ID).
		Select("name", "notes", "finished", "yield_percent").
		Updates(recipe).Error
	if err != nil {
		return translate(err, "recipe", recipe.ID)
	}
	s.Invalidate()
	return nil
}

// DeleteRecipe removes a recipe and its own components. Recipes still used as
// a sub-recipe elsewhere are refused with ErrInUse.
func (s *Store) DeleteRecipe(ctx context.Context, id uint) error {
	if err := s.exists(ctx, &models.Recipe{}, id, "recipe"); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.RecipeComponent{}).Where("sub_recipe_id = ?", id).Count(&refs).Error; err != nil {
			return fmt.Errorf("count recipe references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("recipe %d: %w", id, ErrInUse)
		}
		if err := tx.Unscoped().Where("recipe_id = ?", id).Delete(&models.RecipeComponent{}).Error; err != nil {
			return fmt.Errorf("delete recipe components: %w", err)
		}
		if err := tx.Unscoped().Delete(&models.Recipe{}, id).Error; err != nil {
			return fmt.Errorf("delete recipe %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

func (s *Store) GetComponent(ctx context.Context, id uint) (models.RecipeComponent, error) {
	var component models.RecipeComponent
	err := s.db.WithContext(ctx).Preload("Ingredient").Preload("SubRecipe").First(&component, id).Error
	return component, translate(err, "component", id)
}

// AddComponent attaches an ingredient or sub-recipe to a recipe. References
// must exist and a sub-recipe must not close a cycle.
func (s *Store) AddComponent(ctx context.Context, component *models.RecipeComponent) error {
	if err := s.checkComponent(ctx, component); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Omit("Ingredient", "SubRecipe").Create(component).Error; err != nil {
		return translate(err, "component", 0)
	}
	s.Invalidate()
	return nil
}

// UpdateComponent changes the quantity or target of an existing component.
// The parent recipe is fixed.
func (s *Store) UpdateComponent(ctx context.Context, component *models.RecipeComponent) error {
	existing, err := s.GetComponent(ctx, component.ID)
	if err != nil {
		return err
	}
	component.RecipeID = existing.RecipeID
	if err := s.checkComponent(ctx, component); err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&models.RecipeComponent{}).Where("id = ?", component.ID).
		Updates(map[string]any{
			"quantity":      component.Quantity,
			"ingredient_id": component.IngredientID,
			"sub_recipe_id": component.SubRecipeID,
		}).Error
	if err != nil {
		return translate(err, "component", component.ID)
	}
	s.Invalidate()
	return nil
}

func (s *Store) DeleteComponent(ctx context.Context, id uint) error {
	if err := s.exists(ctx, &models.RecipeComponent{}, id, "component"); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Unscoped().Delete(&models.RecipeComponent{}, id).Error; err != nil {
		return fmt.Errorf("delete component %d: %w", id, err)
	}
	s.Invalidate()
	return nil
}

func (s *Store) checkComponent(ctx context.Context, component *models.RecipeComponent) error {
	if math.IsNaN(component.Quantity) || math.IsInf(component.Quantity, 0) || component.Quantity <= 0 {
		return fmt.Errorf("%w: component quantity %v", costing.ErrInvalidQuantity, component.Quantity)
	}
	ref, err := componentRef(*component)
	if err != nil {
		return err
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, err := snap.Recipe(ctx, component.RecipeID); err != nil {
		return err
	}

	switch ref := ref.(type) {
	case costing.IngredientRef:
		if _, err := snap.Ingredient(ctx, uint(ref)); err != nil {
			return err
		}
	case costing.RecipeRef:
		child := uint(ref)
		if _, err := snap.Recipe(ctx, child); err != nil {
			return err
		}
		if snap.Reaches(child, component.RecipeID) {
			return fmt.Errorf("recipe %d cannot contain recipe %d: %w", component.RecipeID, child, costing.ErrCyclicDefinition)
		}
	}
	return nil
}

func (s *Store) exists(ctx context.Context, model any, id uint, kind string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("look up %s %d: %w", kind, id, err)
	}
	if count == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, costing.ErrUnknownReference)
	}
	return nil
}

func validateIngredient(ingredient *models.Ingredient) error {
	ingredient.Name = strings.TrimSpace(ingredient.Name)
	ingredient.Unit = strings.TrimSpace(ingredient.Unit)
	if ingredient.Name == "" {
		return fmt.Errorf("%w: ingredient name must not be empty", ErrInvalidRecord)
	}
	if ingredient.Unit == "" {
		ingredient.Unit = "gram"
	}
	if p := ingredient.UnitPrice; p != nil && (math.IsNaN(*p) || math.IsInf(*p, 0) || *p < 0) {
		return fmt.Errorf("%w: ingredient %q unit price must be a non-negative number", ErrInvalidRecord, ingredient.Name)
	}
	return nil
}

func validateRecipe(recipe *models.Recipe) error {
	recipe.Name = strings.TrimSpace(recipe.Name)
	if recipe.Name == "" {
		return fmt.Errorf("%w: recipe name must not be empty", ErrInvalidRecord)
	}
	if y := recipe.YieldPercent; math.IsNaN(y) || math.IsInf(y, 0) || y < 0 {
		return fmt.Errorf("recipe %q: %w", recipe.Name, costing.ErrInvalidYield)
	}
	return nil
}

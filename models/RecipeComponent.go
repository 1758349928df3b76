package models

import (
	"gorm.io/gorm"
)

type RecipeComponent struct {
	gorm.Model
	RecipeID uint    `gorm:"not null;index" json:"recipe_id"` // Parent Recipe
	Quantity float64 `gorm:"not null" json:"quantity"`

	// Exactly one of these is set.
	IngredientID *uint `json:"ingredient_id,omitempty"`
	SubRecipeID  *uint `json:"sub_recipe_id,omitempty"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
	SubRecipe  *Recipe     `gorm:"foreignKey:SubRecipeID" json:"sub_recipe,omitempty"`
}

// IsSubRecipe reports whether the component references a nested recipe.
func (c RecipeComponent) IsSubRecipe() bool {
	return c.SubRecipeID != nil && *c.SubRecipeID != 0
}

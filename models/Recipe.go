package models

import (
	"gorm.io/gorm"
)

// Recipe is either an intermediate sub-recipe or a finished product offered
// for production.
type Recipe struct {
	gorm.Model
	Name         string            `gorm:"uniqueIndex;not null" json:"name"`
	Notes        string            `gorm:"type:text" json:"notes"`
	Finished     bool              `gorm:"not null;default:false" json:"finished"`
	YieldPercent float64           `gorm:"not null;default:0" json:"yield_percent"`
	Components   []RecipeComponent `gorm:"foreignKey:RecipeID" json:"components"`
}

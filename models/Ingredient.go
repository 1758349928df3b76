package models

import (
	"gorm.io/gorm"
)

type Ingredient struct {
	gorm.Model
	Name      string   `gorm:"uniqueIndex;not null" json:"name"`
	Unit      string   `gorm:"not null;default:gram" json:"unit"`
	UnitPrice *float64 `json:"unit_price"` // nil until a price is recorded
	Notes     string   `gorm:"type:text" json:"notes"`
}

// Priced reports whether a unit price has been recorded.
func (i Ingredient) Priced() bool {
	return i.UnitPrice != nil
}

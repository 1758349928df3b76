package mock

import (
	"context"
	"testing"

	"bakehouse/models"
)

func TestNewSeedsExpectedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := NewIsolated(ctx, "mock-seed-test")
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	var ingredients []models.Ingredient
	if err := db.WithContext(ctx).Find(&ingredients).Error; err != nil {
		t.Fatalf("query ingredients: %v", err)
	}
	if len(ingredients) != 7 {
		t.Fatalf("expected 7 seeded ingredients, got %d", len(ingredients))
	}

	var unpriced int
	for _, ingredient := range ingredients {
		if !ingredient.Priced() {
			unpriced++
		}
	}
	if unpriced != 1 {
		t.Fatalf("expected exactly one unpriced ingredient, got %d", unpriced)
	}

	var cake models.Recipe
	if err := db.WithContext(ctx).Preload("Components").Where("name = ?", "Chocolate Cake").First(&cake).Error; err != nil {
		t.Fatalf("query chocolate cake: %v", err)
	}
	if !cake.Finished {
		t.Fatal("expected chocolate cake to be a finished product")
	}
	if len(cake.Components) != 3 {
		t.Fatalf("expected 3 chocolate cake components, got %d", len(cake.Components))
	}
}

func TestNewIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, err := NewIsolated(ctx, "mock-idempotent-test"); err != nil {
		t.Fatalf("first initialization failed: %v", err)
	}
	db, err := NewIsolated(ctx, "mock-idempotent-test")
	if err != nil {
		t.Fatalf("second initialization failed: %v", err)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Recipe{}).Count(&count).Error; err != nil {
		t.Fatalf("count recipes: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 recipes after reopening, got %d", count)
	}
}

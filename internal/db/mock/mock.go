package mock

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bakehouse/internal/db"
	applog "bakehouse/internal/log"
	"bakehouse/models"
)

// New returns an in-memory sqlite database seeded with a small bakery catalog.
func New(ctx context.Context) (*gorm.DB, error) {
	return open(ctx, "file:bakehouse-mock?mode=memory&cache=shared")
}

// NewIsolated is New with a database private to name, for tests that must not
// share rows.
func NewIsolated(ctx context.Context, name string) (*gorm.DB, error) {
	return open(ctx, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

func open(ctx context.Context, dsn string) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database", "dsn", dsn)

	database, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(logger.Silent))
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx, database); err != nil {
		return nil, err
	}

	var count int64
	if err := database.WithContext(ctx).Model(&models.Recipe{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		if err := seed(ctx, database); err != nil {
			return nil, err
		}
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func price(v float64) *float64 { return &v }

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	return database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flour := models.Ingredient{Name: "Flour", Unit: "gram", UnitPrice: price(0.002), Notes: "Type 55 wheat flour."}
		sugar := models.Ingredient{Name: "Sugar", Unit: "gram", UnitPrice: price(0.003)}
		butter := models.Ingredient{Name: "Butter", Unit: "gram", UnitPrice: price(0.012), Notes: "Unsalted, 82% fat."}
		eggs := models.Ingredient{Name: "Eggs", Unit: "gram", UnitPrice: price(0.006)}
		cocoa := models.Ingredient{Name: "Cocoa", Unit: "gram", UnitPrice: price(0.018)}
		cream := models.Ingredient{Name: "Cream", Unit: "gram", UnitPrice: price(0.005)}
		vanilla := models.Ingredient{Name: "Vanilla", Unit: "gram", Notes: "Awaiting supplier quote."}

		ingredients := []*models.Ingredient{&flour, &sugar, &butter, &eggs, &cocoa, &cream, &vanilla}
		for _, ingredient := range ingredients {
			if err := tx.Create(ingredient).Error; err != nil {
				return err
			}
		}

		sponge := models.Recipe{Name: "Sponge Base", Notes: "Genoise used under every layer cake."}
		ganache := models.Recipe{Name: "Ganache"}
		chocolate := models.Recipe{Name: "Chocolate Cake", Finished: true, YieldPercent: 5}
		vanillaCake := models.Recipe{Name: "Vanilla Sponge Cake", Finished: true, YieldPercent: 8}

		for _, recipe := range []*models.Recipe{&sponge, &ganache, &chocolate, &vanillaCake} {
			if err := tx.Create(recipe).Error; err != nil {
				return err
			}
		}

		components := []models.RecipeComponent{
			{RecipeID: sponge.ID, Quantity: 250, IngredientID: &flour.ID},
			{RecipeID: sponge.ID, Quantity: 250, IngredientID: &sugar.ID},
			{RecipeID: sponge.ID, Quantity: 300, IngredientID: &eggs.ID},
			{RecipeID: ganache.ID, Quantity: 200, IngredientID: &cocoa.ID},
			{RecipeID: ganache.ID, Quantity: 300, IngredientID: &cream.ID},
			{RecipeID: chocolate.ID, Quantity: 250, IngredientID: &butter.ID},
			{RecipeID: chocolate.ID, Quantity: 800, SubRecipeID: &sponge.ID},
			{RecipeID: chocolate.ID, Quantity: 500, SubRecipeID: &ganache.ID},
			{RecipeID: vanillaCake.ID, Quantity: 800, SubRecipeID: &sponge.ID},
			{RecipeID: vanillaCake.ID, Quantity: 10, IngredientID: &vanilla.ID},
		}

		for i := range components {
			if err := tx.Create(&components[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

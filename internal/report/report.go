// Package report turns engine results into rounded, presentation-ready rows
// shared by the HTML report, the JSON API and the CLI.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bakehouse/internal/costing"
)

// Money renders a currency amount with two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Quantity renders a working quantity with two decimals.
func Quantity(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// UnitCost renders a per-unit price with four decimals.
func UnitCost(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

// Percent renders a percentage with one decimal.
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}

// NewRunID returns a fresh identifier for a report run.
func NewRunID() string {
	return uuid.NewString()
}

type Product struct {
	RecipeID     uint   `json:"recipe_id" yaml:"recipe_id"`
	Name         string `json:"name" yaml:"name"`
	Quantity     string `json:"quantity" yaml:"quantity"`
	Cost         string `json:"cost" yaml:"cost"`
	YieldPercent string `json:"yield_percent" yaml:"yield_percent"`
	AdjustedCost string `json:"adjusted_cost" yaml:"adjusted_cost"`
}

type Ingredient struct {
	IngredientID uint   `json:"ingredient_id" yaml:"ingredient_id"`
	Name         string `json:"name" yaml:"name"`
	Unit         string `json:"unit" yaml:"unit"`
	Quantity     string `json:"quantity" yaml:"quantity"`
	Cost         string `json:"cost" yaml:"cost"`
}

type SubRecipe struct {
	RecipeID  uint   `json:"recipe_id" yaml:"recipe_id"`
	Name      string `json:"name" yaml:"name"`
	Quantity  string `json:"quantity" yaml:"quantity"`
	UnitCost  string `json:"unit_cost" yaml:"unit_cost"`
	TotalCost string `json:"total_cost" yaml:"total_cost"`
}

type BreakdownLine struct {
	Source       string `json:"source" yaml:"source"`
	IngredientID uint   `json:"ingredient_id" yaml:"ingredient_id"`
	Name         string `json:"name" yaml:"name"`
	Unit         string `json:"unit" yaml:"unit"`
	Quantity     string `json:"quantity" yaml:"quantity"`
	Cost         string `json:"cost" yaml:"cost"`
}

// Batch is the rendered form of a costing.BatchResult.
type Batch struct {
	RunID        string          `json:"run_id" yaml:"run_id"`
	RunDate      time.Time       `json:"run_date" yaml:"run_date"`
	Products     []Product       `json:"products" yaml:"products"`
	Ingredients  []Ingredient    `json:"ingredients" yaml:"ingredients"`
	SubRecipes   []SubRecipe     `json:"sub_recipes" yaml:"sub_recipes"`
	Breakdown    []BreakdownLine `json:"breakdown" yaml:"breakdown"`
	TotalCost    string          `json:"total_cost" yaml:"total_cost"`
	AdjustedCost string          `json:"adjusted_cost" yaml:"adjusted_cost"`
	Warnings     []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FromBatch renders result. Ingredients are listed by name.
func FromBatch(result *costing.BatchResult, runID string, runDate time.Time) Batch {
	out := Batch{
		RunID:        runID,
		RunDate:      runDate.UTC(),
		Products:     make([]Product, 0, len(result.Products)),
		Ingredients:  make([]Ingredient, 0, len(result.Ingredients)),
		SubRecipes:   make([]SubRecipe, 0, len(result.SubRecipes)),
		Breakdown:    make([]BreakdownLine, 0, len(result.Breakdown)),
		TotalCost:    Money(result.TotalCost),
		AdjustedCost: Money(result.AdjustedCost()),
	}
	for _, p := range result.Products {
		out.Products = append(out.Products, Product{
			RecipeID:     p.RecipeID,
			Name:         p.Name,
			Quantity:     Quantity(p.Quantity),
			Cost:         Money(p.Cost),
			YieldPercent: Percent(p.YieldPercent),
			AdjustedCost: Money(p.AdjustedCost),
		})
	}
	for _, total := range result.SortedIngredients() {
		out.Ingredients = append(out.Ingredients, Ingredient{
			IngredientID: total.IngredientID,
			Name:         total.Name,
			Unit:         total.Unit,
			Quantity:     Quantity(total.Quantity),
			Cost:         Money(total.Cost),
		})
	}
	for _, usage := range result.SubRecipes {
		out.SubRecipes = append(out.SubRecipes, SubRecipe{
			RecipeID:  usage.RecipeID,
			Name:      usage.Name,
			Quantity:  Quantity(usage.Quantity),
			UnitCost:  UnitCost(usage.UnitCost),
			TotalCost: Money(usage.TotalCost),
		})
	}
	for _, line := range result.Breakdown {
		out.Breakdown = append(out.Breakdown, BreakdownLine{
			Source:       line.Source,
			IngredientID: line.IngredientID,
			Name:         line.Name,
			Unit:         line.Unit,
			Quantity:     Quantity(line.Quantity),
			Cost:         Money(line.Cost),
		})
	}
	for _, w := range result.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	return out
}

type Line struct {
	Source       string `json:"source" yaml:"source"`
	IngredientID uint   `json:"ingredient_id" yaml:"ingredient_id"`
	Name         string `json:"name" yaml:"name"`
	Unit         string `json:"unit" yaml:"unit"`
	Quantity     string `json:"quantity" yaml:"quantity"`
	UnitCost     string `json:"unit_cost" yaml:"unit_cost"`
	Cost         string `json:"cost" yaml:"cost"`
}

// Cost is the rendered form of one recipe resolved at one quantity.
type Cost struct {
	RecipeID      uint     `json:"recipe_id" yaml:"recipe_id"`
	Name          string   `json:"name" yaml:"name"`
	Quantity      string   `json:"quantity" yaml:"quantity"`
	Weight        string   `json:"weight" yaml:"weight"`
	Cost          string   `json:"cost" yaml:"cost"`
	YieldPercent  string   `json:"yield_percent" yaml:"yield_percent"`
	AdjustedCost  string   `json:"adjusted_cost" yaml:"adjusted_cost"`
	CostPerWeight string   `json:"cost_per_weight" yaml:"cost_per_weight"`
	Lines         []Line   `json:"lines" yaml:"lines"`
	Issues        []string `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// FromResolution renders res. yieldPercent is applied to the resolved cost;
// an invalid yield leaves the adjusted cost equal to the base cost.
func FromResolution(res costing.Resolution, yieldPercent float64) Cost {
	cost := res.Cost()
	adjusted, err := costing.AdjustForYield(cost, yieldPercent)
	if err != nil {
		adjusted = cost
	}
	out := Cost{
		RecipeID:      res.RecipeID,
		Name:          res.Name,
		Quantity:      Quantity(res.Quantity),
		Weight:        Quantity(res.Totals.Weight),
		Cost:          Money(cost),
		YieldPercent:  Percent(yieldPercent),
		AdjustedCost:  Money(adjusted),
		CostPerWeight: UnitCost(costing.CostPerWeight(adjusted, res.Quantity)),
		Lines:         make([]Line, 0, len(res.Contributions)),
	}
	for _, c := range res.Contributions {
		out.Lines = append(out.Lines, Line{
			Source:       c.Source(),
			IngredientID: c.IngredientID,
			Name:         c.Name,
			Unit:         c.Unit,
			Quantity:     Quantity(c.Quantity),
			UnitCost:     UnitCost(c.UnitCost),
			Cost:         Money(c.Cost),
		})
	}
	for _, issue := range res.Issues {
		out.Issues = append(out.Issues, issue.Error())
	}
	return out
}

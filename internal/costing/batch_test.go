package costing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSingleProduct(t *testing.T) {
	ctx := context.Background()
	result, err := NewAggregator(bakerySnapshot()).Aggregate(ctx, map[uint]float64{cakeID: 2000})
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	require.Len(t, result.Ingredients, 2)
	assert.InDelta(t, 1000, result.Ingredients[flourID].Quantity, tolerance)
	assert.InDelta(t, 20, result.Ingredients[flourID].Cost, tolerance)
	assert.InDelta(t, 1000, result.Ingredients[sugarID].Quantity, tolerance)
	assert.InDelta(t, 30, result.Ingredients[sugarID].Cost, tolerance)
	assert.InDelta(t, 50, result.TotalCost, tolerance)

	require.Len(t, result.Products, 1)
	assert.Equal(t, "Cake", result.Products[0].Name)
	assert.InDelta(t, 50, result.Products[0].Cost, tolerance)
	assert.InDelta(t, 55, result.Products[0].AdjustedCost, tolerance)

	require.Len(t, result.SubRecipes, 1)
	assert.Equal(t, "Base", result.SubRecipes[0].Name)
	assert.InDelta(t, 2000, result.SubRecipes[0].Quantity, tolerance)
	assert.InDelta(t, 0.025, result.SubRecipes[0].UnitCost, tolerance)
	assert.InDelta(t, 50, result.SubRecipes[0].TotalCost, tolerance)
}

func TestAggregateIsAdditive(t *testing.T) {
	ctx := context.Background()
	snap := bakerySnapshot()

	cake, err := NewResolver(snap).Resolve(ctx, cakeID, 3000)
	require.NoError(t, err)
	chocolate, err := NewResolver(snap).Resolve(ctx, chocolateCakeID, 925)
	require.NoError(t, err)

	want := make(map[uint]IngredientTotal)
	for _, res := range []Resolution{cake, chocolate} {
		for id, c := range byIngredient(res) {
			total := want[id]
			total.Quantity += c.Quantity
			total.Cost += c.Cost
			want[id] = total
		}
	}

	result, err := NewAggregator(snap).Aggregate(ctx, map[uint]float64{cakeID: 3000, chocolateCakeID: 925})
	require.NoError(t, err)
	require.Len(t, result.Ingredients, len(want))
	for id, total := range want {
		assert.InDelta(t, total.Quantity, result.Ingredients[id].Quantity, 1e-6, "ingredient %d", id)
		assert.InDelta(t, total.Cost, result.Ingredients[id].Cost, 1e-6, "ingredient %d", id)
	}
	assert.InDelta(t, cake.Cost()+chocolate.Cost(), result.TotalCost, 1e-6)
}

func TestAggregateTotalsMatchBreakdown(t *testing.T) {
	ctx := context.Background()
	result, err := NewAggregator(bakerySnapshot()).Aggregate(ctx, map[uint]float64{
		cakeID:          1234.5,
		chocolateCakeID: 3700,
		ganacheID:       80,
	})
	require.NoError(t, err)
	assert.InDelta(t, result.TotalCost, result.BreakdownCost(), 1e-6)

	seen := make(map[breakdownKey]bool)
	for _, line := range result.Breakdown {
		key := breakdownKey{source: line.Source, ingredientID: line.IngredientID}
		assert.False(t, seen[key], "duplicate breakdown line %v", key)
		seen[key] = true
	}
}

func TestAggregateSummarisesNestedSubRecipes(t *testing.T) {
	ctx := context.Background()
	result, err := NewAggregator(bakerySnapshot()).Aggregate(ctx, map[uint]float64{chocolateCakeID: 1850})
	require.NoError(t, err)

	require.Len(t, result.SubRecipes, 2)
	base, ganache := result.SubRecipes[0], result.SubRecipes[1]
	assert.Equal(t, baseID, base.RecipeID)
	assert.InDelta(t, 1100, base.Quantity, 1e-9)
	assert.InDelta(t, 27.5, base.TotalCost, 1e-9)
	assert.Equal(t, ganacheID, ganache.RecipeID)
	assert.InDelta(t, 600, ganache.Quantity, 1e-9)
	assert.InDelta(t, 41.5/600, ganache.UnitCost, 1e-12)
}

func TestAggregateSkipsBrokenProducts(t *testing.T) {
	ctx := context.Background()
	s := bakerySnapshot()
	s.AddRecipe(40, RecipeInfo{Name: "Ouroboros", Finished: true})
	s.AddComponent(40, Component{Ref: RecipeRef(40), Quantity: 1})
	s.AddRecipe(41, RecipeInfo{Name: "Air Cake", Finished: true})

	result, err := NewAggregator(s).Aggregate(ctx, map[uint]float64{
		cakeID: 2000,
		40:     10,
		41:     10,
		999:    10,
	})
	require.NoError(t, err)
	assert.InDelta(t, 50, result.TotalCost, tolerance)
	require.Len(t, result.Products, 1)

	require.Len(t, result.Warnings, 3)
	assert.ErrorIs(t, result.Warnings[0].Err, ErrCyclicDefinition)
	assert.Equal(t, "Ouroboros", result.Warnings[0].Name)
	assert.ErrorIs(t, result.Warnings[1].Err, ErrZeroWeightRecipe)
	assert.ErrorIs(t, result.Warnings[2].Err, ErrUnknownReference)
	assert.Equal(t, uint(999), result.Warnings[2].RecipeID)
}

func TestAggregateSurfacesBranchIssues(t *testing.T) {
	ctx := context.Background()
	s := bakerySnapshot()
	s.AddRecipe(50, RecipeInfo{Name: "Empty"})
	s.AddRecipe(51, RecipeInfo{Name: "Layer Cake", Finished: true})
	s.AddComponent(51, Component{Ref: RecipeRef(baseID), Quantity: 100})
	s.AddComponent(51, Component{Ref: RecipeRef(50), Quantity: 100})

	result, err := NewAggregator(s).Aggregate(ctx, map[uint]float64{51: 200})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	require.Len(t, result.Warnings, 1)
	assert.ErrorIs(t, result.Warnings[0].Err, ErrZeroWeightRecipe)
	assert.InDelta(t, 2.5, result.TotalCost, tolerance)
}

func TestAggregateIsIndependentOfConcurrency(t *testing.T) {
	ctx := context.Background()
	orders := map[uint]float64{cakeID: 500, chocolateCakeID: 750, ganacheID: 60, baseID: 10}

	serial, err := NewAggregator(bakerySnapshot(), WithConcurrency(1)).Aggregate(ctx, orders)
	require.NoError(t, err)
	parallel, err := NewAggregator(bakerySnapshot(), WithConcurrency(8)).Aggregate(ctx, orders)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestAggregateStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAggregator(bakerySnapshot()).Aggregate(ctx, map[uint]float64{cakeID: 1})
	require.ErrorIs(t, err, context.Canceled)
}

package costing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

const (
	flourID  uint = 1
	sugarID  uint = 2
	butterID uint = 3
	cocoaID  uint = 4
	creamID  uint = 5

	baseID          uint = 10
	ganacheID       uint = 11
	cakeID          uint = 20
	chocolateCakeID uint = 21
)

func priced(name string, price float64) IngredientInfo {
	return IngredientInfo{Name: name, Unit: "gram", UnitPrice: price, Priced: true}
}

// bakerySnapshot builds:
//
//	Base           = 500 Flour + 500 Sugar
//	Ganache        = 200 Cocoa + 300 Cream + 100 Base
//	Cake           = 2000 Base                         (yield 10%)
//	Chocolate Cake = 250 Butter + 1000 Base + 600 Ganache (yield 5%)
func bakerySnapshot() *Snapshot {
	s := NewSnapshot()
	s.AddIngredient(flourID, priced("Flour", 0.02))
	s.AddIngredient(sugarID, priced("Sugar", 0.03))
	s.AddIngredient(butterID, priced("Butter", 0.08))
	s.AddIngredient(cocoaID, priced("Cocoa", 0.12))
	s.AddIngredient(creamID, priced("Cream", 0.05))

	s.AddRecipe(baseID, RecipeInfo{Name: "Base"})
	s.AddComponent(baseID, Component{Ref: IngredientRef(flourID), Quantity: 500})
	s.AddComponent(baseID, Component{Ref: IngredientRef(sugarID), Quantity: 500})

	s.AddRecipe(ganacheID, RecipeInfo{Name: "Ganache"})
	s.AddComponent(ganacheID, Component{Ref: IngredientRef(cocoaID), Quantity: 200})
	s.AddComponent(ganacheID, Component{Ref: IngredientRef(creamID), Quantity: 300})
	s.AddComponent(ganacheID, Component{Ref: RecipeRef(baseID), Quantity: 100})

	s.AddRecipe(cakeID, RecipeInfo{Name: "Cake", Finished: true, YieldPercent: 10})
	s.AddComponent(cakeID, Component{Ref: RecipeRef(baseID), Quantity: 2000})

	s.AddRecipe(chocolateCakeID, RecipeInfo{Name: "Chocolate Cake", Finished: true, YieldPercent: 5})
	s.AddComponent(chocolateCakeID, Component{Ref: IngredientRef(butterID), Quantity: 250})
	s.AddComponent(chocolateCakeID, Component{Ref: RecipeRef(baseID), Quantity: 1000})
	s.AddComponent(chocolateCakeID, Component{Ref: RecipeRef(ganacheID), Quantity: 600})
	return s
}

func byIngredient(res Resolution) map[uint]Contribution {
	out := make(map[uint]Contribution)
	for _, c := range res.Contributions {
		agg := out[c.IngredientID]
		agg.IngredientID = c.IngredientID
		agg.Name = c.Name
		agg.Quantity += c.Quantity
		agg.Cost += c.Cost
		out[c.IngredientID] = agg
	}
	return out
}

func TestWeightAndCostBase(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(bakerySnapshot())

	totals, err := r.WeightAndCost(ctx, baseID)
	require.NoError(t, err)
	assert.InDelta(t, 1000, totals.Weight, tolerance)
	assert.InDelta(t, 25.0, totals.Cost, tolerance)
	assert.InDelta(t, 0.025, totals.UnitCost(), tolerance)
}

func TestWeightAndCostNestedAndShared(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(bakerySnapshot())

	ganache, err := r.WeightAndCost(ctx, ganacheID)
	require.NoError(t, err)
	assert.InDelta(t, 600, ganache.Weight, tolerance)
	assert.InDelta(t, 41.5, ganache.Cost, tolerance)

	chocolate, err := r.WeightAndCost(ctx, chocolateCakeID)
	require.NoError(t, err)
	assert.InDelta(t, 1850, chocolate.Weight, tolerance)
	assert.InDelta(t, 86.5, chocolate.Cost, tolerance)
}

func TestWeightAndCostIsIdempotent(t *testing.T) {
	ctx := context.Background()
	snap := bakerySnapshot()

	first, err := NewResolver(snap).WeightAndCost(ctx, chocolateCakeID)
	require.NoError(t, err)

	r := NewResolver(snap)
	for i := 0; i < 3; i++ {
		again, err := r.WeightAndCost(ctx, chocolateCakeID)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolveCakeScenario(t *testing.T) {
	ctx := context.Background()
	res, err := NewResolver(bakerySnapshot()).Resolve(ctx, cakeID, 2000)
	require.NoError(t, err)
	require.Empty(t, res.Issues)

	totals := byIngredient(res)
	require.Len(t, totals, 2)
	assert.InDelta(t, 1000, totals[flourID].Quantity, tolerance)
	assert.InDelta(t, 20.0, totals[flourID].Cost, tolerance)
	assert.InDelta(t, 1000, totals[sugarID].Quantity, tolerance)
	assert.InDelta(t, 30.0, totals[sugarID].Cost, tolerance)
	assert.InDelta(t, 50.0, res.Cost(), tolerance)

	for _, c := range res.Contributions {
		assert.Equal(t, "Cake → Base", c.Source())
	}
}

func TestResolveAtIntrinsicWeightReproducesTotals(t *testing.T) {
	ctx := context.Background()
	snap := bakerySnapshot()

	for _, id := range []uint{baseID, ganacheID, cakeID, chocolateCakeID} {
		r := NewResolver(snap)
		totals, err := r.WeightAndCost(ctx, id)
		require.NoError(t, err)

		res, err := r.Resolve(ctx, id, totals.Weight)
		require.NoError(t, err)
		assert.InDelta(t, totals.Weight, res.Weight(), 1e-6, "recipe %d weight", id)
		assert.InDelta(t, totals.Cost, res.Cost(), 1e-6, "recipe %d cost", id)
	}
}

func TestResolveIsLinear(t *testing.T) {
	ctx := context.Background()
	snap := bakerySnapshot()

	base, err := NewResolver(snap).Resolve(ctx, chocolateCakeID, 400)
	require.NoError(t, err)

	for _, k := range []float64{0.5, 3, 12.25} {
		scaled, err := NewResolver(snap).Resolve(ctx, chocolateCakeID, 400*k)
		require.NoError(t, err)
		require.Len(t, scaled.Contributions, len(base.Contributions))
		for i := range base.Contributions {
			assert.Equal(t, base.Contributions[i].Path, scaled.Contributions[i].Path)
			assert.InDelta(t, base.Contributions[i].Quantity*k, scaled.Contributions[i].Quantity, 1e-9)
			assert.InDelta(t, base.Contributions[i].Cost*k, scaled.Contributions[i].Cost, 1e-9)
		}
	}
}

func TestResolveTracksProvenanceAndSubRecipes(t *testing.T) {
	ctx := context.Background()
	res, err := NewResolver(bakerySnapshot()).Resolve(ctx, chocolateCakeID, 1850)
	require.NoError(t, err)

	sources := make(map[string]int)
	for _, c := range res.Contributions {
		sources[c.Source()]++
	}
	assert.Equal(t, map[string]int{
		"Chocolate Cake":                  1,
		"Chocolate Cake → Base":           2,
		"Chocolate Cake → Ganache":        2,
		"Chocolate Cake → Ganache → Base": 2,
	}, sources)

	require.Len(t, res.SubRecipes, 3)
	assert.Equal(t, baseID, res.SubRecipes[0].RecipeID)
	assert.InDelta(t, 1000, res.SubRecipes[0].Quantity, tolerance)
	assert.Equal(t, ganacheID, res.SubRecipes[1].RecipeID)
	assert.InDelta(t, 600, res.SubRecipes[1].Quantity, tolerance)
	assert.Equal(t, baseID, res.SubRecipes[2].RecipeID)
	assert.Equal(t, []string{"Chocolate Cake", "Ganache"}, res.SubRecipes[2].ParentPath)
	assert.InDelta(t, 100, res.SubRecipes[2].Quantity, tolerance)
}

func TestResolveDetectsCycles(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshot()
	s.AddIngredient(flourID, priced("Flour", 0.02))
	s.AddRecipe(1, RecipeInfo{Name: "A"})
	s.AddRecipe(2, RecipeInfo{Name: "B"})
	s.AddComponent(1, Component{Ref: IngredientRef(flourID), Quantity: 10})
	s.AddComponent(1, Component{Ref: RecipeRef(2), Quantity: 5})
	s.AddComponent(2, Component{Ref: RecipeRef(1), Quantity: 5})

	_, err := NewResolver(s).WeightAndCost(ctx, 1)
	require.ErrorIs(t, err, ErrCyclicDefinition)

	_, err = NewResolver(s).Resolve(ctx, 2, 10)
	require.ErrorIs(t, err, ErrCyclicDefinition)
}

func TestResolveDetectsSelfReference(t *testing.T) {
	s := NewSnapshot()
	s.AddRecipe(1, RecipeInfo{Name: "Loop"})
	s.AddComponent(1, Component{Ref: RecipeRef(1), Quantity: 1})

	_, err := NewResolver(s).WeightAndCost(context.Background(), 1)
	require.ErrorIs(t, err, ErrCyclicDefinition)
}

func TestResolveZeroWeightBranch(t *testing.T) {
	ctx := context.Background()
	s := bakerySnapshot()
	const emptyID, cakeWithEmptyID uint = 30, 31
	s.AddRecipe(emptyID, RecipeInfo{Name: "Empty Filling"})
	s.AddRecipe(cakeWithEmptyID, RecipeInfo{Name: "Hollow Cake", Finished: true})
	s.AddComponent(cakeWithEmptyID, Component{Ref: IngredientRef(flourID), Quantity: 100})
	s.AddComponent(cakeWithEmptyID, Component{Ref: RecipeRef(emptyID), Quantity: 50})

	res, err := NewResolver(s).Resolve(ctx, cakeWithEmptyID, 150)
	require.NoError(t, err)
	require.Len(t, res.Contributions, 1)
	assert.Equal(t, flourID, res.Contributions[0].IngredientID)
	assert.InDelta(t, 100, res.Contributions[0].Quantity, tolerance)
	assert.InDelta(t, 2.0, res.Contributions[0].Cost, tolerance)

	require.Len(t, res.Issues, 1)
	assert.ErrorIs(t, res.Issues[0], ErrZeroWeightRecipe)
	assert.Equal(t, emptyID, res.Issues[0].RecipeID)
	assert.Equal(t, []string{"Hollow Cake", "Empty Filling"}, res.Issues[0].Path)
}

func TestResolveZeroWeightRoot(t *testing.T) {
	s := NewSnapshot()
	s.AddRecipe(1, RecipeInfo{Name: "Nothing"})

	res, err := NewResolver(s).Resolve(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrZeroWeightRecipe)
	assert.Empty(t, res.Contributions)
}

func TestResolveMissingPriceStillCountsQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshot()
	s.AddIngredient(flourID, priced("Flour", 0.02))
	s.AddIngredient(99, IngredientInfo{Name: "Vanilla", Unit: "gram"})
	s.AddRecipe(1, RecipeInfo{Name: "Sponge"})
	s.AddComponent(1, Component{Ref: IngredientRef(flourID), Quantity: 90})
	s.AddComponent(1, Component{Ref: IngredientRef(99), Quantity: 10})

	r := NewResolver(s)
	totals, err := r.WeightAndCost(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 100, totals.Weight, tolerance)
	assert.InDelta(t, 1.8, totals.Cost, tolerance)
	require.Len(t, r.Issues(), 1)
	assert.ErrorIs(t, r.Issues()[0], ErrMissingIngredientPrice)

	res, err := r.Resolve(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, res.Contributions, 2)
	assert.InDelta(t, 100, res.Weight(), tolerance)
	require.Len(t, res.Issues, 1)
	assert.ErrorIs(t, res.Issues[0], ErrMissingIngredientPrice)
	assert.Equal(t, uint(99), res.Issues[0].IngredientID)
}

func TestResolveUnknownReferences(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshot()
	s.AddIngredient(flourID, priced("Flour", 0.02))
	s.AddRecipe(1, RecipeInfo{Name: "Orphaned"})
	s.AddComponent(1, Component{Ref: IngredientRef(flourID), Quantity: 50})
	s.AddComponent(1, Component{Ref: IngredientRef(404), Quantity: 25})
	s.AddComponent(1, Component{Ref: RecipeRef(405), Quantity: 25})

	res, err := NewResolver(s).Resolve(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, res.Contributions, 1)
	assert.InDelta(t, 50, res.Contributions[0].Quantity, tolerance)
	require.Len(t, res.Issues, 2)
	for _, issue := range res.Issues {
		assert.ErrorIs(t, issue, ErrUnknownReference)
	}

	_, err = NewResolver(s).Resolve(ctx, 777, 1)
	require.ErrorIs(t, err, ErrUnknownReference)
}

func TestResolveRejectsInvalidQuantity(t *testing.T) {
	_, err := NewResolver(bakerySnapshot()).Resolve(context.Background(), cakeID, -1)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestResolveHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(bakerySnapshot()).Resolve(ctx, cakeID, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRecoverable(err))
}

func TestPiecesToQuantity(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(bakerySnapshot())

	qty, err := r.PiecesToQuantity(ctx, cakeID, 3)
	require.NoError(t, err)
	assert.InDelta(t, 6000, qty, tolerance)

	_, err = r.PiecesToQuantity(ctx, cakeID, -2)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestProductCostAppliesYield(t *testing.T) {
	pc, err := NewResolver(bakerySnapshot()).ProductCost(context.Background(), cakeID)
	require.NoError(t, err)
	assert.Equal(t, "Cake", pc.Name)
	assert.True(t, pc.Finished)
	assert.InDelta(t, 2000, pc.Weight, tolerance)
	assert.InDelta(t, 50, pc.BaseCost, tolerance)
	assert.InDelta(t, 55, pc.AdjustedCost, tolerance)
	assert.InDelta(t, 0.0275, pc.CostPerWeight, tolerance)
}

package costing

import (
	"fmt"
	"math"
)

// AdjustForYield spreads waste over the sellable unit: a yield percentage of
// y means baseCost*(1+y/100) is spent to produce one unit.
func AdjustForYield(baseCost, yieldPercent float64) (float64, error) {
	if math.IsNaN(baseCost) || math.IsInf(baseCost, 0) {
		return 0, fmt.Errorf("%w: base cost %v", ErrInvalidYield, baseCost)
	}
	if math.IsNaN(yieldPercent) || math.IsInf(yieldPercent, 0) || yieldPercent < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidYield, yieldPercent)
	}
	return baseCost * (1 + yieldPercent/100), nil
}

// CostPerWeight divides a cost by the weight it covers. Non-positive weights
// yield zero.
func CostPerWeight(cost, weight float64) float64 {
	if weight <= 0 || math.IsNaN(weight) {
		return 0
	}
	return cost / weight
}

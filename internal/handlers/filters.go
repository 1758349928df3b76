package handlers

import (
	"net/http"
	"strings"

	"bakehouse/models"
)

// catalogFilters capture the client-driven state for catalog listings.
type catalogFilters struct {
	Query        string
	FinishedOnly bool
}

// filtersFromRequest reads ?q= and ?finished= from the query string.
func filtersFromRequest(r *http.Request) catalogFilters {
	values := r.URL.Query()
	return catalogFilters{
		Query:        strings.ToLower(strings.TrimSpace(values.Get("q"))),
		FinishedOnly: values.Get("finished") == "true",
	}
}

// filterIngredients keeps ingredients whose name, unit or notes contain the query.
func filterIngredients(all []models.Ingredient, filters catalogFilters) []models.Ingredient {
	if filters.Query == "" {
		return all
	}
	filtered := make([]models.Ingredient, 0, len(all))
	for _, ingredient := range all {
		if containsFold(ingredient.Name, filters.Query) ||
			containsFold(ingredient.Unit, filters.Query) ||
			containsFold(ingredient.Notes, filters.Query) {
			filtered = append(filtered, ingredient)
		}
	}
	return filtered
}

// filterRecipes applies the query to names and notes, and optionally keeps
// finished products only.
func filterRecipes(all []models.Recipe, filters catalogFilters) []models.Recipe {
	filtered := make([]models.Recipe, 0, len(all))
	for _, recipe := range all {
		if filters.FinishedOnly && !recipe.Finished {
			continue
		}
		if containsFold(recipe.Name, filters.Query) || containsFold(recipe.Notes, filters.Query) {
			filtered = append(filtered, recipe)
		}
	}
	return filtered
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}

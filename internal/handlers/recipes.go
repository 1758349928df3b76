package handlers

import (
	"net/http"
	"time"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

type recipeRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Notes        string  `json:"notes" validate:"max=2000"`
	Finished     bool    `json:"finished"`
	YieldPercent float64 `json:"yield_percent" validate:"gte=0"`
}

type recipeSummary struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Notes        string    `json:"notes,omitempty"`
	Finished     bool      `json:"finished"`
	YieldPercent float64   `json:"yield_percent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type recipeResponse struct {
	recipeSummary
	Components []componentResponse `json:"components"`
}

func summarizeRecipe(recipe models.Recipe) recipeSummary {
	return recipeSummary{
		ID:           recipe.ID,
		Name:         recipe.Name,
		Notes:        recipe.Notes,
		Finished:     recipe.Finished,
		YieldPercent: recipe.YieldPercent,
		CreatedAt:    recipe.CreatedAt,
		UpdatedAt:    recipe.UpdatedAt,
	}
}

func projectRecipe(recipe models.Recipe) recipeResponse {
	resp := recipeResponse{
		recipeSummary: summarizeRecipe(recipe),
		Components:    make([]componentResponse, 0, len(recipe.Components)),
	}
	for _, component := range recipe.Components {
		resp.Components = append(resp.Components, projectComponent(component))
	}
	return resp
}

func (p recipeRequest) model() models.Recipe {
	return models.Recipe{Name: p.Name, Notes: p.Notes, Finished: p.Finished, YieldPercent: p.YieldPercent}
}

// ListRecipes returns every recipe ordered by name. ?finished=true limits the
// list to finished products and ?q= filters by name or notes.
func ListRecipes(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	recipes, err := catalog.ListRecipes(r.Context())
	if err != nil {
		writeError(w, r, err, "load recipes")
		return
	}
	recipes = filterRecipes(recipes, filtersFromRequest(r))
	responses := make([]recipeSummary, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, summarizeRecipe(recipe))
	}
	writeJSON(w, http.StatusOK, responses)
}

func CreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	var payload recipeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	recipe := payload.model()
	if err := catalog.CreateRecipe(r.Context(), &recipe); err != nil {
		writeError(w, r, err, "create recipe")
		return
	}
	applog.Info(r.Context(), "recipe created", "id", recipe.ID, "name", recipe.Name, "finished", recipe.Finished)
	writeJSON(w, http.StatusCreated, projectRecipe(recipe))
}

func ShowRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	recipe, err := catalog.GetRecipe(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "load recipe")
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(recipe))
}

func UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	var payload recipeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	recipe := payload.model()
	recipe.ID = id
	if err := catalog.UpdateRecipe(r.Context(), &recipe); err != nil {
		writeError(w, r, err, "update recipe")
		return
	}
	updated, err := catalog.GetRecipe(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "load recipe")
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(updated))
}

func DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := catalog.DeleteRecipe(r.Context(), id); err != nil {
		writeError(w, r, err, "delete recipe")
		return
	}
	applog.Info(r.Context(), "recipe deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

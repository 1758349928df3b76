package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

type componentRequest struct {
	Quantity     float64 `json:"quantity" validate:"gt=0"`
	IngredientID *uint   `json:"ingredient_id"`
	SubRecipeID  *uint   `json:"sub_recipe_id"`
}

type componentIngredientSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type componentRecipeSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type componentResponse struct {
	ID           uint                        `json:"id"`
	RecipeID     uint                        `json:"recipe_id"`
	Quantity     float64                     `json:"quantity"`
	IngredientID *uint                       `json:"ingredient_id,omitempty"`
	SubRecipeID  *uint                       `json:"sub_recipe_id,omitempty"`
	Ingredient   *componentIngredientSummary `json:"ingredient,omitempty"`
	SubRecipe    *componentRecipeSummary     `json:"sub_recipe,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// CreateComponent attaches an ingredient or sub-recipe to the recipe in the
// URL. Sub-recipes that would make the recipe contain itself are refused.
func CreateComponent(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	ctx := r.Context()
	recipeID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	var payload componentRequest
	if err := decodeJSON(r, &payload); err != nil {
		applog.Debug(ctx, "invalid component create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateComponentPayload(payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	component := models.RecipeComponent{
		RecipeID:     recipeID,
		Quantity:     payload.Quantity,
		IngredientID: payload.IngredientID,
		SubRecipeID:  payload.SubRecipeID,
	}
	if err := catalog.AddComponent(ctx, &component); err != nil {
		writeError(w, r, err, "create component")
		return
	}

	created, err := catalog.GetComponent(ctx, component.ID)
	if err != nil {
		writeError(w, r, err, "load component")
		return
	}
	writeJSON(w, http.StatusCreated, projectComponent(created))
}

func UpdateComponent(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	ctx := r.Context()
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	var payload componentRequest
	if err := decodeJSON(r, &payload); err != nil {
		applog.Debug(ctx, "invalid component update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateComponentPayload(payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	component := models.RecipeComponent{
		Quantity:     payload.Quantity,
		IngredientID: payload.IngredientID,
		SubRecipeID:  payload.SubRecipeID,
	}
	component.ID = id
	if err := catalog.UpdateComponent(ctx, &component); err != nil {
		writeError(w, r, err, "update component")
		return
	}

	updated, err := catalog.GetComponent(ctx, id)
	if err != nil {
		writeError(w, r, err, "load component")
		return
	}
	writeJSON(w, http.StatusOK, projectComponent(updated))
}

func DeleteComponent(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := catalog.DeleteComponent(r.Context(), id); err != nil {
		writeError(w, r, err, "delete component")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectComponent(component models.RecipeComponent) componentResponse {
	response := componentResponse{
		ID:           component.ID,
		RecipeID:     component.RecipeID,
		Quantity:     component.Quantity,
		IngredientID: component.IngredientID,
		SubRecipeID:  component.SubRecipeID,
		CreatedAt:    component.CreatedAt,
		UpdatedAt:    component.UpdatedAt,
	}

	if component.Ingredient != nil {
		response.Ingredient = &componentIngredientSummary{
			ID:   component.Ingredient.ID,
			Name: strings.TrimSpace(component.Ingredient.Name),
			Unit: component.Ingredient.Unit,
		}
	}

	if component.SubRecipe != nil {
		response.SubRecipe = &componentRecipeSummary{
			ID:   component.SubRecipe.ID,
			Name: strings.TrimSpace(component.SubRecipe.Name),
		}
	}

	return response
}

func validateComponentPayload(payload componentRequest) error {
	hasIngredient := payload.IngredientID != nil && *payload.IngredientID != 0
	hasSubRecipe := payload.SubRecipeID != nil && *payload.SubRecipeID != 0

	if hasIngredient && hasSubRecipe {
		return errors.New("only one of ingredient_id or sub_recipe_id may be set")
	}
	if !hasIngredient && !hasSubRecipe {
		return errors.New("either ingredient_id or sub_recipe_id must be provided")
	}
	return nil
}

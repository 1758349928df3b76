package handlers

import (
	"net/http"
	"time"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

type ingredientRequest struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Unit      string   `json:"unit" validate:"omitempty,max=32"`
	UnitPrice *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	Notes     string   `json:"notes" validate:"max=2000"`
}

type ingredientResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	UnitPrice *float64  `json:"unit_price"`
	Priced    bool      `json:"priced"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func projectIngredient(ingredient models.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:        ingredient.ID,
		Name:      ingredient.Name,
		Unit:      ingredient.Unit,
		UnitPrice: ingredient.UnitPrice,
		Priced:    ingredient.Priced(),
		Notes:     ingredient.Notes,
		CreatedAt: ingredient.CreatedAt,
		UpdatedAt: ingredient.UpdatedAt,
	}
}

func (p ingredientRequest) model() models.Ingredient {
	return models.Ingredient{Name: p.Name, Unit: p.Unit, UnitPrice: p.UnitPrice, Notes: p.Notes}
}

// ListIngredients returns every ingredient ordered by name. ?q= filters by
// name, unit or notes.
func ListIngredients(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	ingredients, err := catalog.ListIngredients(r.Context())
	if err != nil {
		writeError(w, r, err, "load ingredients")
		return
	}
	ingredients = filterIngredients(ingredients, filtersFromRequest(r))
	responses := make([]ingredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		responses = append(responses, projectIngredient(ingredient))
	}
	writeJSON(w, http.StatusOK, responses)
}

func CreateIngredient(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	var payload ingredientRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ingredient := payload.model()
	if err := catalog.CreateIngredient(r.Context(), &ingredient); err != nil {
		writeError(w, r, err, "create ingredient")
		return
	}
	applog.Info(r.Context(), "ingredient created", "id", ingredient.ID, "name", ingredient.Name)
	writeJSON(w, http.StatusCreated, projectIngredient(ingredient))
}

func ShowIngredient(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	ingredient, err := catalog.GetIngredient(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "load ingredient")
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(ingredient))
}

func UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	var payload ingredientRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ingredient := payload.model()
	ingredient.ID = id
	if err := catalog.UpdateIngredient(r.Context(), &ingredient); err != nil {
		writeError(w, r, err, "update ingredient")
		return
	}
	updated, err := catalog.GetIngredient(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "load ingredient")
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(updated))
}

func DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := catalog.DeleteIngredient(r.Context(), id); err != nil {
		writeError(w, r, err, "delete ingredient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

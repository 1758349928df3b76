package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	applog "bakehouse/internal/log"
	"bakehouse/internal/views/pages"
)

// GenerateBatchProductionReport renders a printable batch sheet. The form
// carries parallel recipe_id and quantity fields; when it carries none the
// session draft is used instead.
func GenerateBatchProductionReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid submission.", http.StatusBadRequest)
		return
	}

	items, err := batchItemsFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(items) == 0 && sessionManager != nil {
		items = loadDraft(r.Context())
	}
	if len(items) == 0 {
		http.Error(w, "Select at least one product before running the report.", http.StatusBadRequest)
		return
	}

	data, err := executeBatch(r.Context(), items)
	if err != nil {
		switch {
		case errors.Is(err, errNoDatabase):
			http.Error(w, "Reporting is unavailable because no database connection is configured.", http.StatusServiceUnavailable)
		case errors.Is(err, errEmptyBatch):
			http.Error(w, "Select at least one product before running the report.", http.StatusBadRequest)
		default:
			applog.Error(r.Context(), "failed to build batch production report", "error", err)
			http.Error(w, "We were unable to generate the batch report. Please try again.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.BatchProductionReport(data).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render batch production report", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func batchItemsFromForm(r *http.Request) ([]batchItem, error) {
	ids := r.Form["recipe_id"]
	quantities := r.Form["quantity"]
	if len(ids) != len(quantities) {
		return nil, errors.New("each product needs a quantity")
	}

	items := make([]batchItem, 0, len(ids))
	for i := range ids {
		id, err := strconv.ParseUint(strings.TrimSpace(ids[i]), 10, 64)
		if err != nil || id == 0 {
			return nil, errors.New("select a product for every row")
		}
		quantity, err := strconv.ParseFloat(strings.TrimSpace(quantities[i]), 64)
		if err != nil || quantity <= 0 {
			return nil, errors.New("quantities must be positive numbers")
		}
		items = append(items, batchItem{RecipeID: uint(id), Quantity: quantity})
	}
	return items, nil
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bakehouse/internal/costing"
	applog "bakehouse/internal/log"
	"bakehouse/internal/report"
)

const sessionBatchDraftKey = "batch_draft"

var errEmptyBatch = errors.New("batch has no products")

// batchItem orders one finished product, either in working units or in pieces.
type batchItem struct {
	RecipeID uint    `json:"recipe_id" yaml:"recipe_id" validate:"required"`
	Quantity float64 `json:"quantity,omitempty" validate:"gte=0,required_without=Pieces"`
	Pieces   float64 `json:"pieces,omitempty" validate:"gte=0,excluded_with=Quantity"`
}

type batchRequest struct {
	Items []batchItem `json:"items" validate:"required,min=1,dive"`
}

type batchDraftResponse struct {
	Items []batchItem `json:"items"`
}

// RunBatch aggregates the products in the request body.
func RunBatch(w http.ResponseWriter, r *http.Request) {
	var payload batchRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := executeBatch(r.Context(), payload.Items)
	if err != nil {
		writeError(w, r, err, "run batch")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func executeBatch(ctx context.Context, items []batchItem) (report.Batch, error) {
	if catalog == nil {
		return report.Batch{}, errNoDatabase
	}
	if len(items) == 0 {
		return report.Batch{}, errEmptyBatch
	}

	snap, err := catalog.Snapshot(ctx)
	if err != nil {
		return report.Batch{}, err
	}
	orders, err := buildOrders(ctx, snap, items)
	if err != nil {
		return report.Batch{}, err
	}

	start := time.Now()
	result, err := costing.NewAggregator(snap, costing.WithConcurrency(batchConcurrency)).Aggregate(ctx, orders)
	if err != nil {
		return report.Batch{}, err
	}
	if collector != nil {
		collector.ObserveBatch(len(result.Products), len(result.Warnings), time.Since(start))
	}
	for _, warning := range result.Warnings {
		applog.Warn(ctx, "batch warning", "recipe", warning.RecipeID, "name", warning.Name, "error", warning.Err)
	}
	applog.Info(ctx, "batch aggregated", "products", len(result.Products), "total_cost", result.TotalCost)

	return report.FromBatch(result, newRunID(), nowFunc()), nil
}

// buildOrders sums the requested quantity per recipe, converting piece counts
// into working units. A recipe whose pieces cannot be converted is still
// ordered so the aggregator reports why.
func buildOrders(ctx context.Context, repo costing.Repository, items []batchItem) (map[uint]float64, error) {
	resolver := costing.NewResolver(repo)
	orders := make(map[uint]float64, len(items))
	for _, item := range items {
		quantity := item.Quantity
		if item.Pieces > 0 {
			converted, err := resolver.PiecesToQuantity(ctx, item.RecipeID, item.Pieces)
			if err != nil && !costing.IsRecoverable(err) {
				return nil, err
			}
			quantity = converted
		}
		orders[item.RecipeID] += quantity
	}
	return orders, nil
}

func loadDraft(ctx context.Context) []batchItem {
	raw := sessionManager.GetString(ctx, sessionBatchDraftKey)
	if raw == "" {
		return nil
	}
	var items []batchItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		applog.Warn(ctx, "discarding unreadable batch draft", "error", err)
		sessionManager.Remove(ctx, sessionBatchDraftKey)
		return nil
	}
	return items
}

func saveDraft(ctx context.Context, items []batchItem) error {
	encoded, err := json.Marshal(items)
	if err != nil {
		return err
	}
	sessionManager.Put(ctx, sessionBatchDraftKey, string(encoded))
	return nil
}

func requireSession(w http.ResponseWriter, r *http.Request) bool {
	if sessionManager == nil {
		applog.Debug(r.Context(), "batch draft request without session manager")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}

// ShowBatchDraft returns the products collected in the session so far.
func ShowBatchDraft(w http.ResponseWriter, r *http.Request) {
	if !requireSession(w, r) {
		return
	}
	items := loadDraft(r.Context())
	if items == nil {
		items = []batchItem{}
	}
	writeJSON(w, http.StatusOK, batchDraftResponse{Items: items})
}

// AddBatchDraftItem adds a product to the session draft, replacing any earlier
// entry for the same recipe.
func AddBatchDraftItem(w http.ResponseWriter, r *http.Request) {
	if !requireSession(w, r) {
		return
	}
	ctx := r.Context()
	var item batchItem
	if err := decodeJSON(r, &item); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := loadDraft(ctx)
	replaced := false
	for i := range items {
		if items[i].RecipeID == item.RecipeID {
			items[i] = item
			replaced = true
		}
	}
	if !replaced {
		items = append(items, item)
	}

	if err := saveDraft(ctx, items); err != nil {
		writeError(w, r, err, "save batch draft")
		return
	}
	writeJSON(w, http.StatusOK, batchDraftResponse{Items: items})
}

func ClearBatchDraft(w http.ResponseWriter, r *http.Request) {
	if !requireSession(w, r) {
		return
	}
	sessionManager.Remove(r.Context(), sessionBatchDraftKey)
	w.WriteHeader(http.StatusNoContent)
}

// RunBatchDraft aggregates the session draft. The draft is kept so it can be
// adjusted and run again.
func RunBatchDraft(w http.ResponseWriter, r *http.Request) {
	if !requireSession(w, r) {
		return
	}
	items := loadDraft(r.Context())
	if len(items) == 0 {
		writeJSONError(w, http.StatusBadRequest, errEmptyBatch.Error())
		return
	}
	result, err := executeBatch(r.Context(), items)
	if err != nil {
		writeError(w, r, err, "run batch")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bakehouse/internal/costing"
	applog "bakehouse/internal/log"
	"bakehouse/internal/report"
)

// RecipeCost resolves one recipe at ?quantity= working units or ?pieces=
// whole compositions. Without either it costs a single piece.
func RecipeCost(w http.ResponseWriter, r *http.Request) {
	if !requireCatalog(w, r) {
		return
	}
	ctx := r.Context()
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	quantity, pieces, err := parseAmount(r.URL.Query())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := catalog.Snapshot(ctx)
	if err != nil {
		writeError(w, r, err, "load catalog")
		return
	}

	resolver := costing.NewResolver(snap)
	if pieces > 0 {
		quantity, err = resolver.PiecesToQuantity(ctx, id, pieces)
		if err != nil {
			observeResolution(err)
			writeError(w, r, err, "cost recipe")
			return
		}
	}

	res, err := resolver.Resolve(ctx, id, quantity)
	observeResolution(err)
	if err != nil {
		writeError(w, r, err, "cost recipe")
		return
	}

	info, err := snap.Recipe(ctx, id)
	if err != nil {
		writeError(w, r, err, "load recipe")
		return
	}

	applog.Debug(ctx, "recipe costed", "recipe", id, "quantity", quantity, "issues", len(res.Issues))
	writeJSON(w, http.StatusOK, report.FromResolution(res, info.YieldPercent))
}

// parseAmount reads quantity or pieces from the query. Exactly one may be
// set; neither means one piece.
func parseAmount(values url.Values) (quantity, pieces float64, err error) {
	rawQuantity := strings.TrimSpace(values.Get("quantity"))
	rawPieces := strings.TrimSpace(values.Get("pieces"))
	switch {
	case rawQuantity != "" && rawPieces != "":
		return 0, 0, errors.New("set quantity or pieces, not both")
	case rawQuantity != "":
		quantity, err = strconv.ParseFloat(rawQuantity, 64)
		if err != nil || quantity < 0 {
			return 0, 0, fmt.Errorf("%w: %q", costing.ErrInvalidQuantity, rawQuantity)
		}
		return quantity, 0, nil
	case rawPieces != "":
		pieces, err = strconv.ParseFloat(rawPieces, 64)
		if err != nil || pieces <= 0 {
			return 0, 0, fmt.Errorf("%w: %q pieces", costing.ErrInvalidQuantity, rawPieces)
		}
		return 0, pieces, nil
	default:
		return 0, 1, nil
	}
}

func observeResolution(err error) {
	if collector != nil {
		collector.ObserveResolution(err)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"bakehouse/internal/costing"
	applog "bakehouse/internal/log"
	"bakehouse/internal/store"
)

var errNoDatabase = errors.New("handlers: no database configured")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into dst and runs struct validation on it.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
			continue
		}
		messages = append(messages, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.New(strings.Join(messages, "; "))
}

func pathID(r *http.Request, key string) (uint, bool) {
	value, err := strconv.ParseUint(chi.URLParam(r, key), 10, 64)
	if err != nil || value == 0 {
		applog.Debug(r.Context(), "invalid identifier", "key", key, "value", chi.URLParam(r, key))
		return 0, false
	}
	return uint(value), true
}

func requireCatalog(w http.ResponseWriter, r *http.Request) bool {
	if catalog == nil {
		applog.Debug(r.Context(), "catalog request without database", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoDatabase):
		return http.StatusServiceUnavailable
	case errors.Is(err, costing.ErrUnknownReference):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateName), errors.Is(err, store.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, costing.ErrCyclicDefinition), errors.Is(err, costing.ErrZeroWeightRecipe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errEmptyBatch),
		errors.Is(err, costing.ErrInvalidQuantity),
		errors.Is(err, costing.ErrInvalidYield),
		errors.Is(err, store.ErrInvalidComponent),
		errors.Is(err, store.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		applog.Error(r.Context(), "request failed", "action", action, "error", err)
		writeJSONError(w, status, "unable to "+action)
		return
	}
	applog.Debug(r.Context(), "request rejected", "action", action, "status", status, "error", err)
	writeJSONError(w, status, err.Error())
}

package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bakehouse/internal/handlers"
	applog "bakehouse/internal/log"
	"bakehouse/internal/metrics"
)

func newRouter(collector *metrics.Collector) http.Handler {
	r := chi.NewRouter()
	applog.Debug(context.Background(), "registering http routes")

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if collector != nil {
		r.Use(collector.Middleware)
		r.Method(http.MethodGet, "/metrics", collector.Handler())
		applog.Debug(context.Background(), "route registered", "path", "/metrics")
	}

	r.Get("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")

	r.Route("/api", func(r chi.Router) {
		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", handlers.ListIngredients)
			r.Post("/", handlers.CreateIngredient)
			r.Get("/{id}", handlers.ShowIngredient)
			r.Put("/{id}", handlers.UpdateIngredient)
			r.Delete("/{id}", handlers.DeleteIngredient)
		})
		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", handlers.ListRecipes)
			r.Post("/", handlers.CreateRecipe)
			r.Get("/{id}", handlers.ShowRecipe)
			r.Put("/{id}", handlers.UpdateRecipe)
			r.Delete("/{id}", handlers.DeleteRecipe)
			r.Post("/{id}/components", handlers.CreateComponent)
			r.Get("/{id}/cost", handlers.RecipeCost)
		})
		r.Put("/components/{id}", handlers.UpdateComponent)
		r.Delete("/components/{id}", handlers.DeleteComponent)
		r.Route("/batches", func(r chi.Router) {
			r.Post("/", handlers.RunBatch)
			r.Get("/draft", handlers.ShowBatchDraft)
			r.Post("/draft", handlers.AddBatchDraftItem)
			r.Delete("/draft", handlers.ClearBatchDraft)
			r.Post("/draft/run", handlers.RunBatchDraft)
		})
	})
	applog.Debug(context.Background(), "route registered", "path", "/api", "json", true)

	r.Post("/reports/batch", handlers.GenerateBatchProductionReport)
	applog.Debug(context.Background(), "route registered", "path", "/reports/batch")

	return r
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bakehouse/internal/db/mock"
	"bakehouse/internal/handlers"
	"bakehouse/internal/report"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := mock.NewIsolated(context.Background(), "server-"+t.Name())
	if err != nil {
		t.Fatalf("failed to open mock database: %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil, nil, nil, 0)
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	srv, err := New(Config{
		Addr:     ":8080",
		Session:  SessionConfig{CookieSecure: true},
		Database: db,
		Costing:  CostingConfig{SnapshotTTL: time.Minute, BatchConcurrency: 2},
	})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return srv
}

func TestNewAppliesSessionDefaults(t *testing.T) {
	srv := newTestServer(t)

	if srv.httpServer.Addr != ":8080" {
		t.Fatalf("expected server addr :8080, got %q", srv.httpServer.Addr)
	}
	if srv.httpServer.Handler == nil {
		t.Fatal("expected handler to be configured")
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/batches/draft", strings.NewReader(`{"recipe_id":3,"pieces":1}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected draft update to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie to be set")
	}
	if cookies[0].Name != "bakehouse_session" {
		t.Fatalf("expected default session cookie name, got %q", cookies[0].Name)
	}
	if !cookies[0].Secure {
		t.Fatal("expected cookie secure flag to be true")
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/batches/draft/run", nil)
	req.AddCookie(cookies[0])
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected draft run to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	var batch report.Batch
	if err := json.Unmarshal(rr.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if batch.TotalCost != "11.15" {
		t.Fatalf("expected total cost 11.15, got %s", batch.TotalCost)
	}
}

func TestServerRoutesRecipeCost(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/recipes/1/cost?quantity=800", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var cost report.Cost
	if err := json.Unmarshal(rr.Body.Bytes(), &cost); err != nil {
		t.Fatalf("decode cost: %v", err)
	}
	if cost.Name != "Sponge Base" || cost.Cost != "3.05" {
		t.Fatalf("unexpected cost response %+v", cost)
	}

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `bakehouse_cost_resolutions_total{outcome="ok"} 1`) {
		t.Fatalf("expected resolution to be counted, got %s", rr.Body.String())
	}
}

func TestServerHandler(t *testing.T) {
	cfg := Config{Addr: ":9090"}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		handlers.Configure(nil, nil, nil, 0)
	})

	handler := srv.Handler()
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected /healthz to return 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/recipes", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a database, got %d", rr.Code)
	}
}

package handlers

import (
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/validator/v10"

	"bakehouse/internal/metrics"
	"bakehouse/internal/report"
	"bakehouse/internal/store"
)

const defaultBatchConcurrency = 4

var (
	sessionManager   *scs.SessionManager
	catalog          *store.Store
	collector        *metrics.Collector
	batchConcurrency = defaultBatchConcurrency
	validate         = validator.New(validator.WithRequiredStructEnabled())
	nowFunc          = time.Now
	newRunID         = report.NewRunID
)

// Configure wires the shared dependencies used by every handler. Any of them
// may be nil: handlers needing a missing dependency answer 503.
func Configure(sm *scs.SessionManager, st *store.Store, mc *metrics.Collector, concurrency int) {
	sessionManager = sm
	catalog = st
	collector = mc
	batchConcurrency = defaultBatchConcurrency
	if concurrency > 0 {
		batchConcurrency = concurrency
	}
}

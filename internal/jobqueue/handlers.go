package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/schedcu/rosterengine/internal/catalog"
	"github.com/schedcu/rosterengine/internal/orchestrator"
	"github.com/schedcu/rosterengine/internal/solution"
)

// CatalogSource resolves a client name to its normalized catalog. The engine
// holds no persisted state, so the caller supplies whatever ingestion
// collaborator it uses.
type CatalogSource interface {
	Catalog(ctx context.Context, clientName string) (*catalog.Catalog, error)
}

// SolutionSink receives completed solutions. Implementations typically hand
// them to a report renderer or an upload endpoint; the queue itself stores
// nothing.
type SolutionSink interface {
	Deliver(ctx context.Context, clientName string, sol *solution.Solution) error
}

// Handlers executes queued roster tasks against the orchestrator.
type Handlers struct {
	engine *orchestrator.Orchestrator
	source CatalogSource
	sink   SolutionSink
}

// NewHandlers creates a new handlers instance.
func NewHandlers(engine *orchestrator.Orchestrator, source CatalogSource, sink SolutionSink) *Handlers {
	return &Handlers{
		engine: engine,
		source: source,
		sink:   sink,
	}
}

// RegisterHandlers registers all task handlers with the Asynq mux.
func (h *Handlers) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeMonthlyRoster, h.HandleMonthlyRoster)
	mux.HandleFunc(TypeAnnualRoster, h.HandleAnnualRoster)
	mux.HandleFunc(TypeResidualMonth, h.HandleResidualMonth)
}

// HandleMonthlyRoster handles monthly optimization tasks.
func (h *Handlers) HandleMonthlyRoster(ctx context.Context, t *asynq.Task) error {
	var payload MonthlyRosterPayload

	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	log.Printf("Executing monthly roster job: client=%s, period=%d-%02d", payload.ClientName, payload.Year, payload.Month)

	cat, err := h.source.Catalog(ctx, payload.ClientName)
	if err != nil {
		return fmt.Errorf("catalog not available: %w", err)
	}

	sol, err := h.engine.RunMonthly(ctx, cat, payload.Year, payload.Month)
	if err != nil {
		// An invalid catalog will not become valid on retry.
		log.Printf("Monthly roster failed: %v", err)
		return fmt.Errorf("monthly roster failed: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Monthly roster completed: client=%s, drivers=%d, coverage=%.2f",
		payload.ClientName, sol.Metrics.DriversUsed, sol.Metrics.CoveragePercentage)

	return h.sink.Deliver(ctx, payload.ClientName, sol)
}

// HandleAnnualRoster handles annual optimization tasks.
func (h *Handlers) HandleAnnualRoster(ctx context.Context, t *asynq.Task) error {
	var payload AnnualRosterPayload

	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	log.Printf("Executing annual roster job: client=%s, year=%d", payload.ClientName, payload.Year)

	cat, err := h.source.Catalog(ctx, payload.ClientName)
	if err != nil {
		return fmt.Errorf("catalog not available: %w", err)
	}

	sol, err := h.engine.RunAnnual(ctx, cat, payload.Year)
	if err != nil {
		log.Printf("Annual roster failed: %v", err)
		return fmt.Errorf("annual roster failed: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Annual roster completed: client=%s, drivers=%d, assignments=%d",
		payload.ClientName, sol.Metrics.DriversUsed, len(sol.Assignments))

	return h.sink.Deliver(ctx, payload.ClientName, sol)
}

// HandleResidualMonth handles per-month fallback re-optimization tasks.
func (h *Handlers) HandleResidualMonth(ctx context.Context, t *asynq.Task) error {
	var payload ResidualMonthPayload

	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	log.Printf("Executing residual month job: client=%s, period=%d-%02d, drivers=%d",
		payload.ClientName, payload.Year, payload.Month, len(payload.DriverIDs))

	cat, err := h.source.Catalog(ctx, payload.ClientName)
	if err != nil {
		return fmt.Errorf("catalog not available: %w", err)
	}

	sol, err := h.engine.RunMonthly(ctx, cat, payload.Year, payload.Month)
	if err != nil {
		log.Printf("Residual month re-optimization failed: %v", err)
		return fmt.Errorf("residual month failed: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Residual month completed: client=%s, period=%d-%02d, drivers=%d",
		payload.ClientName, payload.Year, payload.Month, sol.Metrics.DriversUsed)

	return h.sink.Deliver(ctx, payload.ClientName, sol)
}

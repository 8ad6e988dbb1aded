// Package jobqueue dispatches roster optimization work through Asynq. The
// engine itself is a synchronous library; this package exists for callers
// that want monthly runs, annual runs, and the per-month residual
// re-optimization fallback executed as queued background tasks.
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeMonthlyRoster = "roster:monthly"
	TypeAnnualRoster  = "roster:annual"
	TypeResidualMonth = "roster:residual_month"
)

// Scheduler manages task enqueueing to Asynq.
type Scheduler struct {
	client *asynq.Client
}

// NewScheduler creates a new scheduler backed by the Redis instance at
// redisAddr.
func NewScheduler(redisAddr string) (*Scheduler, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})

	if err := client.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Scheduler{client: client}, nil
}

// MonthlyRosterPayload represents the payload for a monthly optimization task.
type MonthlyRosterPayload struct {
	ClientName string `json:"client_name"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

// EnqueueMonthlyRoster enqueues one monthly roster optimization.
func (s *Scheduler) EnqueueMonthlyRoster(ctx context.Context, clientName string, year, month int) (*asynq.TaskInfo, error) {
	payload := MonthlyRosterPayload{
		ClientName: clientName,
		Year:       year,
		Month:      month,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeMonthlyRoster, payloadBytes)

	info, err := s.client.EnqueueContext(ctx, task, asynq.MaxRetry(2), asynq.Timeout(30*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue monthly roster job: %w", err)
	}

	return info, nil
}

// AnnualRosterPayload represents the payload for an annual optimization task.
type AnnualRosterPayload struct {
	ClientName string `json:"client_name"`
	Year       int    `json:"year"`
}

// EnqueueAnnualRoster enqueues one annual roster optimization. The annual
// pipeline optimizes February, replicates, and re-optimizes residual months
// for drivers whose pattern could not be rolled back, so its timeout is
// sized for up to twelve monthly passes.
func (s *Scheduler) EnqueueAnnualRoster(ctx context.Context, clientName string, year int) (*asynq.TaskInfo, error) {
	payload := AnnualRosterPayload{
		ClientName: clientName,
		Year:       year,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeAnnualRoster, payloadBytes)

	info, err := s.client.EnqueueContext(ctx, task, asynq.MaxRetry(1), asynq.Timeout(4*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue annual roster job: %w", err)
	}

	return info, nil
}

// ResidualMonthPayload represents the payload for a single residual-month
// re-optimization, the fan-out unit of the annual fallback path.
type ResidualMonthPayload struct {
	ClientName string `json:"client_name"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	DriverIDs  []int  `json:"driver_ids"`
}

// EnqueueResidualMonth enqueues the re-optimization of one month for the
// drivers whose February pattern could not be replicated.
func (s *Scheduler) EnqueueResidualMonth(ctx context.Context, clientName string, year, month int, driverIDs []int) (*asynq.TaskInfo, error) {
	payload := ResidualMonthPayload{
		ClientName: clientName,
		Year:       year,
		Month:      month,
		DriverIDs:  driverIDs,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeResidualMonth, payloadBytes)

	info, err := s.client.EnqueueContext(ctx, task, asynq.MaxRetry(2), asynq.Timeout(30*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue residual month job: %w", err)
	}

	return info, nil
}

// Close closes the scheduler and releases resources.
func (s *Scheduler) Close() error {
	return s.client.Close()
}

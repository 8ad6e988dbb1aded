// Command scheduler runs the queued-roster worker: an Asynq server consuming
// roster tasks, plus a cron trigger that enqueues next month's optimization
// on a fixed schedule. It schedules when the offline batch runs; it does not
// dispatch or reschedule drivers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"github.com/schedcu/rosterengine/internal/catalog"
	"github.com/schedcu/rosterengine/internal/jobqueue"
	"github.com/schedcu/rosterengine/internal/orchestrator"
	"github.com/schedcu/rosterengine/internal/solution"
)

// fileCatalogSource loads catalogs from a directory of <client>.json files.
type fileCatalogSource struct {
	dir string
}

func (f *fileCatalogSource) Catalog(_ context.Context, clientName string) (*catalog.Catalog, error) {
	raw, err := os.ReadFile(fmt.Sprintf("%s/%s.json", f.dir, clientName))
	if err != nil {
		return nil, err
	}
	var cat catalog.Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// fileSolutionSink writes solutions to <client>-<timestamp>.json in a
// directory.
type fileSolutionSink struct {
	dir string
}

func (f *fileSolutionSink) Deliver(_ context.Context, clientName string, sol *solution.Solution) error {
	path := fmt.Sprintf("%s/%s-%d.json", f.dir, clientName, time.Now().Unix())
	raw, err := json.MarshalIndent(sol, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func main() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	catalogDir := os.Getenv("CATALOG_DIR")
	if catalogDir == "" {
		catalogDir = "./catalogs"
	}
	outputDir := os.Getenv("OUTPUT_DIR")
	if outputDir == "" {
		outputDir = "./solutions"
	}
	clientName := os.Getenv("CLIENT_NAME")
	cronSpec := os.Getenv("ROSTER_CRON")
	if cronSpec == "" {
		// First of every month at 02:00: roster the month ahead.
		cronSpec = "0 2 1 * *"
	}

	engine := orchestrator.New(orchestrator.DefaultEngineOptions())
	handlers := jobqueue.NewHandlers(engine, &fileCatalogSource{dir: catalogDir}, &fileSolutionSink{dir: outputDir})

	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{Concurrency: 2},
	)

	go func() {
		log.Printf("Starting roster worker, redis=%s", redisAddr)
		if err := server.Run(mux); err != nil {
			log.Fatalf("Worker failed: %v", err)
		}
	}()

	var trigger *cron.Cron
	if clientName != "" {
		scheduler, err := jobqueue.NewScheduler(redisAddr)
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		defer scheduler.Close()

		trigger = cron.New()
		_, err = trigger.AddFunc(cronSpec, func() {
			next := time.Now().AddDate(0, 1, 0)
			info, err := scheduler.EnqueueMonthlyRoster(context.Background(), clientName, next.Year(), int(next.Month()))
			if err != nil {
				log.Printf("Failed to enqueue scheduled roster: %v", err)
				return
			}
			log.Printf("Enqueued scheduled roster: client=%s, period=%d-%02d, task=%s",
				clientName, next.Year(), int(next.Month()), info.ID)
		})
		if err != nil {
			log.Fatalf("Invalid cron spec %q: %v", cronSpec, err)
		}
		trigger.Start()
		log.Printf("Cron trigger armed: spec=%q, client=%s", cronSpec, clientName)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if trigger != nil {
		trigger.Stop()
	}
	server.Shutdown()
}

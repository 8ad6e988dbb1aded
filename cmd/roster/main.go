// Command roster runs one roster optimization from a JSON catalog file and
// prints the solution as JSON. It is a thin demonstration caller of the
// engine library, not a production surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/schedcu/rosterengine/internal/catalog"
	"github.com/schedcu/rosterengine/internal/logger"
	"github.com/schedcu/rosterengine/internal/orchestrator"
)

func main() {
	catalogPath := flag.String("catalog", "", "path to a JSON catalog file")
	year := flag.Int("year", 2025, "target year")
	month := flag.Int("month", 0, "target month (1-12); 0 selects annual mode")
	seed := flag.Int64("seed", 1, "PRNG seed for the LNS engine")
	flag.Parse()

	if *catalogPath == "" {
		log.Fatal("usage: roster -catalog catalog.json [-year Y] [-month M]")
	}

	raw, err := os.ReadFile(*catalogPath)
	if err != nil {
		log.Fatalf("Failed to read catalog: %v", err)
	}

	var cat catalog.Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		log.Fatalf("Failed to parse catalog: %v", err)
	}

	zlog, err := logger.NewLogger("")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	options := orchestrator.DefaultEngineOptions()
	options.LNS.Seed = *seed
	options.Logger = zlog

	engine := orchestrator.New(options)
	sol, err := engine.Run(context.Background(), &cat, catalog.RunSpec{Year: *year, Month: *month})
	if err != nil {
		log.Fatalf("Roster optimization failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sol); err != nil {
		log.Fatalf("Failed to encode solution: %v", err)
	}
}

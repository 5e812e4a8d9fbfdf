package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"sales-ingest/internal/config"
	"sales-ingest/internal/database"
	"sales-ingest/internal/loader"
	"sales-ingest/internal/sales"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	configPath := flag.String("config", "config.yaml", "path to the config file")
	dataDir := flag.String("data-dir", "", "directory with CSV exports (overrides config)")
	dryRun := flag.Bool("dry-run", false, "parse files and report without loading or moving them")
	concurrency := flag.Int("concurrency", 0, "parallel file loads (overrides config)")

	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		exitCode = 1
		return
	}

	opts := loader.Options{
		DataDir:     cfg.Loader.DataDir,
		DryRun:      *dryRun,
		Concurrency: cfg.Loader.Concurrency,
	}
	if *dataDir != "" {
		opts.DataDir = *dataDir
	}
	if *concurrency > 0 {
		opts.Concurrency = *concurrency
	}

	if _, err := os.Stat(opts.DataDir); err != nil {
		log.Printf("Data directory not usable: %v", err)
		exitCode = 1
		return
	}

	ctx := context.Background()

	if opts.DryRun {
		logger.Println("dry-run: parsing files without a database connection")
		report, err := loader.New(nil, logger).Run(ctx, opts)
		if err != nil {
			log.Printf("Dry run failed: %v", err)
			exitCode = 1
			return
		}
		printReport(report, &exitCode)
		return
	}

	dsn, err := cfg.DatabaseDSN()
	if err != nil {
		log.Printf("%v", err)
		exitCode = 1
		return
	}

	pool, err := database.Connect(ctx, dsn)
	if err != nil {
		log.Printf("Failed to connect to postgres: %v", err)
		exitCode = 1
		return
	}
	defer pool.Close()

	// Provisioning is idempotent; running against an already provisioned
	// database is a no-op.
	if err := sales.EnsureSchema(ctx, pool); err != nil {
		log.Printf("Failed to provision sales schema: %v", err)
		exitCode = 1
		return
	}

	report, err := loader.New(sales.NewStore(pool), logger).Run(ctx, opts)
	if err != nil {
		log.Printf("Load failed: %v", err)
		exitCode = 1
		return
	}
	printReport(report, &exitCode)
}

func printReport(report *loader.Report, exitCode *int) {
	jsonOutput, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("Failed to marshal report: %v", err)
		*exitCode = 1
		return
	}
	fmt.Println(string(jsonOutput))

	if report.FilesFailed > 0 {
		*exitCode = 1
	}
}

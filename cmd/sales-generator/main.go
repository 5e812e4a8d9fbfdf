package main

import (
	"flag"
	"log"
	"os"
	"time"

	"sales-ingest/internal/config"
	"sales-ingest/internal/generator"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	configPath := flag.String("config", "config.yaml", "path to the config file")
	shops := flag.Int("shops", 0, "number of shops to generate (overrides config)")
	minCash := flag.Int("min-cash", 0, "fewest cash registers per shop (overrides config)")
	maxCash := flag.Int("max-cash", 0, "most cash registers per shop (overrides config)")
	minReceipts := flag.Int("min-receipts", 0, "fewest receipts per register (overrides config)")
	maxReceipts := flag.Int("max-receipts", 0, "most receipts per register (overrides config)")
	outputDir := flag.String("output-dir", "", "directory for generated exports (overrides config)")
	seed := flag.Int64("seed", 0, "random seed; 0 seeds from the clock")
	retentionDays := flag.Int("retention-days", 0, "days to keep generated exports (overrides config)")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		exitCode = 1
		return
	}

	params := generator.Params{
		Shops:       cfg.Generator.Shops,
		MinCash:     cfg.Generator.MinCash,
		MaxCash:     cfg.Generator.MaxCash,
		MinReceipts: cfg.Generator.MinReceipts,
		MaxReceipts: cfg.Generator.MaxReceipts,
	}
	if *shops > 0 {
		params.Shops = *shops
	}
	if *minCash > 0 {
		params.MinCash = *minCash
	}
	if *maxCash > 0 {
		params.MaxCash = *maxCash
	}
	if *minReceipts > 0 {
		params.MinReceipts = *minReceipts
	}
	if *maxReceipts > 0 {
		params.MaxReceipts = *maxReceipts
	}
	if params.Shops <= 0 {
		log.Printf("Number of shops must be positive: pass -shops or set generator.shops in the config")
		exitCode = 1
		return
	}

	dir := cfg.Generator.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}
	retention := time.Duration(cfg.Generator.RetentionDays) * 24 * time.Hour
	if *retentionDays > 0 {
		retention = time.Duration(*retentionDays) * 24 * time.Hour
	}

	effectiveSeed := *seed
	if effectiveSeed == 0 {
		effectiveSeed = time.Now().UnixNano()
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	gen := generator.New(effectiveSeed, logger)

	summary, err := gen.Generate(dir, params)
	if err != nil {
		log.Printf("Generation failed: %v", err)
		exitCode = 1
		return
	}
	logger.Printf("generated %d files, %d rows in %s", summary.Files, summary.Rows, dir)

	deleted, err := gen.CleanupOld(dir, retention)
	if err != nil {
		log.Printf("Cleanup failed: %v", err)
		exitCode = 1
		return
	}
	logger.Printf("cleanup done: removed %d expired files, keeping %s", deleted, retention)
}

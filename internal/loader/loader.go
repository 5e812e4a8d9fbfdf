// Package loader ingests point-of-sale CSV exports into the sales
// table. Each file is loaded in its own transaction and moved to a
// processed/ subdirectory on success; a failed file stays in place for
// inspection and does not stop the run.
package loader

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"

	"sales-ingest/internal/sales"
)

// ProcessedDirName is where successfully loaded files are moved,
// relative to the data directory.
const ProcessedDirName = "processed"

// Inserter is the storage surface the loader needs.
type Inserter interface {
	InsertBatch(ctx context.Context, batch []sales.Sale) (int64, error)
}

// Options bound one loader run.
type Options struct {
	DataDir     string
	DryRun      bool // parse and report only: no writes, no file moves
	Concurrency int  // parallel file loads; 0 or 1 means sequential
}

// Report summarizes one loader run. Latency quantiles cover the insert
// of one file's batch.
type Report struct {
	RunID        string        `json:"run_id"`
	FilesFound   int           `json:"files_found"`
	FilesLoaded  int           `json:"files_loaded"`
	FilesFailed  int           `json:"files_failed"`
	FilesSkipped int           `json:"files_skipped"`
	RowsLoaded   int64         `json:"rows_loaded"`
	TotalTime    time.Duration `json:"total_time"`
	AvgLatency   time.Duration `json:"avg_latency"`
	P95Latency   time.Duration `json:"p95_latency"`
	P99Latency   time.Duration `json:"p99_latency"`
}

type Loader struct {
	store  Inserter
	logger *log.Logger
}

func New(store Inserter, logger *log.Logger) *Loader {
	return &Loader{store: store, logger: logger}
}

// Run processes every loadable file in the data directory.
func (l *Loader) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{RunID: uuid.New().String()}
	start := time.Now()

	files, skipped, err := FindSourceFiles(opts.DataDir)
	if err != nil {
		return nil, err
	}
	for _, name := range skipped {
		l.logger.Printf("run %s: skipping file with unexpected name: %s", report.RunID, name)
	}
	report.FilesFound = len(files)
	report.FilesSkipped = len(skipped)

	if len(files) == 0 {
		l.logger.Printf("run %s: no files to process in %s", report.RunID, opts.DataDir)
		report.TotalTime = time.Since(start)
		return report, nil
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	// Max latency of 10 seconds, significant figures of 3
	histogram := hdrhistogram.New(1, 10000000000, 3)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan SourceFile)
	)

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				loadStart := time.Now()
				rows, err := l.loadFile(ctx, src, opts)
				latency := time.Since(loadStart)

				mu.Lock()
				if err != nil {
					report.FilesFailed++
					l.logger.Printf("run %s: failed to load %s: %v", report.RunID, src.Name, err)
				} else {
					report.FilesLoaded++
					report.RowsLoaded += rows
					histogram.RecordValue(latency.Microseconds())
				}
				mu.Unlock()
			}
		}()
	}

	for _, src := range files {
		jobs <- src
	}
	close(jobs)
	wg.Wait()

	report.TotalTime = time.Since(start)
	if report.FilesLoaded > 0 {
		report.AvgLatency = time.Duration(histogram.Mean()) * time.Microsecond
		report.P95Latency = time.Duration(histogram.ValueAtQuantile(95)) * time.Microsecond
		report.P99Latency = time.Duration(histogram.ValueAtQuantile(99)) * time.Microsecond
	}
	return report, nil
}

// loadFile parses one export and, unless dry-running, writes its rows
// in a single transaction and moves the file to processed/.
func (l *Loader) loadFile(ctx context.Context, src SourceFile, opts Options) (int64, error) {
	records, err := ParseFile(src)
	if err != nil {
		return 0, err
	}
	l.logger.Printf("processing %s (shop %d, cash %d): %d rows", src.Name, src.ShopNum, src.CashNum, len(records))

	if opts.DryRun {
		return int64(len(records)), nil
	}

	rows, err := l.store.InsertBatch(ctx, records)
	if err != nil {
		return 0, err
	}

	if err := moveToProcessed(src, opts.DataDir); err != nil {
		return rows, fmt.Errorf("loaded but could not archive %s: %w", src.Name, err)
	}
	return rows, nil
}

func moveToProcessed(src SourceFile, dataDir string) error {
	processedDir := filepath.Join(dataDir, ProcessedDirName)
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	return os.Rename(src.Path, filepath.Join(processedDir, src.Name))
}

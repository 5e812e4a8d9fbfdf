package loader

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sales-ingest/internal/sales"
)

// fakeInserter records batches in memory; failNames marks files whose
// batch should be rejected.
type fakeInserter struct {
	mu        sync.Mutex
	batches   map[string]int // file_name -> rows
	failNames map[string]bool
}

func newFakeInserter(failNames ...string) *fakeInserter {
	fail := make(map[string]bool, len(failNames))
	for _, n := range failNames {
		fail[n] = true
	}
	return &fakeInserter{batches: make(map[string]int), failNames: fail}
}

func (f *fakeInserter) InsertBatch(ctx context.Context, batch []sales.Sale) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}
	name := batch[0].FileName
	if f.failNames[name] {
		return 0, fmt.Errorf("insert %s: simulated rejection", name)
	}
	f.batches[name] += len(batch)
	return int64(len(batch)), nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRunLoadsAndArchivesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1_1.csv", goodCSV)
	writeFile(t, dir, "2_1.csv", goodCSV)
	writeFile(t, dir, "ignore.me", "junk")

	store := newFakeInserter()
	report, err := New(store, testLogger()).Run(context.Background(), Options{DataDir: dir})

	require.NoError(t, err)
	require.Equal(t, 2, report.FilesFound)
	require.Equal(t, 2, report.FilesLoaded)
	require.Equal(t, 0, report.FilesFailed)
	require.Equal(t, 1, report.FilesSkipped)
	require.Equal(t, int64(6), report.RowsLoaded)
	require.NotEmpty(t, report.RunID)

	require.Equal(t, 3, store.batches["1_1.csv"])
	require.Equal(t, 3, store.batches["2_1.csv"])

	// Loaded files are archived, skipped files stay put.
	require.FileExists(t, filepath.Join(dir, ProcessedDirName, "1_1.csv"))
	require.FileExists(t, filepath.Join(dir, ProcessedDirName, "2_1.csv"))
	require.FileExists(t, filepath.Join(dir, "ignore.me"))
	require.NoFileExists(t, filepath.Join(dir, "1_1.csv"))
}

func TestRunLeavesFailedFileInPlace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1_1.csv", goodCSV)
	writeFile(t, dir, "2_1.csv", goodCSV)

	store := newFakeInserter("2_1.csv")
	report, err := New(store, testLogger()).Run(context.Background(), Options{DataDir: dir})

	require.NoError(t, err)
	require.Equal(t, 1, report.FilesLoaded)
	require.Equal(t, 1, report.FilesFailed)
	require.Equal(t, int64(3), report.RowsLoaded)

	require.FileExists(t, filepath.Join(dir, "2_1.csv"), "failed file must stay for inspection")
	require.FileExists(t, filepath.Join(dir, ProcessedDirName, "1_1.csv"))
}

func TestRunMalformedFileFailsWithoutInsert(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1_1.csv", "doc_id,item\nD1,Bread\n")

	store := newFakeInserter()
	report, err := New(store, testLogger()).Run(context.Background(), Options{DataDir: dir})

	require.NoError(t, err)
	require.Equal(t, 1, report.FilesFailed)
	require.Empty(t, store.batches)
	require.FileExists(t, filepath.Join(dir, "1_1.csv"))
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1_1.csv", goodCSV)

	store := newFakeInserter()
	report, err := New(store, testLogger()).Run(context.Background(), Options{DataDir: dir, DryRun: true})

	require.NoError(t, err)
	require.Equal(t, 1, report.FilesLoaded)
	require.Equal(t, int64(3), report.RowsLoaded)
	require.Empty(t, store.batches, "dry run must not write")
	require.FileExists(t, filepath.Join(dir, "1_1.csv"), "dry run must not move files")
	require.NoDirExists(t, filepath.Join(dir, ProcessedDirName))
}

func TestRunEmptyDir(t *testing.T) {
	dir := t.TempDir()

	report, err := New(newFakeInserter(), testLogger()).Run(context.Background(), Options{DataDir: dir})

	require.NoError(t, err)
	require.Equal(t, 0, report.FilesFound)
	require.Equal(t, int64(0), report.RowsLoaded)
}

func TestRunConcurrent(t *testing.T) {
	dir := t.TempDir()
	const files = 20
	for i := 1; i <= files; i++ {
		writeFile(t, dir, fmt.Sprintf("%d_1.csv", i), goodCSV)
	}

	store := newFakeInserter()
	report, err := New(store, testLogger()).Run(context.Background(), Options{DataDir: dir, Concurrency: 4})

	require.NoError(t, err)
	require.Equal(t, files, report.FilesLoaded)
	require.Equal(t, int64(files*3), report.RowsLoaded)
	require.Len(t, store.batches, files)

	entries, err := os.ReadDir(filepath.Join(dir, ProcessedDirName))
	require.NoError(t, err)
	require.Len(t, entries, files)
}

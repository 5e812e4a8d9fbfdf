package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"sales-ingest/internal/sales"
)

// Only files named {shop_num}_{cash_num}.csv are loadable; anything
// else in the data directory is skipped.
var fileNamePattern = regexp.MustCompile(`^(\d+)_(\d+)\.csv$`)

var requiredColumns = []string{"doc_id", "item", "category", "amount", "price", "discount"}

// SourceFile is one loadable export found in the data directory. The
// originating terminal is encoded in the file name.
type SourceFile struct {
	Path    string
	Name    string
	ShopNum int
	CashNum int
}

// FindSourceFiles scans dataDir for loadable exports. Names that do not
// match the pattern are returned separately so the caller can log them.
func FindSourceFiles(dataDir string) (files []SourceFile, skipped []string, err error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := fileNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			skipped = append(skipped, entry.Name())
			continue
		}
		shopNum, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("file %s: shop number: %w", entry.Name(), err)
		}
		cashNum, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, nil, fmt.Errorf("file %s: cash number: %w", entry.Name(), err)
		}
		files = append(files, SourceFile{
			Path:    filepath.Join(dataDir, entry.Name()),
			Name:    entry.Name(),
			ShopNum: shopNum,
			CashNum: cashNum,
		})
	}
	return files, skipped, nil
}

// ParseFile reads one export and converts its rows into sales records,
// stamping each with the terminal from the file name and the file name
// itself for provenance. Any malformed row fails the whole file.
func ParseFile(src SourceFile) ([]sales.Sale, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("file %s: read header: %w", src.Name, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("file %s: missing column %q", src.Name, name)
		}
	}

	var records []sales.Sale
	for line := 2; ; line++ {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("file %s line %d: %w", src.Name, line, err)
		}

		sale, err := parseRow(row, index, src)
		if err != nil {
			return nil, fmt.Errorf("file %s line %d: %w", src.Name, line, err)
		}
		records = append(records, sale)
	}
	return records, nil
}

func parseRow(row []string, index map[string]int, src SourceFile) (sales.Sale, error) {
	field := func(name string) string { return row[index[name]] }

	amount, err := strconv.Atoi(field("amount"))
	if err != nil {
		return sales.Sale{}, fmt.Errorf("amount %q: %w", field("amount"), err)
	}
	price, err := decimal.NewFromString(field("price"))
	if err != nil {
		return sales.Sale{}, fmt.Errorf("price %q: %w", field("price"), err)
	}
	discount, err := decimal.NewFromString(field("discount"))
	if err != nil {
		return sales.Sale{}, fmt.Errorf("discount %q: %w", field("discount"), err)
	}

	sale := sales.Sale{
		DocID:    field("doc_id"),
		Item:     field("item"),
		Category: field("category"),
		Amount:   amount,
		Price:    price,
		Discount: discount,
		ShopNum:  src.ShopNum,
		CashNum:  src.CashNum,
		FileName: src.Name,
	}
	if err := sale.Validate(); err != nil {
		return sales.Sale{}, err
	}
	return sale, nil
}

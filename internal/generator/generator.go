// Package generator produces synthetic point-of-sale CSV exports, one
// file per cash register, named {shop_num}_{cash_num}.csv. The files
// feed the loader in test and staging environments.
package generator

import (
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// catalog is the merchandise the synthetic receipts draw from, grouped
// by category. Order matters: generation must be reproducible under a
// fixed seed.
var catalog = []struct {
	Category string
	Items    []string
}{
	{"бытовая химия", []string{
		"Стиральный порошок",
		"Гель для стирки",
		"Средство для мытья посуды",
		"Чистящее средство для ванной",
		"Универсальный очиститель",
	}},
	{"текстиль", []string{
		"Полотенце махровое",
		"Комплект постельного белья",
		"Скатерть",
		"Плед флисовый",
	}},
	{"кухонная утварь", []string{
		"Сковорода",
		"Кастрюля",
		"Разделочная доска",
		"Нож кухонный",
		"Набор столовых приборов",
	}},
	{"товары для дома", []string{
		"Ведро",
		"Контейнер для хранения",
		"Корзина для белья",
		"Вешалки для одежды",
	}},
}

const docIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const docIDLength = 10

// Header is the column order of every generated export.
var Header = []string{"doc_id", "item", "category", "amount", "price", "discount"}

// Params bound one generation run.
type Params struct {
	Shops       int // number of shops, numbered from 1
	MinCash     int // fewest cash registers per shop
	MaxCash     int // most cash registers per shop
	MinReceipts int // fewest receipts per register
	MaxReceipts int // most receipts per register
}

// Summary reports what a run produced.
type Summary struct {
	Files int
	Rows  int
}

type Generator struct {
	rng    *rand.Rand
	logger *log.Logger
}

// New returns a generator seeded for reproducible output.
func New(seed int64, logger *log.Logger) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
}

func (g *Generator) docID() string {
	b := make([]byte, docIDLength)
	for i := range b {
		b[i] = docIDAlphabet[g.rng.Intn(len(docIDAlphabet))]
	}
	return string(b)
}

func (g *Generator) pickItem() (item, category string) {
	entry := catalog[g.rng.Intn(len(catalog))]
	return entry.Items[g.rng.Intn(len(entry.Items))], entry.Category
}

// intBetween returns a random int in [lo, hi].
func (g *Generator) intBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}

// registerRows produces the line items of every receipt rung up at one
// cash register: 1 to 5 items per receipt, quantities in [1,5], unit
// prices in [50,3000], and roughly 30% of lines discounted by up to 30%
// of the line total.
func (g *Generator) registerRows(p Params) [][]string {
	var rows [][]string
	receipts := g.intBetween(p.MinReceipts, p.MaxReceipts)

	for r := 0; r < receipts; r++ {
		docID := g.docID()
		items := g.intBetween(1, 5)

		for i := 0; i < items; i++ {
			item, category := g.pickItem()
			amount := g.intBetween(1, 5)
			price := decimal.NewFromFloat(50 + g.rng.Float64()*2950).Round(2)

			discount := decimal.Zero
			if g.rng.Float64() < 0.3 {
				lineTotal := price.Mul(decimal.NewFromInt(int64(amount)))
				maxDiscount, _ := lineTotal.Mul(decimal.NewFromFloat(0.3)).Float64()
				discount = decimal.NewFromFloat(g.rng.Float64() * maxDiscount).Round(2)
			}

			rows = append(rows, []string{
				docID,
				item,
				category,
				fmt.Sprintf("%d", amount),
				price.StringFixed(2),
				discount.StringFixed(2),
			})
		}
	}

	return rows
}

// Generate writes one CSV per cash register under outputDir, creating
// the directory if needed.
func (g *Generator) Generate(outputDir string, p Params) (*Summary, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	summary := &Summary{}
	for shop := 1; shop <= p.Shops; shop++ {
		registers := g.intBetween(p.MinCash, p.MaxCash)
		g.logger.Printf("shop %d: %d cash registers", shop, registers)

		for cash := 1; cash <= registers; cash++ {
			rows := g.registerRows(p)
			path := filepath.Join(outputDir, fmt.Sprintf("%d_%d.csv", shop, cash))
			if err := writeCSV(path, rows); err != nil {
				return nil, err
			}
			g.logger.Printf("generated %s (%d rows)", path, len(rows))
			summary.Files++
			summary.Rows += len(rows)
		}
	}
	return summary, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil { // WriteAll flushes
		f.Close()
		return err
	}
	return f.Close()
}

// CleanupOld removes generated CSVs whose modification time is older
// than the retention window and returns how many were deleted.
func (g *Generator) CleanupOld(outputDir string, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)

	matches, err := filepath.Glob(filepath.Join(outputDir, "*.csv"))
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return deleted, err
		}
		if info.ModTime().Before(cutoff) {
			g.logger.Printf("removing expired export %s (mtime %s)", path, info.ModTime().Format(time.RFC3339))
			if err := os.Remove(path); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

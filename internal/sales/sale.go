package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDocIDLen is the widest document identifier the table accepts.
const MaxDocIDLen = 64

// Sale is one line item of a receipt: a single article sold in a single
// transaction document at one shop/cash-register terminal. ID and
// LoadDttm are assigned by the database on insert and must not be set
// by callers.
type Sale struct {
	ID       int64
	DocID    string
	Item     string
	Category string
	Amount   int
	Price    decimal.Decimal
	Discount decimal.Decimal
	ShopNum  int
	CashNum  int
	FileName string
	LoadDttm time.Time
}

// Validate mirrors the table constraints client-side so the loader can
// reject a bad row before opening a transaction. The database remains
// the enforcing layer.
func (s *Sale) Validate() error {
	if s.DocID == "" {
		return fmt.Errorf("doc_id is required")
	}
	if len(s.DocID) > MaxDocIDLen {
		return fmt.Errorf("doc_id %q exceeds %d characters", s.DocID, MaxDocIDLen)
	}
	if s.Item == "" {
		return fmt.Errorf("item is required")
	}
	if s.Category == "" {
		return fmt.Errorf("category is required")
	}
	if s.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", s.Amount)
	}
	if s.Price.IsNegative() {
		return fmt.Errorf("price must not be negative, got %s", s.Price)
	}
	if s.Discount.IsNegative() {
		return fmt.Errorf("discount must not be negative, got %s", s.Discount)
	}
	if s.FileName == "" {
		return fmt.Errorf("file_name is required")
	}
	return nil
}

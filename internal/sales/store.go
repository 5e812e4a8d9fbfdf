package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sales-ingest/internal/database"
)

// SQLSTATE classes the store reports as constraint rejections.
const (
	codeNotNullViolation = "23502"
	codeCheckViolation   = "23514"
)

// ConstraintError is an insert the database rejected for violating a
// CHECK or NOT NULL constraint on the sales table.
type ConstraintError struct {
	Constraint string // named constraint, set for CHECK violations
	Column     string // column name, set for NOT NULL violations
	Code       string // SQLSTATE
}

func (e *ConstraintError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("sales: column %s must not be null (SQLSTATE %s)", e.Column, e.Code)
	}
	return fmt.Sprintf("sales: constraint %s violated (SQLSTATE %s)", e.Constraint, e.Code)
}

func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeNotNullViolation, codeCheckViolation:
			return &ConstraintError{
				Constraint: pgErr.ConstraintName,
				Column:     pgErr.ColumnName,
				Code:       pgErr.Code,
			}
		}
	}
	return err
}

// Store reads and writes sales line items. Rows are immutable once
// inserted, so no update or delete operations exist.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const insertSaleSQL = `
INSERT INTO public.sales (doc_id, item, category, amount, price, discount, shop_num, cash_num, file_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, load_dttm;`

// Insert writes a single line item and fills in the database-assigned
// ID and LoadDttm on the passed record.
func (s *Store) Insert(ctx context.Context, sale *Sale) error {
	err := s.pool.QueryRow(ctx, insertSaleSQL,
		sale.DocID, sale.Item, sale.Category, sale.Amount,
		sale.Price, sale.Discount, sale.ShopNum, sale.CashNum, sale.FileName,
	).Scan(&sale.ID, &sale.LoadDttm)
	if err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

var copyColumns = []string{
	"doc_id", "item", "category", "amount", "price",
	"discount", "shop_num", "cash_num", "file_name",
}

// InsertBatch bulk-loads line items through COPY inside one
// transaction. The batch is all-or-nothing: a single rejected row rolls
// back every row in it.
func (s *Store) InsertBatch(ctx context.Context, batch []Sale) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, len(batch))
	for i, sale := range batch {
		rows[i] = []interface{}{
			sale.DocID, sale.Item, sale.Category, sale.Amount,
			sale.Price, sale.Discount, sale.ShopNum, sale.CashNum, sale.FileName,
		}
	}

	var copied int64
	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"public", "sales"},
			copyColumns,
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return err
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, mapConstraintErr(err)
	}
	return copied, nil
}

const selectSaleColumns = `id, doc_id, item, category, amount, price, discount, shop_num, cash_num, file_name, load_dttm`

// ByDoc returns every line item of one transaction document, in
// insertion order. Served by idx_sales_doc_id.
func (s *Store) ByDoc(ctx context.Context, docID string) ([]Sale, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectSaleColumns+` FROM public.sales WHERE doc_id = $1 ORDER BY id`, docID)
	if err != nil {
		return nil, err
	}
	return scanSales(rows)
}

// ByTerminal returns every line item rung up at one shop/cash-register
// pair, in insertion order. Served by idx_sales_shop_cash.
func (s *Store) ByTerminal(ctx context.Context, shopNum, cashNum int) ([]Sale, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectSaleColumns+` FROM public.sales WHERE shop_num = $1 AND cash_num = $2 ORDER BY id`,
		shopNum, cashNum)
	if err != nil {
		return nil, err
	}
	return scanSales(rows)
}

// CountByFile reports how many rows were ingested from the named source
// file.
func (s *Store) CountByFile(ctx context.Context, fileName string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM public.sales WHERE file_name = $1`, fileName).Scan(&count)
	return count, err
}

func scanSales(rows pgx.Rows) ([]Sale, error) {
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		var sale Sale
		err := rows.Scan(
			&sale.ID, &sale.DocID, &sale.Item, &sale.Category, &sale.Amount,
			&sale.Price, &sale.Discount, &sale.ShopNum, &sale.CashNum,
			&sale.FileName, &sale.LoadDttm,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}

package sales

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createSalesTableSQL = `
CREATE TABLE IF NOT EXISTS public.sales (
	id        BIGSERIAL PRIMARY KEY,
	doc_id    VARCHAR(64) NOT NULL,
	item      TEXT NOT NULL,
	category  TEXT NOT NULL,
	amount    INTEGER NOT NULL CONSTRAINT chk_sales_amount_positive CHECK (amount > 0),
	price     NUMERIC(10, 2) NOT NULL CONSTRAINT chk_sales_price_not_negative CHECK (price >= 0),
	discount  NUMERIC(10, 2) NOT NULL CONSTRAINT chk_sales_discount_not_negative CHECK (discount >= 0),
	shop_num  INTEGER NOT NULL,
	cash_num  INTEGER NOT NULL,
	file_name TEXT NOT NULL,
	load_dttm TIMESTAMP NOT NULL DEFAULT now()
);`

const createShopCashIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_sales_shop_cash ON public.sales (shop_num, cash_num);`

const createDocIDIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_sales_doc_id ON public.sales (doc_id);`

// EnsureSchema creates the sales table and its indexes. Every statement
// carries IF NOT EXISTS, so re-applying against a provisioned database
// is a no-op and existing data is left untouched.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		createSalesTableSQL,
		createShopCashIndexSQL,
		createDocIDIndexSQL,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply sales schema: %w", err)
		}
	}
	return nil
}

package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// AnalyticsRepo runs read-only rollups over sales/sale_items/products.
type AnalyticsRepo struct{ db *sqlx.DB }

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

type Summary struct {
	TotalRevenue     decimal.Decimal `db:"total_revenue" json:"totalRevenue"`
	SaleCount        int             `db:"sale_count" json:"saleCount"`
	OutstandingTotal decimal.Decimal `db:"outstanding_total" json:"outstandingTotal"`
	LowStockCount    int             `db:"low_stock_count" json:"lowStockCount"`
}

type DayRevenue struct {
	Day     string          `db:"day" json:"day"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
	Sales   int             `db:"sales" json:"sales"`
}

type TopProduct struct {
	ProductID int64           `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	UnitsSold int             `db:"units_sold" json:"unitsSold"`
	Revenue   decimal.Decimal `db:"revenue" json:"revenue"`
}

func (r *AnalyticsRepo) Summary(lowStockAt int) (Summary, error) {
	var s Summary
	err := r.db.Get(&s, `
	  SELECT
	    (SELECT COALESCE(SUM(total_amount), 0) FROM sales)                AS total_revenue,
	    (SELECT COUNT(*) FROM sales)                                      AS sale_count,
	    (SELECT COALESCE(SUM(outstanding_balance), 0) FROM customers)     AS outstanding_total,
	    (SELECT COUNT(*) FROM products WHERE stock <= ?)                  AS low_stock_count
	`, lowStockAt)
	return s, err
}

func (r *AnalyticsRepo) RevenueByDay(days int) ([]DayRevenue, error) {
	out := []DayRevenue{}
	err := r.db.Select(&out, `
	  SELECT sale_date AS day,
	         COALESCE(SUM(total_amount), 0) AS revenue,
	         COUNT(*) AS sales
	  FROM sales
	  WHERE sale_date >= date('now', ?)
	  GROUP BY sale_date
	  ORDER BY sale_date
	`, fmt.Sprintf("-%d days", days))
	return out, err
}

func (r *AnalyticsRepo) TopProducts(limit int) ([]TopProduct, error) {
	out := []TopProduct{}
	err := r.db.Select(&out, `
	  SELECT si.product_id,
	         COALESCE(p.name, '(product removed)') AS name,
	         SUM(si.quantity)                      AS units_sold,
	         SUM(si.quantity * si.price_at_sale)   AS revenue
	  FROM sale_items si
	  LEFT JOIN products p ON p.id = si.product_id
	  GROUP BY si.product_id
	  ORDER BY units_sold DESC, revenue DESC
	  LIMIT ?
	`, limit)
	return out, err
}

package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"shopledger/internal/domain"
)

type SaleRepo struct{ db *sqlx.DB }

func NewSaleRepo(db *sqlx.DB) *SaleRepo { return &SaleRepo{db: db} }

const saleCols = `
  id, customer_id, sale_date, sub_total, discount, total_amount,
  payment_method, payment_status, notes, receipt_image, created_at`

// itemCols joins products weakly: a deleted product degrades to a
// placeholder name instead of dropping the line.
const itemCols = `
  si.id, si.sale_id, si.product_id,
  COALESCE(p.name, '(product removed)') AS product_name,
  COALESCE(p.sku,  '')                  AS product_sku,
  si.quantity, si.price_at_sale`

// ---------- transactional writes (sale service owns the tx) ----------

func (r *SaleRepo) InsertHeaderTx(tx *sqlx.Tx, s domain.Sale) (int64, error) {
	res, err := tx.Exec(`
	  INSERT INTO sales
	    (customer_id, sale_date, sub_total, discount, total_amount,
	     payment_method, payment_status, notes, receipt_image)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.CustomerID, s.SaleDate, s.SubTotal, s.Discount, s.TotalAmount,
		s.PaymentMethod, s.PaymentStatus, s.Notes, s.ReceiptImage)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SaleRepo) InsertItemTx(tx *sqlx.Tx, it domain.SaleItem) error {
	_, err := tx.Exec(`
	  INSERT INTO sale_items(sale_id, product_id, quantity, price_at_sale)
	  VALUES(?, ?, ?, ?)
	`, it.SaleID, it.ProductID, it.Quantity, it.PriceAtSale)
	return err
}

func (r *SaleRepo) UpdateHeaderTx(tx *sqlx.Tx, s domain.Sale) error {
	_, err := tx.Exec(`
	  UPDATE sales
	  SET customer_id = ?, sale_date = ?, sub_total = ?, discount = ?, total_amount = ?,
	      payment_method = ?, payment_status = ?, notes = ?, receipt_image = ?
	  WHERE id = ?
	`, s.CustomerID, s.SaleDate, s.SubTotal, s.Discount, s.TotalAmount,
		s.PaymentMethod, s.PaymentStatus, s.Notes, s.ReceiptImage, s.ID)
	return err
}

func (r *SaleRepo) UpdateStatusTx(tx *sqlx.Tx, saleID int64, status string) error {
	_, err := tx.Exec(`UPDATE sales SET payment_status = ? WHERE id = ?`, status, saleID)
	return err
}

func (r *SaleRepo) DeleteItemsTx(tx *sqlx.Tx, saleID int64) error {
	_, err := tx.Exec(`DELETE FROM sale_items WHERE sale_id = ?`, saleID)
	return err
}

// DeleteTx removes the header; sale_items cascade.
func (r *SaleRepo) DeleteTx(tx *sqlx.Tx, saleID int64) error {
	_, err := tx.Exec(`DELETE FROM sales WHERE id = ?`, saleID)
	return err
}

func (r *SaleRepo) HeaderTx(tx *sqlx.Tx, saleID int64) (domain.Sale, error) {
	var s domain.Sale
	err := tx.Get(&s, `SELECT `+saleCols+` FROM sales WHERE id = ?`, saleID)
	if err == sql.ErrNoRows {
		return s, domain.ErrSaleNotFound
	}
	return s, err
}

func (r *SaleRepo) ItemsTx(tx *sqlx.Tx, saleID int64) ([]domain.SaleItem, error) {
	out := []domain.SaleItem{}
	err := tx.Select(&out, `
	  SELECT `+itemCols+`
	  FROM sale_items si
	  LEFT JOIN products p ON p.id = si.product_id
	  WHERE si.sale_id = ?
	  ORDER BY si.id
	`, saleID)
	return out, err
}

// ---------- reads ----------

// Get loads the full aggregate: header, customer summary, line items.
func (r *SaleRepo) Get(saleID int64) (domain.SaleAggregate, error) {
	var agg domain.SaleAggregate
	err := r.db.Get(&agg.Sale, `SELECT `+saleCols+` FROM sales WHERE id = ?`, saleID)
	if err == sql.ErrNoRows {
		return agg, domain.ErrSaleNotFound
	}
	if err != nil {
		return agg, err
	}

	if agg.CustomerID != nil {
		var cs domain.CustomerSummary
		if err := r.db.Get(&cs, `SELECT id, name, contact FROM customers WHERE id = ?`, *agg.CustomerID); err == nil {
			agg.Customer = &cs
		} else if err != sql.ErrNoRows {
			return agg, err
		}
	}

	agg.Items = []domain.SaleItem{}
	err = r.db.Select(&agg.Items, `
	  SELECT `+itemCols+`
	  FROM sale_items si
	  LEFT JOIN products p ON p.id = si.product_id
	  WHERE si.sale_id = ?
	  ORDER BY si.id
	`, saleID)
	return agg, err
}

// List returns sale headers, newest first.
func (r *SaleRepo) List(limit, offset int) ([]domain.Sale, error) {
	out := []domain.Sale{}
	err := r.db.Select(&out, `
	  SELECT `+saleCols+`
	  FROM sales
	  ORDER BY datetime(created_at) DESC, id DESC
	  LIMIT ? OFFSET ?
	`, limit, offset)
	return out, err
}

// ListByCustomer returns a customer's sale headers, newest first.
func (r *SaleRepo) ListByCustomer(customerID int64, limit, offset int) ([]domain.Sale, error) {
	out := []domain.Sale{}
	err := r.db.Select(&out, `
	  SELECT `+saleCols+`
	  FROM sales
	  WHERE customer_id = ?
	  ORDER BY datetime(created_at) DESC, id DESC
	  LIMIT ? OFFSET ?
	`, customerID, limit, offset)
	return out, err
}

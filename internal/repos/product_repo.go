package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"shopledger/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, name, sku, selling_price, purchase_price, minimum_price, stock,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) List(q string, limit, offset int) ([]domain.Product, error) {
	out := []domain.Product{}
	if q != "" {
		err := r.db.Select(&out, `
		  SELECT `+productCols+`
		  FROM products
		  WHERE LOWER(name) LIKE ? OR LOWER(sku) LIKE ?
		  ORDER BY name
		  LIMIT ? OFFSET ?
		`, "%"+q+"%", "%"+q+"%", limit, offset)
		return out, err
	}
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  ORDER BY name
	  LIMIT ? OFFSET ?
	`, limit, offset)
	return out, err
}

func (r *ProductRepo) Get(id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return p, domain.ErrProductNotFound
	}
	return p, err
}

func (r *ProductRepo) Create(p domain.Product) (int64, error) {
	res, err := r.db.Exec(`
	  INSERT INTO products(name, sku, selling_price, purchase_price, minimum_price, stock)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, p.Name, p.SKU, p.SellingPrice, p.PurchasePrice, p.MinimumPrice, p.Stock)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update never touches stock: stock moves only through the sale flow.
func (r *ProductRepo) Update(p domain.Product) error {
	res, err := r.db.Exec(`
	  UPDATE products
	  SET name = ?, sku = ?, selling_price = ?, purchase_price = ?, minimum_price = ?,
	      updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, p.Name, p.SKU, p.SellingPrice, p.PurchasePrice, p.MinimumPrice, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete removes the product row only. Historical sale_items keep their
// (now dangling) product_id and stay readable.
func (r *ProductRepo) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// BatchTx resolves a set of product ids inside a sale transaction. Callers
// compare result size against the requested set: any unknown id aborts the
// whole operation.
func (r *ProductRepo) BatchTx(tx *sqlx.Tx, ids []int64) ([]domain.Product, error) {
	query, args, err := sqlx.In(`SELECT `+productCols+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	out := []domain.Product{}
	err = tx.Select(&out, query, args...)
	return out, err
}

// DecrementStockTx subtracts "by" units if enough stock exists. The check and
// the write are one statement, so two concurrent sales cannot both pass a
// stale read. Returns false when the guard rejected the decrement.
func (r *ProductRepo) DecrementStockTx(tx *sqlx.Tx, id int64, by int) (bool, error) {
	res, err := tx.Exec(`
	  UPDATE products
	  SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND stock >= ?
	`, by, id, by)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// IncrementStockTx restores stock on sale deletion or item replacement. A
// missing product (deleted after the sale) is a no-op, not an error.
func (r *ProductRepo) IncrementStockTx(tx *sqlx.Tx, id int64, by int) error {
	_, err := tx.Exec(`
	  UPDATE products
	  SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, by, id)
	return err
}

// StockTx re-reads current stock, used to report the live quantity when a
// guarded decrement loses a race.
func (r *ProductRepo) StockTx(tx *sqlx.Tx, id int64) (int, error) {
	var qty int
	err := tx.Get(&qty, `SELECT stock FROM products WHERE id = ?`, id)
	return qty, err
}

package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shopledger/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerCols = `id, name, contact, address, credit_limit, outstanding_balance, created_at`

func (r *CustomerRepo) List(limit, offset int) ([]domain.Customer, error) {
	out := []domain.Customer{}
	err := r.db.Select(&out, `
	  SELECT `+customerCols+`
	  FROM customers
	  ORDER BY name
	  LIMIT ? OFFSET ?
	`, limit, offset)
	return out, err
}

func (r *CustomerRepo) Get(id int64) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.Get(&c, `SELECT `+customerCols+` FROM customers WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return c, domain.ErrCustomerNotFound
	}
	return c, err
}

func (r *CustomerRepo) Create(c domain.Customer) (int64, error) {
	res, err := r.db.Exec(`
	  INSERT INTO customers(name, contact, address, credit_limit)
	  VALUES(?, ?, ?, ?)
	`, c.Name, c.Contact, c.Address, c.CreditLimit)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CustomerRepo) Update(c domain.Customer) error {
	res, err := r.db.Exec(`
	  UPDATE customers
	  SET name = ?, contact = ?, address = ?, credit_limit = ?
	  WHERE id = ?
	`, c.Name, c.Contact, c.Address, c.CreditLimit, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepo) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

// GetTx resolves a customer inside a sale/payment transaction.
func (r *CustomerRepo) GetTx(tx *sqlx.Tx, id int64) (domain.Customer, error) {
	var c domain.Customer
	err := tx.Get(&c, `SELECT `+customerCols+` FROM customers WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return c, domain.ErrCustomerNotFound
	}
	return c, err
}

// AdjustBalanceTx applies a signed delta to the cached outstanding balance.
// Callers must pair every call with InsertLedgerTx in the same transaction.
func (r *CustomerRepo) AdjustBalanceTx(tx *sqlx.Tx, id int64, delta decimal.Decimal) error {
	res, err := tx.Exec(`
	  UPDATE customers
	  SET outstanding_balance = outstanding_balance + ?
	  WHERE id = ?
	`, delta, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

// InsertLedgerTx records the adjustment that AdjustBalanceTx just applied.
func (r *CustomerRepo) InsertLedgerTx(tx *sqlx.Tx, e domain.LedgerEntry) error {
	_, err := tx.Exec(`
	  INSERT INTO ledger_entries(customer_id, sale_id, payment_id, amount, reason)
	  VALUES(?, ?, ?, ?, ?)
	`, e.CustomerID, e.SaleID, e.PaymentID, e.Amount, e.Reason)
	return err
}

// CustomerNet is one customer's summed ledger amount for a single sale.
type CustomerNet struct {
	CustomerID int64           `db:"customer_id"`
	Net        decimal.Decimal `db:"net"`
}

// SaleLedgerNetsTx sums every ledger entry tied to one sale, grouped by the
// customer each entry was booked against. A sale reassigned between customers
// can carry entries for more than one of them; deleting the sale reverses
// each customer's own net.
func (r *CustomerRepo) SaleLedgerNetsTx(tx *sqlx.Tx, saleID int64) ([]CustomerNet, error) {
	out := []CustomerNet{}
	err := tx.Select(&out, `
	  SELECT customer_id, COALESCE(SUM(amount), 0) AS net
	  FROM ledger_entries
	  WHERE sale_id = ?
	  GROUP BY customer_id
	`, saleID)
	return out, err
}

// SaleExposureTx sums the sale's non-payment ledger entries per customer:
// the creation-time credit adjustment plus any later sale adjustments, with
// payment entries excluded. This is the debt the sale itself currently books.
func (r *CustomerRepo) SaleExposureTx(tx *sqlx.Tx, saleID int64) ([]CustomerNet, error) {
	out := []CustomerNet{}
	err := tx.Select(&out, `
	  SELECT customer_id, COALESCE(SUM(amount), 0) AS net
	  FROM ledger_entries
	  WHERE sale_id = ? AND payment_id IS NULL
	  GROUP BY customer_id
	`, saleID)
	return out, err
}

// LedgerBalance recomputes a customer's balance from the full ledger, for
// drift audits against the cached column.
func (r *CustomerRepo) LedgerBalance(id int64) (decimal.Decimal, error) {
	var d decimal.Decimal
	err := r.db.Get(&d, `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE customer_id = ?`, id)
	return d, err
}

// Ledger lists a customer's ledger entries, newest first.
func (r *CustomerRepo) Ledger(id int64, limit int) ([]domain.LedgerEntry, error) {
	out := []domain.LedgerEntry{}
	err := r.db.Select(&out, `
	  SELECT id, customer_id, sale_id, payment_id, amount, reason, created_at
	  FROM ledger_entries
	  WHERE customer_id = ?
	  ORDER BY id DESC
	  LIMIT ?
	`, id, limit)
	return out, err
}

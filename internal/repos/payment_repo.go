package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shopledger/internal/domain"
)

type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, customer_id, sale_id, amount, payment_method, payment_date, notes, created_at`

func (r *PaymentRepo) InsertTx(tx *sqlx.Tx, p domain.Payment) (int64, error) {
	res, err := tx.Exec(`
	  INSERT INTO payments(customer_id, sale_id, amount, payment_method, payment_date, notes)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, p.CustomerID, p.SaleID, p.Amount, p.PaymentMethod, p.PaymentDate, p.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// PaidTowardSaleTx totals payments recorded against one sale, used to roll
// its payment status forward.
func (r *PaymentRepo) PaidTowardSaleTx(tx *sqlx.Tx, saleID int64) (decimal.Decimal, error) {
	var d decimal.Decimal
	err := tx.Get(&d, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE sale_id = ?`, saleID)
	return d, err
}

func (r *PaymentRepo) Get(id int64) (domain.Payment, error) {
	var p domain.Payment
	err := r.db.Get(&p, `SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return p, domain.ErrPaymentNotFound
	}
	return p, err
}

func (r *PaymentRepo) ListByCustomer(customerID int64, limit, offset int) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := r.db.Select(&out, `
	  SELECT `+paymentCols+`
	  FROM payments
	  WHERE customer_id = ?
	  ORDER BY datetime(created_at) DESC, id DESC
	  LIMIT ? OFFSET ?
	`, customerID, limit, offset)
	return out, err
}

package services

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shopledger/internal/domain"
	"shopledger/internal/repos"
	"shopledger/internal/validate"
)

type PaymentInput struct {
	CustomerID    int64           `json:"customerId"`
	SaleID        *int64          `json:"saleId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentDate   string          `json:"paymentDate"`
	Notes         string          `json:"notes"`
}

// PaymentService records payments against a customer's outstanding balance.
// The payment row, the balance decrement, the ledger entry and any sale
// status roll-forward commit in one transaction.
type PaymentService struct {
	db        *sqlx.DB
	Customers *repos.CustomerRepo
	Sales     *repos.SaleRepo
	Payments  *repos.PaymentRepo
}

func NewPaymentService(db *sqlx.DB, custs *repos.CustomerRepo, sales *repos.SaleRepo, pays *repos.PaymentRepo) *PaymentService {
	return &PaymentService{db: db, Customers: custs, Sales: sales, Payments: pays}
}

func (s *PaymentService) Record(in PaymentInput) (domain.Payment, error) {
	var none domain.Payment

	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return none, domain.Invalid("amount", "must be positive")
	}
	if !domain.ValidPaymentMethod(in.PaymentMethod) {
		return none, domain.Invalid("paymentMethod", "want cash, card or credit")
	}
	payDate := time.Now().Format("2006-01-02")
	if in.PaymentDate != "" {
		d, ok := validate.Date(in.PaymentDate)
		if !ok {
			return none, domain.Invalid("paymentDate", "want YYYY-MM-DD")
		}
		payDate = d
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return none, fmt.Errorf("begin payment: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.Customers.GetTx(tx, in.CustomerID); err != nil {
		return none, err
	}

	var sale *domain.Sale
	if in.SaleID != nil {
		got, err := s.Sales.HeaderTx(tx, *in.SaleID)
		if err != nil {
			return none, err
		}
		if got.CustomerID == nil || *got.CustomerID != in.CustomerID {
			return none, domain.Invalid("saleId", "sale does not belong to this customer")
		}
		sale = &got
	}

	payID, err := s.Payments.InsertTx(tx, domain.Payment{
		CustomerID:    in.CustomerID,
		SaleID:        in.SaleID,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		PaymentDate:   payDate,
		Notes:         in.Notes,
	})
	if err != nil {
		return none, fmt.Errorf("insert payment: %w", err)
	}

	if err := s.Customers.AdjustBalanceTx(tx, in.CustomerID, in.Amount.Neg()); err != nil {
		return none, err
	}
	if err := s.Customers.InsertLedgerTx(tx, domain.LedgerEntry{
		CustomerID: in.CustomerID,
		SaleID:     in.SaleID,
		PaymentID:  &payID,
		Amount:     in.Amount.Neg(),
		Reason:     domain.LedgerPayment,
	}); err != nil {
		return none, fmt.Errorf("ledger entry: %w", err)
	}

	// Roll a credit sale's status forward once payments cover its total.
	if sale != nil && sale.PaymentMethod == domain.PayCredit && sale.PaymentStatus != domain.StatusPaid {
		paid, err := s.Payments.PaidTowardSaleTx(tx, sale.ID)
		if err != nil {
			return none, err
		}
		status := domain.StatusPartial
		if paid.GreaterThanOrEqual(sale.TotalAmount) {
			status = domain.StatusPaid
		}
		if status != sale.PaymentStatus {
			if err := s.Sales.UpdateStatusTx(tx, sale.ID, status); err != nil {
				return none, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return none, fmt.Errorf("commit payment: %w", err)
	}
	return s.Payments.Get(payID)
}

func (s *PaymentService) ListByCustomer(customerID int64, page, pageSize int) ([]domain.Payment, error) {
	if _, err := s.Customers.Get(customerID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 25
	}
	return s.Payments.ListByCustomer(customerID, pageSize, (page-1)*pageSize)
}

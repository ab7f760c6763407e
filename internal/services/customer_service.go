package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"shopledger/internal/domain"
	"shopledger/internal/repos"
	"shopledger/internal/validate"
)

type CustomerInput struct {
	Name        string          `json:"name"`
	Contact     string          `json:"contact"`
	Address     string          `json:"address"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

// BalanceAudit compares the cached outstanding balance against the sum of
// the ledger. Drift should always be zero; a nonzero value means a balance
// mutation bypassed the ledger.
type BalanceAudit struct {
	CustomerID int64           `json:"customerId"`
	Recorded   decimal.Decimal `json:"recorded"`
	LedgerSum  decimal.Decimal `json:"ledgerSum"`
	Drift      decimal.Decimal `json:"drift"`
}

type CustomerService struct {
	Customers *repos.CustomerRepo
}

func NewCustomerService(custs *repos.CustomerRepo) *CustomerService {
	return &CustomerService{Customers: custs}
}

func (s *CustomerService) List(page, pageSize int) ([]domain.Customer, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 25
	}
	return s.Customers.List(pageSize, (page-1)*pageSize)
}

func (s *CustomerService) Get(id int64) (domain.Customer, error) {
	return s.Customers.Get(id)
}

func (s *CustomerService) Create(in CustomerInput) (domain.Customer, error) {
	var none domain.Customer
	c, err := buildCustomer(in)
	if err != nil {
		return none, err
	}
	id, err := s.Customers.Create(c)
	if err != nil {
		return none, fmt.Errorf("create customer: %w", err)
	}
	return s.Customers.Get(id)
}

func (s *CustomerService) Update(id int64, in CustomerInput) (domain.Customer, error) {
	var none domain.Customer
	c, err := buildCustomer(in)
	if err != nil {
		return none, err
	}
	c.ID = id
	if err := s.Customers.Update(c); err != nil {
		return none, err
	}
	return s.Customers.Get(id)
}

func (s *CustomerService) Delete(id int64) error {
	return s.Customers.Delete(id)
}

func (s *CustomerService) Audit(id int64) (BalanceAudit, error) {
	c, err := s.Customers.Get(id)
	if err != nil {
		return BalanceAudit{}, err
	}
	ledger, err := s.Customers.LedgerBalance(id)
	if err != nil {
		return BalanceAudit{}, err
	}
	return BalanceAudit{
		CustomerID: id,
		Recorded:   c.OutstandingBalance,
		LedgerSum:  ledger,
		Drift:      c.OutstandingBalance.Sub(ledger),
	}, nil
}

func (s *CustomerService) Ledger(id int64, limit int) ([]domain.LedgerEntry, error) {
	if _, err := s.Customers.Get(id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.Customers.Ledger(id, limit)
}

func buildCustomer(in CustomerInput) (domain.Customer, error) {
	var none domain.Customer
	name, ok := validate.Name(in.Name)
	if !ok {
		return none, domain.Invalid("name", "must be 1-120 characters")
	}
	if !validate.Money(in.CreditLimit) {
		return none, domain.Invalid("creditLimit", "must not be negative")
	}
	return domain.Customer{
		Name:        name,
		Contact:     in.Contact,
		Address:     in.Address,
		CreditLimit: in.CreditLimit,
	}, nil
}

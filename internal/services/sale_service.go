package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shopledger/internal/domain"
	"shopledger/internal/repos"
	"shopledger/internal/validate"
)

// SaleLineInput is one {product, quantity} request line.
type SaleLineInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type SaleInput struct {
	CustomerID    *int64          `json:"customerId"`
	Items         []SaleLineInput `json:"items"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentStatus string          `json:"paymentStatus"`
	Notes         string          `json:"notes"`
	ReceiptImage  string          `json:"receiptImage"`
	SaleDate      string          `json:"saleDate"`
}

// SaleUpdateInput patches header fields; nil pointers keep the stored value.
// A non-nil Items slice wholesale-replaces the line items.
type SaleUpdateInput struct {
	CustomerID    *int64           `json:"customerId"`
	SaleDate      *string          `json:"saleDate"`
	Discount      *decimal.Decimal `json:"discount"`
	PaymentMethod *string          `json:"paymentMethod"`
	PaymentStatus *string          `json:"paymentStatus"`
	Notes         *string          `json:"notes"`
	ReceiptImage  *string          `json:"receiptImage"`
	Items         []SaleLineInput  `json:"items"`
}

// SaleService orchestrates the multi-table sale mutation: header, line
// items, product stock and customer balance commit together or not at all.
type SaleService struct {
	db        *sqlx.DB
	Products  *repos.ProductRepo
	Customers *repos.CustomerRepo
	Sales     *repos.SaleRepo
}

func NewSaleService(db *sqlx.DB, prods *repos.ProductRepo, custs *repos.CustomerRepo, sales *repos.SaleRepo) *SaleService {
	return &SaleService{db: db, Products: prods, Customers: custs, Sales: sales}
}

// Create commits a new sale. Validation order: customer, then the product
// batch, then per-line stock. Any failure rolls back every staged mutation.
// Discount is not capped at the subtotal; a larger discount yields a
// negative total.
func (s *SaleService) Create(in SaleInput) (domain.SaleAggregate, error) {
	var none domain.SaleAggregate

	if err := checkSaleShape(in.Items, in.Discount, in.PaymentMethod, in.PaymentStatus); err != nil {
		return none, err
	}
	saleDate := time.Now().Format("2006-01-02")
	if in.SaleDate != "" {
		d, ok := validate.Date(in.SaleDate)
		if !ok {
			return none, domain.Invalid("saleDate", "want YYYY-MM-DD")
		}
		saleDate = d
	}
	if in.PaymentMethod == domain.PayCredit && in.CustomerID == nil {
		return none, domain.ErrCustomerRequired
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return none, fmt.Errorf("begin sale: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if in.CustomerID != nil {
		if _, err := s.Customers.GetTx(tx, *in.CustomerID); err != nil {
			return none, err
		}
	}

	byID, err := s.resolveProducts(tx, in.Items)
	if err != nil {
		return none, err
	}

	// Totals from the live selling prices; these become the immutable
	// per-item snapshots below.
	subTotal := decimal.Zero
	for _, line := range in.Items {
		p := byID[line.ProductID]
		if line.Quantity > p.Stock {
			return none, &domain.InsufficientStockError{
				ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: line.Quantity,
			}
		}
		subTotal = subTotal.Add(p.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	total := subTotal.Sub(in.Discount)

	saleID, err := s.Sales.InsertHeaderTx(tx, domain.Sale{
		CustomerID:    in.CustomerID,
		SaleDate:      saleDate,
		SubTotal:      subTotal,
		Discount:      in.Discount,
		TotalAmount:   total,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: in.PaymentStatus,
		Notes:         in.Notes,
		ReceiptImage:  in.ReceiptImage,
	})
	if err != nil {
		return none, fmt.Errorf("insert sale: %w", err)
	}

	if err := s.writeItems(tx, saleID, in.Items, byID); err != nil {
		return none, err
	}

	if in.PaymentMethod == domain.PayCredit && in.PaymentStatus != domain.StatusPaid {
		if err := s.Customers.AdjustBalanceTx(tx, *in.CustomerID, total); err != nil {
			return none, err
		}
		if err := s.Customers.InsertLedgerTx(tx, domain.LedgerEntry{
			CustomerID: *in.CustomerID,
			SaleID:     &saleID,
			Amount:     total,
			Reason:     domain.LedgerCreditSale,
		}); err != nil {
			return none, fmt.Errorf("ledger entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return none, fmt.Errorf("commit sale: %w", err)
	}
	return s.Sales.Get(saleID)
}

// Update patches header fields and, when a replacement item list is given,
// restores the stock the old lines consumed before decrementing for the new
// ones, then recomputes the totals from fresh price snapshots.
func (s *SaleService) Update(saleID int64, in SaleUpdateInput) (domain.SaleAggregate, error) {
	var none domain.SaleAggregate

	tx, err := s.db.Beginx()
	if err != nil {
		return none, fmt.Errorf("begin sale update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sale, err := s.Sales.HeaderTx(tx, saleID)
	if err != nil {
		return none, err
	}

	if in.CustomerID != nil {
		if _, err := s.Customers.GetTx(tx, *in.CustomerID); err != nil {
			return none, err
		}
		sale.CustomerID = in.CustomerID
	}
	if in.SaleDate != nil {
		d, ok := validate.Date(*in.SaleDate)
		if !ok {
			return none, domain.Invalid("saleDate", "want YYYY-MM-DD")
		}
		sale.SaleDate = d
	}
	if in.Discount != nil {
		if !validate.Money(*in.Discount) {
			return none, domain.Invalid("discount", "must not be negative")
		}
		sale.Discount = *in.Discount
	}
	if in.PaymentMethod != nil {
		if !domain.ValidPaymentMethod(*in.PaymentMethod) {
			return none, domain.Invalid("paymentMethod", "want cash, card or credit")
		}
		sale.PaymentMethod = *in.PaymentMethod
	}
	if in.PaymentStatus != nil {
		if !domain.ValidPaymentStatus(*in.PaymentStatus) {
			return none, domain.Invalid("paymentStatus", "want paid, pending or partial")
		}
		sale.PaymentStatus = *in.PaymentStatus
	}
	if in.Notes != nil {
		sale.Notes = *in.Notes
	}
	if in.ReceiptImage != nil {
		sale.ReceiptImage = *in.ReceiptImage
	}

	if in.Items != nil {
		if err := checkLines(in.Items); err != nil {
			return none, err
		}

		// Give back what the old lines took before taking for the new ones.
		oldItems, err := s.Sales.ItemsTx(tx, saleID)
		if err != nil {
			return none, err
		}
		for _, it := range oldItems {
			if err := s.Products.IncrementStockTx(tx, it.ProductID, it.Quantity); err != nil {
				return none, err
			}
		}
		if err := s.Sales.DeleteItemsTx(tx, saleID); err != nil {
			return none, err
		}

		byID, err := s.resolveProducts(tx, in.Items)
		if err != nil {
			return none, err
		}
		subTotal := decimal.Zero
		for _, line := range in.Items {
			p := byID[line.ProductID]
			subTotal = subTotal.Add(p.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		sale.SubTotal = subTotal

		if err := s.writeItems(tx, saleID, in.Items, byID); err != nil {
			return none, err
		}
	}
	sale.TotalAmount = sale.SubTotal.Sub(sale.Discount)

	if err := s.reconcileExposure(tx, sale); err != nil {
		return none, err
	}
	if err := s.Sales.UpdateHeaderTx(tx, sale); err != nil {
		return none, fmt.Errorf("update sale: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return none, fmt.Errorf("commit sale update: %w", err)
	}
	return s.Sales.Get(saleID)
}

// Delete restores stock for every line item and reverses the sale's net
// effect on the customer ledger, then removes the sale (items cascade).
func (s *SaleService) Delete(saleID int64) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin sale delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.Sales.HeaderTx(tx, saleID); err != nil {
		return err
	}

	items, err := s.Sales.ItemsTx(tx, saleID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := s.Products.IncrementStockTx(tx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}

	// Each customer's net is reversed against that customer: a sale that was
	// reassigned may carry entries for more than one.
	nets, err := s.Customers.SaleLedgerNetsTx(tx, saleID)
	if err != nil {
		return err
	}
	for _, n := range nets {
		if n.Net.IsZero() {
			continue
		}
		if err := s.Customers.AdjustBalanceTx(tx, n.CustomerID, n.Net.Neg()); err != nil {
			// A customer deleted after the sale has no balance left to move.
			if errors.Is(err, domain.ErrCustomerNotFound) {
				continue
			}
			return err
		}
		if err := s.Customers.InsertLedgerTx(tx, domain.LedgerEntry{
			CustomerID: n.CustomerID,
			SaleID:     &saleID,
			Amount:     n.Net.Neg(),
			Reason:     domain.LedgerSaleReversal,
		}); err != nil {
			return err
		}
	}

	if err := s.Sales.DeleteTx(tx, saleID); err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	return tx.Commit()
}

func (s *SaleService) Get(saleID int64) (domain.SaleAggregate, error) { return s.Sales.Get(saleID) }

func (s *SaleService) List(limit, offset int) ([]domain.Sale, error) {
	return s.Sales.List(limit, offset)
}

// reconcileExposure re-books the debt the sale places on its customer after
// a header or item change. Ledger rows without a payment reference are the
// sale's current booking. The booking target is the new total for the sale's
// customer while it is credit and unpaid; once paid, the booking must exactly
// offset the payments recorded against the sale; any other case books
// nothing. Differences are applied as sale_adjustment entries, so reassigning
// a sale moves its debt between customers.
func (s *SaleService) reconcileExposure(tx *sqlx.Tx, sale domain.Sale) error {
	nets, err := s.Customers.SaleLedgerNetsTx(tx, sale.ID)
	if err != nil {
		return err
	}
	exposure, err := s.Customers.SaleExposureTx(tx, sale.ID)
	if err != nil {
		return err
	}
	booked := map[int64]decimal.Decimal{}
	for _, e := range exposure {
		booked[e.CustomerID] = e.Net
	}
	payments := map[int64]decimal.Decimal{}
	for _, n := range nets {
		payments[n.CustomerID] = n.Net.Sub(booked[n.CustomerID])
	}

	target := map[int64]decimal.Decimal{}
	if sale.CustomerID != nil && sale.PaymentMethod == domain.PayCredit {
		if sale.PaymentStatus != domain.StatusPaid {
			target[*sale.CustomerID] = sale.TotalAmount
		} else if p := payments[*sale.CustomerID]; !p.IsZero() {
			target[*sale.CustomerID] = p.Neg()
		}
	}

	apply := func(customerID int64, delta decimal.Decimal) error {
		if delta.IsZero() {
			return nil
		}
		if err := s.Customers.AdjustBalanceTx(tx, customerID, delta); err != nil {
			// A customer deleted after the sale has no balance left to move.
			if errors.Is(err, domain.ErrCustomerNotFound) {
				return nil
			}
			return err
		}
		return s.Customers.InsertLedgerTx(tx, domain.LedgerEntry{
			CustomerID: customerID,
			SaleID:     &sale.ID,
			Amount:     delta,
			Reason:     domain.LedgerSaleAdjust,
		})
	}

	for custID, cur := range booked {
		want := target[custID]
		delete(target, custID)
		if err := apply(custID, want.Sub(cur)); err != nil {
			return err
		}
	}
	for custID, want := range target {
		if err := apply(custID, want); err != nil {
			return err
		}
	}
	return nil
}

// resolveProducts batch-loads every referenced product. A result set smaller
// than the requested id set means at least one unknown id: the whole
// operation aborts with ErrProductNotFound.
func (s *SaleService) resolveProducts(tx *sqlx.Tx, lines []SaleLineInput) (map[int64]domain.Product, error) {
	ids := make([]int64, 0, len(lines))
	seen := map[int64]bool{}
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	prods, err := s.Products.BatchTx(tx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	if len(prods) != len(ids) {
		return nil, domain.ErrProductNotFound
	}
	byID := make(map[int64]domain.Product, len(prods))
	for _, p := range prods {
		byID[p.ID] = p
	}
	return byID, nil
}

// writeItems persists one item per line with the snapshotted price and takes
// the stock via the guarded decrement. The guard is the backstop for races
// the earlier in-memory check cannot see.
func (s *SaleService) writeItems(tx *sqlx.Tx, saleID int64, lines []SaleLineInput, byID map[int64]domain.Product) error {
	for _, line := range lines {
		p := byID[line.ProductID]
		if err := s.Sales.InsertItemTx(tx, domain.SaleItem{
			SaleID:      saleID,
			ProductID:   p.ID,
			Quantity:    line.Quantity,
			PriceAtSale: p.SellingPrice,
		}); err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
		ok, err := s.Products.DecrementStockTx(tx, p.ID, line.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			avail, err := s.Products.StockTx(tx, p.ID)
			if err != nil {
				avail = 0
			}
			return &domain.InsufficientStockError{
				ProductID: p.ID, Name: p.Name, Available: avail, Requested: line.Quantity,
			}
		}
	}
	return nil
}

func checkLines(lines []SaleLineInput) error {
	if len(lines) == 0 {
		return domain.Invalid("items", "at least one line is required")
	}
	for _, line := range lines {
		if line.ProductID <= 0 {
			return domain.Invalid("items.productId", "must be a positive id")
		}
		if !validate.Qty(line.Quantity) {
			return domain.Invalid("items.quantity", "must be a positive integer")
		}
	}
	return nil
}

func checkSaleShape(lines []SaleLineInput, discount decimal.Decimal, method, status string) error {
	if err := checkLines(lines); err != nil {
		return err
	}
	if !validate.Money(discount) {
		return domain.Invalid("discount", "must not be negative")
	}
	if !domain.ValidPaymentMethod(method) {
		return domain.Invalid("paymentMethod", "want cash, card or credit")
	}
	if !domain.ValidPaymentStatus(status) {
		return domain.Invalid("paymentStatus", "want paid, pending or partial")
	}
	return nil
}

package services_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"shopledger/internal/domain"
	"shopledger/internal/repos"
	"shopledger/internal/services"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	// :memory: gives every new connection its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type saleEnv struct {
	db    *sqlx.DB
	prods *repos.ProductRepo
	custs *repos.CustomerRepo
	sales *services.SaleService
}

func newSaleEnv(t *testing.T) saleEnv {
	t.Helper()
	db := testDB(t)
	prods := repos.NewProductRepo(db)
	custs := repos.NewCustomerRepo(db)
	saleRepo := repos.NewSaleRepo(db)
	return saleEnv{
		db:    db,
		prods: prods,
		custs: custs,
		sales: services.NewSaleService(db, prods, custs, saleRepo),
	}
}

func (e saleEnv) product(t *testing.T, name string, price string, stock int) domain.Product {
	t.Helper()
	id, err := e.prods.Create(domain.Product{
		Name:         name,
		SKU:          "TST-" + name,
		SellingPrice: dec(price),
		Stock:        stock,
	})
	require.NoError(t, err)
	p, err := e.prods.Get(id)
	require.NoError(t, err)
	return p
}

func (e saleEnv) customer(t *testing.T, name string) domain.Customer {
	t.Helper()
	id, err := e.custs.Create(domain.Customer{Name: name})
	require.NoError(t, err)
	c, err := e.custs.Get(id)
	require.NoError(t, err)
	return c
}

func (e saleEnv) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := e.prods.Get(productID)
	require.NoError(t, err)
	return p.Stock
}

func (e saleEnv) balance(t *testing.T, customerID int64) decimal.Decimal {
	t.Helper()
	c, err := e.custs.Get(customerID)
	require.NoError(t, err)
	return c.OutstandingBalance
}

func (e saleEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSaleCreate_CashSale(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "100", 10)
	c := e.customer(t, "Ada")

	agg, err := e.sales.Create(services.SaleInput{
		CustomerID:    &c.ID,
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 3}},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)

	require.True(t, agg.SubTotal.Equal(dec("300")), "subTotal = %s", agg.SubTotal)
	require.True(t, agg.TotalAmount.Equal(dec("300")), "totalAmount = %s", agg.TotalAmount)
	require.Len(t, agg.Items, 1)
	require.True(t, agg.Items[0].PriceAtSale.Equal(dec("100")))
	require.Equal(t, 7, e.stock(t, p.ID))
	// cash sale leaves the balance alone
	require.True(t, e.balance(t, c.ID).IsZero())
	require.NotNil(t, agg.Customer)
	require.Equal(t, "Ada", agg.Customer.Name)
}

func TestSaleCreate_CreditPendingAdjustsBalance(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "100", 7)
	c := e.customer(t, "Ada")

	agg, err := e.sales.Create(services.SaleInput{
		CustomerID:    &c.ID,
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: domain.PayCredit,
		PaymentStatus: domain.StatusPending,
	})
	require.NoError(t, err)

	require.True(t, agg.TotalAmount.Equal(dec("200")))
	require.Equal(t, 5, e.stock(t, p.ID))
	require.True(t, e.balance(t, c.ID).Equal(dec("200")))

	// the adjustment is ledger-backed
	entries, err := e.custs.Ledger(c.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.LedgerCreditSale, entries[0].Reason)
	require.True(t, entries[0].Amount.Equal(dec("200")))
}

func TestSaleCreate_CreditPaidLeavesBalance(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "50", 10)
	c := e.customer(t, "Ada")

	_, err := e.sales.Create(services.SaleInput{
		CustomerID:    &c.ID,
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: domain.PayCredit,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)
	require.True(t, e.balance(t, c.ID).IsZero())
}

func TestSaleCreate_InsufficientStockRejectsWholeRequest(t *testing.T) {
	e := newSaleEnv(t)
	a := e.product(t, "scarce", "10", 5)
	b := e.product(t, "plenty", "10", 50)

	salesBefore := e.count(t, "sales")
	itemsBefore := e.count(t, "sale_items")

	_, err := e.sales.Create(services.SaleInput{
		Items: []services.SaleLineInput{
			{ProductID: b.ID, Quantity: 2},
			{ProductID: a.ID, Quantity: 100},
		},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, a.ID, ise.ProductID)
	require.Equal(t, 5, ise.Available)
	require.Equal(t, 100, ise.Requested)

	// no partial effects: the passing line's stock is untouched too
	require.Equal(t, 5, e.stock(t, a.ID))
	require.Equal(t, 50, e.stock(t, b.ID))
	require.Equal(t, salesBefore, e.count(t, "sales"))
	require.Equal(t, itemsBefore, e.count(t, "sale_items"))
}

func TestSaleCreate_UnknownProductAbortsBatch(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "10", 5)

	_, err := e.sales.Create(services.SaleInput{
		Items: []services.SaleLineInput{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: 999999, Quantity: 1},
		},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	require.Equal(t, 5, e.stock(t, p.ID))
}

func TestSaleCreate_UnknownCustomer(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "10", 5)
	missing := int64(424242)

	_, err := e.sales.Create(services.SaleInput{
		CustomerID:    &missing,
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
	require.Equal(t, 5, e.stock(t, p.ID))
}

func TestSaleCreate_CreditNeedsCustomer(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "10", 5)

	_, err := e.sales.Create(services.SaleInput{
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: domain.PayCredit,
		PaymentStatus: domain.StatusPending,
	})
	require.ErrorIs(t, err, domain.ErrCustomerRequired)
}

func TestSaleCreate_WalkInWithoutCustomer(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "10", 5)

	agg, err := e.sales.Create(services.SaleInput{
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)
	require.Nil(t, agg.CustomerID)
	require.Nil(t, agg.Customer)
	require.Equal(t, 3, e.stock(t, p.ID))
}

func TestSaleCreate_DiscountMayExceedSubtotal(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "10", 5)

	agg, err := e.sales.Create(services.SaleInput{
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		Discount:      dec("25"),
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)
	require.True(t, agg.TotalAmount.Equal(dec("-15")), "totalAmount = %s", agg.TotalAmount)
}

func TestSaleCreate_BadShapes(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "10", 5)

	cases := []services.SaleInput{
		{Items: nil, PaymentMethod: domain.PayCash, PaymentStatus: domain.StatusPaid},
		{Items: []services.SaleLineInput{{ProductID: p.ID, Quantity: 0}}, PaymentMethod: domain.PayCash, PaymentStatus: domain.StatusPaid},
		{Items: []services.SaleLineInput{{ProductID: p.ID, Quantity: -3}}, PaymentMethod: domain.PayCash, PaymentStatus: domain.StatusPaid},
		{Items: []services.SaleLineInput{{ProductID: p.ID, Quantity: 1}}, Discount: dec("-1"), PaymentMethod: domain.PayCash, PaymentStatus: domain.StatusPaid},
		{Items: []services.SaleLineInput{{ProductID: p.ID, Quantity: 1}}, PaymentMethod: "check", PaymentStatus: domain.StatusPaid},
		{Items: []services.SaleLineInput{{ProductID: p.ID, Quantity: 1}}, PaymentMethod: domain.PayCash, PaymentStatus: "unpaid"},
	}
	for i, in := range cases {
		_, err := e.sales.Create(in)
		var ve *domain.ValidationError
		require.True(t, errors.As(err, &ve), "case %d: got %v", i, err)
	}
	require.Equal(t, 5, e.stock(t, p.ID))
}

func TestPriceSnapshotImmutable(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "100", 10)

	agg, err := e.sales.Create(services.SaleInput{
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)

	p.SellingPrice = dec("175")
	require.NoError(t, e.prods.Update(p))

	got, err := e.sales.Get(agg.ID)
	require.NoError(t, err)
	require.True(t, got.Items[0].PriceAtSale.Equal(dec("100")), "snapshot moved: %s", got.Items[0].PriceAtSale)
}

func TestSaleDelete_RestoresStockAndReversesBalance(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "100", 10)
	c := e.customer(t, "Ada")

	agg, err := e.sales.Create(services.SaleInput{
		CustomerID:    &c.ID,
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 4}},
		PaymentMethod: domain.PayCredit,
		PaymentStatus: domain.StatusPending,
	})
	require.NoError(t, err)
	require.Equal(t, 6, e.stock(t, p.ID))
	require.True(t, e.balance(t, c.ID).Equal(dec("400")))

	require.NoError(t, e.sales.Delete(agg.ID))

	require.Equal(t, 10, e.stock(t, p.ID))
	require.True(t, e.balance(t, c.ID).IsZero(), "balance = %s", e.balance(t, c.ID))
	require.Equal(t, 0, e.count(t, "sale_items"))

	_, err = e.sales.Get(agg.ID)
	require.ErrorIs(t, err, domain.ErrSaleNotFound)

	// reversal is ledger-backed: +400 then -400
	sum, err := e.custs.LedgerBalance(c.ID)
	require.NoError(t, err)
	require.True(t, sum.IsZero())
}

func TestSaleDelete_CashSaleOnlyRestoresStock(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "10", 8)

	agg, err := e.sales.Create(services.SaleInput{
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 3}},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)
	require.NoError(t, e.sales.Delete(agg.ID))
	require.Equal(t, 8, e.stock(t, p.ID))
}

func TestSaleDelete_NotFound(t *testing.T) {
	e := newSaleEnv(t)
	require.ErrorIs(t, e.sales.Delete(999), domain.ErrSaleNotFound)
}

func TestSaleUpdate_HeaderOnly(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "10", 5)

	agg, err := e.sales.Create(services.SaleInput{
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)

	notes := "till mismatch corrected"
	status := domain.StatusPending
	got, err := e.sales.Update(agg.ID, services.SaleUpdateInput{
		Notes:         &notes,
		PaymentStatus: &status,
	})
	require.NoError(t, err)
	require.Equal(t, notes, got.Notes)
	require.Equal(t, domain.StatusPending, got.PaymentStatus)
	// items untouched
	require.Len(t, got.Items, 1)
	require.Equal(t, 3, e.stock(t, p.ID))
}

func TestSaleUpdate_ReplaceItemsRestoresOldStock(t *testing.T) {
	e := newSaleEnv(t)
	a := e.product(t, "alpha", "10", 10)
	b := e.product(t, "beta", "20", 10)

	agg, err := e.sales.Create(services.SaleInput{
		Items:         []services.SaleLineInput{{ProductID: a.ID, Quantity: 6}},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)
	require.Equal(t, 4, e.stock(t, a.ID))

	got, err := e.sales.Update(agg.ID, services.SaleUpdateInput{
		Items: []services.SaleLineInput{{ProductID: b.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	// old consumption given back, new consumption taken
	require.Equal(t, 10, e.stock(t, a.ID))
	require.Equal(t, 7, e.stock(t, b.ID))

	// totals recomputed from the replacement lines
	require.True(t, got.SubTotal.Equal(dec("60")), "subTotal = %s", got.SubTotal)
	require.True(t, got.TotalAmount.Equal(dec("60")))
	require.Len(t, got.Items, 1)
	require.Equal(t, b.ID, got.Items[0].ProductID)
}

func TestSaleUpdate_ReplaceItemsAdjustsCreditBalance(t *testing.T) {
	e := newSaleEnv(t)
	a := e.product(t, "alpha", "100", 10)
	b := e.product(t, "beta", "20", 10)
	c := e.customer(t, "Ada")

	agg, err := e.sales.Create(services.SaleInput{
		CustomerID:    &c.ID,
		Items:         []services.SaleLineInput{{ProductID: a.ID, Quantity: 2}},
		PaymentMethod: domain.PayCredit,
		PaymentStatus: domain.StatusPending,
	})
	require.NoError(t, err)
	require.True(t, e.balance(t, c.ID).Equal(dec("200")))

	got, err := e.sales.Update(agg.ID, services.SaleUpdateInput{
		Items: []services.SaleLineInput{{ProductID: b.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.True(t, got.TotalAmount.Equal(dec("60")))

	// the owed amount follows the recomputed total, ledger-backed
	require.True(t, e.balance(t, c.ID).Equal(dec("60")), "balance = %s", e.balance(t, c.ID))
	sum, err := e.custs.LedgerBalance(c.ID)
	require.NoError(t, err)
	require.True(t, sum.Equal(dec("60")))
}

func TestSaleUpdate_DiscountRecomputesTotalAndBalance(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "100", 10)
	c := e.customer(t, "Ada")

	agg, err := e.sales.Create(services.SaleInput{
		CustomerID:    &c.ID,
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: domain.PayCredit,
		PaymentStatus: domain.StatusPending,
	})
	require.NoError(t, err)

	discount := dec("50")
	got, err := e.sales.Update(agg.ID, services.SaleUpdateInput{Discount: &discount})
	require.NoError(t, err)
	require.True(t, got.TotalAmount.Equal(dec("150")))
	require.True(t, e.balance(t, c.ID).Equal(dec("150")))
}

func TestSaleUpdate_ReassignMovesDebt(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "widget", "100", 10)
	ada := e.customer(t, "Ada")
	bea := e.customer(t, "Bea")

	agg, err := e.sales.Create(services.SaleInput{
		CustomerID:    &ada.ID,
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: domain.PayCredit,
		PaymentStatus: domain.StatusPending,
	})
	require.NoError(t, err)

	_, err = e.sales.Update(agg.ID, services.SaleUpdateInput{CustomerID: &bea.ID})
	require.NoError(t, err)
	require.True(t, e.balance(t, ada.ID).IsZero(), "Ada = %s", e.balance(t, ada.ID))
	require.True(t, e.balance(t, bea.ID).Equal(dec("200")), "Bea = %s", e.balance(t, bea.ID))

	// deleting the reassigned sale settles each customer's own entries
	require.NoError(t, e.sales.Delete(agg.ID))
	require.True(t, e.balance(t, ada.ID).IsZero())
	require.True(t, e.balance(t, bea.ID).IsZero())
	for _, id := range []int64{ada.ID, bea.ID} {
		sum, err := e.custs.LedgerBalance(id)
		require.NoError(t, err)
		require.True(t, sum.IsZero(), "ledger for customer %d = %s", id, sum)
	}
}

func TestSaleUpdate_ReplaceItemsInsufficientRollsBack(t *testing.T) {
	e := newSaleEnv(t)
	a := e.product(t, "alpha", "10", 10)
	b := e.product(t, "beta", "20", 2)

	agg, err := e.sales.Create(services.SaleInput{
		Items:         []services.SaleLineInput{{ProductID: a.ID, Quantity: 6}},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)

	_, err = e.sales.Update(agg.ID, services.SaleUpdateInput{
		Items: []services.SaleLineInput{{ProductID: b.ID, Quantity: 5}},
	})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)

	// rollback leaves the original sale and stock intact
	require.Equal(t, 4, e.stock(t, a.ID))
	require.Equal(t, 2, e.stock(t, b.ID))
	got, err := e.sales.Get(agg.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, a.ID, got.Items[0].ProductID)
}

func TestSaleUpdate_NotFound(t *testing.T) {
	e := newSaleEnv(t)
	_, err := e.sales.Update(12345, services.SaleUpdateInput{})
	require.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func TestSaleGet_DeletedProductDegrades(t *testing.T) {
	e := newSaleEnv(t)
	p := e.product(t, "ephemeral", "10", 5)

	agg, err := e.sales.Create(services.SaleInput{
		Items:         []services.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: domain.PayCash,
		PaymentStatus: domain.StatusPaid,
	})
	require.NoError(t, err)

	require.NoError(t, e.prods.Delete(p.ID))

	got, err := e.sales.Get(agg.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, "(product removed)", got.Items[0].ProductName)
	require.True(t, got.Items[0].PriceAtSale.Equal(dec("10")))
}

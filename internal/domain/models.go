package domain

import "github.com/shopspring/decimal"

// Payment methods accepted on sales and payments.
const (
	PayCash   = "cash"
	PayCard   = "card"
	PayCredit = "credit"
)

// Payment status of a sale.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusPartial = "partial"
)

type Product struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	SKU           string          `db:"sku" json:"sku"`
	SellingPrice  decimal.Decimal `db:"selling_price" json:"sellingPrice"`
	PurchasePrice decimal.Decimal `db:"purchase_price" json:"purchasePrice"`
	MinimumPrice  decimal.Decimal `db:"minimum_price" json:"minimumPrice"`
	Stock         int             `db:"stock" json:"stock"`
	CreatedAt     string          `db:"created_at" json:"createdAt"`
	UpdatedAt     string          `db:"updated_at" json:"updatedAt,omitempty"`
}

type Customer struct {
	ID                 int64           `db:"id" json:"id"`
	Name               string          `db:"name" json:"name"`
	Contact            string          `db:"contact" json:"contact,omitempty"`
	Address            string          `db:"address" json:"address,omitempty"`
	CreditLimit        decimal.Decimal `db:"credit_limit" json:"creditLimit"`
	OutstandingBalance decimal.Decimal `db:"outstanding_balance" json:"outstandingBalance"`
	CreatedAt          string          `db:"created_at" json:"createdAt"`
}

// CustomerSummary is the shape embedded in a sale aggregate.
type CustomerSummary struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Contact string `db:"contact" json:"contact,omitempty"`
}

type Sale struct {
	ID            int64           `db:"id" json:"id"`
	CustomerID    *int64          `db:"customer_id" json:"customerId,omitempty"`
	SaleDate      string          `db:"sale_date" json:"saleDate"`
	SubTotal      decimal.Decimal `db:"sub_total" json:"subTotal"`
	Discount      decimal.Decimal `db:"discount" json:"discount"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	PaymentMethod string          `db:"payment_method" json:"paymentMethod"`
	PaymentStatus string          `db:"payment_status" json:"paymentStatus"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
	ReceiptImage  string          `db:"receipt_image" json:"receiptImage,omitempty"`
	CreatedAt     string          `db:"created_at" json:"createdAt"`
}

// SaleItem carries the product name/sku as read at load time. PriceAtSale is
// the snapshot taken when the sale was created and never tracks the live
// product price. A deleted product leaves the item readable with a
// placeholder name.
type SaleItem struct {
	ID          int64           `db:"id" json:"id"`
	SaleID      int64           `db:"sale_id" json:"saleId"`
	ProductID   int64           `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	ProductSKU  string          `db:"product_sku" json:"productSku,omitempty"`
	Quantity    int             `db:"quantity" json:"quantity"`
	PriceAtSale decimal.Decimal `db:"price_at_sale" json:"priceAtSale"`
}

// SaleAggregate is a sale header with its customer summary and line items.
type SaleAggregate struct {
	Sale
	Customer *CustomerSummary `json:"customer,omitempty"`
	Items    []SaleItem       `json:"items"`
}

type Payment struct {
	ID            int64           `db:"id" json:"id"`
	CustomerID    int64           `db:"customer_id" json:"customerId"`
	SaleID        *int64          `db:"sale_id" json:"saleId,omitempty"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentMethod string          `db:"payment_method" json:"paymentMethod"`
	PaymentDate   string          `db:"payment_date" json:"paymentDate"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
	CreatedAt     string          `db:"created_at" json:"createdAt"`
}

// LedgerEntry records one signed adjustment to a customer's outstanding
// balance. Positive amounts increase what the customer owes. The balance
// column on the customer row is a cache of the sum of these entries.
type LedgerEntry struct {
	ID         int64           `db:"id" json:"id"`
	CustomerID int64           `db:"customer_id" json:"customerId"`
	SaleID     *int64          `db:"sale_id" json:"saleId,omitempty"`
	PaymentID  *int64          `db:"payment_id" json:"paymentId,omitempty"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Reason     string          `db:"reason" json:"reason"`
	CreatedAt  string          `db:"created_at" json:"createdAt"`
}

// Ledger entry reasons.
const (
	LedgerCreditSale   = "credit_sale"
	LedgerPayment      = "payment"
	LedgerSaleAdjust   = "sale_adjustment"
	LedgerSaleReversal = "sale_reversal"
)

// ValidPaymentMethod reports whether s is one of the accepted methods.
func ValidPaymentMethod(s string) bool {
	return s == PayCash || s == PayCard || s == PayCredit
}

// ValidPaymentStatus reports whether s is one of the accepted statuses.
func ValidPaymentStatus(s string) bool {
	return s == StatusPaid || s == StatusPending || s == StatusPartial
}

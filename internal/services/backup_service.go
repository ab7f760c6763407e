package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/scrypt"

	"shopledger/internal/domain"
)

const (
	backupVersion  = 1
	backupSaltLen  = 16
	backupScryptN  = 1 << 15
	backupScryptR  = 8
	backupScryptP  = 1
	backupKeyBytes = 32
)

// saleItemRow is the raw table shape, without the joined product columns.
type saleItemRow struct {
	ID          int64  `db:"id" json:"id"`
	SaleID      int64  `db:"sale_id" json:"saleId"`
	ProductID   int64  `db:"product_id" json:"productId"`
	Quantity    int    `db:"quantity" json:"quantity"`
	PriceAtSale string `db:"price_at_sale" json:"priceAtSale"`
}

type backupSnapshot struct {
	Version       int                  `json:"version"`
	ID            string               `json:"id"`
	ExportedAt    string               `json:"exportedAt"`
	Products      []domain.Product     `json:"products"`
	Customers     []domain.Customer    `json:"customers"`
	Sales         []domain.Sale        `json:"sales"`
	SaleItems     []saleItemRow        `json:"saleItems"`
	Payments      []domain.Payment     `json:"payments"`
	LedgerEntries []domain.LedgerEntry `json:"ledgerEntries"`
}

// BackupService exports the business tables as an encrypted JSON snapshot
// and restores them from one. The payload layout is
// salt(16) | nonce(12) | AES-256-GCM ciphertext, keyed by scrypt over the
// configured passphrase.
type BackupService struct {
	db         *sqlx.DB
	Passphrase string
}

func NewBackupService(db *sqlx.DB, passphrase string) *BackupService {
	return &BackupService{db: db, Passphrase: passphrase}
}

func (s *BackupService) Export() ([]byte, string, error) {
	snap := backupSnapshot{
		Version:    backupVersion,
		ID:         uuid.NewString(),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.db.Select(&snap.Products, `SELECT `+`
	  id, name, sku, selling_price, purchase_price, minimum_price, stock,
	  created_at, COALESCE(updated_at,'') AS updated_at`+` FROM products ORDER BY id`); err != nil {
		return nil, "", fmt.Errorf("dump products: %w", err)
	}
	if err := s.db.Select(&snap.Customers, `SELECT id, name, contact, address, credit_limit, outstanding_balance, created_at FROM customers ORDER BY id`); err != nil {
		return nil, "", fmt.Errorf("dump customers: %w", err)
	}
	if err := s.db.Select(&snap.Sales, `SELECT id, customer_id, sale_date, sub_total, discount, total_amount, payment_method, payment_status, notes, receipt_image, created_at FROM sales ORDER BY id`); err != nil {
		return nil, "", fmt.Errorf("dump sales: %w", err)
	}
	if err := s.db.Select(&snap.SaleItems, `SELECT id, sale_id, product_id, quantity, price_at_sale FROM sale_items ORDER BY id`); err != nil {
		return nil, "", fmt.Errorf("dump sale items: %w", err)
	}
	if err := s.db.Select(&snap.Payments, `SELECT id, customer_id, sale_id, amount, payment_method, payment_date, notes, created_at FROM payments ORDER BY id`); err != nil {
		return nil, "", fmt.Errorf("dump payments: %w", err)
	}
	if err := s.db.Select(&snap.LedgerEntries, `SELECT id, customer_id, sale_id, payment_id, amount, reason, created_at FROM ledger_entries ORDER BY id`); err != nil {
		return nil, "", fmt.Errorf("dump ledger: %w", err)
	}

	plain, err := json.Marshal(snap)
	if err != nil {
		return nil, "", err
	}
	out, err := s.encrypt(plain)
	if err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("shopledger-%s.backup", time.Now().UTC().Format("20060102-150405"))
	return out, name, nil
}

// Import decrypts and unmarshals a snapshot, then replaces every business
// table in one transaction. A bad passphrase or corrupt payload fails before
// any row is touched.
func (s *BackupService) Import(data []byte) error {
	plain, err := s.decrypt(data)
	if err != nil {
		return err
	}
	var snap backupSnapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return domain.ErrBackupDecrypt
	}
	if snap.Version != backupVersion {
		return domain.Invalid("backup", fmt.Sprintf("unsupported snapshot version %d", snap.Version))
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Children before parents.
	for _, table := range []string{"ledger_entries", "payments", "sale_items", "sales", "customers", "products"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, p := range snap.Products {
		if _, err := tx.Exec(`
		  INSERT INTO products(id, name, sku, selling_price, purchase_price, minimum_price, stock, created_at, updated_at)
		  VALUES(?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''))
		`, p.ID, p.Name, p.SKU, p.SellingPrice, p.PurchasePrice, p.MinimumPrice, p.Stock, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("restore product %d: %w", p.ID, err)
		}
	}
	for _, c := range snap.Customers {
		if _, err := tx.Exec(`
		  INSERT INTO customers(id, name, contact, address, credit_limit, outstanding_balance, created_at)
		  VALUES(?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.Name, c.Contact, c.Address, c.CreditLimit, c.OutstandingBalance, c.CreatedAt); err != nil {
			return fmt.Errorf("restore customer %d: %w", c.ID, err)
		}
	}
	for _, sl := range snap.Sales {
		if _, err := tx.Exec(`
		  INSERT INTO sales(id, customer_id, sale_date, sub_total, discount, total_amount, payment_method, payment_status, notes, receipt_image, created_at)
		  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sl.ID, sl.CustomerID, sl.SaleDate, sl.SubTotal, sl.Discount, sl.TotalAmount, sl.PaymentMethod, sl.PaymentStatus, sl.Notes, sl.ReceiptImage, sl.CreatedAt); err != nil {
			return fmt.Errorf("restore sale %d: %w", sl.ID, err)
		}
	}
	for _, it := range snap.SaleItems {
		if _, err := tx.Exec(`
		  INSERT INTO sale_items(id, sale_id, product_id, quantity, price_at_sale)
		  VALUES(?, ?, ?, ?, ?)
		`, it.ID, it.SaleID, it.ProductID, it.Quantity, it.PriceAtSale); err != nil {
			return fmt.Errorf("restore sale item %d: %w", it.ID, err)
		}
	}
	for _, p := range snap.Payments {
		if _, err := tx.Exec(`
		  INSERT INTO payments(id, customer_id, sale_id, amount, payment_method, payment_date, notes, created_at)
		  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.CustomerID, p.SaleID, p.Amount, p.PaymentMethod, p.PaymentDate, p.Notes, p.CreatedAt); err != nil {
			return fmt.Errorf("restore payment %d: %w", p.ID, err)
		}
	}
	for _, e := range snap.LedgerEntries {
		if _, err := tx.Exec(`
		  INSERT INTO ledger_entries(id, customer_id, sale_id, payment_id, amount, reason, created_at)
		  VALUES(?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.CustomerID, e.SaleID, e.PaymentID, e.Amount, e.Reason, e.CreatedAt); err != nil {
			return fmt.Errorf("restore ledger entry %d: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

func (s *BackupService) encrypt(plain []byte) ([]byte, error) {
	salt := make([]byte, backupSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	gcm, err := s.aead(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(salt)+len(nonce)+len(plain)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plain, nil), nil
}

func (s *BackupService) decrypt(data []byte) ([]byte, error) {
	if len(data) < backupSaltLen+12 {
		return nil, domain.ErrBackupDecrypt
	}
	salt := data[:backupSaltLen]
	gcm, err := s.aead(salt)
	if err != nil {
		return nil, err
	}
	rest := data[backupSaltLen:]
	if len(rest) < gcm.NonceSize() {
		return nil, domain.ErrBackupDecrypt
	}
	nonce, ct := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, domain.ErrBackupDecrypt
	}
	return plain, nil
}

func (s *BackupService) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(s.Passphrase), salt, backupScryptN, backupScryptR, backupScryptP, backupKeyBytes)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

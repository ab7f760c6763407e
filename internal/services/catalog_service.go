package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopledger/internal/domain"
	"shopledger/internal/repos"
	"shopledger/internal/validate"
)

type ProductInput struct {
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	MinimumPrice  decimal.Decimal `json:"minimumPrice"`
	Stock         int             `json:"stock"`
}

// CatalogService owns product CRUD. Stock is set once at creation; after
// that only the sale flow moves it.
type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) List(q string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 25
	}
	offset := (page - 1) * pageSize
	return s.Prods.List(strings.ToLower(strings.TrimSpace(q)), pageSize, offset)
}

func (s *CatalogService) Get(id int64) (domain.Product, error) {
	return s.Prods.Get(id)
}

func (s *CatalogService) Create(in ProductInput) (domain.Product, error) {
	var none domain.Product
	p, err := buildProduct(in)
	if err != nil {
		return none, err
	}
	if p.SKU == "" {
		p.SKU = generateSKU()
	}
	if in.Stock < 0 {
		return none, domain.Invalid("stock", "must not be negative")
	}
	p.Stock = in.Stock

	id, err := s.Prods.Create(p)
	if err != nil {
		return none, fmt.Errorf("create product: %w", err)
	}
	return s.Prods.Get(id)
}

func (s *CatalogService) Update(id int64, in ProductInput) (domain.Product, error) {
	var none domain.Product
	cur, err := s.Prods.Get(id)
	if err != nil {
		return none, err
	}
	p, err := buildProduct(in)
	if err != nil {
		return none, err
	}
	p.ID = id
	if p.SKU == "" {
		p.SKU = cur.SKU
	}
	if err := s.Prods.Update(p); err != nil {
		return none, fmt.Errorf("update product: %w", err)
	}
	return s.Prods.Get(id)
}

func (s *CatalogService) Delete(id int64) error {
	return s.Prods.Delete(id)
}

func buildProduct(in ProductInput) (domain.Product, error) {
	var none domain.Product
	name, ok := validate.Name(in.Name)
	if !ok {
		return none, domain.Invalid("name", "must be 1-120 characters")
	}
	sku := ""
	if strings.TrimSpace(in.SKU) != "" {
		s, ok := validate.SKU(in.SKU)
		if !ok {
			return none, domain.Invalid("sku", "letters, digits, - and _ only")
		}
		sku = s
	}
	if !validate.Money(in.SellingPrice) || !validate.Money(in.PurchasePrice) || !validate.Money(in.MinimumPrice) {
		return none, domain.Invalid("price", "must not be negative")
	}
	return domain.Product{
		Name:          name,
		SKU:           sku,
		SellingPrice:  in.SellingPrice,
		PurchasePrice: in.PurchasePrice,
		MinimumPrice:  in.MinimumPrice,
	}, nil
}

// generateSKU builds a unique fallback SKU when the caller supplies none:
// millisecond timestamp plus a random suffix.
func generateSKU() string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("SKU-%d-%s", time.Now().UnixMilli(), frag)
}

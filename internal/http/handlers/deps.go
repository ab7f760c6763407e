package handlers

import (
	"shopledger/internal/config"
	"shopledger/internal/repos"
	"shopledger/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	ProductHandler   *ProductHandler
	CustomerHandler  *CustomerHandler
	SaleHandler      *SaleHandler
	PaymentHandler   *PaymentHandler
	AnalyticsHandler *AnalyticsHandler
	BackupHandler    *BackupHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	prodRepo := repos.NewProductRepo(db)
	custRepo := repos.NewCustomerRepo(db)
	saleRepo := repos.NewSaleRepo(db)
	payRepo := repos.NewPaymentRepo(db)
	rollupRepo := repos.NewAnalyticsRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	customerSvc := services.NewCustomerService(custRepo)
	saleSvc := services.NewSaleService(db, prodRepo, custRepo, saleRepo)
	paymentSvc := services.NewPaymentService(db, custRepo, saleRepo, payRepo)
	analyticsSvc := services.NewAnalyticsService(rollupRepo)
	backupSvc := services.NewBackupService(db, cfg.BackupKey)

	return &Deps{
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		CustomerHandler:  &CustomerHandler{Customers: customerSvc},
		SaleHandler:      &SaleHandler{Sales: saleSvc},
		PaymentHandler:   &PaymentHandler{Payments: paymentSvc},
		AnalyticsHandler: &AnalyticsHandler{Analytics: analyticsSvc},
		BackupHandler:    &BackupHandler{Backup: backupSvc},
	}
}

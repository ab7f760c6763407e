package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"shopledger/internal/config"
	"shopledger/internal/http/handlers"
	applog "shopledger/internal/log"
	"shopledger/internal/repos"
	"shopledger/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})
	// Global body size guard; backups are the largest legitimate payload.
	app.Server().MaxRequestBodySize = 8 << 20 // 8 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	deps := handlers.NewDeps(db, cfg)
	api := app.Group("/api/v1")

	// Auth (login throttled)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), authH.Login)
	api.Post("/auth/logout", authH.Logout)

	user := handlers.RequireUser(authSvc)
	admin := handlers.RequireAdmin(authSvc)

	// Products
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Get)
	api.Post("/products", user, deps.ProductHandler.Create)
	api.Put("/products/:id", user, deps.ProductHandler.Update)
	api.Delete("/products/:id", admin, deps.ProductHandler.Delete)

	// Customers
	api.Get("/customers", user, deps.CustomerHandler.List)
	api.Get("/customers/:id", user, deps.CustomerHandler.Get)
	api.Post("/customers", user, deps.CustomerHandler.Create)
	api.Put("/customers/:id", user, deps.CustomerHandler.Update)
	api.Delete("/customers/:id", admin, deps.CustomerHandler.Delete)
	api.Get("/customers/:id/balance", user, deps.CustomerHandler.Balance)
	api.Get("/customers/:id/ledger", user, deps.CustomerHandler.Ledger)
	api.Get("/customers/:id/payments", user, deps.PaymentHandler.ListByCustomer)

	// Sales (creation throttled separately from the global limiter)
	saleLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.sales.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/sales", user, deps.SaleHandler.List)
	api.Get("/sales/:id", user, deps.SaleHandler.Get)
	api.Post("/sales", user, saleLimiter, deps.SaleHandler.Create)
	api.Put("/sales/:id", user, deps.SaleHandler.Update)
	api.Delete("/sales/:id", admin, deps.SaleHandler.Delete)

	// Payments
	api.Post("/payments", user, deps.PaymentHandler.Create)

	// Analytics
	api.Get("/analytics/summary", user, deps.AnalyticsHandler.Summary)
	api.Get("/analytics/revenue", user, deps.AnalyticsHandler.Revenue)
	api.Get("/analytics/top-products", user, deps.AnalyticsHandler.TopProducts)

	// Backup (admin only; disabled without a configured passphrase)
	if cfg.BackupKey != "" {
		api.Get("/backup", admin, deps.BackupHandler.Export)
		api.Post("/backup", admin, deps.BackupHandler.Import)
	} else {
		log.Println("[warn] BACKUP_KEY not set; backup routes disabled")
	}

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"shopledger/internal/config"
	"shopledger/internal/http/handlers"
	"shopledger/internal/repos"
	"shopledger/internal/services"
)

// newAPIApp wires the JSON API the same way main does, minus rate limiting,
// against an in-memory database.
func newAPIApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// :memory: gives every new connection its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	app := fiber.New()
	app.Use(requestid.New())

	deps := handlers.NewDeps(db, config.Config{BackupKey: "test-backup-key"})
	api := app.Group("/api/v1")
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)

	user := handlers.RequireUser(authSvc)
	admin := handlers.RequireAdmin(authSvc)

	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Get)
	api.Post("/products", user, deps.ProductHandler.Create)
	api.Delete("/products/:id", admin, deps.ProductHandler.Delete)

	api.Get("/customers", user, deps.CustomerHandler.List)
	api.Post("/customers", user, deps.CustomerHandler.Create)
	api.Get("/customers/:id/balance", user, deps.CustomerHandler.Balance)

	api.Get("/sales/:id", user, deps.SaleHandler.Get)
	api.Post("/sales", user, deps.SaleHandler.Create)
	api.Delete("/sales/:id", admin, deps.SaleHandler.Delete)

	api.Post("/payments", user, deps.PaymentHandler.Create)
	api.Get("/analytics/summary", user, deps.AnalyticsHandler.Summary)
	api.Get("/backup", admin, deps.BackupHandler.Export)

	return app, db
}

// login authenticates a seeded account and returns its session token.
func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp, err := app.Test(jsonReq("POST", "/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": "Passw0rd!",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login %s: got %d", email, resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	decode(t, resp, &body)
	if body.Token == "" {
		t.Fatal("login returned no token")
	}
	return body.Token
}

func jsonReq(method, target string, payload any) *http.Request {
	var rd *bytes.Reader
	if payload == nil {
		rd = bytes.NewReader(nil)
	} else {
		b, _ := json.Marshal(payload)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authedReq(method, target, token string, payload any) *http.Request {
	req := jsonReq(method, target, payload)
	req.Header.Set("X-Session-Token", token)
	return req
}

// rawReq sends an arbitrary body, for malformed-payload cases.
func rawReq(method, target, token, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Token", token)
	return req
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

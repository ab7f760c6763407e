package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopledger/internal/log"
	"shopledger/internal/services"
	"shopledger/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		applog.Security(c, "auth.login.badinput", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}

	token, user, err := h.Auth.Login(email, req.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}
	applog.Audit(c, "auth.login", map[string]any{"user_id": user.ID})
	return c.JSON(fiber.Map{"token": token, "user": user})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := c.Get(sessionHeader)
	if token != "" {
		_ = h.Auth.Logout(token)
	}
	return c.JSON(fiber.Map{"ok": true})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopledger/internal/log"
	"shopledger/internal/services"
	"shopledger/internal/validate"
)

type PaymentHandler struct {
	Payments *services.PaymentService
}

// POST /api/v1/payments
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var in services.PaymentInput
	if err := c.BodyParser(&in); err != nil {
		applog.Security(c, "payment.create.badbody", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}
	p, err := h.Payments.Record(in)
	if err != nil {
		return writeErr(c, "payment.create.fail", err)
	}
	applog.Audit(c, "payment.create", map[string]any{
		"payment_id":  p.ID,
		"customer_id": p.CustomerID,
		"amount":      p.Amount.String(),
	})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// GET /api/v1/customers/:id/payments
func (h *PaymentHandler) ListByCustomer(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "customer id")
	}
	page := validate.Limit(c.Query("page"), 1, 10000)
	size := validate.Limit(c.Query("limit"), 25, 100)
	pays, err := h.Payments.ListByCustomer(id, page, size)
	if err != nil {
		return writeErr(c, "payment.list.fail", err)
	}
	return c.JSON(fiber.Map{"payments": pays, "page": page})
}

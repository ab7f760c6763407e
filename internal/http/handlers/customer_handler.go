package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopledger/internal/log"
	"shopledger/internal/services"
	"shopledger/internal/validate"
)

type CustomerHandler struct {
	Customers *services.CustomerService
}

// GET /api/v1/customers
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	page := validate.Limit(c.Query("page"), 1, 10000)
	size := validate.Limit(c.Query("limit"), 25, 100)
	custs, err := h.Customers.List(page, size)
	if err != nil {
		return writeErr(c, "customer.list.fail", err)
	}
	return c.JSON(fiber.Map{"customers": custs, "page": page})
}

// GET /api/v1/customers/:id
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "customer id")
	}
	cust, err := h.Customers.Get(id)
	if err != nil {
		return writeErr(c, "customer.get.fail", err)
	}
	return c.JSON(cust)
}

// POST /api/v1/customers
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in services.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}
	cust, err := h.Customers.Create(in)
	if err != nil {
		return writeErr(c, "customer.create.fail", err)
	}
	applog.Audit(c, "customer.create", map[string]any{"customer_id": cust.ID})
	return c.Status(fiber.StatusCreated).JSON(cust)
}

// PUT /api/v1/customers/:id
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "customer id")
	}
	var in services.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}
	cust, err := h.Customers.Update(id, in)
	if err != nil {
		return writeErr(c, "customer.update.fail", err)
	}
	applog.Audit(c, "customer.update", map[string]any{"customer_id": id})
	return c.JSON(cust)
}

// DELETE /api/v1/customers/:id
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "customer id")
	}
	if err := h.Customers.Delete(id); err != nil {
		return writeErr(c, "customer.delete.fail", err)
	}
	applog.Audit(c, "customer.delete", map[string]any{"customer_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/customers/:id/balance: recorded balance vs ledger sum.
func (h *CustomerHandler) Balance(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "customer id")
	}
	audit, err := h.Customers.Audit(id)
	if err != nil {
		return writeErr(c, "customer.balance.fail", err)
	}
	if !audit.Drift.IsZero() {
		applog.Security(c, "customer.balance.drift", map[string]any{
			"customer_id": id, "drift": audit.Drift.String(),
		})
	}
	return c.JSON(audit)
}

// GET /api/v1/customers/:id/ledger
func (h *CustomerHandler) Ledger(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "customer id")
	}
	entries, err := h.Customers.Ledger(id, validate.Limit(c.Query("limit"), 100, 500))
	if err != nil {
		return writeErr(c, "customer.ledger.fail", err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopledger/internal/log"
	"shopledger/internal/services"
	"shopledger/internal/validate"
)

type SaleHandler struct {
	Sales *services.SaleService
}

// POST /api/v1/sales
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in services.SaleInput
	if err := c.BodyParser(&in); err != nil {
		applog.Security(c, "sale.create.badbody", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}

	agg, err := h.Sales.Create(in)
	if err != nil {
		return writeErr(c, "sale.create.fail", err)
	}
	applog.Audit(c, "sale.create", map[string]any{
		"sale_id": agg.ID,
		"total":   agg.TotalAmount.String(),
		"items":   len(agg.Items),
	})
	return c.Status(fiber.StatusCreated).JSON(agg)
}

// GET /api/v1/sales/:id
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "sale id")
	}
	agg, err := h.Sales.Get(id)
	if err != nil {
		return writeErr(c, "sale.get.fail", err)
	}
	return c.JSON(agg)
}

// GET /api/v1/sales
func (h *SaleHandler) List(c *fiber.Ctx) error {
	limit := validate.Limit(c.Query("limit"), 25, 100)
	page := validate.Limit(c.Query("page"), 1, 10000)
	sales, err := h.Sales.List(limit, (page-1)*limit)
	if err != nil {
		return writeErr(c, "sale.list.fail", err)
	}
	return c.JSON(fiber.Map{"sales": sales, "page": page})
}

// PUT /api/v1/sales/:id
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "sale id")
	}
	var in services.SaleUpdateInput
	if err := c.BodyParser(&in); err != nil {
		applog.Security(c, "sale.update.badbody", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}
	agg, err := h.Sales.Update(id, in)
	if err != nil {
		return writeErr(c, "sale.update.fail", err)
	}
	applog.Audit(c, "sale.update", map[string]any{"sale_id": id, "items_replaced": in.Items != nil})
	return c.JSON(agg)
}

// DELETE /api/v1/sales/:id
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "sale id")
	}
	if err := h.Sales.Delete(id); err != nil {
		return writeErr(c, "sale.delete.fail", err)
	}
	applog.Audit(c, "sale.delete", map[string]any{"sale_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

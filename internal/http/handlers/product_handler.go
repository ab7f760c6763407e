package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopledger/internal/log"
	"shopledger/internal/services"
	"shopledger/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	page := validate.Limit(c.Query("page"), 1, 10000)
	size := validate.Limit(c.Query("limit"), 25, 100)
	prods, err := h.Catalog.List(c.Query("q"), page, size)
	if err != nil {
		return writeErr(c, "product.list.fail", err)
	}
	return c.JSON(fiber.Map{"products": prods, "page": page})
}

// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "product id")
	}
	p, err := h.Catalog.Get(id)
	if err != nil {
		return writeErr(c, "product.get.fail", err)
	}
	return c.JSON(p)
}

// POST /api/v1/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}
	p, err := h.Catalog.Create(in)
	if err != nil {
		return writeErr(c, "product.create.fail", err)
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "sku": p.SKU})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "product id")
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}
	p, err := h.Catalog.Update(id, in)
	if err != nil {
		return writeErr(c, "product.update.fail", err)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": id})
	return c.JSON(p)
}

// DELETE /api/v1/products/:id. Sales history keeps its rows; item reads
// degrade to a placeholder name.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badParam(c, "product id")
	}
	if err := h.Catalog.Delete(id); err != nil {
		return writeErr(c, "product.delete.fail", err)
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shopledger/internal/domain"
	applog "shopledger/internal/log"
)

// writeErr maps the error taxonomy onto HTTP statuses: not-found → 404,
// malformed input → 400, insufficient stock → 409, anything else → 500
// with the detail kept in the log rather than the response.
func writeErr(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrSaleNotFound),
		errors.Is(err, domain.ErrPaymentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrCustomerRequired),
		errors.Is(err, domain.ErrBackupDecrypt):
		applog.Security(c, action, map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		applog.Security(c, action, map[string]any{"field": ve.Field, "reason": ve.Reason})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error(), "field": ve.Field})
	}

	var ise *domain.InsufficientStockError
	if errors.As(err, &ise) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     ise.Error(),
			"productId": ise.ProductID,
			"available": ise.Available,
			"requested": ise.Requested,
		})
	}

	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func badParam(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + name})
}

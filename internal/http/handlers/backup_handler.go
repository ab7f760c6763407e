package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopledger/internal/log"
	"shopledger/internal/services"
)

type BackupHandler struct {
	Backup *services.BackupService
}

// GET /api/v1/backup streams the encrypted snapshot as a download.
func (h *BackupHandler) Export(c *fiber.Ctx) error {
	data, name, err := h.Backup.Export()
	if err != nil {
		return writeErr(c, "backup.export.fail", err)
	}
	applog.Audit(c, "backup.export", map[string]any{"bytes": len(data), "file": name})
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data)
}

// POST /api/v1/backup restores from an uploaded snapshot. Replaces every
// business table; the import is all-or-nothing.
func (h *BackupHandler) Import(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty backup payload"})
	}
	if err := h.Backup.Import(body); err != nil {
		return writeErr(c, "backup.import.fail", err)
	}
	applog.Audit(c, "backup.import", map[string]any{"bytes": len(body)})
	return c.JSON(fiber.Map{"restored": true})
}

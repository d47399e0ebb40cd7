package menu

import (
	"errors"
	"fmt"

	"bardev-backend/internal/audit"
	"bardev-backend/internal/auth"
	"bardev-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UpsertEntryRequest struct {
	ID       string                    `json:"id"`
	Name     string                    `json:"name"`
	Price    int64                     `json:"price"`
	Category models.ItemCategory       `json:"category"`
	Recipe   []models.RecipeIngredient `json:"recipe"`
}

// GET /api/menu
func ListMenuHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := cat.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo listar el menú")
		}
		return c.JSON(entries)
	}
}

// POST /api/admin/menu
func CreateMenuEntryHandler(cat *Catalog, logs *audit.Writer) fiber.Handler {
	return upsertHandler(cat, logs, false)
}

// PUT /api/admin/menu/:id
func UpdateMenuEntryHandler(cat *Catalog, logs *audit.Writer) fiber.Handler {
	return upsertHandler(cat, logs, true)
}

func upsertHandler(cat *Catalog, logs *audit.Writer, fromParams bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpsertEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		if fromParams {
			body.ID = c.Params("id")
		}

		var before *models.MenuEntry
		if body.ID != "" {
			before, _ = cat.Get(c.UserContext(), body.ID)
		}

		entry := models.MenuEntry{
			ID:       body.ID,
			Name:     body.Name,
			Price:    body.Price,
			Category: body.Category,
			Recipe:   body.Recipe,
		}
		if err := cat.Upsert(c.UserContext(), &entry); err != nil {
			if errors.Is(err, ErrInvalidEntry) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el producto")
		}

		action := models.AuditActionCreate
		status := fiber.StatusCreated
		if before != nil {
			action = models.AuditActionUpdate
			status = fiber.StatusOK
		}
		if actor, err := auth.CurrentActor(c); err == nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "menu_entry",
				EntityID:    entry.ID,
				Action:      action,
				Description: fmt.Sprintf("Menú: %s $%d", entry.Name, entry.Price),
				Before:      before,
				After:       entry,
			})
		}

		return c.Status(status).JSON(entry)
	}
}

// DELETE /api/admin/menu/:id
func DeleteMenuEntryHandler(cat *Catalog, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		before, _ := cat.Get(c.UserContext(), id)

		if err := cat.Remove(c.UserContext(), id); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el producto")
		}

		if actor, err := auth.CurrentActor(c); err == nil && before != nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "menu_entry",
				EntityID:    id,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Producto eliminado: %s", before.Name),
				Before:      before,
			})
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

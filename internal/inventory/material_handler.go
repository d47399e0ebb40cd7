package inventory

import (
	"errors"
	"fmt"

	"bardev-backend/internal/audit"
	"bardev-backend/internal/auth"
	"bardev-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type MaterialResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	IsAuto   bool    `json:"is_auto"`
	MinAlert float64 `json:"min_alert"`
	Low      bool    `json:"low"`
}

type CreateMaterialRequest struct {
	ID       string  `json:"id"` // optional
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	IsAuto   bool    `json:"is_auto"`
	MinAlert float64 `json:"min_alert"`
}

type AdjustRequest struct {
	Delta float64 `json:"delta"`
}

type SetQuantityRequest struct {
	Quantity float64 `json:"quantity"`
}

func toMaterialResponse(m models.Material) MaterialResponse {
	return MaterialResponse{
		ID:       m.ID,
		Name:     m.Name,
		Quantity: m.Quantity,
		Unit:     m.Unit,
		IsAuto:   m.IsAuto,
		MinAlert: m.MinAlert,
		Low:      m.IsLow(),
	}
}

func toMaterialResponses(materials []models.Material) []MaterialResponse {
	res := make([]MaterialResponse, 0, len(materials))
	for _, m := range materials {
		res = append(res, toMaterialResponse(m))
	}
	return res
}

// GET /api/inventory
func ListMaterialsHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		materials, err := l.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo listar el inventario")
		}
		return c.JSON(toMaterialResponses(materials))
	}
}

// GET /api/inventory/low-stock
func LowStockHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		materials, err := l.LowStock(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo listar el inventario")
		}
		return c.JSON(toMaterialResponses(materials))
	}
}

// POST /api/admin/inventory
func CreateMaterialHandler(l *Ledger, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		m := models.Material{
			ID:       body.ID,
			Name:     body.Name,
			Quantity: body.Quantity,
			Unit:     body.Unit,
			IsAuto:   body.IsAuto,
			MinAlert: body.MinAlert,
		}
		if err := l.Create(c.UserContext(), &m); err != nil {
			if errors.Is(err, ErrInvalidMaterial) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el material")
		}

		if actor, err := auth.CurrentActor(c); err == nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "material",
				EntityID:    m.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Material creado: %s (%.2f %s)", m.Name, m.Quantity, m.Unit),
				After:       m,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toMaterialResponse(m))
	}
}

// POST /api/admin/inventory/:id/adjust
func AdjustMaterialHandler(l *Ledger, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		id := c.Params("id")
		if err := l.Adjust(c.UserContext(), id, body.Delta); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo ajustar el inventario")
		}

		return respondMaterial(c, l, logs, id, fmt.Sprintf("Ajuste de inventario: %+.2f", body.Delta))
	}
}

// PUT /api/admin/inventory/:id/quantity
func SetMaterialQuantityHandler(l *Ledger, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetQuantityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		id := c.Params("id")
		if err := l.SetAbsolute(c.UserContext(), id, body.Quantity); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo ajustar el inventario")
		}

		return respondMaterial(c, l, logs, id, fmt.Sprintf("Conteo de inventario: %.2f", body.Quantity))
	}
}

// DELETE /api/admin/inventory/:id
func DeleteMaterialHandler(l *Ledger, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		before, _ := l.Get(c.UserContext(), id)

		if err := l.Remove(c.UserContext(), id); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el material")
		}

		if actor, err := auth.CurrentActor(c); err == nil && before != nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "material",
				EntityID:    id,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Material eliminado: %s", before.Name),
				Before:      before,
			})
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// respondMaterial returns the material after a quantity change. A missing
// material is not an error: the change was a no-op.
func respondMaterial(c *fiber.Ctx, l *Ledger, logs *audit.Writer, id, description string) error {
	m, err := l.Get(c.UserContext(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el material")
	}
	if m == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	if actor, err := auth.CurrentActor(c); err == nil {
		logs.Record(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "material",
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%s - %s", m.Name, description),
			After:       m,
		})
	}

	return c.JSON(toMaterialResponse(*m))
}

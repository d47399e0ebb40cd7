package settlement

import (
	"bytes"
	"fmt"
	"strings"

	"bardev-backend/internal/audit"
	"bardev-backend/internal/auth"
	"bardev-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/sales
func ListSalesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sales, err := svc.ListSales(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las ventas")
		}
		return c.JSON(sales)
	}
}

// DELETE /api/admin/sales/:id
func DeleteSaleHandler(svc *Service, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := svc.RemoveSale(c.UserContext(), id); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la venta")
		}

		if actor, err := auth.CurrentActor(c); err == nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "sale",
				EntityID:    id,
				Action:      models.AuditActionDelete,
				Description: "Venta eliminada",
			})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DELETE /api/admin/sales
func ClearSalesHandler(svc *Service, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.ClearSales(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron borrar las ventas")
		}

		if actor, err := auth.CurrentActor(c); err == nil && n > 0 {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "sale",
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Historial de ventas borrado (%d ventas)", n),
			})
		}
		return c.JSON(fiber.Map{"deleted": n})
	}
}

// POST /api/admin/daily-cuts
func PerformDailyCutHandler(svc *Service, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cut, err := svc.PerformDailyCut(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo realizar el corte")
		}
		if cut == nil {
			return c.JSON(fiber.Map{"message": "No hay ventas para cortar"})
		}

		if actor, err := auth.CurrentActor(c); err == nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "daily_cut",
				EntityID:    cut.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Corte de caja: $%d en %d ventas", cut.TotalSales, len(cut.SalesRecords)),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(cut)
	}
}

// GET /api/admin/daily-cuts
func ListDailyCutsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cuts, err := svc.ListDailyCuts(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los cortes")
		}
		return c.JSON(cuts)
	}
}

func loadCut(c *fiber.Ctx, svc *Service) (*models.DailyCut, error) {
	cut, err := svc.GetDailyCut(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el corte")
	}
	if cut == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Corte no encontrado")
	}
	return cut, nil
}

// GET /api/admin/daily-cuts/:id
func GetDailyCutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cut, err := loadCut(c, svc)
		if err != nil {
			return err
		}
		return c.JSON(cut)
	}
}

// GET /api/admin/daily-cuts/:id/export?format=csv|xlsx
func ExportDailyCutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cut, err := loadCut(c, svc)
		if err != nil {
			return err
		}

		format := strings.ToLower(c.Query("format", "csv"))
		var (
			buf         bytes.Buffer
			contentType string
		)
		switch format {
		case "csv":
			err = WriteCSV(&buf, cut)
			contentType = "text/csv; charset=utf-8"
		case "xlsx":
			err = WriteXLSX(&buf, cut)
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Formato no soportado (csv o xlsx)")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el archivo")
		}

		// Attachment guesses a type from the extension; ours wins
		c.Attachment(ExportFileName(cut, format))
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(buf.Bytes())
	}
}

// DELETE /api/admin/daily-cuts/:id
func DeleteDailyCutHandler(svc *Service, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		before, _ := svc.GetDailyCut(c.UserContext(), id)

		if err := svc.RemoveDailyCut(c.UserContext(), id); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el corte")
		}

		if actor, err := auth.CurrentActor(c); err == nil && before != nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "daily_cut",
				EntityID:    id,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Corte eliminado: $%d del %s", before.TotalSales, before.Date.Format("2006-01-02")),
				Before:      before,
			})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

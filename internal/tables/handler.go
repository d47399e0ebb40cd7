package tables

import (
	"errors"
	"fmt"
	"strings"

	"bardev-backend/internal/audit"
	"bardev-backend/internal/auth"
	"bardev-backend/internal/billiard"
	"bardev-backend/internal/menu"
	"bardev-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type OpenTableRequest struct {
	Number    string `json:"number"`
	HasBillar bool   `json:"has_billar"`
}

type AddItemsRequest struct {
	Items []string `json:"items"` // menu entry ids, repeats allowed
	Notes []string `json:"notes"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type CloseTableRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Tip           int64                `json:"tip"`
}

// TableResponse is a table with its running bill and, when it has one, the
// billiard clock.
type TableResponse struct {
	models.Table
	Totals Totals         `json:"totals"`
	Clock  *billiard.View `json:"billiard_clock,omitempty"`
}

func (s *Service) respond(t *models.Table) TableResponse {
	if t.Items == nil {
		t.Items = []models.OrderLine{}
	}
	r := TableResponse{Table: *t, Totals: s.Totals(t)}
	if clk, ok := s.Clock(t); ok {
		v := clk.View()
		r.Clock = &v
	}
	return r
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrTableNumberTaken):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidNumber),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidPayment),
		errors.Is(err, ErrInvalidTip):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "Error al procesar la mesa")
}

func (s *Service) currentTable(c *fiber.Ctx) error {
	t, err := s.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	if t == nil {
		return fiber.NewError(fiber.StatusNotFound, "Mesa no encontrada")
	}
	return c.JSON(s.respond(t))
}

// afterMutation answers a table mutation with the fresh table. Mutations on
// a table that is no longer open are no-ops and answer 204.
func (s *Service) afterMutation(c *fiber.Ctx) error {
	t, err := s.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	if t == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(s.respond(t))
}

// GET /api/tables
func ListTablesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tables, err := svc.List(c.UserContext())
		if err != nil {
			return mapError(err)
		}
		out := make([]TableResponse, 0, len(tables))
		for i := range tables {
			out = append(out, svc.respond(&tables[i]))
		}
		return c.JSON(out)
	}
}

// GET /api/tables/:id
func GetTableHandler(svc *Service) fiber.Handler {
	return svc.currentTable
}

// POST /api/tables
func OpenTableHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OpenTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		t, err := svc.Open(c.UserContext(), body.Number, body.HasBillar, &models.User{ID: actor.ID, Name: actor.Name})
		if err != nil {
			return mapError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(svc.respond(t))
	}
}

// POST /api/tables/:id/items
func AddItemsHandler(svc *Service, cat *menu.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AddItemsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Selecciona al menos un producto")
		}

		entries, err := cat.Resolve(c.UserContext(), body.Items)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el menú")
		}
		if len(entries) != len(body.Items) {
			return fiber.NewError(fiber.StatusBadRequest, "Producto desconocido en la orden")
		}

		if _, err := svc.AddItems(c.UserContext(), c.Params("id"), entries, body.Notes); err != nil {
			return mapError(err)
		}
		return svc.afterMutation(c)
	}
}

// PUT /api/tables/:id/items/:itemId/status
func UpdateItemStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		body.Status = models.OrderStatus(strings.ToUpper(string(body.Status)))

		if err := svc.UpdateItemStatus(c.UserContext(), c.Params("id"), c.Params("itemId"), body.Status); err != nil {
			return mapError(err)
		}
		return svc.afterMutation(c)
	}
}

// DELETE /api/admin/tables/:id/items/:itemId
func RemoveItemHandler(svc *Service, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tableID := c.Params("id")
		line, err := svc.RemoveItem(c.UserContext(), tableID, c.Params("itemId"))
		if err != nil {
			return mapError(err)
		}

		if actor, err := auth.CurrentActor(c); err == nil && line != nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "order_line",
				EntityID:    line.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Producto retirado de la mesa: %s ($%d)", line.Name, line.Price),
				Before:      line,
			})
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/tables/:id/billiard/activate
func ActivateBilliardHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.ActivateBilliard(c.UserContext(), c.Params("id")); err != nil {
			return mapError(err)
		}
		return svc.afterMutation(c)
	}
}

// POST /api/tables/:id/billiard/block
func AddBilliardBlockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.AddBilliardBlock(c.UserContext(), c.Params("id")); err != nil {
			return mapError(err)
		}
		return svc.afterMutation(c)
	}
}

// POST /api/tables/:id/billiard/deactivate
func DeactivateBilliardHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeactivateBilliard(c.UserContext(), c.Params("id")); err != nil {
			return mapError(err)
		}
		return svc.afterMutation(c)
	}
}

// GET /api/tables/:id/billiard
func BilliardClockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		if t == nil {
			return fiber.NewError(fiber.StatusNotFound, "Mesa no encontrada")
		}
		clk, ok := svc.Clock(t)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "La mesa no tiene billar activo")
		}
		return c.JSON(fiber.Map{
			"table_id": t.ID,
			"blocks":   t.BillarBlocks,
			"charge":   billiard.Charge(t.HasBillar, t.BillarBlocks, svc.PricePerHour()),
			"clock":    clk.View(),
		})
	}
}

// POST /api/tables/:id/close
func CloseTableHandler(svc *Service, logs *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CloseTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		body.PaymentMethod = models.PaymentMethod(strings.ToUpper(string(body.PaymentMethod)))

		sale, err := svc.Close(c.UserContext(), c.Params("id"), body.PaymentMethod, body.Tip)
		if err != nil {
			return mapError(err)
		}
		if sale == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}

		if actor, err := auth.CurrentActor(c); err == nil {
			logs.Record(audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  "sale",
				EntityID:    sale.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("%s cerrada: $%d (%s) propina $%d", sale.TableNumber, sale.Total, sale.PaymentMethod, sale.Tip),
				After:       sale,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(sale)
	}
}

// GET /api/kitchen
func KitchenQueueHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		tables, err := svc.List(c.UserContext())
		if err != nil {
			return mapError(err)
		}
		return c.JSON(KitchenQueue(tables, actor.Role))
	}
}

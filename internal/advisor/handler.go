package advisor

import (
	"context"

	"bardev-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SalesSource interface {
	ListSales(ctx context.Context) ([]models.SaleRecord, error)
}

// GET /api/admin/insights
func InsightsHandler(a Advisor, sales SalesSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := sales.ListSales(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron leer las ventas")
		}

		var total int64
		for _, s := range records {
			total += s.Total
		}

		return c.JSON(fiber.Map{
			"total":  total,
			"advice": Advise(c.UserContext(), a, total),
		})
	}
}

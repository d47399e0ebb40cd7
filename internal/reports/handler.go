package reports

import (
	"context"

	"bardev-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UserSource interface {
	List(ctx context.Context) ([]models.User, error)
}

type SalesSource interface {
	ListSales(ctx context.Context) ([]models.SaleRecord, error)
	ListDailyCuts(ctx context.Context) ([]models.DailyCut, error)
}

// loadSales returns the live sales, plus the sales frozen in every cut when
// the request asks for ?include_cuts=true.
func loadSales(c *fiber.Ctx, src SalesSource) ([]models.SaleRecord, error) {
	sales, err := src.ListSales(c.UserContext())
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "No se pudieron leer las ventas")
	}
	if !c.QueryBool("include_cuts", false) {
		return sales, nil
	}

	cuts, err := src.ListDailyCuts(c.UserContext())
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "No se pudieron leer los cortes")
	}
	for _, cut := range cuts {
		sales = append(sales, cut.SalesRecords...)
	}
	return sales, nil
}

// GET /api/admin/reports/staff
func StaffPerformanceHandler(users UserSource, src SalesSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		staff, err := users.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el personal")
		}
		sales, err := loadSales(c, src)
		if err != nil {
			return err
		}
		return c.JSON(StaffPerformanceReport(staff, sales))
	}
}

// GET /api/admin/reports/summary
func SummaryHandler(src SalesSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sales, err := loadSales(c, src)
		if err != nil {
			return err
		}
		return c.JSON(Summarize(sales))
	}
}

// GET /api/admin/reports/popular-items?limit=10
func PopularItemsHandler(src SalesSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sales, err := loadSales(c, src)
		if err != nil {
			return err
		}
		return c.JSON(PopularItems(sales, c.QueryInt("limit", 10)))
	}
}

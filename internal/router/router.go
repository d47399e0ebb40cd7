package router

import (
	"errors"
	"log"
	"strings"

	"bardev-backend/internal/advisor"
	"bardev-backend/internal/audit"
	"bardev-backend/internal/auth"
	"bardev-backend/internal/config"
	"bardev-backend/internal/inventory"
	"bardev-backend/internal/menu"
	"bardev-backend/internal/models"
	"bardev-backend/internal/reports"
	"bardev-backend/internal/settlement"
	"bardev-backend/internal/tables"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Services is everything the HTTP layer dispatches to.
type Services struct {
	Staff      *auth.Staff
	Audit      *audit.Writer
	Inventory  *inventory.Ledger
	Menu       *menu.Catalog
	Tables     *tables.Service
	Settlement *settlement.Service
	Advisor    advisor.Advisor
}

func errorHandler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
		})
	}
	log.Println("Unexpected error:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Error inesperado del servidor",
	})
}

func New(cfg *config.Config, svc Services) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public
	api.Post("/auth/pin-login", auth.PinLoginHandler(svc.Staff, cfg.JWTSecret))
	api.Get("/users", auth.ListUsersHandler(svc.Staff))
	api.Get("/menu", menu.ListMenuHandler(svc.Menu))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(svc.Staff))

	floor := auth.RequireRole(models.RoleAdmin, models.RoleWaiter)
	anyStaff := auth.RequireRole(models.RoleAdmin, models.RoleWaiter, models.RoleCook, models.RoleBartender)

	// Mesas
	protected.Get("/tables", anyStaff, tables.ListTablesHandler(svc.Tables))
	protected.Post("/tables", floor, tables.OpenTableHandler(svc.Tables))
	protected.Get("/tables/:id", anyStaff, tables.GetTableHandler(svc.Tables))
	protected.Post("/tables/:id/items", floor, tables.AddItemsHandler(svc.Tables, svc.Menu))
	protected.Put("/tables/:id/items/:itemId/status", anyStaff, tables.UpdateItemStatusHandler(svc.Tables))
	protected.Post("/tables/:id/close", floor, tables.CloseTableHandler(svc.Tables, svc.Audit))

	// Billar
	protected.Get("/tables/:id/billiard", anyStaff, tables.BilliardClockHandler(svc.Tables))
	protected.Post("/tables/:id/billiard/activate", floor, tables.ActivateBilliardHandler(svc.Tables))
	protected.Post("/tables/:id/billiard/block", floor, tables.AddBilliardBlockHandler(svc.Tables))
	protected.Post("/tables/:id/billiard/deactivate", floor, tables.DeactivateBilliardHandler(svc.Tables))

	// Cocina y barra
	protected.Get("/kitchen", anyStaff, tables.KitchenQueueHandler(svc.Tables))

	// Inventario (lectura)
	protected.Get("/inventory", anyStaff, inventory.ListMaterialsHandler(svc.Inventory))
	protected.Get("/inventory/low-stock", anyStaff, inventory.LowStockHandler(svc.Inventory))

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateUserHandler(svc.Staff, svc.Audit))
	adminRoutes.Put("/users/:id", auth.UpdateUserHandler(svc.Staff, svc.Audit))
	adminRoutes.Delete("/users/:id", auth.DeleteUserHandler(svc.Staff, svc.Audit))

	adminRoutes.Post("/menu", menu.CreateMenuEntryHandler(svc.Menu, svc.Audit))
	adminRoutes.Put("/menu/:id", menu.UpdateMenuEntryHandler(svc.Menu, svc.Audit))
	adminRoutes.Delete("/menu/:id", menu.DeleteMenuEntryHandler(svc.Menu, svc.Audit))

	adminRoutes.Post("/inventory", inventory.CreateMaterialHandler(svc.Inventory, svc.Audit))
	adminRoutes.Post("/inventory/:id/adjust", inventory.AdjustMaterialHandler(svc.Inventory, svc.Audit))
	adminRoutes.Put("/inventory/:id/quantity", inventory.SetMaterialQuantityHandler(svc.Inventory, svc.Audit))
	adminRoutes.Delete("/inventory/:id", inventory.DeleteMaterialHandler(svc.Inventory, svc.Audit))

	adminRoutes.Delete("/tables/:id/items/:itemId", tables.RemoveItemHandler(svc.Tables, svc.Audit))

	// Ventas y cortes de caja
	adminRoutes.Get("/sales", settlement.ListSalesHandler(svc.Settlement))
	adminRoutes.Delete("/sales/:id", settlement.DeleteSaleHandler(svc.Settlement, svc.Audit))
	adminRoutes.Delete("/sales", settlement.ClearSalesHandler(svc.Settlement, svc.Audit))
	adminRoutes.Post("/daily-cuts", settlement.PerformDailyCutHandler(svc.Settlement, svc.Audit))
	adminRoutes.Get("/daily-cuts", settlement.ListDailyCutsHandler(svc.Settlement))
	adminRoutes.Get("/daily-cuts/:id", settlement.GetDailyCutHandler(svc.Settlement))
	adminRoutes.Get("/daily-cuts/:id/export", settlement.ExportDailyCutHandler(svc.Settlement))
	adminRoutes.Delete("/daily-cuts/:id", settlement.DeleteDailyCutHandler(svc.Settlement, svc.Audit))

	// Reportes
	adminRoutes.Get("/reports/staff", reports.StaffPerformanceHandler(svc.Staff, svc.Settlement))
	adminRoutes.Get("/reports/summary", reports.SummaryHandler(svc.Settlement))
	adminRoutes.Get("/reports/popular-items", reports.PopularItemsHandler(svc.Settlement))
	adminRoutes.Get("/insights", advisor.InsightsHandler(svc.Advisor, svc.Settlement))

	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(svc.Audit))

	return app
}

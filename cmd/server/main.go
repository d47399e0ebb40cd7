package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bardev-backend/internal/advisor"
	"bardev-backend/internal/audit"
	"bardev-backend/internal/auth"
	"bardev-backend/internal/config"
	"bardev-backend/internal/database"
	"bardev-backend/internal/events"
	"bardev-backend/internal/inventory"
	"bardev-backend/internal/menu"
	"bardev-backend/internal/models"
	"bardev-backend/internal/realtime"
	"bardev-backend/internal/router"
	"bardev-backend/internal/settlement"
	"bardev-backend/internal/tables"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if cfg.SeedDefaults {
		if err := database.SeedDefaults(db); err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
	}

	hub := realtime.NewHub(func(token string) bool {
		_, err := auth.ParseToken(cfg.JWTSecret, token)
		return err == nil
	})
	publisher := events.NewAMQPPublisher(cfg.RabbitMQURL)

	svc := router.Services{
		Staff:      auth.NewStaff(db, hub),
		Audit:      audit.NewWriter(db),
		Inventory:  inventory.NewLedger(db, hub),
		Menu:       menu.NewCatalog(db, hub),
		Tables:     tables.NewService(db, cfg.BillarPricePerHour, hub, publisher),
		Settlement: settlement.NewService(db, hub, publisher),
		Advisor:    advisor.NewHTTPAdvisor(cfg.AdvisorURL),
	}

	registerFeeds(hub, svc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	wsServer := &http.Server{
		Addr:              ":" + cfg.WSPort,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Realtime feed escuchando en :%s/ws", cfg.WSPort)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[WARN] realtime detenido: %v", err)
		}
	}()

	app := router.New(cfg, svc)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = wsServer.Shutdown(shutdownCtx)
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	log.Printf("Servidor escuchando en :%s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

// registerFeeds wires every collection of the realtime feed to the service
// that owns it. users and menu are readable without a session.
func registerFeeds(hub *realtime.Hub, svc router.Services) {
	hub.Register(models.CollectionUsers, false, func(ctx context.Context) (any, error) {
		return svc.Staff.List(ctx)
	})
	hub.Register(models.CollectionMenu, false, func(ctx context.Context) (any, error) {
		return svc.Menu.List(ctx)
	})
	hub.Register(models.CollectionTables, true, func(ctx context.Context) (any, error) {
		return svc.Tables.List(ctx)
	})
	hub.Register(models.CollectionInventory, true, func(ctx context.Context) (any, error) {
		return svc.Inventory.List(ctx)
	})
	hub.Register(models.CollectionSales, true, func(ctx context.Context) (any, error) {
		return svc.Settlement.ListSales(ctx)
	})
	hub.Register(models.CollectionDailyCuts, true, func(ctx context.Context) (any, error) {
		return svc.Settlement.ListDailyCuts(ctx)
	})

	hub.SetTickSource(func(ctx context.Context) ([]any, error) {
		clocks, err := svc.Tables.RunningClocks(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(clocks))
		for _, c := range clocks {
			out = append(out, c)
		}
		return out, nil
	}, time.Second)
}

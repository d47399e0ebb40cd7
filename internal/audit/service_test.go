package audit

import (
	"context"
	"strings"
	"testing"

	"bardev-backend/internal/config"
	"bardev-backend/internal/database"
	"bardev-backend/internal/models"
)

func TestWriteAndList(t *testing.T) {
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	db, err := database.Open(&config.Config{
		DBDriver:    "sqlite",
		DatabaseDSN: "file:" + name + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	w := NewWriter(db)
	w.Record(LogOptions{
		UserID: "u1", UserName: "Admin", EntityType: "sale", EntityID: "s1",
		Action: models.AuditActionCreate, Description: "Mesa 5 cerrada",
		After: map[string]int{"total": 550},
	})
	w.Record(LogOptions{
		UserID: "u2", UserName: "Juan", EntityType: "material", EntityID: "m1",
		Action: models.AuditActionUpdate, Description: "Ajuste",
	})

	all, err := w.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].EntityType != "material" {
		t.Fatalf("logs = %+v", all)
	}
	if all[1].AfterData != `{"total":550}` || all[1].BeforeData != "null" {
		t.Fatalf("snapshots = %q / %q", all[1].BeforeData, all[1].AfterData)
	}

	sales, _ := w.List(context.Background(), Filter{EntityType: "sale"})
	if len(sales) != 1 || sales[0].EntityID != "s1" {
		t.Fatalf("filtered = %+v", sales)
	}
	byUser, _ := w.List(context.Background(), Filter{UserID: "u2", Limit: 5})
	if len(byUser) != 1 || byUser[0].UserName != "Juan" {
		t.Fatalf("by user = %+v", byUser)
	}
}

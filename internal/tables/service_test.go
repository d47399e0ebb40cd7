package tables

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bardev-backend/internal/config"
	"bardev-backend/internal/database"
	"bardev-backend/internal/models"

	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(&config.Config{
		DBDriver:    "sqlite",
		DatabaseDSN: "file:" + name + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, collection)
}

func (r *recorder) count(collection string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == collection {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recorder) {
	t.Helper()
	db := newTestDB(t)
	rec := &recorder{}
	svc := NewService(db, 150, rec, nil)
	svc.SetClock(func() time.Time { return testNow })
	return svc, db, rec
}

func seedMaterial(t *testing.T, db *gorm.DB, id string, qty float64) {
	t.Helper()
	m := models.Material{ID: id, Name: id, Quantity: qty, Unit: "pz", IsAuto: true, MinAlert: 1}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed material: %v", err)
	}
}

func quantity(t *testing.T, db *gorm.DB, id string) float64 {
	t.Helper()
	var m models.Material
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		t.Fatalf("load material: %v", err)
	}
	return m.Quantity
}

var (
	burger = models.MenuEntry{ID: "1", Name: "Hamburguesa", Price: 150, Category: models.CategoryFood,
		Recipe: []models.RecipeIngredient{{MaterialID: "m1", Amount: 1}, {MaterialID: "m2", Amount: 1}}}
	beer = models.MenuEntry{ID: "2", Name: "Cerveza", Price: 50, Category: models.CategoryDrink,
		Recipe: []models.RecipeIngredient{{MaterialID: "v1", Amount: 1}}}
	fries = models.MenuEntry{ID: "3", Name: "Papas", Price: 50, Category: models.CategorySnack}
)

func TestOpen(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	tbl, err := svc.Open(ctx, "5", false, &models.User{ID: "u2", Name: "Juan"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if tbl.Number != "Mesa 5" {
		t.Fatalf("number = %q", tbl.Number)
	}
	if tbl.WaiterID == nil || *tbl.WaiterID != "u2" {
		t.Fatalf("waiter not recorded")
	}
	if tbl.HasBillar || tbl.BillarBlocks != 0 || tbl.BillarStartTime != nil {
		t.Fatalf("unexpected billiard state: %+v", tbl)
	}

	if _, err := svc.Open(ctx, "5", true, nil); !errors.Is(err, ErrTableNumberTaken) {
		t.Fatalf("second open err = %v, want ErrTableNumberTaken", err)
	}
	if _, err := svc.Open(ctx, "  ", false, nil); !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("blank number err = %v", err)
	}

	billar, err := svc.Open(ctx, "6", true, nil)
	if err != nil {
		t.Fatalf("open billiard: %v", err)
	}
	if !billar.HasBillar || billar.BillarBlocks != 1 || billar.BillarStartTime == nil {
		t.Fatalf("billiard table not started: %+v", billar)
	}
	if rec.count(models.CollectionTables) != 2 {
		t.Fatalf("tables notifications = %d", rec.count(models.CollectionTables))
	}
}

func TestOpenComparesFormattedLabel(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Open(ctx, "5", false, nil); err != nil {
		t.Fatalf("open: %v", err)
	}
	padded, err := svc.Open(ctx, " 5", false, nil)
	if err != nil {
		t.Fatalf("padded number err = %v, labels differ", err)
	}
	if padded.Number != "Mesa  5" {
		t.Fatalf("number = %q", padded.Number)
	}
	if _, err := svc.Open(ctx, " 5", false, nil); !errors.Is(err, ErrTableNumberTaken) {
		t.Fatalf("same padded number err = %v", err)
	}
}

func TestOpenConcurrentSameNumber(t *testing.T) {
	svc, _, _ := newTestService(t)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	opened, taken := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Open(context.Background(), "7", false, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				opened++
			case errors.Is(err, ErrTableNumberTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if opened != 1 || taken != workers-1 {
		t.Fatalf("opened=%d taken=%d", opened, taken)
	}
}

func TestAddItems(t *testing.T) {
	svc, db, rec := newTestService(t)
	ctx := context.Background()
	seedMaterial(t, db, "m1", 10)
	seedMaterial(t, db, "m2", 10)
	seedMaterial(t, db, "v1", 3)

	tbl, err := svc.Open(ctx, "1", false, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	lines, err := svc.AddItems(ctx, tbl.ID, []models.MenuEntry{burger, beer, burger}, []string{"sin cebolla"})
	if err != nil {
		t.Fatalf("add items: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %d", len(lines))
	}

	got, err := svc.Get(ctx, tbl.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	wantNames := []string{"Hamburguesa", "Cerveza", "Hamburguesa"}
	ids := map[string]bool{}
	for i, it := range got.Items {
		if it.Name != wantNames[i] {
			t.Fatalf("item %d = %q, want %q", i, it.Name, wantNames[i])
		}
		if it.Status != models.StatusPending {
			t.Fatalf("item %d status = %s", i, it.Status)
		}
		ids[it.ID] = true
	}
	if len(ids) != 3 {
		t.Fatalf("line ids are not unique")
	}
	if got.Items[0].Notes != "sin cebolla" || got.Items[1].Notes != "" {
		t.Fatalf("notes = %q, %q", got.Items[0].Notes, got.Items[1].Notes)
	}

	if q := quantity(t, db, "m1"); q != 8 {
		t.Fatalf("m1 = %v, want 8", q)
	}
	if q := quantity(t, db, "v1"); q != 2 {
		t.Fatalf("v1 = %v, want 2", q)
	}
	if rec.count(models.CollectionInventory) != 1 {
		t.Fatalf("inventory notifications = %d", rec.count(models.CollectionInventory))
	}

	// a second batch lands after the first one
	if _, err := svc.AddItems(ctx, tbl.ID, []models.MenuEntry{fries}, nil); err != nil {
		t.Fatalf("add fries: %v", err)
	}
	got, _ = svc.Get(ctx, tbl.ID)
	if len(got.Items) != 4 || got.Items[3].Name != "Papas" {
		t.Fatalf("items after second batch: %+v", got.Items)
	}
}

func TestAddItemsAllowsNegativeStock(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	seedMaterial(t, db, "v1", 1)

	tbl, _ := svc.Open(ctx, "1", false, nil)
	if _, err := svc.AddItems(ctx, tbl.ID, []models.MenuEntry{beer, beer, beer}, nil); err != nil {
		t.Fatalf("add items: %v", err)
	}
	if q := quantity(t, db, "v1"); q != -2 {
		t.Fatalf("v1 = %v, want -2", q)
	}
}

func TestAddItemsConcurrent(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	seedMaterial(t, db, "v1", 100)

	tbl, _ := svc.Open(ctx, "1", false, nil)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddItems(ctx, tbl.ID, []models.MenuEntry{beer, beer}, nil); err != nil {
				t.Errorf("add items: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := svc.Get(ctx, tbl.ID)
	if len(got.Items) != 2*workers {
		t.Fatalf("items = %d, want %d", len(got.Items), 2*workers)
	}
	if q := quantity(t, db, "v1"); q != 100-2*workers {
		t.Fatalf("v1 = %v", q)
	}
}

func TestAddItemsMissingTable(t *testing.T) {
	svc, db, rec := newTestService(t)
	seedMaterial(t, db, "v1", 5)

	lines, err := svc.AddItems(context.Background(), "nope", []models.MenuEntry{beer}, nil)
	if err != nil || lines != nil {
		t.Fatalf("lines=%v err=%v", lines, err)
	}
	if q := quantity(t, db, "v1"); q != 5 {
		t.Fatalf("stock moved on a missing table: %v", q)
	}
	if len(rec.events) != 0 {
		t.Fatalf("unexpected notifications: %v", rec.events)
	}
}

func TestUpdateItemStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	tbl, _ := svc.Open(ctx, "1", false, nil)
	lines, _ := svc.AddItems(ctx, tbl.ID, []models.MenuEntry{fries, fries}, nil)

	if err := svc.UpdateItemStatus(ctx, tbl.ID, lines[0].ID, models.StatusReady); err != nil {
		t.Fatalf("update: %v", err)
	}
	// any status may follow any other
	if err := svc.UpdateItemStatus(ctx, tbl.ID, lines[1].ID, models.StatusDelivered); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.UpdateItemStatus(ctx, tbl.ID, lines[1].ID, models.StatusPending); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.UpdateItemStatus(ctx, tbl.ID, lines[0].ID, "COOKING"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
	if err := svc.UpdateItemStatus(ctx, tbl.ID, "missing", models.StatusReady); err != nil {
		t.Fatalf("missing line should be a no-op: %v", err)
	}

	got, _ := svc.Get(ctx, tbl.ID)
	if got.Items[0].Status != models.StatusReady || got.Items[1].Status != models.StatusPending {
		t.Fatalf("statuses = %s, %s", got.Items[0].Status, got.Items[1].Status)
	}
}

func TestRemoveItemDoesNotRestock(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	seedMaterial(t, db, "v1", 5)
	tbl, _ := svc.Open(ctx, "1", false, nil)
	lines, _ := svc.AddItems(ctx, tbl.ID, []models.MenuEntry{beer, fries}, nil)

	removed, err := svc.RemoveItem(ctx, tbl.ID, lines[0].ID)
	if err != nil || removed == nil || removed.Name != "Cerveza" {
		t.Fatalf("removed=%v err=%v", removed, err)
	}
	if q := quantity(t, db, "v1"); q != 4 {
		t.Fatalf("v1 = %v, want 4", q)
	}

	got, _ := svc.Get(ctx, tbl.ID)
	if len(got.Items) != 1 || got.Items[0].Name != "Papas" {
		t.Fatalf("items = %+v", got.Items)
	}

	removed, err = svc.RemoveItem(ctx, tbl.ID, lines[0].ID)
	if err != nil || removed != nil {
		t.Fatalf("second remove: removed=%v err=%v", removed, err)
	}
}

func TestBilliardLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	tbl, _ := svc.Open(ctx, "3", false, nil)

	// no billiard yet: a block is ignored
	if err := svc.AddBilliardBlock(ctx, tbl.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	got, _ := svc.Get(ctx, tbl.ID)
	if got.BillarBlocks != 0 {
		t.Fatalf("blocks = %d, want 0", got.BillarBlocks)
	}

	if err := svc.ActivateBilliard(ctx, tbl.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := svc.AddBilliardBlock(ctx, tbl.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	// activating again keeps the bought blocks
	if err := svc.ActivateBilliard(ctx, tbl.ID); err != nil {
		t.Fatalf("activate again: %v", err)
	}

	got, _ = svc.Get(ctx, tbl.ID)
	if !got.HasBillar || got.BillarBlocks != 2 || got.BillarStartTime == nil {
		t.Fatalf("billiard state: %+v", got)
	}
	if !got.BillarStartTime.Equal(testNow) {
		t.Fatalf("start = %v", got.BillarStartTime)
	}

	svc.SetClock(func() time.Time { return testNow.Add(90 * time.Minute) })
	clk, ok := svc.Clock(got)
	if !ok || clk.Expired || clk.Display != "00:30:00" {
		t.Fatalf("clock = %+v ok=%v", clk, ok)
	}
	if tot := svc.Totals(got); tot.Billar != 300 {
		t.Fatalf("billar charge = %d", tot.Billar)
	}

	if err := svc.DeactivateBilliard(ctx, tbl.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, _ = svc.Get(ctx, tbl.ID)
	if got.HasBillar || got.BillarBlocks != 0 || got.BillarStartTime != nil {
		t.Fatalf("after deactivate: %+v", got)
	}
	if _, ok := svc.Clock(got); ok {
		t.Fatalf("clock should be gone")
	}
}

func TestClose(t *testing.T) {
	svc, db, rec := newTestService(t)
	ctx := context.Background()
	waiter := &models.User{ID: "u2", Name: "Juan"}

	tbl, _ := svc.Open(ctx, "5", true, waiter)
	if err := svc.AddBilliardBlock(ctx, tbl.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	lines, _ := svc.AddItems(ctx, tbl.ID, []models.MenuEntry{burger, beer, fries}, nil)
	// one line is still pending; closing does not wait for the kitchen
	_ = svc.UpdateItemStatus(ctx, tbl.ID, lines[0].ID, models.StatusDelivered)

	sale, err := svc.Close(ctx, tbl.ID, models.PaymentCash, 40)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if sale.Total != 250+2*150 {
		t.Fatalf("total = %d, want 550", sale.Total)
	}
	if sale.Tip != 40 || sale.PaymentMethod != models.PaymentCash {
		t.Fatalf("sale = %+v", sale)
	}
	if sale.TableNumber != "Mesa 5" || sale.WaiterName == nil || *sale.WaiterName != "Juan" {
		t.Fatalf("sale attribution = %+v", sale)
	}
	if len(sale.Items) != 3 || sale.Items[0].Status != models.StatusDelivered {
		t.Fatalf("sale items = %+v", sale.Items)
	}

	if got, _ := svc.Get(ctx, tbl.ID); got != nil {
		t.Fatalf("table still open")
	}
	var orphan int64
	db.Model(&models.OrderLine{}).Where("table_id = ?", tbl.ID).Count(&orphan)
	if orphan != 0 {
		t.Fatalf("order lines left behind: %d", orphan)
	}
	var stored models.SaleRecord
	if err := db.First(&stored, "id = ?", sale.ID).Error; err != nil {
		t.Fatalf("sale not stored: %v", err)
	}
	if len(stored.Items) != 3 {
		t.Fatalf("stored items = %d", len(stored.Items))
	}
	if rec.count(models.CollectionSales) != 1 {
		t.Fatalf("sales notifications = %d", rec.count(models.CollectionSales))
	}

	// the label is free again
	if _, err := svc.Open(ctx, "5", false, nil); err != nil {
		t.Fatalf("reopen: %v", err)
	}
}

func TestCloseValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	tbl, _ := svc.Open(ctx, "1", false, nil)

	if _, err := svc.Close(ctx, tbl.ID, "CARD", 0); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("err = %v, want ErrInvalidPayment", err)
	}
	if _, err := svc.Close(ctx, tbl.ID, models.PaymentTransfer, -5); !errors.Is(err, ErrInvalidTip) {
		t.Fatalf("err = %v, want ErrInvalidTip", err)
	}

	sale, err := svc.Close(ctx, tbl.ID, models.PaymentTransfer, 0)
	if err != nil || sale == nil || sale.Total != 0 {
		t.Fatalf("empty table close: sale=%v err=%v", sale, err)
	}

	sale, err = svc.Close(ctx, tbl.ID, models.PaymentTransfer, 0)
	if err != nil || sale != nil {
		t.Fatalf("closing twice: sale=%v err=%v", sale, err)
	}
}

func TestKitchenQueue(t *testing.T) {
	early := testNow
	late := testNow.Add(time.Minute)
	tables := []models.Table{
		{ID: "a", Number: "Mesa 1", Items: []models.OrderLine{
			{ID: "1", Name: "Cerveza", Category: models.CategoryDrink, Status: models.StatusPending, CreatedAt: late},
			{ID: "2", Name: "Hamburguesa", Category: models.CategoryFood, Status: models.StatusPending, CreatedAt: late},
			{ID: "3", Name: "Papas", Category: models.CategorySnack, Status: models.StatusReady, CreatedAt: early},
		}},
		{ID: "b", Number: "Mesa 2", Items: []models.OrderLine{
			{ID: "4", Name: "Nachos", Category: models.CategorySnack, Status: models.StatusPending, CreatedAt: early},
		}},
	}

	cook := KitchenQueue(tables, models.RoleCook)
	if len(cook) != 2 || cook[0].ItemID != "4" || cook[1].ItemID != "2" {
		t.Fatalf("cook queue = %+v", cook)
	}
	bar := KitchenQueue(tables, models.RoleBartender)
	if len(bar) != 1 || bar[0].ItemID != "1" || bar[0].TableNumber != "Mesa 1" {
		t.Fatalf("bar queue = %+v", bar)
	}
	if all := KitchenQueue(tables, models.RoleAdmin); len(all) != 3 {
		t.Fatalf("admin queue = %d", len(all))
	}
	if empty := KitchenQueue(nil, models.RoleCook); empty == nil || len(empty) != 0 {
		t.Fatalf("empty queue = %v", empty)
	}
}

func TestTableLocksReleased(t *testing.T) {
	l := newTableLocks()
	unlock := l.Lock("a")
	unlock2 := make(chan func())
	go func() { unlock2 <- l.Lock("b") }()
	(<-unlock2)()
	unlock()
	if n := l.size(); n != 0 {
		t.Fatalf("locks left = %d", n)
	}
}

func TestRunningClocks(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Open(ctx, "1", false, nil); err != nil {
		t.Fatalf("open: %v", err)
	}
	billar, _ := svc.Open(ctx, "2", true, nil)

	svc.SetClock(func() time.Time { return testNow.Add(61 * time.Minute) })
	clocks, err := svc.RunningClocks(ctx)
	if err != nil {
		t.Fatalf("clocks: %v", err)
	}
	if len(clocks) != 1 || clocks[0].TableID != billar.ID {
		t.Fatalf("clocks = %+v", clocks)
	}
	if !clocks[0].Clock.Expired || clocks[0].Clock.Display != "00:01:00" {
		t.Fatalf("clock = %+v", clocks[0].Clock)
	}
}

package tables

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bardev-backend/internal/billiard"
	"bardev-backend/internal/events"
	"bardev-backend/internal/inventory"
	"bardev-backend/internal/models"
	"bardev-backend/internal/realtime"
	"bardev-backend/internal/settlement"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrTableNumberTaken: another open table already uses the label.
	ErrTableNumberTaken = errors.New("la mesa ya está abierta")
	ErrInvalidNumber    = errors.New("número de mesa inválido")
	ErrInvalidStatus    = errors.New("estado inválido")
	ErrInvalidPayment   = errors.New("método de pago inválido")
	ErrInvalidTip       = errors.New("la propina no puede ser negativa")
)

// Service is the table/order state machine. A table exists while it is
// open; closing it turns it into a sale record and deletes it.
//
// Mutations of one table are serialized by a per-table lock and each one
// touches individual order line rows, so concurrent waiters and kitchen
// staff never overwrite each other's changes.
type Service struct {
	db           *gorm.DB
	notifier     realtime.Notifier
	publisher    events.Publisher
	pricePerHour int64
	now          func() time.Time

	locks  *tableLocks
	openMu sync.Mutex
}

func NewService(db *gorm.DB, pricePerHour int64, notifier realtime.Notifier, publisher events.Publisher) *Service {
	if notifier == nil {
		notifier = realtime.Nop
	}
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{
		db:           db,
		notifier:     notifier,
		publisher:    publisher,
		pricePerHour: pricePerHour,
		now:          time.Now,
		locks:        newTableLocks(),
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) PricePerHour() int64 {
	return s.pricePerHour
}

// Label is the display number of a table, e.g. "Mesa 5".
func Label(number string) string {
	return "Mesa " + number
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (s *Service) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := withItems(s.db.WithContext(ctx)).Order("created_at ASC").Find(&tables).Error
	return tables, err
}

// Get returns nil, nil when the table is not open.
func (s *Service) Get(ctx context.Context, id string) (*models.Table, error) {
	return findTable(withItems(s.db.WithContext(ctx)), id)
}

func findTable(db *gorm.DB, id string) (*models.Table, error) {
	var t models.Table
	err := db.First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Open creates a table labelled "Mesa <number>". The label must not belong
// to another open table; the unique index on the label backs this check
// across processes.
func (s *Service) Open(ctx context.Context, number string, hasBillar bool, waiter *models.User) (*models.Table, error) {
	if strings.TrimSpace(number) == "" {
		return nil, ErrInvalidNumber
	}

	now := s.now().UTC()
	t := models.Table{
		ID:        uuid.NewString(),
		Number:    Label(number),
		HasBillar: hasBillar,
		Items:     []models.OrderLine{},
	}
	if hasBillar {
		t.BillarBlocks = 1
		t.BillarStartTime = &now
	}
	if waiter != nil {
		t.WaiterID = &waiter.ID
		t.WaiterName = &waiter.Name
	}

	s.openMu.Lock()
	defer s.openMu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Table{}).Where("number = ?", t.Number).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrTableNumberTaken
		}
		return tx.Omit("Items").Create(&t).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrTableNumberTaken
	}
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(models.CollectionTables)
	return &t, nil
}

// AddItems appends one PENDING line per entry, in order, with notes[i]
// attached (empty when missing), and debits every recipe ingredient. Lines
// and debits commit together. A table that is not open is a no-op.
func (s *Service) AddItems(ctx context.Context, tableID string, entries []models.MenuEntry, notes []string) ([]models.OrderLine, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	unlock := s.locks.Lock(tableID)
	defer unlock()

	var lines []models.OrderLine
	var debited bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findTable(tx, tableID)
		if err != nil || t == nil {
			return err
		}

		var last struct{ Max *int }
		if err := tx.Model(&models.OrderLine{}).
			Select("MAX(position) AS max").
			Where("table_id = ?", tableID).
			Scan(&last).Error; err != nil {
			return err
		}
		next := 0
		if last.Max != nil {
			next = *last.Max + 1
		}

		now := s.now().UTC()
		lines = make([]models.OrderLine, 0, len(entries))
		for i, e := range entries {
			note := ""
			if i < len(notes) {
				note = notes[i]
			}
			lines = append(lines, models.OrderLine{
				ID:          uuid.NewString(),
				TableID:     tableID,
				Position:    next + i,
				MenuEntryID: e.ID,
				Name:        e.Name,
				Notes:       note,
				Status:      models.StatusPending,
				Category:    e.Category,
				Price:       e.Price,
				CreatedAt:   now,
			})
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Table{}).Where("id = ?", tableID).UpdateColumn("updated_at", now).Error; err != nil {
			return err
		}

		debited = true
		return inventory.DebitRecipes(tx, entries)
	})
	if err != nil {
		return nil, err
	}
	if !debited {
		return nil, nil
	}

	s.notifier.Publish(models.CollectionTables)
	s.notifier.Publish(models.CollectionInventory)
	return lines, nil
}

// UpdateItemStatus sets the status of one line. Any status may follow any
// other; only the value itself is checked.
func (s *Service) UpdateItemStatus(ctx context.Context, tableID, itemID string, status models.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	unlock := s.locks.Lock(tableID)
	defer unlock()

	res := s.db.WithContext(ctx).Model(&models.OrderLine{}).
		Where("id = ? AND table_id = ?", itemID, tableID).
		UpdateColumn("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.notifier.Publish(models.CollectionTables)
	}
	return nil
}

// RemoveItem deletes one line. Stock consumed by the line is not returned.
func (s *Service) RemoveItem(ctx context.Context, tableID, itemID string) (*models.OrderLine, error) {
	unlock := s.locks.Lock(tableID)
	defer unlock()

	var removed *models.OrderLine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line models.OrderLine
		err := tx.First(&line, "id = ? AND table_id = ?", itemID, tableID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.OrderLine{}, "id = ?", line.ID).Error; err != nil {
			return err
		}
		removed = &line
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removed != nil {
		s.notifier.Publish(models.CollectionTables)
	}
	return removed, nil
}

// ActivateBilliard starts the clock with one block. A table whose clock is
// already running is left alone so its blocks never go down.
func (s *Service) ActivateBilliard(ctx context.Context, tableID string) error {
	unlock := s.locks.Lock(tableID)
	defer unlock()

	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND has_billar = ?", tableID, false).
		Updates(map[string]any{
			"has_billar":        true,
			"billar_blocks":     1,
			"billar_start_time": s.now().UTC(),
		})
	return s.afterTableUpdate(res)
}

// AddBilliardBlock buys one more hour on the same running window.
func (s *Service) AddBilliardBlock(ctx context.Context, tableID string) error {
	unlock := s.locks.Lock(tableID)
	defer unlock()

	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND has_billar = ?", tableID, true).
		UpdateColumn("billar_blocks", gorm.Expr("billar_blocks + 1"))
	return s.afterTableUpdate(res)
}

// DeactivateBilliard stops the rental: no blocks, no start time.
func (s *Service) DeactivateBilliard(ctx context.Context, tableID string) error {
	unlock := s.locks.Lock(tableID)
	defer unlock()

	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ?", tableID).
		Updates(map[string]any{
			"has_billar":        false,
			"billar_blocks":     0,
			"billar_start_time": nil,
		})
	return s.afterTableUpdate(res)
}

func (s *Service) afterTableUpdate(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.notifier.Publish(models.CollectionTables)
	}
	return nil
}

// Close settles the table into a sale record and deletes it, in one
// transaction. Pending lines do not block the close. Returns nil, nil
// when the table is not open.
func (s *Service) Close(ctx context.Context, tableID string, method models.PaymentMethod, tip int64) (*models.SaleRecord, error) {
	if !method.Valid() {
		return nil, ErrInvalidPayment
	}
	if tip < 0 {
		return nil, ErrInvalidTip
	}

	unlock := s.locks.Lock(tableID)
	defer unlock()

	var sale *models.SaleRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findTable(withItems(tx), tableID)
		if err != nil || t == nil {
			return err
		}

		rec := settlement.NewSaleRecord(t, method, tip, s.pricePerHour, s.now().UTC())
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("no se pudo guardar la venta: %w", err)
		}
		if err := tx.Where("table_id = ?", tableID).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Table{}, "id = ?", tableID).Error; err != nil {
			return err
		}
		sale = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, nil
	}

	s.notifier.Publish(models.CollectionTables)
	s.notifier.Publish(models.CollectionSales)

	waiterID := ""
	if sale.WaiterID != nil {
		waiterID = *sale.WaiterID
	}
	events.PublishAsync(s.publisher, events.RoutingSaleClosed, events.SaleClosedEvent{
		SaleID:        sale.ID,
		TableNumber:   sale.TableNumber,
		Total:         sale.Total,
		Tip:           sale.Tip,
		PaymentMethod: string(sale.PaymentMethod),
		WaiterID:      waiterID,
		ItemCount:     len(sale.Items),
		ClosedAt:      sale.Timestamp.Format(time.RFC3339),
	})
	return sale, nil
}

// Totals is the running bill of an open table.
type Totals struct {
	Items   int64 `json:"items"`
	Billar  int64 `json:"billar"`
	Total   int64 `json:"total"`
	Pending int   `json:"pending"`
	Ready   int   `json:"ready"`
}

func (s *Service) Totals(t *models.Table) Totals {
	tot := Totals{
		Items:  settlement.ItemsTotal(t.Items),
		Billar: billiard.Charge(t.HasBillar, t.BillarBlocks, s.pricePerHour),
	}
	tot.Total = tot.Items + tot.Billar
	for _, it := range t.Items {
		switch it.Status {
		case models.StatusPending:
			tot.Pending++
		case models.StatusReady:
			tot.Ready++
		}
	}
	return tot
}

// Clock returns the billiard clock of the table, if it has one running.
func (s *Service) Clock(t *models.Table) (billiard.Clock, bool) {
	if !t.HasBillar || t.BillarStartTime == nil {
		return billiard.Clock{}, false
	}
	return billiard.Compute(*t.BillarStartTime, t.BillarBlocks, s.now()), true
}

// TableClock is the live billiard clock of one table.
type TableClock struct {
	TableID     string        `json:"table_id"`
	TableNumber string        `json:"table_number"`
	Blocks      int           `json:"blocks"`
	Clock       billiard.View `json:"clock"`
}

// RunningClocks recomputes the clock of every open billiard table. It only
// reads.
func (s *Service) RunningClocks(ctx context.Context) ([]TableClock, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).Where("has_billar = ?", true).Order("number ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	clocks := make([]TableClock, 0, len(tables))
	for i := range tables {
		clk, ok := s.Clock(&tables[i])
		if !ok {
			continue
		}
		clocks = append(clocks, TableClock{
			TableID:     tables[i].ID,
			TableNumber: tables[i].Number,
			Blocks:      tables[i].BillarBlocks,
			Clock:       clk.View(),
		})
	}
	return clocks, nil
}

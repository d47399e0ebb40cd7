package settlement

import (
	"context"
	"errors"
	"time"

	"bardev-backend/internal/events"
	"bardev-backend/internal/models"
	"bardev-backend/internal/realtime"

	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	notifier  realtime.Notifier
	publisher events.Publisher
	now       func() time.Time
}

func NewService(db *gorm.DB, notifier realtime.Notifier, publisher events.Publisher) *Service {
	if notifier == nil {
		notifier = realtime.Nop
	}
	if publisher == nil {
		publisher = events.Nop
	}
	return &Service{db: db, notifier: notifier, publisher: publisher, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ListSales returns the live (not yet cut) sales, newest first.
func (s *Service) ListSales(ctx context.Context) ([]models.SaleRecord, error) {
	var sales []models.SaleRecord
	err := s.db.WithContext(ctx).Order("timestamp DESC").Find(&sales).Error
	return sales, err
}

func (s *Service) RemoveSale(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.SaleRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.notifier.Publish(models.CollectionSales)
	}
	return nil
}

// ClearSales drops every live sale without cutting them.
func (s *Service) ClearSales(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.SaleRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.notifier.Publish(models.CollectionSales)
	}
	return res.RowsAffected, nil
}

// PerformDailyCut moves every live sale into a new cut. It returns nil, nil
// when there are no sales, so calling it twice never creates an empty cut.
// Creating the cut and deleting the sales commit together, and only the
// sales captured in the cut are deleted.
func (s *Service) PerformDailyCut(ctx context.Context) (*models.DailyCut, error) {
	var cut models.DailyCut
	var created bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sales []models.SaleRecord
		if err := tx.Order("timestamp DESC").Find(&sales).Error; err != nil {
			return err
		}

		cut, created = BuildDailyCut(sales, s.now().UTC())
		if !created {
			return nil
		}

		if err := tx.Create(&cut).Error; err != nil {
			return err
		}

		ids := make([]string, 0, len(sales))
		for _, sale := range sales {
			ids = append(ids, sale.ID)
		}
		return tx.Where("id IN ?", ids).Delete(&models.SaleRecord{}).Error
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}

	s.notifier.Publish(models.CollectionDailyCuts)
	s.notifier.Publish(models.CollectionSales)
	events.PublishAsync(s.publisher, events.RoutingDailyCutCreated, events.DailyCutCreatedEvent{
		CutID:         cut.ID,
		Date:          cut.Date.Format(time.RFC3339),
		TotalSales:    cut.TotalSales,
		TotalTips:     cut.TotalTips,
		CashTotal:     cut.CashTotal,
		TransferTotal: cut.TransferTotal,
		SalesCount:    len(cut.SalesRecords),
	})
	return &cut, nil
}

// ListDailyCuts returns every cut, newest first.
func (s *Service) ListDailyCuts(ctx context.Context) ([]models.DailyCut, error) {
	var cuts []models.DailyCut
	err := s.db.WithContext(ctx).Order("date DESC").Find(&cuts).Error
	return cuts, err
}

// GetDailyCut returns nil, nil for an unknown id.
func (s *Service) GetDailyCut(ctx context.Context, id string) (*models.DailyCut, error) {
	var cut models.DailyCut
	err := s.db.WithContext(ctx).First(&cut, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cut, nil
}

// RemoveDailyCut deletes a cut and the sales frozen inside it. There is no undo.
func (s *Service) RemoveDailyCut(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.DailyCut{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.notifier.Publish(models.CollectionDailyCuts)
	}
	return nil
}

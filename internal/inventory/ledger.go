package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bardev-backend/internal/models"
	"bardev-backend/internal/realtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger keeps quantity-on-hand per material. Every quantity change goes
// through an atomic "quantity = quantity + delta" update so concurrent
// debits from different tables never lose each other.
type Ledger struct {
	db       *gorm.DB
	notifier realtime.Notifier
}

func NewLedger(db *gorm.DB, notifier realtime.Notifier) *Ledger {
	if notifier == nil {
		notifier = realtime.Nop
	}
	return &Ledger{db: db, notifier: notifier}
}

func (l *Ledger) List(ctx context.Context) ([]models.Material, error) {
	var materials []models.Material
	err := l.db.WithContext(ctx).Order("name ASC").Find(&materials).Error
	return materials, err
}

// Get returns nil, nil when the material does not exist.
func (l *Ledger) Get(ctx context.Context, id string) (*models.Material, error) {
	var m models.Material
	err := l.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LowStock lists materials at or below their alert level, negative stock included.
func (l *Ledger) LowStock(ctx context.Context) ([]models.Material, error) {
	var materials []models.Material
	err := l.db.WithContext(ctx).
		Where("quantity <= min_alert").
		Order("quantity ASC").
		Find(&materials).Error
	return materials, err
}

func (l *Ledger) Create(ctx context.Context, m *models.Material) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Unit = strings.TrimSpace(m.Unit)
	if m.Name == "" || m.Unit == "" {
		return fmt.Errorf("%w: nombre y unidad son obligatorios", ErrInvalidMaterial)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := l.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	l.notifier.Publish(models.CollectionInventory)
	return nil
}

// Remove deletes a material. Recipes that still point at it simply stop
// debiting anything.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	res := l.db.WithContext(ctx).Delete(&models.Material{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		l.notifier.Publish(models.CollectionInventory)
	}
	return nil
}

// Adjust applies a signed delta. Unknown materials are a no-op.
func (l *Ledger) Adjust(ctx context.Context, id string, delta float64) error {
	applied, err := adjust(l.db.WithContext(ctx), id, delta)
	if err != nil {
		return err
	}
	if applied {
		l.notifier.Publish(models.CollectionInventory)
	}
	return nil
}

// SetAbsolute reads the current quantity and adjusts by the difference.
// This is a read-then-write: an adjustment landing between the read and the
// write is kept, so the final quantity may differ from newQuantity.
func (l *Ledger) SetAbsolute(ctx context.Context, id string, newQuantity float64) error {
	m, err := l.Get(ctx, id)
	if err != nil || m == nil {
		return err
	}
	return l.Adjust(ctx, id, newQuantity-m.Quantity)
}

// DebitRecipes decrements stock for every ingredient of every entry, using
// the caller's transaction so either all debits apply or none do.
func DebitRecipes(tx *gorm.DB, entries []models.MenuEntry) error {
	for _, e := range entries {
		for _, ing := range e.Recipe {
			if ing.MaterialID == "" || ing.Amount == 0 {
				continue
			}
			if _, err := adjust(tx, ing.MaterialID, -ing.Amount); err != nil {
				return fmt.Errorf("no se pudo descontar %s: %w", ing.MaterialID, err)
			}
		}
	}
	return nil
}

func adjust(db *gorm.DB, id string, delta float64) (bool, error) {
	res := db.Model(&models.Material{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

var ErrInvalidMaterial = errors.New("material inválido")

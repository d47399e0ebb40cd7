package menu

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

var ErrInvalidEntry = errors.New("producto inválido")

// Catalog is the list of sellable items. Editing an entry never touches
// order lines already placed: those carry their own name/price snapshot.
type Catalog struct {
	db       *gorm.DB
	notifier realtime.Notifier
}

func NewCatalog(db *gorm.DB, notifier realtime.Notifier) *Catalog {
	if notifier == nil {
		notifier = realtime.Nop
	}
	return &Catalog{db: db, notifier: notifier}
}

func (c *Catalog) List(ctx context.Context) ([]models.MenuEntry, error) {
	var entries []models.MenuEntry
	err := c.db.WithContext(ctx).Order("category ASC, name ASC").Find(&entries).Error
	return entries, err
}

// Get returns nil, nil for an unknown id.
func (c *Catalog) Get(ctx context.Context, id string) (*models.MenuEntry, error) {
	var e models.MenuEntry
	err := c.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Resolve loads the entries for ids keeping the order and repetitions of
// ids. Unknown ids are skipped.
func (c *Catalog) Resolve(ctx context.Context, ids []string) ([]models.MenuEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.MenuEntry
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.MenuEntry, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}

	entries := make([]models.MenuEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Upsert creates the entry or replaces it when the id already exists.
func (c *Catalog) Upsert(ctx context.Context, e *models.MenuEntry) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return fmt.Errorf("%w: el nombre es obligatorio", ErrInvalidEntry)
	}
	if e.Price < 0 {
		return fmt.Errorf("%w: el precio no puede ser negativo", ErrInvalidEntry)
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: categoría desconocida", ErrInvalidEntry)
	}
	for _, ing := range e.Recipe {
		if ing.MaterialID == "" || ing.Amount <= 0 {
			return fmt.Errorf("%w: cada ingrediente necesita material y cantidad", ErrInvalidEntry)
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	} else if existing, err := c.Get(ctx, e.ID); err != nil {
		return err
	} else if existing != nil {
		e.CreatedAt = existing.CreatedAt
	}

	if err := c.db.WithContext(ctx).Save(e).Error; err != nil {
		return err
	}
	c.notifier.Publish(models.CollectionMenu)
	return nil
}

func (c *Catalog) Remove(ctx context.Context, id string) error {
	res := c.db.WithContext(ctx).Delete(&models.MenuEntry{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		c.notifier.Publish(models.CollectionMenu)
	}
	return nil
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"bardev-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	UserID      string
	UserName    string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Writer struct {
	db *gorm.DB
}

func NewWriter(db *gorm.DB) *Writer {
	return &Writer{db: db}
}

func (w *Writer) WriteLog(opts LogOptions) error {
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := w.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("no se pudo guardar el registro de auditoría: %w", err)
	}
	return nil
}

// Record writes the log and only reports failures; auditing never blocks
// the operation that triggered it.
func (w *Writer) Record(opts LogOptions) {
	if err := w.WriteLog(opts); err != nil {
		log.Printf("[WARN] %v", err)
	}
}

type Filter struct {
	EntityType string
	EntityID   string
	UserID     string
	Limit      int
}

func (w *Writer) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	q := w.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []models.AuditLog
	err := q.Order("created_at DESC, id DESC").Find(&logs).Error
	return logs, err
}

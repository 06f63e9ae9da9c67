package repository

import (
	"context"

	"stockcount/internal/model"

	"gorm.io/gorm"
)

// AuditRepository appends to and reads the audit trail. Rows are never updated.
type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter model.AuditFilter, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log writes through the transaction carried by ctx, if any
func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter model.AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	query := applyAuditFilter(GetDB(ctx, r.db).Model(&model.AuditLog{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.AuditLog
	err := query.Preload("User").
		Order("audit_logs.created_at desc").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func applyAuditFilter(db *gorm.DB, f model.AuditFilter) *gorm.DB {
	if f.Action != "" {
		db = db.Where("audit_logs.action = ?", f.Action)
	}
	if f.EntityID != "" {
		db = db.Where("audit_logs.entity_id = ?", f.EntityID)
	}
	if f.UserID != nil {
		db = db.Where("audit_logs.user_id = ?", *f.UserID)
	}
	if f.From != nil {
		db = db.Where("audit_logs.created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("audit_logs.created_at <= ?", *f.To)
	}
	return db
}

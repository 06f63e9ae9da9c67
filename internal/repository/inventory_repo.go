package repository

import (
	"context"
	"fmt"
	"time"

	"stockcount/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 200

type InventoryRepository interface {
	Create(ctx context.Context, item *model.InventoryCount) error
	Update(ctx context.Context, item *model.InventoryCount) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryCount, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryCount, error)
	List(ctx context.Context, filter model.InventoryListFilter, page, limit int) ([]model.InventoryCount, int64, error)
	ListAll(ctx context.Context, filter model.InventoryListFilter) ([]model.InventoryCount, error)
	FindCounted(ctx context.Context, filter model.InventoryFilter) ([]model.InventoryCount, error)
	RecordCount(ctx context.Context, id uuid.UUID, physical decimal.Decimal, countedAt time.Time, countedBy *uuid.UUID) error
	Upsert(ctx context.Context, items []model.InventoryCount) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(ctx context.Context, item *model.InventoryCount) error {
	return translate(GetDB(ctx, r.db).Create(item).Error)
}

func (r *inventoryRepository) Update(ctx context.Context, item *model.InventoryCount) error {
	return translate(GetDB(ctx, r.db).Save(item).Error)
}

func (r *inventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryCount, error) {
	var item model.InventoryCount
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *inventoryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryCount, error) {
	var item model.InventoryCount
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *inventoryRepository) List(ctx context.Context, filter model.InventoryListFilter, page, limit int) ([]model.InventoryCount, int64, error) {
	var items []model.InventoryCount
	var total int64

	db := applyListFilter(GetDB(ctx, r.db).Model(&model.InventoryCount{}), filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("warehouse, location, brand, barcode").
		Offset(offset(page, limit)).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *inventoryRepository) ListAll(ctx context.Context, filter model.InventoryListFilter) ([]model.InventoryCount, error) {
	var items []model.InventoryCount
	db := applyListFilter(GetDB(ctx, r.db).Model(&model.InventoryCount{}), filter)
	if err := db.Order("warehouse, location, brand, barcode").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindCounted returns the counted rows matching filter, most recent count first.
func (r *inventoryRepository) FindCounted(ctx context.Context, filter model.InventoryFilter) ([]model.InventoryCount, error) {
	var items []model.InventoryCount
	db := applyFilter(GetDB(ctx, r.db).Model(&model.InventoryCount{}), filter).
		Where("counted_at IS NOT NULL").
		Order("counted_at desc, warehouse, location, brand, barcode")
	if err := db.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query counted inventory: %w", err)
	}
	return items, nil
}

func (r *inventoryRepository) RecordCount(ctx context.Context, id uuid.UUID, physical decimal.Decimal, countedAt time.Time, countedBy *uuid.UUID) error {
	res := GetDB(ctx, r.db).Model(&model.InventoryCount{}).Where("id = ?", id).Updates(map[string]interface{}{
		"physical_quantity": physical,
		"counted_at":        countedAt,
		"counted_by":        countedBy,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert inserts rows by SKU key, refreshing description and system quantity of existing keys.
// Physical counts already recorded are left untouched.
func (r *inventoryRepository) Upsert(ctx context.Context, items []model.InventoryCount) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "warehouse"}, {Name: "location"}, {Name: "brand"}, {Name: "barcode"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "system_quantity", "updated_at"}),
	}).CreateInBatches(&items, upsertBatchSize)
	return res.RowsAffected, res.Error
}

func (r *inventoryRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := GetDB(ctx, r.db).Where("1 = 1").Delete(&model.InventoryCount{})
	return res.RowsAffected, res.Error
}

func applyFilter(db *gorm.DB, f model.InventoryFilter) *gorm.DB {
	if f.Warehouse != "" {
		db = db.Where("warehouse = ?", f.Warehouse)
	}
	if f.Brand != "" {
		db = db.Where("brand = ?", f.Brand)
	}
	if f.Location != "" {
		db = db.Where("location = ?", f.Location)
	}
	return db
}

func applyListFilter(db *gorm.DB, f model.InventoryListFilter) *gorm.DB {
	db = applyFilter(db, f.InventoryFilter)
	if f.Search != "" {
		like := "%" + f.Search + "%"
		db = db.Where("(LOWER(barcode) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?))", like, like)
	}
	switch f.Status {
	case model.CountStatusCounted:
		db = db.Where("counted_at IS NOT NULL")
	case model.CountStatusPending:
		db = db.Where("counted_at IS NULL")
	}
	return db
}

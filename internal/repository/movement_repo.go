package repository

import (
	"context"
	"fmt"

	"stockcount/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementRepository interface {
	Create(ctx context.Context, m *model.Movement) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Movement, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter model.MovementFilter, page, limit int) ([]model.Movement, int64, error)
	FindForBarcodes(ctx context.Context, barcodes []string, filter model.InventoryFilter, batchSize int) ([]model.Movement, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, m *model.Movement) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *movementRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Movement, error) {
	var m model.Movement
	if err := GetDB(ctx, r.db).Joins("User").First(&m, "movements.id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// Delete removes the movement row permanently
func (r *movementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Movement{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *movementRepository) List(ctx context.Context, f model.MovementFilter, page, limit int) ([]model.Movement, int64, error) {
	var movements []model.Movement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Movement{})
	if f.Warehouse != "" {
		db = db.Where("movements.warehouse = ?", f.Warehouse)
	}
	if f.Brand != "" {
		db = db.Where("movements.brand = ?", f.Brand)
	}
	if f.Barcode != "" {
		db = db.Where("movements.barcode = ?", f.Barcode)
	}
	if f.Kind != "" {
		db = db.Where("movements.kind = ?", f.Kind)
	}
	if f.From != nil {
		db = db.Where("movements.occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("movements.occurred_at <= ?", *f.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Joins("User").Order("movements.occurred_at desc").
		Offset(offset(page, limit)).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// FindForBarcodes fetches the movements of the given barcodes, oldest first. The barcode set is
// queried in chunks of batchSize; all movements of one barcode come from the same chunk, so
// per-SKU ordering holds across the concatenated result.
//
// The warehouse filter always applies. Brand and location narrow the query only when both are
// given, and movements without a location still match any location.
func (r *movementRepository) FindForBarcodes(ctx context.Context, barcodes []string, filter model.InventoryFilter, batchSize int) ([]model.Movement, error) {
	if len(barcodes) == 0 {
		return []model.Movement{}, nil
	}
	if batchSize <= 0 {
		batchSize = len(barcodes)
	}

	out := make([]model.Movement, 0)
	for start := 0; start < len(barcodes); start += batchSize {
		end := start + batchSize
		if end > len(barcodes) {
			end = len(barcodes)
		}

		db := GetDB(ctx, r.db).Joins("User").Where("movements.barcode IN ?", barcodes[start:end])
		if filter.Warehouse != "" {
			db = db.Where("movements.warehouse = ?", filter.Warehouse)
		}
		if filter.Brand != "" && filter.Location != "" {
			db = db.Where("movements.brand = ?", filter.Brand).
				Where("(movements.location = ? OR movements.location IS NULL OR movements.location = '')", filter.Location)
		}

		var chunk []model.Movement
		if err := db.Order("movements.occurred_at asc, movements.created_at asc").Find(&chunk).Error; err != nil {
			return nil, fmt.Errorf("failed to query movements: %w", err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

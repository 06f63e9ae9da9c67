package repository

import (
	"context"
	"fmt"

	"stockcount/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	GetWarehouseProgress(ctx context.Context) ([]model.WarehouseProgress, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) GetWarehouseProgress(ctx context.Context) ([]model.WarehouseProgress, error) {
	var rows []model.WarehouseProgress
	if err := GetDB(ctx, r.db).Model(&model.InventoryCount{}).
		Select("warehouse, COUNT(*) as total, COUNT(counted_at) as counted, COUNT(*) - COUNT(counted_at) as pending").
		Group("warehouse").
		Order("warehouse asc").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query count progress: %w", err)
	}
	return rows, nil
}

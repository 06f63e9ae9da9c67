package service

import (
	"context"
	"math"

	"stockcount/internal/model"
	"stockcount/internal/repository"
)

type StatisticsService interface {
	GetProgress(ctx context.Context) (*model.CountProgress, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetProgress aggregates per-warehouse counting progress into overall totals
func (s *statisticsService) GetProgress(ctx context.Context) (*model.CountProgress, error) {
	rows, err := s.repo.GetWarehouseProgress(ctx)
	if err != nil {
		return nil, err
	}

	progress := &model.CountProgress{Warehouses: make([]model.WarehouseProgress, 0, len(rows))}
	for _, r := range rows {
		progress.Total += r.Total
		progress.Counted += r.Counted
		progress.Pending += r.Pending
		progress.Warehouses = append(progress.Warehouses, r)
	}
	if progress.Total > 0 {
		progress.Percent = math.Round(float64(progress.Counted)/float64(progress.Total)*10000) / 100
	}
	return progress, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"stockcount/internal/model"
	"stockcount/internal/reconciliation"
	"stockcount/internal/repository"

	"go.uber.org/zap"
)

// ErrReconciliation marks failures loading the data a reconciliation needs
var ErrReconciliation = errors.New("reconciliation failed")

type ReconciliationOptions struct {
	ExcludeIncomplete bool
	BatchSize         int
}

type ReconciliationService interface {
	Run(ctx context.Context, filter model.InventoryFilter) (*reconciliation.Result, error)
	Export(ctx context.Context, filter model.InventoryFilter, w io.Writer) error
}

type reconciliationService struct {
	inventoryRepo repository.InventoryRepository
	movementRepo  repository.MovementRepository
	opts          ReconciliationOptions
	log           *zap.Logger
}

func NewReconciliationService(
	inventoryRepo repository.InventoryRepository,
	movementRepo repository.MovementRepository,
	opts ReconciliationOptions,
	log *zap.Logger,
) ReconciliationService {
	return &reconciliationService{
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		opts:          opts,
		log:           log.Named("reconciliation"),
	}
}

// Run reconciles the counted inventory matching filter against the movement ledger.
func (s *reconciliationService) Run(ctx context.Context, filter model.InventoryFilter) (*reconciliation.Result, error) {
	counts, err := s.inventoryRepo.FindCounted(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReconciliation, err)
	}

	barcodes := reconciliation.DistinctBarcodes(counts)
	movements, err := s.movementRepo.FindForBarcodes(ctx, barcodes, filter, s.opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReconciliation, err)
	}

	res := reconciliation.Reconcile(counts, movements, reconciliation.Options{ExcludeIncomplete: s.opts.ExcludeIncomplete})
	s.log.Debug("reconciled",
		zap.String("warehouse", filter.Warehouse),
		zap.String("brand", filter.Brand),
		zap.String("location", filter.Location),
		zap.Int("counts", len(counts)),
		zap.Int("movements", len(movements)),
		zap.Int("discrepancies", res.Summary.TrueDiscrepancies),
	)
	if res.Summary.IncompleteRecords > 0 {
		s.log.Warn("counted rows without physical quantity", zap.Int("incomplete", res.Summary.IncompleteRecords))
	}
	return &res, nil
}

// Export writes the reconciliation workbook. Rendering failures wrap reconciliation.ErrExport.
func (s *reconciliationService) Export(ctx context.Context, filter model.InventoryFilter, w io.Writer) error {
	res, err := s.Run(ctx, filter)
	if err != nil {
		return err
	}
	return reconciliation.WriteWorkbook(w, *res)
}

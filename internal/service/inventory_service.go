package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"stockcount/internal/model"
	"stockcount/internal/repository"
	"stockcount/internal/spreadsheet"
	ws "stockcount/internal/websocket"

	"github.com/shopspring/decimal"
)

// DTOs
type CreateInventoryRequest struct {
	Warehouse      string           `json:"warehouse" binding:"required"`
	Location       string           `json:"location"`
	Brand          string           `json:"brand" binding:"required"`
	Barcode        string           `json:"barcode" binding:"required"`
	Description    string           `json:"description"`
	SystemQuantity *decimal.Decimal `json:"system_quantity" swaggertype:"string" example:"100"`
}

type UpdateInventoryRequest struct {
	Description    *string          `json:"description"`
	SystemQuantity *decimal.Decimal `json:"system_quantity" swaggertype:"string" example:"100"`
}

type RecordCountRequest struct {
	PhysicalQuantity *decimal.Decimal `json:"physical_quantity" binding:"required" swaggertype:"string" example:"95"`
}

type InventoryResponse struct {
	ID               string           `json:"id"`
	Warehouse        string           `json:"warehouse"`
	Location         string           `json:"location"`
	Brand            string           `json:"brand"`
	Barcode          string           `json:"barcode"`
	Description      string           `json:"description"`
	SystemQuantity   decimal.Decimal  `json:"system_quantity" swaggertype:"string"`
	PhysicalQuantity *decimal.Decimal `json:"physical_quantity" swaggertype:"string"`
	CountedAt        *time.Time       `json:"counted_at"`
	CountedBy        string           `json:"counted_by,omitempty"`
	Status           string           `json:"status"`
}

type ImportSummary struct {
	Imported   int                    `json:"imported"`
	Duplicates int                    `json:"duplicates"`
	Rejected   int                    `json:"rejected"`
	Errors     []spreadsheet.RowError `json:"errors"`
}

type InventoryService interface {
	List(ctx context.Context, filter model.InventoryListFilter, page, limit int) ([]InventoryResponse, int64, error)
	Get(ctx context.Context, id string) (*InventoryResponse, error)
	Create(ctx context.Context, userID string, req CreateInventoryRequest) (*InventoryResponse, error)
	Update(ctx context.Context, userID, id string, req UpdateInventoryRequest) (*InventoryResponse, error)
	RecordCount(ctx context.Context, userID, id string, req RecordCountRequest) (*InventoryResponse, error)
	Import(ctx context.Context, userID string, r io.Reader) (*ImportSummary, error)
	Export(ctx context.Context, filter model.InventoryListFilter, w io.Writer) error
	Reset(ctx context.Context, userID string) (int64, error)
}

type inventoryService struct {
	repo      repository.InventoryRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	events    EventPublisher
	now       func() time.Time
}

func NewInventoryService(
	repo repository.InventoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
) InventoryService {
	return &inventoryService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		events:    publisherOrNoop(events),
		now:       time.Now,
	}
}

func toInventoryResponse(item *model.InventoryCount) InventoryResponse {
	res := InventoryResponse{
		ID:             item.ID.String(),
		Warehouse:      item.Warehouse,
		Location:       item.Location,
		Brand:          item.Brand,
		Barcode:        item.Barcode,
		Description:    item.Description,
		SystemQuantity: item.SystemQuantity,
		CountedAt:      item.CountedAt,
		Status:         model.CountStatusPending,
	}
	if item.PhysicalQuantity.Valid {
		q := item.PhysicalQuantity.Decimal
		res.PhysicalQuantity = &q
	}
	if item.CountedBy != nil {
		res.CountedBy = item.CountedBy.String()
	}
	if item.IsCounted() {
		res.Status = model.CountStatusCounted
	}
	return res
}

func (s *inventoryService) List(ctx context.Context, filter model.InventoryListFilter, page, limit int) ([]InventoryResponse, int64, error) {
	items, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]InventoryResponse, 0, len(items))
	for i := range items {
		res = append(res, toInventoryResponse(&items[i]))
	}
	return res, total, nil
}

func (s *inventoryService) Get(ctx context.Context, id string) (*InventoryResponse, error) {
	itemID, err := parseID(id, "inventory")
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, mapRepoErr(err, "inventory item")
	}
	res := toInventoryResponse(item)
	return &res, nil
}

func nonNegative(q *decimal.Decimal, field string) (decimal.Decimal, error) {
	if q == nil {
		return decimal.Zero, nil
	}
	if q.IsNegative() {
		return decimal.Zero, validationf("%s must not be negative", field)
	}
	return *q, nil
}

func (s *inventoryService) Create(ctx context.Context, userID string, req CreateInventoryRequest) (*InventoryResponse, error) {
	qty, err := nonNegative(req.SystemQuantity, "system_quantity")
	if err != nil {
		return nil, err
	}

	item := &model.InventoryCount{
		Warehouse:      strings.TrimSpace(req.Warehouse),
		Location:       strings.TrimSpace(req.Location),
		Brand:          strings.TrimSpace(req.Brand),
		Barcode:        strings.TrimSpace(req.Barcode),
		Description:    req.Description,
		SystemQuantity: qty,
	}
	if item.Warehouse == "" || item.Brand == "" || item.Barcode == "" {
		return nil, validationf("warehouse, brand and barcode are required")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, item); err != nil {
			return mapRepoErr(err, "inventory item")
		}
		entry := newAuditLog(userID, model.ActionCreateInventory, item.ID.String(), item.Barcode, req)
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := toInventoryResponse(item)
	return &res, nil
}

func (s *inventoryService) Update(ctx context.Context, userID, id string, req UpdateInventoryRequest) (*InventoryResponse, error) {
	itemID, err := parseID(id, "inventory")
	if err != nil {
		return nil, err
	}

	var item *model.InventoryCount
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		item, txErr = s.repo.FindByIDForUpdate(txCtx, itemID)
		if txErr != nil {
			return mapRepoErr(txErr, "inventory item")
		}
		if req.Description != nil {
			item.Description = *req.Description
		}
		if req.SystemQuantity != nil {
			qty, err := nonNegative(req.SystemQuantity, "system_quantity")
			if err != nil {
				return err
			}
			item.SystemQuantity = qty
		}
		if err := s.repo.Update(txCtx, item); err != nil {
			return mapRepoErr(err, "inventory item")
		}
		entry := newAuditLog(userID, model.ActionUpdateInventory, item.ID.String(), item.Barcode, req)
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := toInventoryResponse(item)
	return &res, nil
}

// RecordCount stores the physical quantity of an item. Counting again overwrites the
// previous count and its timestamp.
func (s *inventoryService) RecordCount(ctx context.Context, userID, id string, req RecordCountRequest) (*InventoryResponse, error) {
	itemID, err := parseID(id, "inventory")
	if err != nil {
		return nil, err
	}
	if req.PhysicalQuantity == nil {
		return nil, validationf("physical_quantity is required")
	}
	physical, err := nonNegative(req.PhysicalQuantity, "physical_quantity")
	if err != nil {
		return nil, err
	}

	countedAt := s.now().UTC()
	counter := actorID(userID)

	var item *model.InventoryCount
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		item, txErr = s.repo.FindByIDForUpdate(txCtx, itemID)
		if txErr != nil {
			return mapRepoErr(txErr, "inventory item")
		}

		details := map[string]interface{}{
			"physical_quantity": physical.String(),
			"system_quantity":   item.SystemQuantity.String(),
		}
		if item.PhysicalQuantity.Valid {
			details["previous_quantity"] = item.PhysicalQuantity.Decimal.String()
		}

		if err := s.repo.RecordCount(txCtx, item.ID, physical, countedAt, counter); err != nil {
			return mapRepoErr(err, "inventory item")
		}
		item.PhysicalQuantity = decimal.NewNullDecimal(physical)
		item.CountedAt = &countedAt
		item.CountedBy = counter

		entry := newAuditLog(userID, model.ActionRecordCount, item.ID.String(), item.Barcode, details)
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := toInventoryResponse(item)
	s.events.Publish(ws.EventCountRecorded, res)
	return &res, nil
}

// Import upserts the rows of an xlsx workbook. Valid rows are imported even when other rows are rejected.
func (s *inventoryService) Import(ctx context.Context, userID string, r io.Reader) (*ImportSummary, error) {
	parsed, err := spreadsheet.ParseInventory(r)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrUnreadable) || errors.Is(err, spreadsheet.ErrMissingColumn) || errors.Is(err, spreadsheet.ErrEmpty) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}

	summary := &ImportSummary{
		Imported:   len(parsed.Items),
		Duplicates: parsed.Duplicates,
		Rejected:   len(parsed.Errors),
		Errors:     parsed.Errors,
	}
	if summary.Errors == nil {
		summary.Errors = []spreadsheet.RowError{}
	}

	if len(parsed.Items) > 0 {
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if _, err := s.repo.Upsert(txCtx, parsed.Items); err != nil {
				return fmt.Errorf("failed to upsert inventory: %w", err)
			}
			entry := newAuditLog(userID, model.ActionImportInventory, "", "", map[string]int{
				"imported":   summary.Imported,
				"duplicates": summary.Duplicates,
				"rejected":   summary.Rejected,
			})
			if err := s.auditRepo.Log(txCtx, entry); err != nil {
				return fmt.Errorf("failed to write audit log: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.events.Publish(ws.EventInventoryImported, summary)
	}

	return summary, nil
}

func (s *inventoryService) Export(ctx context.Context, filter model.InventoryListFilter, w io.Writer) error {
	items, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return err
	}
	return spreadsheet.WriteInventory(w, items)
}

// Reset deletes every inventory row. Movements are kept.
func (s *inventoryService) Reset(ctx context.Context, userID string) (int64, error) {
	var deleted int64
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		deleted, txErr = s.repo.DeleteAll(txCtx)
		if txErr != nil {
			return fmt.Errorf("failed to reset inventory: %w", txErr)
		}
		entry := newAuditLog(userID, model.ActionResetInventory, "", "", map[string]int64{"deleted": deleted})
		return s.auditRepo.Log(txCtx, entry)
	})
	if err != nil {
		return 0, err
	}

	s.events.Publish(ws.EventInventoryReset, map[string]int64{"deleted": deleted})
	return deleted, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockcount/internal/model"
	"stockcount/internal/repository"
	ws "stockcount/internal/websocket"
)

type CreateMovementRequest struct {
	Warehouse  string     `json:"warehouse" binding:"required"`
	Brand      string     `json:"brand" binding:"required"`
	Barcode    string     `json:"barcode" binding:"required"`
	Location   *string    `json:"location"`
	Kind       string     `json:"kind" binding:"required,oneof=IN OUT in out"`
	Quantity   int        `json:"quantity" binding:"required,gt=0"`
	Note       string     `json:"note"`
	OccurredAt *time.Time `json:"occurred_at"`
}

type MovementResponse struct {
	ID         string    `json:"id"`
	Warehouse  string    `json:"warehouse"`
	Brand      string    `json:"brand"`
	Barcode    string    `json:"barcode"`
	Location   *string   `json:"location"`
	Kind       string    `json:"kind"`
	Quantity   int       `json:"quantity"`
	Note       string    `json:"note"`
	UserID     string    `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type MovementService interface {
	List(ctx context.Context, filter model.MovementFilter, page, limit int) ([]MovementResponse, int64, error)
	Create(ctx context.Context, userID string, req CreateMovementRequest) (*MovementResponse, error)
	Delete(ctx context.Context, userID, id string) error
}

type movementService struct {
	repo      repository.MovementRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	events    EventPublisher
	now       func() time.Time
}

func NewMovementService(
	repo repository.MovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
) MovementService {
	return &movementService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		events:    publisherOrNoop(events),
		now:       time.Now,
	}
}

func toMovementResponse(m *model.Movement) MovementResponse {
	res := MovementResponse{
		ID:         m.ID.String(),
		Warehouse:  m.Warehouse,
		Brand:      m.Brand,
		Barcode:    m.Barcode,
		Location:   m.Location,
		Kind:       m.Kind,
		Quantity:   m.Quantity,
		Note:       m.Note,
		OccurredAt: m.OccurredAt,
		CreatedAt:  m.CreatedAt,
	}
	if m.UserID != nil {
		res.UserID = m.UserID.String()
	}
	if m.User != nil {
		res.Username = m.User.Username
	}
	return res
}

func (s *movementService) List(ctx context.Context, filter model.MovementFilter, page, limit int) ([]MovementResponse, int64, error) {
	if filter.Kind != "" {
		filter.Kind = strings.ToUpper(filter.Kind)
	}
	movements, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		res = append(res, toMovementResponse(&movements[i]))
	}
	return res, total, nil
}

func (s *movementService) Create(ctx context.Context, userID string, req CreateMovementRequest) (*MovementResponse, error) {
	kind := strings.ToUpper(strings.TrimSpace(req.Kind))
	if kind != model.MovementIn && kind != model.MovementOut {
		return nil, validationf("kind must be %s or %s", model.MovementIn, model.MovementOut)
	}
	if req.Quantity <= 0 {
		return nil, validationf("quantity must be positive")
	}

	m := &model.Movement{
		Warehouse:  strings.TrimSpace(req.Warehouse),
		Brand:      strings.TrimSpace(req.Brand),
		Barcode:    strings.TrimSpace(req.Barcode),
		Kind:       kind,
		Quantity:   req.Quantity,
		Note:       req.Note,
		UserID:     actorID(userID),
		OccurredAt: s.now().UTC(),
	}
	if m.Warehouse == "" || m.Brand == "" || m.Barcode == "" {
		return nil, validationf("warehouse, brand and barcode are required")
	}
	if req.Location != nil {
		if loc := strings.TrimSpace(*req.Location); loc != "" {
			m.Location = &loc
		}
	}
	if req.OccurredAt != nil {
		m.OccurredAt = req.OccurredAt.UTC()
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, m); err != nil {
			return fmt.Errorf("failed to create movement: %w", err)
		}
		entry := newAuditLog(userID, model.ActionCreateMovement, m.ID.String(), m.Barcode, map[string]interface{}{
			"warehouse":   m.Warehouse,
			"brand":       m.Brand,
			"location":    m.Location,
			"kind":        m.Kind,
			"quantity":    m.Quantity,
			"occurred_at": m.OccurredAt,
		})
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := toMovementResponse(m)
	s.events.Publish(ws.EventMovementCreated, res)
	return &res, nil
}

// Delete permanently removes a movement. The audit entry keeps a copy of the deleted row.
func (s *movementService) Delete(ctx context.Context, userID, id string) error {
	movementID, err := parseID(id, "movement")
	if err != nil {
		return err
	}

	var deleted MovementResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.repo.FindByID(txCtx, movementID)
		if err != nil {
			return mapRepoErr(err, "movement")
		}
		deleted = toMovementResponse(m)

		if err := s.repo.Delete(txCtx, movementID); err != nil {
			return mapRepoErr(err, "movement")
		}
		entry := newAuditLog(userID, model.ActionDeleteMovement, m.ID.String(), m.Barcode, deleted)
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(ws.EventMovementDeleted, map[string]string{"id": deleted.ID, "barcode": deleted.Barcode})
	return nil
}

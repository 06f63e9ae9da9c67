package service

import (
	"context"
	"encoding/json"
	"time"

	"stockcount/internal/model"
	"stockcount/internal/repository"

	"github.com/google/uuid"
)

// AuditQuery is the caller-facing audit filter; UserID is parsed here
type AuditQuery struct {
	Action   string
	EntityID string
	UserID   string
	From     *time.Time
	To       *time.Time
}

type AuditLogResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id,omitempty"`
	Username   string          `json:"username"`
	Action     string          `json:"action"`
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name,omitempty"`
	Details    json.RawMessage `json:"details" swaggertype:"object"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, query AuditQuery, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, query AuditQuery, page, limit int) ([]AuditLogResponse, int64, error) {
	filter := model.AuditFilter{
		Action:   query.Action,
		EntityID: query.EntityID,
		From:     query.From,
		To:       query.To,
	}
	if query.UserID != "" {
		id, err := uuid.Parse(query.UserID)
		if err != nil {
			return nil, 0, validationf("user_id must be a UUID")
		}
		filter.UserID = &id
	}

	logs, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditLogResponse(l))
	}
	return res, total, nil
}

func toAuditLogResponse(l model.AuditLog) AuditLogResponse {
	res := AuditLogResponse{
		ID:         l.ID.String(),
		Username:   "System",
		Action:     l.Action,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		Details:    json.RawMessage(l.Details),
		CreatedAt:  l.CreatedAt,
	}
	if l.UserID != nil {
		res.UserID = l.UserID.String()
	}
	if l.User != nil {
		res.Username = l.User.Username
	}
	if !json.Valid(res.Details) {
		res.Details = json.RawMessage("{}")
	}
	return res
}

// newAuditLog builds an audit row; details are stored as JSON
func newAuditLog(userID, action, entityID, entityName string, details interface{}) *model.AuditLog {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	return &model.AuditLog{
		UserID:     actorID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(raw),
	}
}

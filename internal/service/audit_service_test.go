package service

import (
	"context"
	"errors"
	"testing"

	"stockcount/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_GetAuditLogs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := &model.User{Username: "maria", Email: "maria@example.com", Password: "x", Role: model.RoleCounter}
	require.NoError(t, env.users.Create(ctx, user))

	require.NoError(t, env.audit.Log(ctx, newAuditLog(user.ID.String(), model.ActionRecordCount, "inv-1", "SKU-1", map[string]string{"physical_quantity": "4"})))
	require.NoError(t, env.audit.Log(ctx, newAuditLog("", model.ActionResetInventory, "", "", nil)))

	svc := NewAuditService(env.audit)

	logs, total, err := svc.GetAuditLogs(ctx, AuditQuery{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)

	logs, total, err = svc.GetAuditLogs(ctx, AuditQuery{UserID: user.ID.String()}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "maria", logs[0].Username)
	assert.JSONEq(t, `{"physical_quantity":"4"}`, string(logs[0].Details))

	logs, _, err = svc.GetAuditLogs(ctx, AuditQuery{Action: model.ActionResetInventory}, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "System", logs[0].Username)
	assert.Empty(t, logs[0].UserID)
	assert.Equal(t, "null", string(logs[0].Details))
}

func TestAuditService_RejectsMalformedUserID(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := NewAuditService(env.audit).GetAuditLogs(context.Background(), AuditQuery{UserID: "not-a-uuid"}, 1, 10)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestToAuditLogResponse_InvalidDetails(t *testing.T) {
	id := uuid.New()
	res := toAuditLogResponse(model.AuditLog{ID: id, Action: model.ActionCreateUser, Details: "not json"})
	assert.Equal(t, "{}", string(res.Details))
	assert.Equal(t, id.String(), res.ID)
}

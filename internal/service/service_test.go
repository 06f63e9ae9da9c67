package service

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"stockcount/internal/auth"
	"stockcount/internal/model"
	"stockcount/internal/repository"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

type publishedEvent struct {
	Event string
	Data  interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Event: event, Data: data})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	tx        repository.TransactionManager
	inventory repository.InventoryRepository
	movements repository.MovementRepository
	users     repository.UserRepository
	tokens    repository.RefreshTokenRepository
	roles     repository.RoleRepository
	audit     repository.AuditRepository
	events    *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.AuditLog{},
		&model.InventoryCount{},
		&model.Movement{},
	))

	return &testEnv{
		db:        db,
		tx:        repository.NewTransactionManager(db),
		inventory: repository.NewInventoryRepository(db),
		movements: repository.NewMovementRepository(db),
		users:     repository.NewUserRepository(db),
		tokens:    repository.NewRefreshTokenRepository(db),
		roles:     repository.NewRoleRepository(db),
		audit:     repository.NewAuditRepository(db),
		events:    &recordingPublisher{},
	}
}

func (e *testEnv) seedRoles(t *testing.T) {
	t.Helper()
	require.NoError(t, NewRoleService(e.roles, e.audit, e.tx).SeedDefaultRolesAndPermissions(context.Background()))
}

func (e *testEnv) auditActions(t *testing.T) []string {
	t.Helper()
	logs, _, err := e.audit.List(context.Background(), model.AuditFilter{}, 1, 100)
	require.NoError(t, err)
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}

func (e *testEnv) tokenIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer([]byte("service-test-secret"), 15*time.Minute)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

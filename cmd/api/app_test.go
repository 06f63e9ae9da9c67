package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stockcount/internal/config"
	"stockcount/internal/database"
	"stockcount/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg, err := config.Load("")
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true, Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	a := &app{cfg: cfg, log: zap.NewNop(), db: db}
	require.NoError(t, a.seed(context.Background()))
	return a
}

func call(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func TestRouter_EndToEnd(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := websocket.NewHub(a.log)
	go hub.Run(ctx)

	router, err := a.router(hub)
	require.NoError(t, err)

	w, _ := call(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, router, http.MethodGet, "/api/reconciliation", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, err = a.createAdmin(context.Background(), "admin", "admin@example.com", "password1")
	require.NoError(t, err)

	w, body := call(t, router, http.MethodPost, "/login", "", `{"email":"admin@example.com","password":"password1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := body["data"].(map[string]interface{})["token"].(string)

	w, body = call(t, router, http.MethodPost, "/api/inventory", token,
		`{"warehouse":"WH1","location":"A-01","brand":"ACME","barcode":"SKU-1","system_quantity":"100"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["data"].(map[string]interface{})["id"].(string)

	w, _ = call(t, router, http.MethodPost, "/api/movements", token,
		`{"warehouse":"WH1","brand":"ACME","barcode":"SKU-1","kind":"OUT","quantity":5,"occurred_at":"2020-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = call(t, router, http.MethodPut, "/api/inventory/"+id+"/count", token, `{"physical_quantity":"85"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = call(t, router, http.MethodGet, "/api/reconciliation?warehouse=WH1", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := body["data"].(map[string]interface{})
	summary := data["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["total_records"])
	assert.Equal(t, float64(1), summary["true_discrepancies"])

	record := data["records"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Real Discrepancy", record["status"])

	w, _ = call(t, router, http.MethodGet, "/api/reconciliation/export", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotZero(t, w.Body.Len())

	w, body = call(t, router, http.MethodGet, "/api/inventory/progress", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["counted"])
}

func TestCreateAdmin_RequiresPassword(t *testing.T) {
	a := newTestApp(t)

	_, err := a.createAdmin(context.Background(), "admin", "admin@example.com", "")
	assert.Error(t, err)
}

func TestSetup_ClosesDatabaseOnFailure(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := config.Load("")
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true, Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &app{cfg: cfg, log: zap.NewNop(), db: db}
	require.Error(t, a.setup(ctx))
	assert.Error(t, sqlDB.Ping(), "connection pool must be closed after a failed setup")
}

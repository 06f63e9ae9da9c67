package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"stockcount/internal/model"
	"stockcount/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventoryService struct {
	service.InventoryService

	lastFilter model.InventoryListFilter
	lastUser   string
	lastCount  decimal.Decimal
	imported   []byte
	resetCount int64
	err        error
}

func (f *fakeInventoryService) List(_ context.Context, filter model.InventoryListFilter, page, limit int) ([]service.InventoryResponse, int64, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, 0, f.err
	}
	return []service.InventoryResponse{{ID: "1", Barcode: "SKU-1"}}, 41, nil
}

func (f *fakeInventoryService) RecordCount(_ context.Context, userID, id string, req service.RecordCountRequest) (*service.InventoryResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastUser = userID
	f.lastCount = *req.PhysicalQuantity
	return &service.InventoryResponse{ID: id, PhysicalQuantity: req.PhysicalQuantity}, nil
}

func (f *fakeInventoryService) Import(_ context.Context, userID string, r io.Reader) (*service.ImportSummary, error) {
	f.lastUser = userID
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.imported = data
	return &service.ImportSummary{Imported: 3}, nil
}

func (f *fakeInventoryService) Export(_ context.Context, filter model.InventoryListFilter, w io.Writer) error {
	f.lastFilter = filter
	_, err := w.Write([]byte("xlsx-bytes"))
	return err
}

func (f *fakeInventoryService) Reset(_ context.Context, userID string) (int64, error) {
	f.lastUser = userID
	return f.resetCount, nil
}

func TestInventoryHandler_ListPassesFiltersAndPagination(t *testing.T) {
	svc := &fakeInventoryService{}
	r := newTestRouter(NewInventoryHandler(svc, newAuthorizer()))

	w := perform(r, http.MethodGet, "/api/inventory?warehouse=WH1&status=pending&search=abc&page=2&limit=20", bearer(t, "u1", model.RoleCounter), nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "WH1", svc.lastFilter.Warehouse)
	assert.Equal(t, model.CountStatusPending, svc.lastFilter.Status)
	assert.Equal(t, "abc", svc.lastFilter.Search)

	res := decode(t, w)
	require.NotNil(t, res.Meta)
	assert.Equal(t, 2, res.Meta.Page)
	assert.Equal(t, int64(41), res.Meta.Total)
	assert.Equal(t, int64(3), res.Meta.TotalPages)
}

func TestInventoryHandler_RequiresAuthentication(t *testing.T) {
	r := newTestRouter(NewInventoryHandler(&fakeInventoryService{}, newAuthorizer()))

	w := perform(r, http.MethodGet, "/api/inventory", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInventoryHandler_RecordCount(t *testing.T) {
	svc := &fakeInventoryService{}
	r := newTestRouter(NewInventoryHandler(svc, newAuthorizer()))

	for _, body := range []string{`{"physical_quantity": 12.5}`, `{"physical_quantity": "12.5"}`} {
		w := perform(r, http.MethodPut, "/api/inventory/abc/count", bearer(t, "counter-1", model.RoleCounter), strings.NewReader(body), "application/json")
		require.Equal(t, http.StatusOK, w.Code, body)
		assert.Equal(t, "counter-1", svc.lastUser)
		assert.True(t, svc.lastCount.Equal(decimal.RequireFromString("12.5")))
	}
}

func TestInventoryHandler_RecordCountRejectsBadInput(t *testing.T) {
	r := newTestRouter(NewInventoryHandler(&fakeInventoryService{}, newAuthorizer()))
	auth := bearer(t, "counter-1", model.RoleCounter)

	for _, body := range []string{`{}`, `{"physical_quantity": "lots"}`, `not json`} {
		w := perform(r, http.MethodPut, "/api/inventory/abc/count", auth, strings.NewReader(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestInventoryHandler_ServiceErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: negative", service.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: inventory row", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: duplicate", service.ErrConflict), http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &fakeInventoryService{err: tc.err}
		r := newTestRouter(NewInventoryHandler(svc, newAuthorizer()))

		w := perform(r, http.MethodPut, "/api/inventory/abc/count", bearer(t, "u1", model.RoleCounter), strings.NewReader(`{"physical_quantity": 1}`), "application/json")
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestInventoryHandler_CounterCannotWrite(t *testing.T) {
	r := newTestRouter(NewInventoryHandler(&fakeInventoryService{}, newAuthorizer()))

	w := perform(r, http.MethodPost, "/api/inventory", bearer(t, "u1", model.RoleCounter), strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInventoryHandler_Import(t *testing.T) {
	svc := &fakeInventoryService{}
	r := newTestRouter(NewInventoryHandler(svc, newAuthorizer()))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "count.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("workbook"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := perform(r, http.MethodPost, "/api/inventory/import", bearer(t, "admin-1", model.RoleAdmin), &body, mw.FormDataContentType())

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "workbook", string(svc.imported))
	assert.Equal(t, "admin-1", svc.lastUser)
}

func TestInventoryHandler_ImportRejectsOtherFiles(t *testing.T) {
	r := newTestRouter(NewInventoryHandler(&fakeInventoryService{}, newAuthorizer()))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "count.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("a,b"))
	require.NoError(t, mw.Close())

	w := perform(r, http.MethodPost, "/api/inventory/import", bearer(t, "admin-1", model.RoleAdmin), &body, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPost, "/api/inventory/import", bearer(t, "admin-1", model.RoleAdmin), strings.NewReader(""), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInventoryHandler_Export(t *testing.T) {
	svc := &fakeInventoryService{}
	r := newTestRouter(NewInventoryHandler(svc, newAuthorizer()))

	w := perform(r, http.MethodGet, "/api/inventory/export?brand=ACME", bearer(t, "u1", model.RoleCounter), nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inventory.xlsx")
	assert.Equal(t, "xlsx-bytes", w.Body.String())
	assert.Equal(t, "ACME", svc.lastFilter.Brand)
}

func TestInventoryHandler_ResetIsAdminOnly(t *testing.T) {
	svc := &fakeInventoryService{resetCount: 7}
	r := newTestRouter(NewInventoryHandler(svc, newAuthorizer()))

	w := perform(r, http.MethodDelete, "/api/inventory", bearer(t, "sup-1", model.RoleSupervisor), nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(r, http.MethodDelete, "/api/inventory", bearer(t, "admin-1", model.RoleAdmin), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-1", svc.lastUser)
	assert.Equal(t, float64(7), decode(t, w).Data.(map[string]interface{})["deleted"])
}

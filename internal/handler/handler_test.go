package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockcount/internal/auth"
	"stockcount/internal/middleware"
	"stockcount/internal/model"
	"stockcount/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var testIssuer = auth.NewTokenIssuer([]byte("handler-test-secret"), time.Hour)

type staticPermissions map[string][]string

func (p staticPermissions) GetPermissionsByRoleName(_ context.Context, role string) ([]string, error) {
	return p[role], nil
}

var testPermissions = staticPermissions{
	model.RoleAdmin: {
		model.PermInventoryRead, model.PermInventoryWrite, model.PermInventoryCount,
		model.PermInventoryImport, model.PermInventoryReset, model.PermMovementsRead,
		model.PermMovementsWrite, model.PermMovementsDelete, model.PermReconciliationRead,
		model.PermUsersRead, model.PermUsersWrite, model.PermUsersDelete,
		model.PermRolesWrite, model.PermAuditRead, model.PermDashboardRead,
	},
	model.RoleSupervisor: {
		model.PermInventoryRead, model.PermInventoryReset, model.PermMovementsRead,
		model.PermMovementsDelete, model.PermReconciliationRead,
	},
	model.RoleCounter: {model.PermInventoryRead, model.PermInventoryCount},
}

func newAuthorizer() *middleware.Authorizer {
	return middleware.NewAuthorizer(testIssuer, testPermissions, time.Minute)
}

type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

func newTestRouter(h routeRegistrar) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group(""))
	return r
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := testIssuer.Issue(userID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func perform(r http.Handler, method, path, authHeader string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return serve(r, req)
}

func requestWithCookie(method, path, name, value string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(&http.Cookie{Name: name, Value: value})
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

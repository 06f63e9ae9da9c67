package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stockcount/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingLookup struct {
	calls int32
	perms map[string][]string
	err   error
}

func (l *countingLookup) GetPermissionsByRoleName(_ context.Context, role string) ([]string, error) {
	atomic.AddInt32(&l.calls, 1)
	if l.err != nil {
		return nil, l.err
	}
	return l.perms[role], nil
}

var testIssuer = auth.NewTokenIssuer([]byte("middleware-test-secret"), time.Hour)

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := testIssuer.Issue("user-1", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "role": UserRole(c)})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	authz := NewAuthorizer(testIssuer, &countingLookup{}, time.Minute)
	r := newRouter(authz.Authenticate())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer garbage").Code)

	w := do(r, bearer(t, "counter"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"user-1","role":"counter"}`, w.Body.String())
}

func TestAuthenticate_Cookie(t *testing.T) {
	authz := NewAuthorizer(testIssuer, &countingLookup{}, time.Minute)
	r := newRouter(authz.Authenticate())

	token, err := testIssuer.Issue("user-2", "admin")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-2")
}

func TestRequireRole(t *testing.T) {
	authz := NewAuthorizer(testIssuer, &countingLookup{}, time.Minute)
	r := newRouter(authz.RequireRole("admin"))

	assert.Equal(t, http.StatusOK, do(r, bearer(t, "admin")).Code)
	assert.Equal(t, http.StatusForbidden, do(r, bearer(t, "counter")).Code)
}

func TestRequirePermission_CachesPerRole(t *testing.T) {
	lookup := &countingLookup{perms: map[string][]string{
		"counter": {"inventory.read", "inventory.count"},
	}}
	authz := NewAuthorizer(testIssuer, lookup, time.Minute)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	authz.now = func() time.Time { return now }
	r := newRouter(authz.RequirePermission("inventory.count"))

	assert.Equal(t, http.StatusOK, do(r, bearer(t, "counter")).Code)
	assert.Equal(t, http.StatusOK, do(r, bearer(t, "counter")).Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(&lookup.calls))

	assert.Equal(t, http.StatusForbidden, do(r, bearer(t, "guest")).Code)
	assert.EqualValues(t, 2, atomic.LoadInt32(&lookup.calls))

	now = now.Add(2 * time.Minute)
	do(r, bearer(t, "counter"))
	assert.EqualValues(t, 3, atomic.LoadInt32(&lookup.calls))

	authz.InvalidateRole("counter")
	do(r, bearer(t, "counter"))
	assert.EqualValues(t, 4, atomic.LoadInt32(&lookup.calls))

	authz.InvalidateRole("")
	do(r, bearer(t, "counter"))
	assert.EqualValues(t, 5, atomic.LoadInt32(&lookup.calls))
}

func TestRequirePermission_LookupFailure(t *testing.T) {
	authz := NewAuthorizer(testIssuer, &countingLookup{err: errors.New("db down")}, time.Minute)
	r := newRouter(authz.RequirePermission("inventory.read"))

	assert.Equal(t, http.StatusInternalServerError, do(r, bearer(t, "counter")).Code)
}

func TestTokenCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SetTokenCookies(c, CookieConfig{Secure: true, AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour}, "a", "r")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "access_token", cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
	assert.Equal(t, "refresh_token", cookies[1].Name)
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	l := NewRateLimiter(2, time.Minute, 10)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, retry := l.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _ = l.Allow("5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	ok, _ = l.Allow("1.2.3.4")
	assert.True(t, ok, "window resets")
}

func TestRateLimiter_BoundedClients(t *testing.T) {
	l := NewRateLimiter(1, time.Minute, 2)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(time.Second)
	l.Allow("b")
	now = now.Add(time.Second)
	l.Allow("c")

	assert.Equal(t, 2, l.Len())
	ok, _ := l.Allow("a")
	assert.True(t, ok, "oldest client was evicted")
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(1, time.Minute, 10)
	r := newRouter(l.Limit())

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestRecoveryAndRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log), Recovery(log))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 2, logs.FilterMessage("request").Len())
}

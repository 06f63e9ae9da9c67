package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"stockcount/internal/auth"
	"stockcount/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context keys set by the authentication middleware
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// UserID returns the authenticated user's id, or "" when unauthenticated
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// UserRole returns the authenticated user's role, or "" when unauthenticated
func UserRole(c *gin.Context) string {
	return c.GetString(ContextUserRole)
}

// CookieConfig controls the session cookies written at login
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cfg CookieConfig) sameSite() http.SameSite {
	// Cross-origin deployments need SameSite=None, which browsers only accept on secure cookies.
	if cfg.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, cfg CookieConfig, accessToken, refreshToken string) {
	c.SetSameSite(cfg.sameSite())
	c.SetCookie(accessCookie, accessToken, int(cfg.AccessTTL.Seconds()), "/", "", cfg.Secure, true)
	c.SetCookie(refreshCookie, refreshToken, int(cfg.RefreshTTL.Seconds()), "/", "", cfg.Secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(cfg.sameSite())
	c.SetCookie(accessCookie, "", -1, "/", "", cfg.Secure, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", cfg.Secure, true)
}

// RefreshTokenFromCookie returns the refresh_token cookie, or ""
func RefreshTokenFromCookie(c *gin.Context) string {
	token, err := c.Cookie(refreshCookie)
	if err != nil {
		return ""
	}
	return token
}

// PermissionLookup resolves the permission codes granted to a role
type PermissionLookup interface {
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
}

// permCacheEntry stores cached permission codes for a role with TTL
type permCacheEntry struct {
	codes     map[string]bool
	expiresAt time.Time
}

// Authorizer authenticates access tokens and checks roles and permissions.
// Permission sets are cached per role for ttl.
type Authorizer struct {
	tokens *auth.TokenIssuer
	perms  PermissionLookup
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]permCacheEntry
}

func NewAuthorizer(tokens *auth.TokenIssuer, perms PermissionLookup, ttl time.Duration) *Authorizer {
	return &Authorizer{
		tokens: tokens,
		perms:  perms,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]permCacheEntry),
	}
}

// tokenFromRequest tries the access_token cookie first, then the Authorization header
func tokenFromRequest(c *gin.Context) (string, string) {
	if token, err := c.Cookie(accessCookie); err == nil && token != "" {
		return token, ""
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

func (a *Authorizer) authenticate(c *gin.Context) bool {
	tokenString, problem := tokenFromRequest(c)
	if problem != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
		return false
	}

	claims, err := a.tokens.Parse(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid or expired token"))
		return false
	}

	c.Set(ContextUserID, claims.UserID())
	c.Set(ContextUserRole, claims.Role)
	return true
}

// Authenticate accepts any valid access token
func (a *Authorizer) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequireRole validates the token and checks the role is one of allowedRoles
func (a *Authorizer) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}

		role := UserRole(c)
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient role"))
	}
}

// RequirePermission validates the token and checks the role holds every required permission
func (a *Authorizer) RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}

		granted, err := a.permissionSet(c.Request.Context(), UserRole(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		for _, required := range requiredPerms {
			if !granted[required] {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}

func (a *Authorizer) permissionSet(ctx context.Context, role string) (map[string]bool, error) {
	now := a.now()

	a.mu.RLock()
	entry, ok := a.cache[role]
	a.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.codes, nil
	}

	codes, err := a.perms.GetPermissionsByRoleName(ctx, role)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}

	a.mu.Lock()
	a.cache[role] = permCacheEntry{codes: set, expiresAt: now.Add(a.ttl)}
	a.mu.Unlock()
	return set, nil
}

// InvalidateRole drops the cached permissions of role, or of every role when role is empty
func (a *Authorizer) InvalidateRole(role string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if role == "" {
		a.cache = make(map[string]permCacheEntry)
		return
	}
	delete(a.cache, role)
}

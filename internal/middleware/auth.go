package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"bintobloom/internal/service"
	"bintobloom/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// PermissionSource resolves the permission codes granted to a role.
type PermissionSource interface {
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
}

// permCacheEntry stores cached permission codes for a role with TTL
type permCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

// Auth validates bearer tokens and enforces role and permission checks.
type Auth struct {
	secret    string
	perms     PermissionSource
	permCache sync.Map // roleName -> permCacheEntry
	cacheTTL  time.Duration
}

func NewAuth(secret string, perms PermissionSource) *Auth {
	return &Auth{secret: secret, perms: perms, cacheTTL: 5 * time.Minute}
}

// SetTokenCookie stores the access token as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie removes the access_token cookie
func ClearTokenCookie(c *gin.Context, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

// tokenFrom reads the cookie, then the Authorization header, then the token query
// parameter browsers use for websocket upgrades.
func tokenFrom(c *gin.Context) (string, string) {
	if tok, err := c.Cookie("access_token"); err == nil && tok != "" {
		return tok, ""
	}
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", "Invalid authorization format. Expected 'Bearer <token>'"
		}
		return parts[1], ""
	}
	if tok := c.Query("token"); tok != "" {
		return tok, ""
	}
	return "", "Authorization is missing"
}

func (a *Auth) authenticate(c *gin.Context) bool {
	tokenString, problem := tokenFrom(c)
	if problem != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
		return false
	}
	actor, err := service.ParseToken(a.secret, tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, service.MessageOf(err)))
		return false
	}
	c.Set(ctxUserID, actor.ID)
	c.Set(ctxUserRole, actor.Role)
	return true
}

// Authenticate admits any valid token.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.authenticate(c) {
			c.Next()
		}
	}
}

// RequireRole validates the JWT token and checks if the user's role exists in the allowedRoles list
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		role := c.GetString(ctxUserRole)
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// RequirePermission validates the JWT and checks that the user's role holds every required permission code.
func (a *Auth) RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}

		userPerms, err := a.permissionsFor(c.Request.Context(), c.GetString(ctxUserRole))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		permSet := make(map[string]bool, len(userPerms))
		for _, p := range userPerms {
			permSet[p] = true
		}
		for _, required := range requiredPerms {
			if !permSet[required] {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}

// permissionsFor returns cached or freshly loaded permission codes for a role name
func (a *Auth) permissionsFor(ctx context.Context, roleName string) ([]string, error) {
	if entry, ok := a.permCache.Load(roleName); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	codes, err := a.perms.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	a.permCache.Store(roleName, permCacheEntry{codes: codes, expiresAt: time.Now().Add(a.cacheTTL)})
	return codes, nil
}

// PermissionsFor exposes the cached lookup for handlers (e.g. the /me endpoint)
func (a *Auth) PermissionsFor(ctx context.Context, roleName string) ([]string, error) {
	return a.permissionsFor(ctx, roleName)
}

// ClearPermissionCache removes cached permissions for a specific role (or all roles if empty)
func (a *Auth) ClearPermissionCache(roleName string) {
	if roleName != "" {
		a.permCache.Delete(roleName)
		return
	}
	a.permCache.Range(func(key, _ interface{}) bool {
		a.permCache.Delete(key)
		return true
	})
}

// CurrentActor returns the caller set by one of the Auth middlewares.
func CurrentActor(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return service.Actor{}, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: id, Role: c.GetString(ctxUserRole)}, true
}

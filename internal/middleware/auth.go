package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"formsportal/internal/model"
	"formsportal/internal/repository"
	"formsportal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware.
const (
	CtxUserID   = "userID"
	CtxUserName = "userName"
	CtxUserRole = "userRole"
)

// AccessStore loads the form access entry of a user.
type AccessStore interface {
	GetAccess(ctx context.Context, userID string) (*model.UserAccess, error)
}

// Claims is the identity carried by a portal token.
type Claims struct {
	UserID string
	Name   string
	Role   string
}

// accessCacheEntry stores a user's access entry with TTL. A nil access means
// the user has none.
type accessCacheEntry struct {
	access    *model.UserAccess
	expiresAt time.Time
}

// Auth validates bearer tokens and gates routes by role and form access.
type Auth struct {
	secret []byte
	store  AccessStore
	ttl    time.Duration
	cache  sync.Map // userID -> accessCacheEntry
	log    *zap.Logger
}

func NewAuth(secret string, store AccessStore, ttl time.Duration, log *zap.Logger) *Auth {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{secret: []byte(secret), store: store, ttl: ttl, log: log}
}

// SignToken issues an HS256 token for c valid for ttl.
func SignToken(secret string, c Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  c.UserID,
		"name": c.Name,
		"role": c.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// ParseToken verifies tokenString and extracts its claims.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return nil, errors.New("role not found in token")
	}
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	return &Claims{UserID: sub, Name: name, Role: role}, nil
}

func bearerToken(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

func (a *Auth) authenticate(c *gin.Context) (*Claims, bool) {
	tokenString, err := bearerToken(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("unauthorized", err.Error()))
		return nil, false
	}
	claims, err := a.ParseToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("unauthorized", "invalid token"))
		return nil, false
	}
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUserName, claims.Name)
	c.Set(CtxUserRole, claims.Role)
	return claims, true
}

// RequireRole validates the token and checks the role against allowedRoles.
// With no roles any authenticated user passes; admin always passes.
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := a.authenticate(c)
		if !ok {
			return
		}
		if !roleAllowed(claims.Role, allowedRoles) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error("forbidden", "access denied: insufficient permissions"))
			return
		}
		c.Next()
	}
}

func roleAllowed(role string, allowed []string) bool {
	if len(allowed) == 0 || role == model.RoleAdmin {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// RequireFormAccess validates the token and checks that the user's access
// entry opens formKey. The entry's role, when present, replaces the token role
// for the rest of the request.
func (a *Auth) RequireFormAccess(formKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := a.authenticate(c)
		if !ok {
			return
		}
		if claims.Role == model.RoleAdmin {
			c.Next()
			return
		}

		access, err := a.accessFor(c.Request.Context(), claims.UserID)
		if err != nil {
			a.log.Error("failed to load user access", zap.String("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error("internal", "failed to verify access"))
			return
		}
		if access == nil || !access.Allows(formKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error("forbidden", "access denied: no access to "+formKey))
			return
		}
		if access.Role != "" {
			c.Set(CtxUserRole, access.Role)
		}
		c.Next()
	}
}

// accessFor returns the cached or stored access entry for userID.
func (a *Auth) accessFor(ctx context.Context, userID string) (*model.UserAccess, error) {
	if entry, ok := a.cache.Load(userID); ok {
		cached := entry.(accessCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.access, nil
		}
	}
	if a.store == nil {
		return nil, errors.New("access store not configured")
	}

	access, err := a.store.GetAccess(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		access, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.cache.Store(userID, accessCacheEntry{access: access, expiresAt: time.Now().Add(a.ttl)})
	return access, nil
}

// ForgetAccess drops the cached entry of userID, or every entry when userID
// is empty.
func (a *Auth) ForgetAccess(userID string) {
	if userID != "" {
		a.cache.Delete(userID)
		return
	}
	a.cache.Range(func(key, _ interface{}) bool {
		a.cache.Delete(key)
		return true
	})
}

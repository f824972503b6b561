package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/academic-services-backend/internal/models"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey   = "userID"
	ContextRoleKey     = "role"
	ContextIdentityKey = "identity"
	ContextCallerKey   = "caller"
)

// TokenParser проверяет access токен и возвращает его клеймы.
type TokenParser interface {
	ParseAccess(token string) (models.Identity, error)
}

// CallerResolver загружает актуальное состояние пользователя.
// Для нового sub резолвер может завести запись по клеймам токена.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, identity models.Identity) (models.Caller, error)
}

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			AbortWithError(c, apperror.ErrUnauthorized)
			return
		}

		identity, err := tokens.ParseAccess(raw)
		if err != nil || identity.UserID == uuid.Nil {
			AbortWithError(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
			return
		}

		c.Set(ContextUserIDKey, identity.UserID)
		c.Set(ContextRoleKey, identity.Role)
		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

// CallerMiddleware строит контекст вызывающего по записи пользователя.
// Роль и блокировка берутся из базы, а не из токена, поэтому блокировка действует сразу.
func CallerMiddleware(resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := c.Get(ContextIdentityKey)
		identity, isIdentity := raw.(models.Identity)
		if !ok || !isIdentity {
			AbortWithError(c, apperror.ErrUnauthorized)
			return
		}

		caller, err := resolver.ResolveCaller(c.Request.Context(), identity)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(ContextRoleKey, string(caller.Role))
		c.Set(ContextCallerKey, caller)
		c.Next()
	}
}

// RequireAdmin пропускает только администраторов.
// Заблокированный не-администратор получает ACCOUNT_SUSPENDED, а не FORBIDDEN.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := c.Get(ContextCallerKey)
		caller, isCaller := raw.(models.Caller)
		if !ok || !isCaller {
			AbortWithError(c, apperror.ErrUnauthorized)
			return
		}
		if !caller.IsAdmin() {
			if caller.IsSuspended {
				AbortWithError(c, apperror.Suspended(caller.SuspendedReason))
				return
			}
			AbortWithError(c, apperror.ErrAdminOnly)
			return
		}
		c.Next()
	}
}

// bearerToken достаёт токен из заголовка Authorization или, для WebSocket, из параметра token.
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if c.IsWebsocket() {
		return c.Query("token")
	}
	return ""
}

package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oficina-avance/oficina/internal/models"
)

// ContextKey - тип для ключей контекста.
type ContextKey string

const (
	// UserIDKey - ключ для хранения ID сотрудника в контексте.
	UserIDKey ContextKey = "user_id"
	// UserRoleKey - ключ для хранения роли сотрудника в контексте.
	UserRoleKey ContextKey = "user_role"
	// ClaimsKey - ключ для хранения claims текущего токена.
	ClaimsKey ContextKey = "claims"
)

// CookieName - имя cookie и заголовка с токеном.
const CookieName = "Authorization"

// JWTMiddleware создаёт middleware для проверки JWT токена.
// Если sessions не nil, отозванные токены отклоняются.
func JWTMiddleware(secret string, sessions SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractTokenFromHeader(c)

			if token == "" {
				token = extractTokenFromCookie(c)
			}

			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid token")
			}

			claims, err := ValidateToken(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if sessions != nil {
				if err := checkSession(c, sessions, claims); err != nil {
					return err
				}
			}

			// Сохранение данных сотрудника в контексте
			c.Set(string(UserIDKey), claims.UserID)
			c.Set(string(UserRoleKey), claims.Role)
			c.Set(string(ClaimsKey), claims)

			return next(c)
		}
	}
}

func checkSession(c echo.Context, sessions SessionStore, claims *Claims) error {
	ctx := c.Request().Context()

	revoked, err := sessions.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable").SetInternal(err)
	}
	if revoked {
		return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
	}

	if claims.IssuedAt == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	revoked, err = sessions.IsUserRevoked(ctx, claims.UserID, claims.IssuedAt.Time)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable").SetInternal(err)
	}
	if revoked {
		return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
	}
	return nil
}

// RequireRoles пропускает только сотрудников с одной из ролей.
// Должен стоять после JWTMiddleware.
func RequireRoles(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := GetActorFromContext(c)
			if err != nil {
				return err
			}
			if !actor.HasRole(roles...) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// extractTokenFromHeader извлекает токен из заголовка Authorization.
func extractTokenFromHeader(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Проверка формата "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}

	return ""
}

// extractTokenFromCookie извлекает токен из cookie.
func extractTokenFromCookie(c echo.Context) string {
	cookie, err := c.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// GetUserIDFromContext извлекает ID сотрудника из контекста.
func GetUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(string(UserIDKey)).(uuid.UUID)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "user not found in context")
	}
	return userID, nil
}

// GetActorFromContext собирает Actor из данных, положенных JWTMiddleware.
func GetActorFromContext(c echo.Context) (Actor, error) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		return Actor{}, err
	}
	role, ok := c.Get(string(UserRoleKey)).(models.Role)
	if !ok || role == "" {
		return Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "role not found in context")
	}
	return Actor{UserID: userID, Role: role}, nil
}

// GetClaimsFromContext возвращает claims текущего токена.
func GetClaimsFromContext(c echo.Context) (*Claims, error) {
	claims, ok := c.Get(string(ClaimsKey)).(*Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token not found in context")
	}
	return claims, nil
}

package auth

import (
	"net/http"
	"strings"

	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/Skotchmaster/todo_list/internal/tokens"
	"github.com/labstack/echo/v4"
)

const (
	MsgNotAuthorized = "User not authorized"
	MsgNoAccess      = "You don't have an access"

	claimsKey = "claims"
)

type Verifier interface {
	VerifyAccessToken(token string) (*tokens.Claims, bool)
}

// Policy decides whether verified claims may pass.
type Policy func(claims *tokens.Claims) bool

type Middleware struct {
	Verifier Verifier
}

func New(v Verifier) *Middleware {
	return &Middleware{Verifier: v}
}

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithPolicy(next, nil)
}

// RequireRole admits only tokens whose role claim equals role.
func (m *Middleware) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.requireAuthWithPolicy(next, func(claims *tokens.Claims) bool {
			return claims.Role == role
		})
	}
}

func (m *Middleware) requireAuthWithPolicy(next echo.HandlerFunc, policy Policy) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		token := extractTokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if token == "" {
			l.Warn("auth_rejected", "status", 403, "reason", "missing bearer token")
			return c.JSON(http.StatusForbidden, echo.Map{"message": MsgNotAuthorized})
		}

		claims, ok := m.Verifier.VerifyAccessToken(token)
		if !ok {
			l.Warn("auth_rejected", "status", 403, "reason", "invalid access token")
			return c.JSON(http.StatusForbidden, echo.Map{"message": MsgNotAuthorized})
		}

		if policy != nil && !policy(claims) {
			l.Warn("auth_rejected", "status", 403, "reason", "role mismatch", "user_id", claims.UserID, "role", claims.Role)
			return c.JSON(http.StatusForbidden, echo.Map{"message": MsgNoAccess})
		}

		setUserContext(c, claims)
		return next(c)
	}
}

func extractTokenFromHeader(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setUserContext(c echo.Context, claims *tokens.Claims) {
	c.Set(claimsKey, claims)
	c.Set("user_id", claims.UserID)
	c.Set("role", claims.Role)

	ctx := c.Request().Context()
	ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", claims.UserID))
	c.SetRequest(c.Request().WithContext(ctx))
}

// Claims returns the verified claims stored by the middleware.
func Claims(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*tokens.Claims)
	return claims, ok
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mackey55555/ceo-club-app-sub000/internal/auth"
)

const sessionKey = "session"

const bearerPrefix = "Bearer "

// TokenParser is satisfied by auth.TokenManager.
type TokenParser interface {
	Parse(token string) (*auth.Session, error)
}

// RequireMember accepts any valid session with the member role.
func RequireMember(tokens TokenParser) echo.MiddlewareFunc {
	return requireRole(tokens, auth.RoleMember)
}

// RequireAdmin accepts admin sessions only. Whether the admin is still active
// is checked by the services on every call.
func RequireAdmin(tokens TokenParser) echo.MiddlewareFunc {
	return requireRole(tokens, auth.RoleAdmin)
}

func requireRole(tokens TokenParser, role auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return NewHTTPError(http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header is required")
			}
			if !strings.HasPrefix(header, bearerPrefix) {
				return NewHTTPError(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authorization header format")
			}
			token := strings.TrimSpace(header[len(bearerPrefix):])
			if token == "" {
				return NewHTTPError(http.StatusUnauthorized, "INVALID_TOKEN", "Token is empty")
			}

			sess, err := tokens.Parse(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					return NewHTTPError(http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token has expired")
				}
				return NewHTTPError(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid access token")
			}
			if sess.Role != role {
				// Same status and code the services give a call without the
				// required identity.
				return NewHTTPError(http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			}

			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by RequireMember or RequireAdmin.
func SessionFrom(c echo.Context) (*auth.Session, bool) {
	sess, ok := c.Get(sessionKey).(*auth.Session)
	return sess, ok && sess != nil
}

// SetSession stores sess on c the way the auth middleware does.
func SetSession(c echo.Context, sess *auth.Session) {
	c.Set(sessionKey, sess)
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shopnow/auth-agent/internal/api/metrics"
	"github.com/shopnow/auth-agent/internal/core/service"
)

// userKey is the echo context key the gate stores the resolved user
// under.
const userKey = "gate.user"

// Gate protects a route group with the access gate. Unauthenticated
// browsers are redirected to loginPath; API clients get a 401 JSON
// envelope. Protected content is never served unauthenticated.
func Gate(gate *service.AccessGate, store *service.SessionStore, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := gate.Resolve(c.Request().Context())
			metrics.GateDecisionsTotal.WithLabelValues(string(state)).Inc()

			if state != service.GateAuthenticated {
				if wantsJSON(c) {
					return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
				}
				return c.Redirect(http.StatusFound, loginPath)
			}

			if snapshot := store.State(); snapshot.User != nil {
				c.Set(userKey, snapshot.User)
			}
			return next(c)
		}
	}
}

// RequireRole restricts a gated route to users holding one of the given
// marketplace roles.
func RequireRole(store *service.SessionStore, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snapshot := store.State()
			if snapshot.User == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if _, ok := allowed[string(snapshot.User.Role)]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// wantsJSON distinguishes API clients from browser navigation.
func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	if strings.Contains(accept, echo.MIMEApplicationJSON) {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

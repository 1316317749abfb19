package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns the role gate: a middleware enforcing that the
// authenticated principal carries one of the permitted roles for the
// route group it wraps. Permitted sets are fixed per operation at route
// registration time rather than checked ad hoc inside handlers. It
// assumes JWTAuth ran earlier and stored the role under CtxRole; a
// missing role is treated as forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// Package middleware provides shared request processing: the identity
// gate (JWT verification), the role gate, rate limiting and response
// caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth and read by handlers and downstream
// middleware.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuth returns the identity gate: an Echo middleware that validates
// a Bearer access token and injects the token's subject and role claims
// into the request context. A missing, malformed, expired or
// wrongly-signed token fails with 401 before any handler runs. The
// middleware is stateless; its only effect is attaching the resolved
// principal to the context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Only HMAC is acceptable; reject alg confusion.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// Numeric claims decode as float64; normalize the subject
			// here so handlers get a uint64 without re-parsing.
			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}
			role, _ := claims["role"].(string)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing role"})
			}

			c.Set(CtxUserID, uint64(sub))
			c.Set(CtxRole, role)
			return next(c)
		}
	}
}

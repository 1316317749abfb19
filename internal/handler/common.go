// Package handler contains the HTTP endpoints. Handlers translate
// between the HTTP surface and the repository/booking layers: bind and
// validate input, call one operation, map domain errors to status
// codes.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/expohub/expo-reservation/internal/middleware"
	"github.com/expohub/expo-reservation/internal/model"
)

// principal reads the identity the JWT middleware attached to the
// request. Handlers behind the identity gate can rely on both values
// being present.
func principal(c echo.Context) model.Principal {
	p := model.Principal{}
	if id, ok := c.Get(middleware.CtxUserID).(uint64); ok {
		p.ID = id
	}
	if role, ok := c.Get(middleware.CtxRole).(string); ok {
		p.Role = role
	}
	return p
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get(middleware.CtxRole).(string)
	return role == model.RoleAdmin
}

// pathID parses the named path parameter as a positive uint64. Zero
// signals a malformed ID to the caller.
func pathID(c echo.Context, name string) uint64 {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

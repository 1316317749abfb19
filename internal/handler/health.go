package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health responds 200 while the process is serving. Load balancers and
// container probes hit this endpoint; it carries no dependencies so a
// degraded database never flaps the instance.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

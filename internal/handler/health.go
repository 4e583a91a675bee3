package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a simple health check used by load balancers and monitoring
// to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

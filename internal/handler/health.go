package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

var startedAt = time.Now().UTC()

// Health reports liveness plus process uptime for load balancers and
// monitoring systems.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Ok",
		"uptime":  time.Since(startedAt).Round(time.Second).String(),
		"date":    time.Now().UTC().Format(time.RFC3339),
	})
}

package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beautybucket/backend/internal/webserver"
)

func registerHealthRoutes(s *webserver.AdminServer) {
	s.GET("/", rootBanner)
	s.ApiGET("/health", health)
}

func rootBanner(c echo.Context) error {
	return c.String(http.StatusOK, "BeautyBucket Backend Running")
}

func health(c echo.Context) error {
	return ok(c, map[string]string{"status": "ok"})
}

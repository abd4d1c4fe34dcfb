package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/beautybucket/backend/internal/imagestore"
	"github.com/beautybucket/backend/internal/webserver"
)

func registerImageRoutes(s *webserver.AdminServer) {
	s.GET("/images/*", serveImage)
}

func serveImage(c echo.Context) error {
	store := webserver.GetAppContext(c).Images()
	path, err := store.Resolve(c.Param("*"))
	if errors.Is(err, imagestore.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Image not found")
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
	return c.File(path)
}

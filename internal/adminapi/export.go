package adminapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beautybucket/backend/internal/catalog"
	"github.com/beautybucket/backend/internal/webserver"
)

func registerExportRoutes(s *webserver.AdminServer) {
	s.GET("/export", exportProducts)
}

// exportProducts returns every product as a downloadable xlsx, or csv with
// ?format=csv. The file is rendered in memory so failures still answer JSON.
func exportProducts(c echo.Context) error {
	format, err := catalog.NormalizeFormat(c.QueryParam("format"))
	if err != nil {
		return failCatalog(c, err, "export products")
	}

	var buf bytes.Buffer
	if err := catalogService(c).ExportProducts(c.Request().Context(), &buf, format); err != nil {
		return failCatalog(c, err, "export products")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=products.%s", format))
	return c.Blob(http.StatusOK, catalog.ContentType(format), buf.Bytes())
}

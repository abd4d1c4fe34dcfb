package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/beautybucket/backend/internal/webserver"
)

type categoryPayload struct {
	Name string `json:"name" form:"name" validate:"required,max=191"`
}

// registerCategoryRoutes registers category endpoints. Categories cannot be
// renamed or deleted.
func registerCategoryRoutes(s *webserver.AdminServer) {
	s.ApiGET("/categories", listCategories)
	s.ApiPOST("/add-category", addCategory)
}

func listCategories(c echo.Context) error {
	rows, err := catalogService(c).ListCategories(c.Request().Context())
	if err != nil {
		return failCatalog(c, err, "list categories")
	}
	return ok(c, rows)
}

func addCategory(c echo.Context) error {
	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category")
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Category name required")
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	if err := catalogService(c).AddCategory(c.Request().Context(), payload.Name); err != nil {
		return failCatalog(c, err, "add category")
	}
	return message(c, "Category added")
}

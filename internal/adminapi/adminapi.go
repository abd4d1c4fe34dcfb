package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/beautybucket/backend/internal/catalog"
	"github.com/beautybucket/backend/internal/webserver"
)

// Init registers every admin route on s.
func Init(s *webserver.AdminServer) {
	registerHealthRoutes(s)
	registerCategoryRoutes(s)
	registerProductRoutes(s)
	registerExportRoutes(s)
	registerImageRoutes(s)
}

// GetDB returns the request-scoped database session
var GetDB = webserver.GetDB

// catalogService binds a catalog service to the current request.
func catalogService(c echo.Context) *catalog.Service {
	return webserver.GetAppContext(c).Catalog(GetDB(c))
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func message(c echo.Context, msg string, extra ...interface{}) error {
	body := map[string]interface{}{"message": msg}
	for i := 0; i+1 < len(extra); i += 2 {
		if k, isStr := extra[i].(string); isStr {
			body[k] = extra[i+1]
		}
	}
	return c.JSON(http.StatusOK, body)
}

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, map[string]interface{}{
		"error": msg,
		"code":  code,
	})
}

// failCatalog maps catalog errors onto HTTP statuses.
func failCatalog(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		zap.L().Error(action, zap.Error(err), zap.String("path", c.Path()))
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", fe.Field()+" is required")
		case "max":
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", fe.Field()+" must be at most "+fe.Param()+" characters")
		}
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", fe.Field()+" is invalid")
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
}

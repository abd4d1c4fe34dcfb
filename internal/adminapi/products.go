package adminapi

import (
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/beautybucket/backend/internal/catalog"
	"github.com/beautybucket/backend/internal/webserver"
)

// registerProductRoutes registers product endpoints. There is no delete.
func registerProductRoutes(s *webserver.AdminServer) {
	s.ApiGET("/products", listProducts)
	s.ApiGET("/product/:id", getProduct)
	s.ApiGET("/category/:name", listProductsByCategory)
	s.ApiPOST("/add-product", addProduct)
	s.ApiPOST("/update-product/:id", updateProduct)
}

func listProducts(c echo.Context) error {
	rows, err := catalogService(c).ListProducts(c.Request().Context())
	if err != nil {
		return failCatalog(c, err, "list products")
	}
	return ok(c, rows)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID")
	}
	p, err := catalogService(c).GetProduct(c.Request().Context(), id)
	if err != nil {
		return failCatalog(c, err, "get product")
	}
	return ok(c, p)
}

func listProductsByCategory(c echo.Context) error {
	name := c.Param("name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	rows, err := catalogService(c).ListProductsByCategory(c.Request().Context(), name)
	if err != nil {
		return failCatalog(c, err, "list products by category")
	}
	return ok(c, rows)
}

func addProduct(c echo.Context) error {
	form, image, err := productRequest(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product form")
	}
	p, err := catalogService(c).AddProduct(c.Request().Context(), form, image)
	if err != nil {
		return failCatalog(c, err, "add product")
	}
	return message(c, "Product added", "id", p.ID)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID")
	}
	form, image, err := productRequest(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product form")
	}
	p, err := catalogService(c).UpdateProduct(c.Request().Context(), id, form, image)
	if err != nil {
		return failCatalog(c, err, "update product")
	}
	return message(c, "Product updated", "id", p.ID)
}

// productRequest reads the form fields and the optional image file.
func productRequest(c echo.Context) (catalog.ProductForm, *multipart.FileHeader, error) {
	values, err := c.FormParams()
	if err != nil {
		return catalog.ProductForm{}, nil, err
	}
	image, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		image = nil
	case err != nil:
		return catalog.ProductForm{}, nil, err
	}
	return catalog.ProductFormFromValues(values), image, nil
}

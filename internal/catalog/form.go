package catalog

import (
	"math"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/beautybucket/backend/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// ProductForm is the raw text of a product create/update request.
type ProductForm struct {
	Name          string `form:"name" validate:"required,max=255"`
	Category      string `form:"category" validate:"required,max=191"`
	Details       string `form:"details"`
	MRP           string `form:"mrp"`
	Purchase      string `form:"purchase"`
	Discount1     string `form:"discount1"`
	Discount5     string `form:"discount5"`
	Stock         string `form:"stock"`
	SellingPrice1 string `form:"selling_price_1"`
	SellingPrice5 string `form:"selling_price_5"`
}

// ProductFormFromValues reads a submitted form, folding the alternate field
// names used by older clients: our_purchase_price wins over purchase, and
// selling_price_Npc is accepted for selling_price_N.
func ProductFormFromValues(v url.Values) ProductForm {
	return ProductForm{
		Name:          strings.TrimSpace(v.Get("name")),
		Category:      strings.TrimSpace(v.Get("category")),
		Details:       strings.TrimSpace(v.Get("details")),
		MRP:           v.Get("mrp"),
		Purchase:      firstNonEmpty(v.Get("our_purchase_price"), v.Get("purchase")),
		Discount1:     v.Get("discount1"),
		Discount5:     v.Get("discount5"),
		Stock:         v.Get("stock"),
		SellingPrice1: firstNonEmpty(v.Get("selling_price_1"), v.Get("selling_price_1pc")),
		SellingPrice5: firstNonEmpty(v.Get("selling_price_5"), v.Get("selling_price_5pc")),
	}
}

// Validate checks the required fields.
func (f ProductForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return validationf("invalid product: %v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return validationf("%s is required", fe.Field())
	case "max":
		return validationf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return validationf("%s is invalid", fe.Field())
	}
}

// Product validates the form and converts it into an unsaved product with
// pricing applied. Optional numbers that are missing or unparseable become 0.
func (f ProductForm) Product() (domain.Product, error) {
	if err := f.Validate(); err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		Name:             f.Name,
		Category:         f.Category,
		Details:          f.Details,
		MRP:              parseNumber("mrp", f.MRP),
		OurPurchasePrice: parseNumber("purchase", f.Purchase),
		Discount1:        parseNumber("discount1", f.Discount1),
		Discount5:        parseNumber("discount5", f.Discount5),
		Stock:            parseStock(f.Stock),
	}
	p.ApplyPricing(optionalNumber(f.SellingPrice1), optionalNumber(f.SellingPrice5))
	return p, nil
}

func parseNumber(field, raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		zap.L().Warn("unparseable number, using 0", zap.String("field", field), zap.String("value", raw))
		return 0
	}
	return n
}

// parseStock truncates toward zero. Values outside the int range become 0.
func parseStock(raw string) int {
	n := math.Trunc(parseNumber("stock", raw))
	if n < math.MinInt || n >= math.MaxInt {
		zap.L().Warn("stock out of range, using 0", zap.String("value", strings.TrimSpace(raw)))
		return 0
	}
	return int(n)
}

func optionalNumber(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

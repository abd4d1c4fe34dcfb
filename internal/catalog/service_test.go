package catalog

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/beautybucket/backend/internal/domain"
	"github.com/beautybucket/backend/internal/imagestore"
)

type testEnv struct {
	db     *gorm.DB
	images *imagestore.Store
	svc    *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "catalog.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	images, err := imagestore.New(filepath.Join(dir, "images"), []string{"png", "jpg", "jpeg", "gif"}, 0)
	require.NoError(t, err)

	return &testEnv{db: db, images: images, svc: NewService(db, images, "")}
}

func imageHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func lipstickForm() ProductForm {
	return ProductFormFromValues(url.Values{
		"name":      {"Lipstick"},
		"category":  {"Makeup"},
		"mrp":       {"500"},
		"purchase":  {"300"},
		"discount1": {"50"},
		"discount5": {"100"},
		"stock":     {"10"},
	})
}

func TestAddCategoryIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.AddCategory(ctx, "Skincare"))
	require.NoError(t, env.svc.AddCategory(ctx, "  Skincare "))

	var count int64
	require.NoError(t, env.db.Model(&domain.Category{}).Where("name = ?", "Skincare").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddCategoryRejectsBlank(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.AddCategory(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Category name required", err.Error())
}

func TestAddCategoryCountsCharacters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	accented := strings.Repeat("é", 100)
	require.NoError(t, env.svc.AddCategory(ctx, accented))

	err := env.svc.AddCategory(ctx, strings.Repeat("é", 192))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Category name must be at most 191 characters", err.Error())

	cats, err := env.svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, accented, cats[0].Name)
}

func TestListCategoriesOrderedByName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, name := range []string{"Skincare", "Fragrance", "Makeup"} {
		require.NoError(t, env.svc.AddCategory(ctx, name))
	}

	cats, err := env.svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Fragrance", cats[0].Name)
	assert.Equal(t, "Makeup", cats[1].Name)
	assert.Equal(t, "Skincare", cats[2].Name)
}

func TestAddProductRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.AddProduct(ctx, lipstickForm(), nil)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := env.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lipstick", got.Name)
	assert.Equal(t, "Makeup", got.Category)
	assert.Equal(t, 500.0, got.MRP)
	assert.Equal(t, 300.0, got.PurchasePrice)
	assert.Equal(t, 300.0, got.OurPurchasePrice)
	assert.Equal(t, 450.0, got.SellingPrice1)
	assert.Equal(t, 400.0, got.SellingPrice5)
	assert.Equal(t, 10.0, got.DiscountPercent1)
	assert.Equal(t, 20.0, got.DiscountPercent5)
	assert.Equal(t, 40.0, got.DiscountWeGotPercent)
	assert.Equal(t, 10, got.Stock)
	assert.Equal(t, "", got.ImageURL)
}

func TestAddProductUsesDefaultImage(t *testing.T) {
	env := newTestEnv(t)
	svc := NewService(env.db, env.images, "placeholder.png")

	p, err := svc.AddProduct(context.Background(), lipstickForm(), nil)
	require.NoError(t, err)
	assert.Equal(t, "placeholder.png", p.ImageURL)
}

func TestAddProductRequiresNameAndCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AddProduct(ctx, ProductFormFromValues(url.Values{"category": {"Makeup"}}), nil)
	require.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "name is required", err.Error())

	_, err = env.svc.AddProduct(ctx, ProductFormFromValues(url.Values{"name": {"Lipstick"}, "category": {"  "}}), nil)
	require.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "category is required", err.Error())
}

func TestAddProductZeroMRP(t *testing.T) {
	env := newTestEnv(t)
	form := ProductFormFromValues(url.Values{
		"name":            {"Sample"},
		"category":        {"Freebies"},
		"mrp":             {"0"},
		"purchase":        {"12"},
		"selling_price_1": {"5"},
	})

	p, err := env.svc.AddProduct(context.Background(), form, nil)
	require.NoError(t, err)
	assert.Zero(t, p.DiscountWeGotPercent)
	assert.Zero(t, p.DiscountPercent1)
	assert.Zero(t, p.DiscountPercent5)
}

func TestAddProductLenientNumbers(t *testing.T) {
	env := newTestEnv(t)
	form := ProductFormFromValues(url.Values{
		"name":      {"Kajal"},
		"category":  {"Makeup"},
		"mrp":       {"abc"},
		"discount1": {""},
		"stock":     {"7.9"},
	})

	p, err := env.svc.AddProduct(context.Background(), form, nil)
	require.NoError(t, err)
	assert.Zero(t, p.MRP)
	assert.Zero(t, p.Discount1)
	assert.Equal(t, 7, p.Stock)

	for _, stock := range []string{"1e30", "-1e30", "9223372036854775807"} {
		form := ProductFormFromValues(url.Values{
			"name":     {"Kajal"},
			"category": {"Makeup"},
			"stock":    {stock},
		})
		p, err := env.svc.AddProduct(context.Background(), form, nil)
		require.NoError(t, err, stock)
		assert.Zero(t, p.Stock, stock)
	}
}

func TestAddProductFieldAliases(t *testing.T) {
	env := newTestEnv(t)
	form := ProductFormFromValues(url.Values{
		"name":               {"Serum"},
		"category":           {"Skincare"},
		"mrp":                {"1000"},
		"purchase":           {"100"},
		"our_purchase_price": {"600"},
		"discount1":          {"100"},
		"selling_price_1pc":  {"850"},
		"selling_price_5pc":  {"800"},
	})

	p, err := env.svc.AddProduct(context.Background(), form, nil)
	require.NoError(t, err)
	assert.Equal(t, 600.0, p.OurPurchasePrice)
	assert.Equal(t, 40.0, p.DiscountWeGotPercent)
	assert.Equal(t, 850.0, p.SellingPrice1)
	assert.Equal(t, 15.0, p.DiscountPercent1)
	assert.Equal(t, 800.0, p.SellingPrice5)
	assert.Equal(t, 20.0, p.DiscountPercent5)
}

func TestAddProductWithImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.svc.AddProduct(ctx, lipstickForm(), imageHeader(t, "red lipstick.png", []byte("png")))
	require.NoError(t, err)
	assert.Equal(t, "red_lipstick.png", p.ImageURL)

	_, err = os.Stat(filepath.Join(env.images.Dir(), "red_lipstick.png"))
	require.NoError(t, err)

	var upload domain.ImageUpload
	require.NoError(t, env.db.Where("filename = ?", "red_lipstick.png").First(&upload).Error)
	assert.Equal(t, domain.UploadConfirmed, upload.Status)
}

func TestAddProductRejectsBadImage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.AddProduct(context.Background(), lipstickForm(), imageHeader(t, "payload.exe", []byte("MZ")))
	require.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Invalid image file type", err.Error())

	var count int64
	require.NoError(t, env.db.Model(&domain.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddProductRemovesImageWhenInsertFails(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Migrator().DropTable(&domain.Product{}))
	// keep the reference count query working while inserts fail
	require.NoError(t, env.db.Exec("CREATE TABLE products (id INTEGER PRIMARY KEY, image_url TEXT)").Error)

	_, err := env.svc.AddProduct(context.Background(), lipstickForm(), imageHeader(t, "orphan.png", []byte("png")))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrValidation))

	_, statErr := os.Stat(filepath.Join(env.images.Dir(), "orphan.png"))
	assert.True(t, os.IsNotExist(statErr))

	var uploads int64
	require.NoError(t, env.db.Model(&domain.ImageUpload{}).Count(&uploads).Error)
	assert.Zero(t, uploads)
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetProduct(context.Background(), 404)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListProductsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first, err := env.svc.AddProduct(ctx, lipstickForm(), nil)
	require.NoError(t, err)
	second, err := env.svc.AddProduct(ctx, lipstickForm(), nil)
	require.NoError(t, err)

	rows, err := env.svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, first.ID, rows[1].ID)
}

func TestListProductsByCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.AddProduct(ctx, lipstickForm(), nil)
	require.NoError(t, err)

	rows, err := env.svc.ListProductsByCategory(ctx, "Makeup")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = env.svc.ListProductsByCategory(ctx, "makeup")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = env.svc.ListProductsByCategory(ctx, "NonexistentCat")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestUpdateProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.UpdateProduct(context.Background(), 999, lipstickForm(), nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateProductKeepsImageWhenNoneGiven(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.svc.AddProduct(ctx, lipstickForm(), imageHeader(t, "front.jpg", []byte("jpg")))
	require.NoError(t, err)

	form := lipstickForm()
	form.MRP = "1000"
	form.Stock = "3"
	updated, err := env.svc.UpdateProduct(ctx, created.ID, form, nil)
	require.NoError(t, err)
	assert.Equal(t, "front.jpg", updated.ImageURL)

	got, err := env.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "front.jpg", got.ImageURL)
	assert.Equal(t, 1000.0, got.MRP)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 950.0, got.SellingPrice1)
	assert.Equal(t, 5.0, got.DiscountPercent1)
}

func TestUpdateProductReplacesImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.svc.AddProduct(ctx, lipstickForm(), imageHeader(t, "front.jpg", []byte("jpg")))
	require.NoError(t, err)

	_, err = env.svc.UpdateProduct(ctx, created.ID, lipstickForm(), imageHeader(t, "back.gif", []byte("gif")))
	require.NoError(t, err)

	got, err := env.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "back.gif", got.ImageURL)
}

func TestUpdateProductClearsOptionalNumbers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.svc.AddProduct(ctx, lipstickForm(), nil)
	require.NoError(t, err)

	form := lipstickForm()
	form.Discount1 = ""
	form.Stock = "0"
	_, err = env.svc.UpdateProduct(ctx, created.ID, form, nil)
	require.NoError(t, err)

	got, err := env.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Discount1)
	assert.Zero(t, got.Stock)
	assert.Equal(t, 500.0, got.SellingPrice1)
	assert.Zero(t, got.DiscountPercent1)
}

func TestReconcileImages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	repo := NewGormRepository(env.db)

	// referenced by a product but never confirmed
	created, err := env.svc.AddProduct(ctx, lipstickForm(), imageHeader(t, "kept.png", []byte("png")))
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&domain.ImageUpload{}).Where("filename = ?", created.ImageURL).
		Update("status", domain.UploadPending).Error)

	// written to disk, then the process died before the product row
	_, err = env.images.Save(imageHeader(t, "stale.png", []byte("png")))
	require.NoError(t, err)
	_, err = repo.CreateUpload(ctx, "stale.png")
	require.NoError(t, err)

	res, err := env.svc.ReconcileImages(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Confirmed)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 1, res.Dropped)

	_, err = os.Stat(filepath.Join(env.images.Dir(), "kept.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.images.Dir(), "stale.png"))
	assert.True(t, os.IsNotExist(err))

	pending, err := repo.ListPendingUploads(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReconcileImagesHonoursCutoff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.images.Save(imageHeader(t, "fresh.png", []byte("png")))
	require.NoError(t, err)
	_, err = NewGormRepository(env.db).CreateUpload(ctx, "fresh.png")
	require.NoError(t, err)

	res, err := env.svc.ReconcileImages(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{}, res)

	_, err = os.Stat(filepath.Join(env.images.Dir(), "fresh.png"))
	assert.NoError(t, err)
}

func TestNormalizeLegacyProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.db.Exec(
		`INSERT INTO products (name, category, details, mrp, purchase_price, discount_1, discount_5, stock, image_url)
		 VALUES ('Toner', 'Skincare', '', 200, 150, 20, 40, 4, 'toner.png')`).Error)

	n, err := env.svc.NormalizeLegacyProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := env.svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	p := rows[0]
	assert.Equal(t, 150.0, p.OurPurchasePrice)
	assert.Equal(t, 25.0, p.DiscountWeGotPercent)
	assert.Equal(t, 180.0, p.SellingPrice1)
	assert.Equal(t, 160.0, p.SellingPrice5)
	assert.Equal(t, 10.0, p.DiscountPercent1)
	assert.Equal(t, 20.0, p.DiscountPercent5)

	n, err = env.svc.NormalizeLegacyProducts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beautybucket/backend/internal/domain"
)

// Repository handles database access for categories, products and image
// upload bookkeeping.
type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	InsertCategoryIfAbsent(ctx context.Context, name string) error

	ListProducts(ctx context.Context, order string) ([]domain.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	// UpdateProduct writes the given columns and returns the affected row count.
	UpdateProduct(ctx context.Context, p *domain.Product, columns []string) (int64, error)
	CountProductsWithImage(ctx context.Context, filename string) (int64, error)
	ListLegacyProducts(ctx context.Context) ([]domain.Product, error)

	CreateUpload(ctx context.Context, filename string) (*domain.ImageUpload, error)
	ConfirmUpload(ctx context.Context, id int64) error
	DeleteUpload(ctx context.Context, id int64) error
	ListPendingUploads(ctx context.Context, before time.Time) ([]domain.ImageUpload, error)
}

// GormRepository is the GORM implementation of Repository
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows := make([]domain.Category, 0)
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, errors.Wrap(err, "query categories")
}

func (r *GormRepository) InsertCategoryIfAbsent(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&domain.Category{Name: name}).Error
	return errors.Wrap(err, "insert category")
}

func (r *GormRepository) ListProducts(ctx context.Context, order string) ([]domain.Product, error) {
	rows := make([]domain.Product, 0)
	err := r.db.WithContext(ctx).Order(order).Find(&rows).Error
	return rows, errors.Wrap(err, "query products")
}

func (r *GormRepository) ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	rows := make([]domain.Product, 0)
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("id DESC").Find(&rows).Error
	return rows, errors.Wrap(err, "query products by category")
}

func (r *GormRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("Product not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	return &p, nil
}

func (r *GormRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(p).Error, "insert product")
}

func (r *GormRepository) UpdateProduct(ctx context.Context, p *domain.Product, columns []string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", p.ID).
		Select(columns).
		Updates(p)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "update product")
	}
	return res.RowsAffected, nil
}

func (r *GormRepository) CountProductsWithImage(ctx context.Context, filename string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("image_url = ?", filename).Count(&n).Error
	return n, errors.Wrap(err, "count image references")
}

// ListLegacyProducts returns rows written by the narrow schema, which lack
// the purchase and selling price columns.
func (r *GormRepository) ListLegacyProducts(ctx context.Context) ([]domain.Product, error) {
	rows := make([]domain.Product, 0)
	err := r.db.WithContext(ctx).
		Where("our_purchase_price IS NULL OR selling_price_1 IS NULL OR selling_price_5 IS NULL").
		Order("id ASC").
		Find(&rows).Error
	return rows, errors.Wrap(err, "query legacy products")
}

func (r *GormRepository) CreateUpload(ctx context.Context, filename string) (*domain.ImageUpload, error) {
	u := &domain.ImageUpload{Filename: filename, Status: domain.UploadPending}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, errors.Wrap(err, "insert image upload")
	}
	return u, nil
}

func (r *GormRepository) ConfirmUpload(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Model(&domain.ImageUpload{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.UploadConfirmed,
			"updated_at": time.Now(),
		}).Error
	return errors.Wrap(err, "confirm image upload")
}

func (r *GormRepository) DeleteUpload(ctx context.Context, id int64) error {
	return errors.Wrap(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ImageUpload{}).Error, "delete image upload")
}

func (r *GormRepository) ListPendingUploads(ctx context.Context, before time.Time) ([]domain.ImageUpload, error) {
	rows := make([]domain.ImageUpload, 0)
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.UploadPending, before).
		Order("id ASC").
		Find(&rows).Error
	return rows, errors.Wrap(err, "query pending uploads")
}

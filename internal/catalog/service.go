package catalog

import (
	"context"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beautybucket/backend/internal/domain"
	"github.com/beautybucket/backend/internal/imagestore"
)

// Service implements the catalog queries and mutations on top of one
// request-scoped database handle.
type Service struct {
	repo         Repository
	images       *imagestore.Store
	defaultImage string
}

// NewService builds a service bound to db. defaultImage is stored as the
// image_url of products created without an image.
func NewService(db *gorm.DB, images *imagestore.Store, defaultImage string) *Service {
	return NewServiceWithRepository(NewGormRepository(db), images, defaultImage)
}

func NewServiceWithRepository(repo Repository, images *imagestore.Store, defaultImage string) *Service {
	return &Service{repo: repo, images: images, defaultImage: defaultImage}
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// AddCategory stores name once. Adding an existing name succeeds.
func (s *Service) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationf("Category name required")
	}
	if utf8.RuneCountInString(name) > 191 {
		return validationf("Category name must be at most 191 characters")
	}
	if err := s.repo.InsertCategoryIfAbsent(ctx, name); err != nil {
		return err
	}
	zap.L().Info("category added", zap.String("name", name))
	return nil
}

// ListProducts returns every product, newest first.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, "id DESC")
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProductsByCategory matches the category text exactly.
func (s *Service) ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.ListProductsByCategory(ctx, category)
}

// AddProduct creates a product from form and stores image when given.
func (s *Service) AddProduct(ctx context.Context, form ProductForm, image *multipart.FileHeader) (*domain.Product, error) {
	p, err := form.Product()
	if err != nil {
		return nil, err
	}
	p.ImageURL = s.defaultImage

	upload, err := s.stageImage(ctx, image)
	if err != nil {
		return nil, err
	}
	if upload != nil {
		p.ImageURL = upload.Filename
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.CreateProduct(ctx, &p); err != nil {
		s.abortImage(ctx, upload)
		return nil, err
	}
	s.confirmImage(ctx, upload)

	zap.L().Info("product added",
		zap.Int64("id", p.ID),
		zap.String("name", p.Name),
		zap.String("category", p.Category))
	return &p, nil
}

// UpdateProduct rewrites product id from form. The stored image is only
// replaced when a new one is given.
func (s *Service) UpdateProduct(ctx context.Context, id int64, form ProductForm, image *multipart.FileHeader) (*domain.Product, error) {
	current, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := form.Product()
	if err != nil {
		return nil, err
	}
	p.ID = current.ID
	p.ImageURL = current.ImageURL
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now()

	upload, err := s.stageImage(ctx, image)
	if err != nil {
		return nil, err
	}

	columns := domain.MutableColumns
	if upload != nil {
		p.ImageURL = upload.Filename
		columns = append(append([]string{}, domain.MutableColumns...), "image_url")
	}

	affected, err := s.repo.UpdateProduct(ctx, &p, columns)
	if err == nil && affected == 0 {
		err = notFoundf("Product not found")
	}
	if err != nil {
		s.abortImage(ctx, upload)
		return nil, err
	}
	s.confirmImage(ctx, upload)

	zap.L().Info("product updated", zap.Int64("id", p.ID), zap.Bool("image_replaced", upload != nil))
	return &p, nil
}

// stageImage validates and writes image, then records it as pending until
// the product row referencing it is committed. A nil image yields nil.
func (s *Service) stageImage(ctx context.Context, image *multipart.FileHeader) (*domain.ImageUpload, error) {
	if image == nil || image.Filename == "" {
		return nil, nil
	}
	if s.images == nil {
		return nil, errors.New("image store not configured")
	}

	name, err := s.images.Save(image)
	switch {
	case errors.Is(err, imagestore.ErrExtension), errors.Is(err, imagestore.ErrInvalidName):
		return nil, &kindError{kind: ErrValidation, msg: "Invalid image file type", cause: err}
	case errors.Is(err, imagestore.ErrTooLarge):
		return nil, &kindError{kind: ErrValidation, msg: "Image file too large", cause: err}
	case err != nil:
		return nil, err
	}

	upload, err := s.repo.CreateUpload(ctx, name)
	if err != nil {
		s.removeIfUnreferenced(ctx, name)
		return nil, err
	}
	return upload, nil
}

func (s *Service) confirmImage(ctx context.Context, upload *domain.ImageUpload) {
	if upload == nil {
		return
	}
	// A failure here leaves the upload pending; ReconcileImages confirms it
	// later because the product now references the file.
	if err := s.repo.ConfirmUpload(ctx, upload.ID); err != nil {
		zap.L().Warn("failed to confirm image upload", zap.String("filename", upload.Filename), zap.Error(err))
	}
}

func (s *Service) abortImage(ctx context.Context, upload *domain.ImageUpload) {
	if upload == nil {
		return
	}
	s.removeIfUnreferenced(ctx, upload.Filename)
	if err := s.repo.DeleteUpload(ctx, upload.ID); err != nil {
		zap.L().Warn("failed to drop image upload record", zap.String("filename", upload.Filename), zap.Error(err))
	}
}

// removeIfUnreferenced deletes filename unless some product already points
// at it; uploads share a namespace, so another product may own the name.
func (s *Service) removeIfUnreferenced(ctx context.Context, filename string) bool {
	refs, err := s.repo.CountProductsWithImage(ctx, filename)
	if err != nil {
		zap.L().Warn("failed to count image references", zap.String("filename", filename), zap.Error(err))
		return false
	}
	if refs > 0 {
		return false
	}
	if err := s.images.Remove(filename); err != nil {
		zap.L().Warn("failed to remove orphaned image", zap.String("filename", filename), zap.Error(err))
		return false
	}
	return true
}

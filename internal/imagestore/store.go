package imagestore

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("image not found")
	ErrInvalidName = errors.New("invalid image filename")
	ErrExtension   = errors.New("invalid image file type")
	ErrTooLarge    = errors.New("image file too large")
)

// Store keeps uploaded images as flat files in one directory, addressed by
// their sanitized filename. Saving a name that already exists overwrites it.
type Store struct {
	dir     string
	allowed map[string]struct{}
	maxSize int64
}

// New creates the directory if needed. maxSize <= 0 disables the size check.
func New(dir string, allowedExt []string, maxSize int64) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve image dir %s", dir)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create image dir %s", abs)
	}
	allowed := make(map[string]struct{}, len(allowedExt))
	for _, ext := range allowedExt {
		allowed[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))] = struct{}{}
	}
	return &Store{dir: abs, allowed: allowed, maxSize: maxSize}, nil
}

// Dir returns the absolute image directory
func (s *Store) Dir() string {
	return s.dir
}

// Check validates an upload and returns the name it would be stored under.
func (s *Store) Check(fh *multipart.FileHeader) (string, error) {
	name := SecureFilename(fh.Filename)
	if name == "" {
		return "", errors.Wrapf(ErrInvalidName, "%q", fh.Filename)
	}
	if _, ok := s.allowed[Ext(name)]; !ok {
		return "", errors.Wrapf(ErrExtension, "%q", fh.Filename)
	}
	if s.maxSize > 0 && fh.Size > s.maxSize {
		return "", errors.Wrapf(ErrTooLarge, "%d bytes", fh.Size)
	}
	return name, nil
}

// Save writes the upload into the directory and returns the stored filename.
// The file is written to a temporary name first and renamed into place.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	name, err := s.Check(fh)
	if err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp image")
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", errors.Wrap(err, "write image")
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", errors.Wrap(err, "chmod image")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", errors.Wrap(err, "close image")
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return "", errors.Wrap(err, "move image into place")
	}

	zap.L().Info("image saved", zap.String("filename", name), zap.Int64("size", fh.Size))
	return name, nil
}

// Resolve maps a requested filename to a path inside the directory.
func (s *Store) Resolve(name string) (string, error) {
	safe := SecureFilename(name)
	if safe == "" {
		return "", errors.Wrapf(ErrNotFound, "%q", name)
	}
	p := filepath.Join(s.dir, safe)
	rel, err := filepath.Rel(s.dir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrNotFound, "%q", name)
	}
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return "", errors.Wrapf(ErrNotFound, "%q", name)
	}
	return p, nil
}

// Remove deletes a stored image. A missing file is not an error.
func (s *Store) Remove(name string) error {
	safe := SecureFilename(name)
	if safe == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, safe))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove image %s", safe)
	}
	return nil
}

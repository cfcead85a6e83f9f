package imagestore

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"eshop-service/internal/errs"
)

// Kind selects the subdirectory an image is stored under.
type Kind string

const (
	KindProduct  Kind = "products"
	KindCategory Kind = "categories"
)

const maxImageSize = 5 << 20 // 5 MiB

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// Store saves uploaded images on local disk and hands back the public
// URL path they are served under.
type Store struct {
	baseDir string
}

// NewStore ensures the upload directories exist.
func NewStore(baseDir string) (*Store, error) {
	for _, kind := range []Kind{KindProduct, KindCategory} {
		dir := filepath.Join(baseDir, string(kind))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
		}
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the root directory images are written under, for
// mounting as a static file route.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Save writes one uploaded file and returns its public URL path,
// e.g. /images/products/<uuid>_photo.png.
func (s *Store) Save(kind Kind, file *multipart.FileHeader) (string, error) {
	if file.Size > maxImageSize {
		return "", errs.Validation("IMAGE_TOO_LARGE", "image exceeds the 5 MiB limit")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", errs.Validation("UNSUPPORTED_IMAGE_TYPE", "unsupported image type")
	}

	name := fmt.Sprintf("%s_%s", uuid.New().String(), sanitizeFilename(file.Filename))
	dst := filepath.Join(s.baseDir, string(kind), name)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write image file: %w", err)
	}

	return fmt.Sprintf("/images/%s/%s", kind, name), nil
}

// SaveAll stores a batch of uploads, removing any already written
// files if one of them fails.
func (s *Store) SaveAll(kind Kind, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.Save(kind, f)
		if err != nil {
			for _, u := range urls {
				s.Remove(u)
			}
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Remove deletes a stored image given its public URL path. Unknown
// paths are ignored.
func (s *Store) Remove(url string) {
	rel, ok := strings.CutPrefix(url, "/images/")
	if !ok {
		return
	}
	rel = filepath.Clean(rel)
	if strings.HasPrefix(rel, "..") {
		return
	}
	os.Remove(filepath.Join(s.baseDir, rel))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}

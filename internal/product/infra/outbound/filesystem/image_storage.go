package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/davicafu/catalogo/internal/product/domain"
)

// LocalImageStorage guarda las imágenes en un directorio servido como estático.
type LocalImageStorage struct {
	dir     string
	baseURL string
}

var _ domain.ImageStorage = (*LocalImageStorage)(nil)

// NewLocalImageStorage crea el directorio si no existe.
func NewLocalImageStorage(dir, baseURL string) (*LocalImageStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir %s: %w", dir, err)
	}
	return &LocalImageStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload escribe el contenido como <uuid><ext> y devuelve su URL pública.
// Solo se conserva la extensión del nombre original.
func (s *LocalImageStorage) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	if _, err := io.Copy(f, readerWithContext(ctx, r)); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close image file: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// Delete borra la imagen apuntada por url. Una URL ajena o un fichero
// inexistente no son error.
func (s *LocalImageStorage) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, s.baseURL+"/"))
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

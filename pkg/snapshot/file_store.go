package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes assets under dir and serves them under baseURL (the static uploads route).
type FileStore struct {
	dir     string
	baseURL string
}

func NewFileStore(dir, baseURL string) *FileStore {
	return &FileStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *FileStore) Save(ctx context.Context, name string, img *Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("empty asset %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}

	file := filepath.Base(name) + Extension(img.MIMEType)
	if err := os.WriteFile(filepath.Join(s.dir, file), img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write asset: %w", err)
	}
	return s.baseURL + "/" + file, nil
}

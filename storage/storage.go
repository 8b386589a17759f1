// Package storage persists uploaded catalog images.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	appconfig "miniapp-shop-api/config"
)

// Provider stores one object and returns the URL it is served from.
// Local providers return a site-relative path starting with "/".
type Provider interface {
	Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
}

// New builds the provider selected by STORAGE_PROVIDER.
func New(ctx context.Context, cfg *appconfig.Config) (Provider, error) {
	switch cfg.StorageProvider {
	case "s3":
		return NewS3(ctx, cfg.S3)
	case "local", "":
		return NewLocal(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.StorageProvider)
	}
}

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// objectName returns a collision-free name that keeps the image extension.
func objectName(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	return uuid.New().String() + ext, nil
}

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// DetectImage sniffs r and rewinds it. It returns the content type and the
// extension matching the bytes, whatever the client named the file.
func DetectImage(r io.ReadSeeker) (contentType, ext string, err error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", "", fmt.Errorf("sniff upload: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("rewind upload: %w", err)
	}
	for _, t := range imageTypes {
		if mt.Is(t) {
			return t, mt.Extension(), nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

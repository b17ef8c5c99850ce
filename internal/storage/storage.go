package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"freight-insure/pkg/config"

	"go.uber.org/zap"
)

// Object is a stored file and a URL the OCR service can load it from.
type Object struct {
	Key        string
	URL        string
	Size       int64
	Expiration time.Time
}

// Store keeps uploaded documents.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (Object, error)
	Delete(ctx context.Context, key string) error
	// Open reads back a stored object, for providers that need the bytes.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// New builds the store selected by cfg.Driver.
func New(cfg *config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL, logger)
	case "s3":
		return NewS3Store(cfg, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

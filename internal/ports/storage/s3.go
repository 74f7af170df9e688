package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: object not found")

// IS3Client интерфейс для работы с S3-совместимым хранилищем (MinIO)
type IS3Client interface {
	PutFile(ctx context.Context, path string, data []byte, contentType string) error
	// GetFile ErrNotFound если объекта нет
	GetFile(ctx context.Context, path string) ([]byte, error)
	ListFiles(ctx context.Context, prefix string) ([]string, error)
	GetPresignedURL(ctx context.Context, path string, expires time.Duration) (string, error)
}

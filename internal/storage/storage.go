package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound     = errors.New("storage: object not found")
	ErrInvalidKey   = errors.New("storage: invalid key")
	ErrAccessDenied = errors.New("storage: access denied")
)

// MetaFilename is the user-metadata key holding an object's original filename.
const MetaFilename = "Filename"

type Storage interface {
	Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts UploadOptions) error
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	HealthCheck(ctx context.Context) error
}

type UploadOptions struct {
	ContentType string
	Filename    string
}

type ObjectInfo struct {
	Bucket       string
	Key          string
	Size         int64
	ContentType  string
	Filename     string
	LastModified time.Time
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

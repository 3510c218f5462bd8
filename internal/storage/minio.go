package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ Storage = (*MinIOStorage)(nil)

type MinIOStorage struct {
	client *minio.Client
	config *Config
}

func NewMinIOStorage(cfg *Config) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOStorage{
		client: client,
		config: cfg,
	}, nil
}

func (s *MinIOStorage) EnsureBucket(ctx context.Context, bucket string) error {
	log := logger.FromContext(ctx)

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		log.Info("creating bucket", "bucket", bucket, "region", s.config.Region)
		err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{
			Region: s.config.Region,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		log.Info("bucket created", "bucket", bucket)
	}

	return nil
}

func (s *MinIOStorage) Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts UploadOptions) error {
	log := logger.FromContext(ctx)
	start := time.Now()

	if key == "" {
		return ErrInvalidKey
	}

	putOpts := minio.PutObjectOptions{
		ContentType: opts.ContentType,
	}
	if opts.Filename != "" {
		putOpts.UserMetadata = map[string]string{MetaFilename: opts.Filename}
	}

	_, err := s.client.PutObject(ctx, bucket, key, reader, size, putOpts)
	if err != nil {
		log.Error("storage upload failed", "bucket", bucket, "key", key, "size", size, "error", err)
		return fmt.Errorf("upload to %s/%s: %w", bucket, key, err)
	}

	log.Debug("storage upload completed", "bucket", bucket, "key", key, "size", size, "content_type", opts.ContentType, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *MinIOStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		log.Error("storage download failed", "bucket", bucket, "key", key, "error", err)
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNotFoundError(err) {
			log.Warn("storage object not found", "bucket", bucket, "key", key)
			return nil, fmt.Errorf("download %s/%s: %w", bucket, key, ErrNotFound)
		}
		log.Error("storage stat failed", "bucket", bucket, "key", key, "error", err)
		return nil, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}

	log.Debug("storage download started", "bucket", bucket, "key", key, "size", info.Size, "duration_ms", time.Since(start).Milliseconds())
	return obj, nil
}

func (s *MinIOStorage) Stat(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("stat %s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}

	return &ObjectInfo{
		Bucket:       bucket,
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		Filename:     filenameFromMetadata(info.UserMetadata),
		LastModified: info.LastModified,
	}, nil
}

func (s *MinIOStorage) Delete(ctx context.Context, bucket, key string) error {
	log := logger.FromContext(ctx)

	err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		log.Error("storage delete failed", "bucket", bucket, "key", key, "error", err)
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}

	log.Debug("storage object deleted", "bucket", bucket, "key", key)
	return nil
}

func (s *MinIOStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("check exists %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func (s *MinIOStorage) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("list buckets: %w", err)
	}
	return nil
}

// StatusCode reports the transport status carried by err, or 0 when unknown.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrAccessDenied) {
		return http.StatusForbidden
	}
	var errResp minio.ErrorResponse
	if errors.As(err, &errResp) && errResp.StatusCode != 0 {
		return errResp.StatusCode
	}
	return 0
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket"
}

func filenameFromMetadata(meta map[string]string) string {
	for k, v := range meta {
		if strings.EqualFold(k, MetaFilename) || strings.EqualFold(k, "X-Amz-Meta-"+MetaFilename) {
			return v
		}
	}
	return ""
}

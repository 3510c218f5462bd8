package metrics

import (
	"context"
	"io"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/storage"
)

type InstrumentedStorage struct {
	storage.Storage
}

var _ storage.Storage = (*InstrumentedStorage)(nil)

func NewInstrumentedStorage(s storage.Storage) *InstrumentedStorage {
	return &InstrumentedStorage{Storage: s}
}

func (s *InstrumentedStorage) Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts storage.UploadOptions) error {
	start := time.Now()

	err := s.Storage.Upload(ctx, bucket, key, reader, size, opts)

	observe("upload", bucket, start, err)
	if err == nil {
		StorageBytesTotal.WithLabelValues("upload").Add(float64(size))
	}

	return err
}

func (s *InstrumentedStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	start := time.Now()

	reader, err := s.Storage.Download(ctx, bucket, key)

	observe("download", bucket, start, err)
	if err != nil {
		return nil, err
	}

	return &instrumentedReadCloser{ReadCloser: reader}, nil
}

func (s *InstrumentedStorage) Stat(ctx context.Context, bucket, key string) (*storage.ObjectInfo, error) {
	start := time.Now()

	info, err := s.Storage.Stat(ctx, bucket, key)

	observe("stat", bucket, start, err)
	return info, err
}

func (s *InstrumentedStorage) Delete(ctx context.Context, bucket, key string) error {
	start := time.Now()

	err := s.Storage.Delete(ctx, bucket, key)

	observe("delete", bucket, start, err)
	return err
}

func (s *InstrumentedStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	start := time.Now()

	exists, err := s.Storage.Exists(ctx, bucket, key)

	observe("exists", bucket, start, err)
	return exists, err
}

func observe(op, bucket string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StorageOperationsTotal.WithLabelValues(op, bucket, status).Inc()
	StorageOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type instrumentedReadCloser struct {
	io.ReadCloser
	bytesRead int64
}

func (r *instrumentedReadCloser) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.bytesRead += int64(n)
	return n, err
}

func (r *instrumentedReadCloser) Close() error {
	StorageBytesTotal.WithLabelValues("download").Add(float64(r.bytesRead))
	return r.ReadCloser.Close()
}

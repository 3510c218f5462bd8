package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of Storage for testing.
// It stores objects per bucket and is safe for concurrent use.
type MemoryStorage struct {
	objects map[string]memoryObject
	mu      sync.RWMutex
}

type memoryObject struct {
	data        []byte
	contentType string
	filename    string
	modified    time.Time
}

// NewMemoryStorage creates a new in-memory storage instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
	}
}

var _ Storage = (*MemoryStorage)(nil)

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

// Upload stores data at bucket/key.
func (s *MemoryStorage) Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts UploadOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" || bucket == "" {
		return ErrInvalidKey
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[objectKey(bucket, key)] = memoryObject{
		data:        data,
		contentType: opts.ContentType,
		filename:    opts.Filename,
		modified:    time.Now(),
	}

	return nil
}

// Download retrieves data from bucket/key.
func (s *MemoryStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[objectKey(bucket, key)]
	if !exists {
		return nil, ErrNotFound
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Stat returns object metadata.
func (s *MemoryStorage) Stat(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[objectKey(bucket, key)]
	if !exists {
		return nil, ErrNotFound
	}

	return &ObjectInfo{
		Bucket:       bucket,
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		Filename:     obj.filename,
		LastModified: obj.modified,
	}, nil
}

// Delete removes bucket/key.
func (s *MemoryStorage) Delete(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, objectKey(bucket, key))
	return nil
}

// Exists checks if an object exists at bucket/key.
func (s *MemoryStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.objects[objectKey(bucket, key)]
	return exists, nil
}

func (s *MemoryStorage) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

// GetData returns the raw data for bucket/key (test helper).
func (s *MemoryStorage) GetData(bucket, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[objectKey(bucket, key)]
	if !exists {
		return nil, false
	}
	return obj.data, true
}

// Put stores an object directly (test helper).
func (s *MemoryStorage) Put(bucket, key, filename string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey(bucket, key)] = memoryObject{
		data:     data,
		filename: filename,
		modified: time.Now(),
	}
}

// Count returns the number of stored objects (test helper).
func (s *MemoryStorage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

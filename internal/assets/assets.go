// Package assets reads job inputs from and publishes results to the blob store.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/storage"
	"github.com/google/uuid"
)

type Bucket string

const (
	BucketSource Bucket = "source"
	BucketTarget Bucket = "target"
	BucketResult Bucket = "result"
)

type Op string

const (
	OpMetadata Op = "metadata"
	OpDownload Op = "download"
	OpUpload   Op = "upload"
)

// TransferError is returned by every Adapter operation.
type TransferError struct {
	Op      Op
	Bucket  Bucket
	AssetID string
	Status  int
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	if e.AssetID != "" {
		return fmt.Sprintf("%s %s/%s: %s", e.Op, e.Bucket, e.AssetID, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Bucket, e.Message)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a TransferError for a missing asset.
func IsNotFound(err error) bool {
	var te *TransferError
	return errors.As(err, &te) && errors.Is(te.Err, storage.ErrNotFound)
}

type Metadata struct {
	ID          string
	Bucket      Bucket
	Filename    string
	ContentType string
	Size        int64
}

// Extension returns the lower-cased filename extension, or "" if there is none.
func (m *Metadata) Extension() string {
	return ExtensionHint(m.Filename)
}

func ExtensionHint(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Buckets maps logical buckets to object-store bucket names.
type Buckets struct {
	Source string
	Target string
	Result string
}

func (b Buckets) name(bucket Bucket) (string, bool) {
	switch bucket {
	case BucketSource:
		return b.Source, b.Source != ""
	case BucketTarget:
		return b.Target, b.Target != ""
	case BucketResult:
		return b.Result, b.Result != ""
	}
	return "", false
}

type Adapter struct {
	store   storage.Storage
	buckets Buckets
	newID   func() string
}

func NewAdapter(store storage.Storage, buckets Buckets) *Adapter {
	return &Adapter{
		store:   store,
		buckets: buckets,
		newID:   uuid.NewString,
	}
}

func (a *Adapter) GetMetadata(ctx context.Context, bucket Bucket, id string) (*Metadata, error) {
	name, ok := a.buckets.name(bucket)
	if !ok {
		return nil, unknownBucket(OpMetadata, bucket, id)
	}

	info, err := a.store.Stat(ctx, name, id)
	if err != nil {
		return nil, transferError(OpMetadata, bucket, id, err)
	}

	return &Metadata{
		ID:          id,
		Bucket:      bucket,
		Filename:    info.Filename,
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

// Download copies the asset bytes into w.
func (a *Adapter) Download(ctx context.Context, bucket Bucket, id string, w io.Writer) (int64, error) {
	name, ok := a.buckets.name(bucket)
	if !ok {
		return 0, unknownBucket(OpDownload, bucket, id)
	}

	r, err := a.store.Download(ctx, name, id)
	if err != nil {
		return 0, transferError(OpDownload, bucket, id, err)
	}
	defer func() { _ = r.Close() }()

	n, err := io.Copy(w, r)
	if err != nil {
		return n, transferError(OpDownload, bucket, id, err)
	}
	return n, nil
}

// DownloadToFile writes the asset to path, creating or truncating it.
func (a *Adapter) DownloadToFile(ctx context.Context, bucket Bucket, id, path string) (int64, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	f, err := os.Create(path)
	if err != nil {
		return 0, &TransferError{Op: OpDownload, Bucket: bucket, AssetID: id, Message: "create staged file", Err: err}
	}

	n, err := a.Download(ctx, bucket, id, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = &TransferError{Op: OpDownload, Bucket: bucket, AssetID: id, Message: "write staged file", Err: cerr}
	}
	if err != nil {
		return n, err
	}

	log.Debug("asset downloaded", "bucket", bucket, "asset_id", id, "path", path, "size", n, "duration_ms", time.Since(start).Milliseconds())
	return n, nil
}

// Upload stores the file at path under a freshly generated id and returns it.
func (a *Adapter) Upload(ctx context.Context, bucket Bucket, path, filenameHint string) (string, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	name, ok := a.buckets.name(bucket)
	if !ok {
		return "", unknownBucket(OpUpload, bucket, "")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &TransferError{Op: OpUpload, Bucket: bucket, Message: "open artifact", Err: err}
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return "", &TransferError{Op: OpUpload, Bucket: bucket, Message: "stat artifact", Err: err}
	}

	if filenameHint == "" {
		filenameHint = filepath.Base(path)
	}

	id := a.newID()
	err = a.store.Upload(ctx, name, id, f, stat.Size(), storage.UploadOptions{
		ContentType: ContentType(filenameHint),
		Filename:    filenameHint,
	})
	if err != nil {
		return "", transferError(OpUpload, bucket, id, err)
	}

	log.Info("asset uploaded", "bucket", bucket, "asset_id", id, "filename", filenameHint, "size", stat.Size(), "duration_ms", time.Since(start).Milliseconds())
	return id, nil
}

// ContentType guesses a MIME type from the filename extension.
func ContentType(filename string) string {
	if ct := mime.TypeByExtension(ExtensionHint(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func transferError(op Op, bucket Bucket, id string, err error) *TransferError {
	return &TransferError{
		Op:      op,
		Bucket:  bucket,
		AssetID: id,
		Status:  storage.StatusCode(err),
		Message: err.Error(),
		Err:     err,
	}
}

func unknownBucket(op Op, bucket Bucket, id string) *TransferError {
	return &TransferError{
		Op:      op,
		Bucket:  bucket,
		AssetID: id,
		Message: "bucket not configured",
	}
}

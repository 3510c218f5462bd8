package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/assets"
	"github.com/abdul-hamid-achik/mediaswap/internal/jobs"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor"
	"github.com/abdul-hamid-achik/mediaswap/internal/storage"
)

// recordingAssets wraps a real Adapter, counting calls and injecting failures.
type recordingAssets struct {
	*assets.Adapter

	mu            sync.Mutex
	metadataCalls int
	downloadCalls int
	uploadCalls   int

	metadataErr error
	downloadErr error
	uploadErr   error
	// downloadPanic makes the download of the named bucket panic.
	downloadPanic assets.Bucket
	// uploadErrAfter fails uploads after this many successes when uploadErr is set.
	uploadErrAfter int
}

func (a *recordingAssets) GetMetadata(ctx context.Context, bucket assets.Bucket, id string) (*assets.Metadata, error) {
	a.mu.Lock()
	a.metadataCalls++
	err := a.metadataErr
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return a.Adapter.GetMetadata(ctx, bucket, id)
}

func (a *recordingAssets) DownloadToFile(ctx context.Context, bucket assets.Bucket, id, path string) (int64, error) {
	a.mu.Lock()
	a.downloadCalls++
	err := a.downloadErr
	panicOn := a.downloadPanic
	a.mu.Unlock()
	if panicOn != "" && panicOn == bucket {
		panic("storage client crashed")
	}
	if err != nil {
		return 0, err
	}
	return a.Adapter.DownloadToFile(ctx, bucket, id, path)
}

func (a *recordingAssets) Upload(ctx context.Context, bucket assets.Bucket, path, filenameHint string) (string, error) {
	a.mu.Lock()
	a.uploadCalls++
	fail := a.uploadErr != nil && a.uploadCalls > a.uploadErrAfter
	err := a.uploadErr
	a.mu.Unlock()
	if fail {
		return "", err
	}
	return a.Adapter.Upload(ctx, bucket, path, filenameHint)
}

func (a *recordingAssets) calls() (metadata, download, upload int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metadataCalls, a.downloadCalls, a.uploadCalls
}

// flakyJobs wraps a MemoryStore and injects failures.
type flakyJobs struct {
	*jobs.MemoryStore
	getErr        error
	processingErr error
	completeErr   error
	failErr       error
}

func (s *flakyJobs) Get(ctx context.Context, id string) (*jobs.Job, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryStore.Get(ctx, id)
}

func (s *flakyJobs) MarkProcessing(ctx context.Context, id string) error {
	if s.processingErr != nil {
		return s.processingErr
	}
	return s.MemoryStore.MarkProcessing(ctx, id)
}

func (s *flakyJobs) Complete(ctx context.Context, id, resultID, previewID string) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	return s.MemoryStore.Complete(ctx, id, resultID, previewID)
}

func (s *flakyJobs) Fail(ctx context.Context, id, message string) error {
	if s.failErr != nil {
		return s.failErr
	}
	return s.MemoryStore.Fail(ctx, id, message)
}

// fakeTransformer runs fn, or writes a fixed artifact to the output path.
type fakeTransformer struct {
	mu       sync.Mutex
	requests []processor.Request
	fn       func(ctx context.Context, req *processor.Request) (*processor.Result, error)
}

func (f *fakeTransformer) Name() string { return "fake" }

func (f *fakeTransformer) Transform(ctx context.Context, req *processor.Request) (*processor.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, req)
	}
	return writeOutput(req, "swapped")
}

func (f *fakeTransformer) lastRequest() processor.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeOutput(req *processor.Request, content string) (*processor.Result, error) {
	if err := os.WriteFile(req.OutputPath, []byte(content), 0o644); err != nil {
		return nil, err
	}
	return &processor.Result{OutputPath: req.OutputPath, Size: int64(len(content))}, nil
}

type fakePreviewer struct {
	ok    bool
	calls int
}

func (f *fakePreviewer) Generate(ctx context.Context, videoPath string) (string, bool) {
	f.calls++
	if !f.ok {
		return "", false
	}
	path := videoPath + ".gif"
	if err := os.WriteFile(path, []byte("GIF89a"), 0o644); err != nil {
		return "", false
	}
	return path, true
}

type recordingObserver struct {
	mu       sync.Mutex
	stages   []string
	outcomes []string
	previews []bool
	cleaned  int
}

func (o *recordingObserver) JobStarted(string) {}

func (o *recordingObserver) StageCompleted(_ string, stage string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func (o *recordingObserver) JobFinished(_ string, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) PreviewGenerated(_ string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.previews = append(o.previews, ok)
}

func (o *recordingObserver) StagingCleaned(_ string, removed, _, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cleaned += removed
}

// statOnlyStorage serves metadata but fails every download.
type statOnlyStorage struct {
	*storage.MemoryStorage
}

func (s *statOnlyStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("download %s/%s: %w", bucket, key, storage.ErrAccessDenied)
}

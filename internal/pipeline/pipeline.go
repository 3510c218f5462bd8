// Package pipeline drives one job from its stored record to a terminal status.
//
// A run reads the job once, writes processing at most once and exactly one
// terminal status once the record is known to exist. Every staged file the run
// creates is removed before Run returns, including when a collaborator panics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/mediaswap/internal/apperror"
	"github.com/abdul-hamid-achik/mediaswap/internal/assets"
	"github.com/abdul-hamid-achik/mediaswap/internal/jobs"
	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor/video"
	"github.com/abdul-hamid-achik/mediaswap/internal/staging"
	"github.com/abdul-hamid-achik/mediaswap/internal/tracing"
	"golang.org/x/sync/errgroup"
)

const (
	StageFetch     = "fetch"
	StageMetadata  = "metadata"
	StageDownload  = "download"
	StageTransform = "transform"
	StagePreview   = "preview"
	StageUpload    = "upload"
	StageFinalize  = "finalize"
)

const maxErrorMessage = 4000

// AssetTransfer is the subset of assets.Adapter the pipeline uses.
type AssetTransfer interface {
	GetMetadata(ctx context.Context, bucket assets.Bucket, id string) (*assets.Metadata, error)
	DownloadToFile(ctx context.Context, bucket assets.Bucket, id, path string) (int64, error)
	Upload(ctx context.Context, bucket assets.Bucket, path, filenameHint string) (string, error)
}

type Previewer interface {
	Generate(ctx context.Context, videoPath string) (string, bool)
}

// Observer receives run lifecycle events, typically to record metrics.
type Observer interface {
	JobStarted(jobID string)
	StageCompleted(jobID, stage string, duration time.Duration)
	JobFinished(jobID, outcome string, duration time.Duration)
	PreviewGenerated(jobID string, ok bool)
	StagingCleaned(jobID string, removed, missing, failed int)
}

type Outcome struct {
	JobID          string
	ResultAssetID  string
	PreviewAssetID string
}

type Config struct {
	Jobs        jobs.Store
	Assets      AssetTransfer
	Transformer processor.Transformer
	Staging     *staging.Area
	// Previewer is optional; nil disables previews.
	Previewer Previewer
	Observer  Observer
	// EngineExtra is passed to every Transform call.
	EngineExtra map[string]string
}

type Pipeline struct {
	jobs        jobs.Store
	assets      AssetTransfer
	transformer processor.Transformer
	staging     *staging.Area
	previewer   Previewer
	observer    Observer
	extra       map[string]string
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Jobs == nil || cfg.Assets == nil || cfg.Transformer == nil || cfg.Staging == nil {
		return nil, errors.New("pipeline: jobs, assets, transformer and staging are required")
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Pipeline{
		jobs:        cfg.Jobs,
		assets:      cfg.Assets,
		transformer: cfg.Transformer,
		staging:     cfg.Staging,
		previewer:   cfg.Previewer,
		observer:    observer,
		extra:       cfg.EngineExtra,
	}, nil
}

// run carries the state of one invocation.
type run struct {
	jobID     string
	staged    *staging.Run
	confirmed bool

	job         *jobs.Job
	sourceMeta  *assets.Metadata
	targetMeta  *assets.Metadata
	sourcePath  string
	targetPath  string
	outputPath  string
	previewPath string
	outcome     Outcome
}

// Run executes the job. Failures are returned as *apperror.Error.
func (p *Pipeline) Run(ctx context.Context, jobID string) (outcome *Outcome, err error) {
	ctx = logger.WithJobID(ctx, jobID)
	log := logger.FromContext(ctx)

	ctx, span := tracing.StartPipelineSpan(ctx, jobID, p.transformer.Name())
	start := time.Now()
	p.observer.JobStarted(jobID)
	log.Info("pipeline started", "engine", p.transformer.Name())

	r := &run{jobID: jobID, staged: p.staging.Begin(jobID)}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("pipeline panicked", "panic", rec, "stack", string(debug.Stack()))
			appErr := apperror.Wrap(fmt.Errorf("panic: %v", rec), apperror.ErrInternal)
			if r.confirmed {
				p.markFailed(ctx, jobID, appErr)
			}
			outcome, err = nil, appErr
		}

		stats := r.staged.Cleanup(context.WithoutCancel(ctx))
		p.observer.StagingCleaned(jobID, stats.Removed, stats.Missing, stats.Failed)

		result := "success"
		if err != nil {
			result = apperror.Code(err)
		}
		duration := time.Since(start)
		p.observer.JobFinished(jobID, result, duration)
		tracing.EndSpan(span, err)

		switch {
		case apperror.Is(err, apperror.ErrDependency):
			log.Error("pipeline dependency failed", "code", result, "duration_ms", duration.Milliseconds())
		case err != nil:
			log.Warn("pipeline finished with error", "code", result, "duration_ms", duration.Milliseconds())
		default:
			log.Info("pipeline completed", "result_asset_id", outcome.ResultAssetID, "preview_asset_id", outcome.PreviewAssetID, "duration_ms", duration.Milliseconds())
		}
	}()

	if appErr := p.execute(ctx, r); appErr != nil {
		if r.confirmed {
			p.markFailed(ctx, jobID, appErr)
		}
		return nil, appErr
	}

	out := r.outcome
	return &out, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run) *apperror.Error {
	steps := []struct {
		stage string
		fn    func(context.Context, *run) *apperror.Error
	}{
		{StageFetch, p.fetch},
		{StageMetadata, p.resolveMetadata},
		{StageDownload, p.download},
		{StageTransform, p.transform},
		{StagePreview, p.preview},
		{StageUpload, p.upload},
		{StageFinalize, p.finalize},
	}

	for _, step := range steps {
		if err := p.stage(ctx, r, step.stage, step.fn); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) stage(ctx context.Context, r *run, name string, fn func(context.Context, *run) *apperror.Error) *apperror.Error {
	ctx, span := tracing.StartStageSpan(ctx, name)
	start := time.Now()

	err := fn(ctx, r)

	duration := time.Since(start)
	p.observer.StageCompleted(r.jobID, name, duration)
	logger.FromContext(ctx).Debug("stage finished", "stage", name, "duration_ms", duration.Milliseconds())
	if err != nil {
		tracing.EndSpan(span, err)
		return err
	}
	tracing.EndSpan(span, nil)
	return nil
}

func (p *Pipeline) fetch(ctx context.Context, r *run) *apperror.Error {
	job, err := p.jobs.Get(ctx, r.jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return apperror.Wrap(err, apperror.ErrJobNotFound)
		}
		return dependencyError(err, apperror.ErrJobFetchFailed)
	}

	r.job = job
	r.confirmed = true

	if job.SourceAssetID == "" || job.TargetAssetID == "" {
		return apperror.Wrap(fmt.Errorf("job %s is missing asset references", r.jobID), apperror.ErrMissingAssets)
	}
	return nil
}

func (p *Pipeline) resolveMetadata(ctx context.Context, r *run) *apperror.Error {
	var err error
	r.sourceMeta, err = p.assets.GetMetadata(ctx, assets.BucketSource, r.job.SourceAssetID)
	if err != nil {
		return dependencyError(err, apperror.ErrMetadataFailed)
	}
	r.targetMeta, err = p.assets.GetMetadata(ctx, assets.BucketTarget, r.job.TargetAssetID)
	if err != nil {
		return dependencyError(err, apperror.ErrMetadataFailed)
	}

	if err := p.jobs.MarkProcessing(ctx, r.jobID); err != nil {
		logger.FromContext(ctx).Warn("failed to mark job processing", "error", err)
	}
	return nil
}

func (p *Pipeline) download(ctx context.Context, r *run) *apperror.Error {
	var err error
	if r.sourcePath, err = r.staged.Path(staging.KindSource, r.sourceMeta.Extension()); err != nil {
		return apperror.Wrap(err, apperror.ErrStagingFailed)
	}
	if r.targetPath, err = r.staged.Path(staging.KindTarget, r.targetMeta.Extension()); err != nil {
		return apperror.Wrap(err, apperror.ErrStagingFailed)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.downloadOne(gctx, assets.BucketSource, r.job.SourceAssetID, r.sourcePath)
	})
	g.Go(func() error {
		return p.downloadOne(gctx, assets.BucketTarget, r.job.TargetAssetID, r.targetPath)
	})

	if err := g.Wait(); err != nil {
		var panicErr *downloadPanic
		if errors.As(err, &panicErr) {
			return apperror.Wrap(err, apperror.ErrInternal)
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return apperror.WithDetails(apperror.Wrap(err, apperror.ErrStagingFailed), err.Error())
		}
		return dependencyError(err, apperror.ErrDownloadFailed)
	}
	return nil
}

// downloadOne runs on an errgroup goroutine, out of reach of Run's recover.
func (p *Pipeline) downloadOne(ctx context.Context, bucket assets.Bucket, id, path string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.FromContext(ctx).Error("download panicked", "bucket", string(bucket), "panic", rec, "stack", string(debug.Stack()))
			err = &downloadPanic{value: rec}
		}
	}()
	_, err = p.assets.DownloadToFile(ctx, bucket, id, path)
	return err
}

type downloadPanic struct {
	value any
}

func (e *downloadPanic) Error() string {
	return fmt.Sprintf("panic during download: %v", e.value)
}

func (p *Pipeline) transform(ctx context.Context, r *run) *apperror.Error {
	var err error
	if r.outputPath, err = r.staged.Path(staging.KindOutput, r.targetMeta.Extension()); err != nil {
		return apperror.Wrap(err, apperror.ErrStagingFailed)
	}

	req := &processor.Request{
		SourcePath: r.sourcePath,
		TargetPath: r.targetPath,
		OutputPath: r.outputPath,
		Extra:      p.extra,
	}

	if _, err := p.transformer.Transform(ctx, req); err != nil {
		details := processor.Diagnostic(err)
		if details == "" {
			details = err.Error()
		}
		return apperror.WithDetails(apperror.Wrap(err, apperror.ErrTransformation), details)
	}

	// The output file is the authoritative success signal, whatever engine ran.
	if _, err := processor.VerifyOutput(r.outputPath); err != nil {
		return apperror.WithDetails(apperror.Wrap(err, apperror.ErrTransformation), "Output file not created.")
	}
	return nil
}

func (p *Pipeline) preview(ctx context.Context, r *run) *apperror.Error {
	if p.previewer == nil || !video.IsVideo(r.outputPath) {
		return nil
	}

	expected := video.PreviewPath(r.outputPath)
	r.staged.Register(expected)

	path, ok := p.previewer.Generate(ctx, r.outputPath)
	if ok && path != expected {
		r.staged.Register(path)
	}
	p.observer.PreviewGenerated(r.jobID, ok)
	if ok {
		r.previewPath = path
	}
	return nil
}

func (p *Pipeline) upload(ctx context.Context, r *run) *apperror.Error {
	resultID, err := p.assets.Upload(ctx, assets.BucketResult, r.outputPath, filepath.Base(r.outputPath))
	if err != nil {
		return dependencyError(err, apperror.ErrUploadFailed)
	}
	r.outcome = Outcome{JobID: r.jobID, ResultAssetID: resultID}

	if r.previewPath != "" {
		previewID, err := p.assets.Upload(ctx, assets.BucketResult, r.previewPath, filepath.Base(r.previewPath))
		if err != nil {
			return dependencyError(err, apperror.ErrUploadFailed)
		}
		r.outcome.PreviewAssetID = previewID
	}
	return nil
}

func (p *Pipeline) finalize(ctx context.Context, r *run) *apperror.Error {
	ctx = context.WithoutCancel(ctx)
	if err := p.jobs.Complete(ctx, r.jobID, r.outcome.ResultAssetID, r.outcome.PreviewAssetID); err != nil {
		logger.FromContext(ctx).Error("failed to mark job completed", "error", err)
	}
	return nil
}

func (p *Pipeline) markFailed(ctx context.Context, jobID string, appErr *apperror.Error) {
	msg := appErr.Message
	if appErr.Details != "" {
		msg += ": " + appErr.Details
	}
	msg = failureMessage(msg)

	if err := p.jobs.Fail(context.WithoutCancel(ctx), jobID, msg); err != nil {
		logger.FromContext(ctx).Error("failed to mark job failed", "error", err)
	}
}

// failureMessage makes msg storable in a Postgres TEXT column: valid UTF-8,
// no NUL bytes, at most maxErrorMessage bytes cut on a rune boundary.
func failureMessage(msg string) string {
	msg = strings.ToValidUTF8(msg, "\uFFFD")
	msg = strings.ReplaceAll(msg, "\x00", "")
	if len(msg) <= maxErrorMessage {
		return msg
	}
	cut := maxErrorMessage
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

// dependencyError tags a job store or blob store failure with ErrDependency
// while keeping the stage's own code for the caller.
func dependencyError(err error, appErr *apperror.Error) *apperror.Error {
	return apperror.WithDetails(apperror.Wrap(fmt.Errorf("%w: %w", apperror.ErrDependency, err), appErr), err.Error())
}

type nopObserver struct{}

func (nopObserver) JobStarted(string)                            {}
func (nopObserver) StageCompleted(string, string, time.Duration) {}
func (nopObserver) JobFinished(string, string, time.Duration)    {}
func (nopObserver) PreviewGenerated(string, bool)                {}
func (nopObserver) StagingCleaned(string, int, int, int)         {}

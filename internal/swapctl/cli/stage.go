package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/mediaswap/internal/assets"
	"github.com/abdul-hamid-achik/mediaswap/internal/storage"
	"github.com/abdul-hamid-achik/mediaswap/internal/swapctl/output"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var stageCmd = &cobra.Command{
	Use:   "stage <source> <target>",
	Short: "Upload a source and target and create a pending job",
	Long: `Upload a source image and a target image or video to their buckets and
insert a pending job that references them.

Examples:
  swapctl stage face.jpg clip.mp4
  swapctl stage face.jpg photo.png --submit`,
	Args: cobra.ExactArgs(2),
	RunE: runStage,
}

var stageSubmit bool

func init() {
	stageCmd.Flags().BoolVar(&stageSubmit, "submit", false, "Submit the job to the server after staging")
	stageCmd.Flags().StringVar(&serverURL, "url", envOr("SWAPCTL_URL", "http://localhost:49200"), "Server base URL (with --submit)")
	stageCmd.Flags().StringVar(&serverSecret, "secret", os.Getenv("ENDPOINT_SECRET"), "Endpoint secret (with --submit)")
}

type stagedJob struct {
	JobID         string `json:"jobId"`
	SourceAssetID string `json:"sourceAssetId"`
	TargetAssetID string `json:"targetAssetId"`
}

func runStage(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	sourceID, err := uploadFile(ctx, b.store, cfg.SourceBucket, args[0])
	if err != nil {
		return err
	}
	targetID, err := uploadFile(ctx, b.store, cfg.TargetBucket, args[1])
	if err != nil {
		return err
	}

	job := stagedJob{JobID: uuid.NewString(), SourceAssetID: sourceID, TargetAssetID: targetID}
	if err := b.jobs.Create(ctx, job.JobID, sourceID, targetID); err != nil {
		return err
	}

	if !stageSubmit {
		if printer.IsJSON() {
			return printer.JSON(job)
		}
		printer.Success("job %s staged", job.JobID)
		printer.KeyValue("source", sourceID)
		printer.KeyValue("target", targetID)
		return nil
	}

	printer.Info("job %s staged, submitting", job.JobID)
	return submitJob(cmd, job.JobID)
}

func uploadFile(ctx context.Context, store storage.Storage, bucket, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	name := filepath.Base(path)
	progress := output.NewByteProgress(stat.Size(), name, printer.IsQuiet() || printer.IsJSON())
	defer progress.Finish()

	id := uuid.NewString()
	err = store.Upload(ctx, bucket, id, io.TeeReader(f, progress), stat.Size(), storage.UploadOptions{
		ContentType: assets.ContentType(name),
		Filename:    name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	progress.Finish()
	printer.Indent("%s -> %s/%s (%d bytes)", name, bucket, id, progress.Written())
	return id, nil
}

package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/jobs"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show a job record",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	job, err := b.jobs.Get(ctx, args[0])
	if errors.Is(err, jobs.ErrNotFound) {
		return fmt.Errorf("job %s not found", args[0])
	}
	if err != nil {
		return err
	}

	if printer.IsJSON() {
		return printer.JSON(job)
	}

	printer.Info("job %s", job.ID)
	printer.KeyValue("status", statusColor(job.Status))
	printer.KeyValue("source", job.SourceAssetID)
	printer.KeyValue("target", job.TargetAssetID)
	if job.ResultAssetID != "" {
		printer.KeyValue("result", job.ResultAssetID)
	}
	if job.PreviewAssetID != "" {
		printer.KeyValue("preview", job.PreviewAssetID)
	}
	if job.ErrorMessage != "" {
		printer.KeyValue("error", job.ErrorMessage)
	}
	if !job.UpdatedAt.IsZero() {
		printer.KeyValue("updated", job.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func statusColor(s jobs.Status) string {
	switch s {
	case jobs.StatusCompleted:
		return color.GreenString(string(s))
	case jobs.StatusFailed:
		return color.RedString(string(s))
	case jobs.StatusProcessing:
		return color.YellowString(string(s))
	default:
		return string(s)
	}
}

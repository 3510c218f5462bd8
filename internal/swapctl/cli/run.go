package cli

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/mediaswap/internal/app"
	"github.com/abdul-hamid-achik/mediaswap/internal/apperror"
	"github.com/abdul-hamid-achik/mediaswap/internal/swapctl/output"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Process a job in-process without the server",
	Long: `Run the full pipeline for one job on this host, using the same
configuration as the server. Useful for debugging an engine.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	spinner := output.NewSpinner(fmt.Sprintf("processing job %s", jobID), printer.IsQuiet() || printer.IsJSON() || verbose)
	outcome, err := a.Pipeline.Run(ctx, jobID)
	spinner.Finish()

	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			printer.JobFailed(jobID, appErr.Code, appErr.Message, appErr.Details)
			if printer.IsJSON() {
				_ = printer.JSON(apperror.ErrorResponse{
					Status:  apperror.StatusError,
					JobID:   jobID,
					Code:    appErr.Code,
					Message: appErr.Message,
					Details: appErr.Details,
				})
			}
			return fmt.Errorf("job %s failed", jobID)
		}
		return err
	}

	if printer.IsJSON() {
		return printer.JSON(outcome)
	}
	printer.JobResult(outcome.JobID, outcome.ResultAssetID, outcome.PreviewAssetID)
	return nil
}

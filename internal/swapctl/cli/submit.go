package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/swapctl/client"
	"github.com/abdul-hamid-achik/mediaswap/internal/swapctl/output"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <job-id>",
	Short: "Ask a running server to process a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

var (
	serverURL    string
	serverSecret string
)

func init() {
	submitCmd.Flags().StringVar(&serverURL, "url", envOr("SWAPCTL_URL", "http://localhost:49200"), "Server base URL")
	submitCmd.Flags().StringVar(&serverSecret, "secret", os.Getenv("ENDPOINT_SECRET"), "Endpoint secret")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	return submitJob(cmd, args[0])
}

func submitJob(cmd *cobra.Command, jobID string) error {
	if serverSecret == "" {
		return fmt.Errorf("no endpoint secret: pass --secret or set ENDPOINT_SECRET")
	}

	spinner := output.NewSpinner(fmt.Sprintf("processing job %s", jobID), printer.IsQuiet() || printer.IsJSON())
	res, err := client.New(serverURL, serverSecret).Submit(cmd.Context(), jobID)
	spinner.Finish()

	if err != nil {
		var jobErr *client.JobError
		if errors.As(err, &jobErr) {
			if printer.IsJSON() {
				_ = printer.JSON(jobErr)
			}
			printer.JobFailed(jobID, jobErr.Code, jobErr.Message, jobErr.Details)
			return fmt.Errorf("job %s failed", jobID)
		}
		return fmt.Errorf("submit job %s: %w", jobID, err)
	}

	if printer.IsJSON() {
		return printer.JSON(res)
	}
	printer.JobResult(res.JobID, res.ResultAssetID, res.PreviewAssetID)
	printer.KeyValue("duration", spinner.Duration().Round(time.Millisecond).String())
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package cli

import (
	"os"

	"github.com/abdul-hamid-achik/mediaswap/internal/swapctl/output"
	"github.com/abdul-hamid-achik/mediaswap/internal/version"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	quietMode  bool
	noColor    bool
	verbose    bool
	printer    *output.Printer
)

var rootCmd = &cobra.Command{
	Use:   "swapctl",
	Short: "mediaswap operator CLI",
	Long: `swapctl stages, submits and inspects mediaswap jobs.

Examples:
  swapctl stage face.jpg clip.mp4 --submit   # Upload inputs, create and run a job
  swapctl submit 7f3c...                     # Ask the server to run a job
  swapctl run 7f3c...                        # Run a job in-process
  swapctl status 7f3c...                     # Show a job record
  swapctl engines                            # List engines usable on this host`,
	Version: version.Full(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		printer = output.New(
			output.WithJSON(jsonOutput),
			output.WithQuiet(quietMode),
			output.WithNoColor(noColor),
			output.WithOutput(cmd.OutOrStdout()),
			output.WithErrOutput(cmd.ErrOrStderr()),
		)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON (for scripting)")
	rootCmd.PersistentFlags().BoolVar(&quietMode, "quiet", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored output")

	rootCmd.SetVersionTemplate("swapctl version {{.Version}}\n")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(enginesCmd)
}

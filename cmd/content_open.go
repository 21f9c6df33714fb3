package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var (
	openKeyPath string
	openOutput  string
)

func init() {
	contentOpenCmd.Flags().StringVar(&openKeyPath, "key", "", "wrapped key file (default: <file>.key)")
	contentOpenCmd.Flags().StringVarP(&openOutput, "output", "o", "", "output path (default: <file> without .reel)")
}

// resetContentOpenState resets the content open command's global state for testing.
func resetContentOpenState() {
	openKeyPath = ""
	openOutput = ""
}

var contentOpenCmd = &cobra.Command{
	Use:   "open <file.reel>",
	Short: "Decrypt a file sealed with 'content seal'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting content open command")
		spinner, cleanup := startSpinner("Opening "+args[0]+"...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		result, err := workflows.Open(context.Background(), env, workflows.OpenOptions{
			Path:       args[0],
			KeyPath:    openKeyPath,
			OutputPath: openOutput,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Decrypted to " + ui.Path.Sprint(result.OutputPath)
		return nil
	},
}

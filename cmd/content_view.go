package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var viewOutput string

func init() {
	contentViewCmd.Flags().StringVarP(&viewOutput, "output", "o", "", "where to write the decrypted file (default: the title, never overwriting)")
}

// resetContentViewState resets the content view command's global state for testing.
func resetContentViewState() {
	viewOutput = ""
}

var contentViewCmd = &cobra.Command{
	Use:   "view <content-id>",
	Short: "Download and decrypt content you own or were granted",
	Long: `Downloads the ciphertext, checks the server signature when
backend.signing_key_path is configured, then decrypts with your key. Nothing
is written if any check fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting content view command")
		spinner, cleanup := startSpinner("Downloading content "+args[0]+"...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		result, err := workflows.View(context.Background(), env, workflows.ViewOptions{
			ContentID:  args[0],
			OutputPath: viewOutput,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		msg := ui.Success.Sprint("✓") + " Decrypted " + ui.Highlight.Sprint(result.Title) + " to " + ui.Path.Sprint(result.OutputPath)
		if result.SignatureVerified {
			msg += "\n" + ui.Success.Sprint("✓") + " Server signature verified"
		}
		spinner.FinalMSG = msg
		return nil
	},
}

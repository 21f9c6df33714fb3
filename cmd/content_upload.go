package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var (
	uploadTitle       string
	uploadDescription string
)

func init() {
	contentUploadCmd.Flags().StringVarP(&uploadTitle, "title", "t", "", "title shown to other users (default: file name)")
	contentUploadCmd.Flags().StringVar(&uploadDescription, "description", "", "optional description")
}

// resetContentUploadState resets the content upload command's global state for testing.
func resetContentUploadState() {
	uploadTitle = ""
	uploadDescription = ""
}

var contentUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Encrypt a file and upload it",
	Long: `Encrypts <file> under a fresh content key, wraps the key to your public key
and uploads the ciphertext. The backend never receives the plaintext or an
unwrapped key.

Examples:
  sealreel content upload holiday.mp4
  sealreel content upload holiday.mp4 --title "Summer 2024"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting content upload command")
		spinner, cleanup := startSpinner("Encrypting and uploading "+args[0]+"...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		result, err := workflows.Upload(context.Background(), env, workflows.UploadOptions{
			Path:        args[0],
			Title:       uploadTitle,
			Description: uploadDescription,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Uploaded as content " + ui.Highlight.Sprint(result.ContentID) + " " +
			ui.Muted.Sprintf("%d bytes encrypted", result.EncryptedSize)
		return nil
	},
}

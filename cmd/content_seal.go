package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var contentSealCmd = &cobra.Command{
	Use:   "seal <file>",
	Short: "Encrypt a local file for yourself",
	Long: `Encrypts <file> to <file>.reel and writes its content key, wrapped to your
public key, to <file>.reel.key. Nothing is uploaded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting content seal command")
		spinner, cleanup := startSpinner("Sealing "+args[0]+"...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		result, err := workflows.Seal(context.Background(), env, workflows.SealOptions{Path: args[0]})
		if err != nil {
			return finishWithError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Sealed to " + ui.Path.Sprint(result.SealedPath) + "\n" +
			ui.Info.Sprint("→") + " Wrapped key written to " + ui.Path.Sprint(result.KeyPath)
		return nil
	},
}

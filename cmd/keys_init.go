package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a local identity if none exists",
	Long: `Generates a key pair on this device without contacting the backend. An
existing identity is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys init command")
		spinner, cleanup := startSpinner("Checking identity...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		result, err := workflows.InitKeys(context.Background(), env)
		if err != nil {
			return finishWithError(spinner, err)
		}

		if result.Created {
			spinner.FinalMSG = ui.Success.Sprint("✓") + " Generated identity " + ui.Fingerprint.Sprint(result.Fingerprint) + "\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealreel keys export") + " to back it up"
		} else {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " Identity " + ui.Fingerprint.Sprint(result.Fingerprint) + " already exists"
		}
		return nil
	},
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var grantsRequestCmd = &cobra.Command{
	Use:   "request <content-id>",
	Short: "Ask the owner of an item for access",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting grants request command")
		spinner, cleanup := startSpinner("Requesting access...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		if err := workflows.RequestAccess(context.Background(), env, args[0]); err != nil {
			return finishWithError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Requested access to content " + ui.Highlight.Sprint(args[0]) + "\n" +
			ui.Info.Sprint("→") + " Once approved, run " + ui.Code.Sprint("sealreel content view "+args[0])
		return nil
	},
}

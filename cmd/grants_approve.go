package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var grantsApproveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Grant a requester access to your content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting grants approve command")
		spinner, cleanup := startSpinner("Re-wrapping content key...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		req, err := workflows.Approve(context.Background(), env, args[0])
		if err != nil {
			return finishWithError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Granted " + ui.Highlight.Sprint(req.RequesterName) +
			" access to " + ui.Highlight.Sprint(req.ContentTitle)
		return nil
	},
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var grantsRejectCmd = &cobra.Command{
	Use:   "reject <request-id>",
	Short: "Decline an access request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting grants reject command")
		spinner, cleanup := startSpinner("Rejecting request...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		req, err := workflows.Reject(context.Background(), env, args[0])
		if err != nil {
			return finishWithError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Rejected " + ui.Highlight.Sprint(req.RequesterName) +
			"'s request for " + ui.Highlight.Sprint(req.ContentTitle)
		return nil
	},
}

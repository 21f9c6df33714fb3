package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print your public key and fingerprint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys show command")

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		result, err := workflows.ShowKeys(context.Background(), env)
		if err != nil {
			fmt.Println(formatError(err))
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		fmt.Println("Fingerprint: " + ui.Fingerprint.Sprint(result.Fingerprint))
		fmt.Println()
		fmt.Println(result.PublicPEM)
		return nil
	},
}

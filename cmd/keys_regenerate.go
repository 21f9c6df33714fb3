package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var (
	keysRegenOffline bool
	keysRegenYes     bool
)

func init() {
	keysRegenerateCmd.Flags().BoolVar(&keysRegenOffline, "offline", false, "replace the local keys without publishing")
	keysRegenerateCmd.Flags().BoolVarP(&keysRegenYes, "yes", "y", false, "skip the confirmation prompt")
}

// resetKeysRegenerateState resets the keys regenerate command's global state for testing.
func resetKeysRegenerateState() {
	keysRegenOffline = false
	keysRegenYes = false
}

var keysRegenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Replace your key pair with a new one",
	Long: `Generates a fresh identity and publishes it. Everything wrapped for the old
key, including your own uploads and access granted to you, can no longer be
opened. There is no way to undo this.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys regenerate command")

		if !confirmAction("Regenerating keys makes all existing content unreadable. Continue?", keysRegenYes) {
			fmt.Println(ui.Info.Sprint("ℹ") + " Regeneration cancelled")
			return nil
		}

		spinner, cleanup := startSpinner("Regenerating keys...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		result, err := workflows.Regenerate(context.Background(), env, workflows.RegenerateOptions{Offline: keysRegenOffline})
		if err != nil {
			return finishWithError(spinner, err)
		}

		msg := ui.Success.Sprint("✓") + " New identity " + ui.Fingerprint.Sprint(result.Fingerprint)
		if result.Published {
			msg += "\n" + ui.Success.Sprint("✓") + " Published your public key"
		}
		msg += "\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealreel keys export") + " to back up the new keys"
		spinner.FinalMSG = msg
		return nil
	},
}

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/utils"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var (
	keysImportOffline bool
	keysImportYes     bool
)

func init() {
	keysImportCmd.Flags().BoolVar(&keysImportOffline, "offline", false, "install the keys without contacting the backend")
	keysImportCmd.Flags().BoolVarP(&keysImportYes, "yes", "y", false, "replace existing keys without asking")
}

// resetKeysImportState resets the keys import command's global state for testing.
func resetKeysImportState() {
	keysImportOffline = false
	keysImportYes = false
}

var keysImportCmd = &cobra.Command{
	Use:   "import [backup.xlsx]",
	Short: "Restore your key pair from a backup",
	Long: `Installs the identity from a backup made with 'sealreel keys export'. Reads
from stdin when no file is given. Nothing changes if the backup is malformed.

Examples:
  sealreel keys import sealreel-keys-alice.xlsx
  cat sealreel-keys-alice.xlsx | sealreel keys import`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys import command")

		var data []byte
		var err error
		if len(args) == 1 {
			Logger.Debugf("Reading backup from %s", args[0])
			data, err = os.ReadFile(args[0])
		} else {
			Logger.Debugf("Reading backup from stdin")
			data, err = utils.ReadStdin()
		}
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read backup: %v", err)
		}

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		if existing, err := workflows.ShowKeys(context.Background(), env); err == nil {
			prompt := "Replace identity " + ui.Fingerprint.Sprint(existing.Fingerprint) + "? Content wrapped for it may become unreadable"
			if !confirmAction(prompt, keysImportYes) {
				fmt.Println(ui.Info.Sprint("ℹ") + " Import cancelled. Pass " + ui.Flag.Sprint("--yes") + " to replace without asking")
				return nil
			}
		}

		spinner, cleanup := startSpinner("Importing keys...", verbose)
		defer cleanup()

		result, err := workflows.ImportBackup(context.Background(), env, workflows.ImportBackupOptions{
			Reader:  bytes.NewReader(data),
			Offline: keysImportOffline,
		})
		if err != nil {
			return finishWithError(spinner, err)
		}

		msg := ui.Success.Sprint("✓") + " Imported identity " + ui.Fingerprint.Sprint(result.Fingerprint)
		if result.PreviousFingerprint != "" && result.PreviousFingerprint != result.Fingerprint {
			msg += " " + ui.Muted.Sprint("replaced "+utils.ShortFingerprint(result.PreviousFingerprint))
		}
		if result.Published {
			msg += "\n" + ui.Success.Sprint("✓") + " Published your public key"
		}
		spinner.FinalMSG = msg
		return nil
	},
}

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var keysExportOutput string

func init() {
	keysExportCmd.Flags().StringVarP(&keysExportOutput, "output", "o", "", "output path (default: sealreel-keys-<label>.xlsx)")
}

// resetKeysExportState resets the keys export command's global state for testing.
func resetKeysExportState() {
	keysExportOutput = ""
}

var keysExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your key pair to a spreadsheet backup",
	Long: `Writes both halves of your identity to an .xlsx workbook. Anyone holding the
file can read everything shared with you, so store it offline.

Use -o - to write the workbook to stdout.

Examples:
  sealreel keys export
  sealreel keys export -o ~/safe/sealreel-keys.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys export command")

		toStdout := keysExportOutput == "-"
		// The spinner must stay off stdout when it carries the workbook.
		spinner, cleanup := startSpinner("Exporting keys...", verbose || toStdout)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		opts := workflows.ExportBackupOptions{OutputPath: keysExportOutput}
		if toStdout {
			opts = workflows.ExportBackupOptions{Writer: os.Stdout}
		}

		result, err := workflows.ExportBackup(context.Background(), env, opts)
		if err != nil {
			return finishWithError(spinner, err)
		}
		if toStdout {
			return nil
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Exported identity " + ui.Fingerprint.Sprint(result.Fingerprint) +
			" to " + ui.Path.Sprint(result.Path) + "\n" +
			ui.Warning.Sprint("⚠") + " This file contains your private key. Keep it offline"
		return nil
	},
}

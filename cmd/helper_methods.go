package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/PolarWolf314/sealreel/internal/configs"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/utils"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

// startSpinner creates and starts a spinner with the given message when not
// in verbose or debug mode. The returned cleanup must be deferred.
//
// spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		// Printed to stdout so tests can capture it.
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// loadConfig reads the user config from --config or the default location.
func loadConfig() (*configs.UserConfig, error) {
	path := configPath
	if path == "" {
		path = configs.DefaultConfigPath()
	}
	Logger.Debugf("Loading user config from %s", path)
	return configs.LoadUserConfig(path)
}

// openEnv loads the config and opens the key store and backend client.
// The caller must Close the returned Env.
func openEnv() (*workflows.Env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return workflows.NewEnv(cfg, Logger)
}

// confirmAction asks before a destructive step. Without a terminal the
// answer is no unless --yes was given.
func confirmAction(prompt string, assumeYes bool) bool {
	if assumeYes {
		return true
	}
	if !utils.IsTerminal() {
		Logger.Debugf("stdin is not a terminal; declining %q", prompt)
		return false
	}
	return utils.Confirm(os.Stdin, os.Stdout, ui.Warning.Sprint("⚠")+" "+prompt)
}

// formatError renders an expected failure for the user.
func formatError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrIdentityNotFound):
		return ui.Error.Sprint("✗") + " No identity on this device\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealreel login") + " or " + ui.Code.Sprint("sealreel keys import <backup.xlsx>")

	case errors.Is(err, kerrors.ErrBackupNotExported):
		return ui.Error.Sprint("✗") + " Your keys have not been backed up yet\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealreel keys export") + " first and store the file somewhere safe"

	case errors.Is(err, kerrors.ErrInvalidTransition):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealreel status") + " to see where your identity stands"

	case errors.Is(err, kerrors.ErrMalformedBackup), errors.Is(err, kerrors.ErrImportValidation):
		return ui.Error.Sprint("✗") + " The backup could not be used: " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Your existing keys were not changed"

	case errors.Is(err, kerrors.ErrDecryptionAuth):
		return ui.Error.Sprint("✗") + " Decryption failed: wrong key or corrupted data\n" +
			ui.Info.Sprint("→") + " Nothing was written"

	case errors.Is(err, kerrors.ErrSignatureInvalid):
		return ui.Error.Sprint("✗") + " The server signature did not verify\n" +
			ui.Info.Sprint("→") + " The download may have been altered. Nothing was written"

	case errors.Is(err, kerrors.ErrMissingRecipientKey):
		return ui.Error.Sprint("✗") + " The requester has not published a public key yet\n" +
			ui.Info.Sprint("→") + " Ask them to run " + ui.Code.Sprint("sealreel login")

	case errors.Is(err, kerrors.ErrRequestFinalized):
		return ui.Warning.Sprint("⚠") + " " + err.Error()

	case errors.Is(err, kerrors.ErrUnauthorized):
		return ui.Error.Sprint("✗") + " The backend rejected your credentials\n" +
			ui.Info.Sprint("→") + " Set " + ui.Code.Sprint(configs.TokenEnv) + " or " + ui.Code.Sprint("backend.token") + " in your config"

	case errors.Is(err, kerrors.ErrNotFound):
		return ui.Error.Sprint("✗") + " " + err.Error()

	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return ui.Error.Sprint("✗") + " " + err.Error()

	case errors.Is(err, os.ErrExist):
		return ui.Error.Sprint("✗") + " Refusing to overwrite an existing file\n" +
			ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("-o") + " with a new path"

	default:
		return ui.Error.Sprint("✗") + " " + err.Error()
	}
}

// isUnexpectedError returns true if err should cause a non-zero exit after
// its message is shown.
func isUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrIdentityNotFound),
		errors.Is(err, kerrors.ErrBackupNotExported),
		errors.Is(err, kerrors.ErrInvalidTransition),
		errors.Is(err, kerrors.ErrRequestFinalized),
		errors.Is(err, kerrors.ErrInvalidDateFormat):
		return false
	default:
		return true
	}
}

// finishWithError sets the spinner's final message for err and returns the
// error the command should exit with.
func finishWithError(s *spinner.Spinner, err error) error {
	Logger.Debugf("Command failed: %v", err)
	s.FinalMSG = formatError(err)
	if isUnexpectedError(err) {
		return err
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/recovery"
	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and set up or recover your identity",
	Long: `Fetches your account from the backend and works out what this device needs.

  first login              a key pair is generated and its public half
                           published; export a backup, then run
                           'sealreel onboard confirm'
  returning, keys present  the public key is re-published if the backend
                           holds a different one
  returning, no keys       nothing is generated; import your backup with
                           'sealreel keys import <backup.xlsx>'

The session token comes from backend.token in the config file or the
SEALREEL_TOKEN environment variable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting login command")
		spinner, cleanup := startSpinner("Signing in...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		result, err := workflows.Login(context.Background(), env)
		if err != nil {
			return finishWithError(spinner, err)
		}
		Logger.Debugf("Login resolved to state %s", result.State)

		spinner.FinalMSG = formatLoginResult(result)
		return nil
	},
}

func formatLoginResult(result *workflows.LoginResult) string {
	who := ui.Highlight.Sprint(result.Account.Name)
	switch result.State {
	case recovery.StateOnboardingRequired:
		msg := ui.Success.Sprint("✓") + " Welcome " + who + "\n"
		if result.Generated {
			msg += ui.Success.Sprint("✓") + " Generated identity " + ui.Fingerprint.Sprint(result.Fingerprint) + "\n"
		}
		if result.Published {
			msg += ui.Success.Sprint("✓") + " Published your public key\n"
		}
		return msg + "\n" +
			ui.Warning.Sprint("⚠") + " Your private key exists only on this device.\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealreel keys export") + " and keep the file safe, then\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealreel onboard confirm")

	case recovery.StateRestoreRequired:
		return ui.Warning.Sprint("⚠") + " Signed in as " + who + " but this device has no keys\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealreel keys import <backup.xlsx>") + " to restore them\n" +
			ui.Info.Sprint("→") + " Or " + ui.Code.Sprint("sealreel keys regenerate") + " " + ui.Muted.Sprint("existing content will be lost")

	default:
		msg := ui.Success.Sprint("✓") + " Signed in as " + who + " " + ui.Fingerprint.Sprint(result.Fingerprint)
		if result.Published {
			msg += "\n" + ui.Info.Sprint("→") + " Re-published your public key to the backend"
		}
		return msg
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of your identity",
	Long: `Shows whether this device holds an identity, where it is stored and, unless
--offline is given, whether the backend has the same public key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")
		offline, _ := cmd.Flags().GetBool("offline")

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		result, err := workflows.Status(context.Background(), env, workflows.StatusOptions{Offline: offline})
		if err != nil {
			fmt.Println(formatError(err))
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		fmt.Printf("  %-12s %s %s\n", "Key store:", result.Store.Backend, ui.Path.Sprint(result.Store.Path))
		if result.HasIdentity {
			fmt.Printf("  %-12s %s\n", "Identity:", ui.Fingerprint.Sprint(result.Fingerprint))
		} else {
			fmt.Printf("  %-12s %s\n", "Identity:", ui.Warning.Sprint("none"))
		}

		if result.Account == nil {
			return nil
		}
		fmt.Printf("  %-12s %s <%s>\n", "Account:", result.Account.Name, result.Account.Email)
		fmt.Printf("  %-12s %s\n", "State:", ui.State(string(result.State)))
		switch {
		case result.RemoteFingerprint == "":
			fmt.Printf("  %-12s %s\n", "Published:", ui.Warning.Sprint("no public key"))
		case result.InSync:
			fmt.Printf("  %-12s %s\n", "Published:", ui.Success.Sprint("in sync"))
		default:
			fmt.Printf("  %-12s %s %s\n", "Published:", ui.Fingerprint.Sprint(result.RemoteFingerprint), ui.Error.Sprint("differs"))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("offline", false, "skip the backend lookup")
}

// OnboardCmd groups the first-login onboarding steps.
var OnboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Finish first-login setup",
}

var onboardConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm that your key backup is stored safely",
	Long: `Tells the backend that first-login setup is complete. This is refused until
a backup of the current identity has been exported with 'sealreel keys export'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting onboard confirm command")
		spinner, cleanup := startSpinner("Confirming onboarding...", verbose)
		defer cleanup()

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		if err := workflows.ConfirmOnboarding(context.Background(), env); err != nil {
			return finishWithError(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Onboarding complete. Your account is ready"
		return nil
	},
}

func init() {
	OnboardCmd.AddCommand(onboardConfirmCmd)
}

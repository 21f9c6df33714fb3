package cmd

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/PolarWolf314/sealreel/internal/configs"
	logger "github.com/PolarWolf314/sealreel/internal/logging"
	"github.com/PolarWolf314/sealreel/internal/ui"
)

var (
	verbose    bool
	debug      bool
	configPath string
	Logger     logger.Logger

	RootCmd = &cobra.Command{
		Use:   "sealreel",
		Short: "sealreel - end-to-end encrypted video sharing",
		Long: `sealreel encrypts media on your machine before it is uploaded and
shares it with other users without the server ever seeing a key.

Every item is sealed under its own content key. That key is wrapped to your
public key, and re-wrapped to a viewer's public key when you approve their
access request. Your private key never leaves this device except inside a
backup you export.

Get started:
  sealreel login                 # create or recover your identity
  sealreel keys export           # save a backup of your keys
  sealreel onboard confirm       # finish first-login setup`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			banner := figure.NewColorFigure("sealreel", "standard", "cyan", true)
			banner.Print()
			fmt.Println()
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealreel --help") + " to see available commands")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: "+configs.DefaultConfigPath()+")")

	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(KeysCmd)
	RootCmd.AddCommand(OnboardCmd)
	RootCmd.AddCommand(ContentCmd)
	RootCmd.AddCommand(GrantsCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(ConfigCmd)
}

// Helper functions for testing

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	configPath = ""
	resetKeysCommandState()
	resetContentCommandState()
	resetGrantsCommandState()
	resetLogCommandState()
	resetConfigCommandState()
	resetCobraFlagState(RootCmd)
}

// resetCobraFlagState restores every flag in the tree to its default so one
// test's flags do not leak into the next.
func resetCobraFlagState(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		_ = flag.Value.Set(flag.DefValue)
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetCobraFlagState(child)
	}
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}

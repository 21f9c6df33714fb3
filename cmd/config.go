package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/configs"
	"github.com/PolarWolf314/sealreel/internal/keystore"
	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/utils"
)

var (
	configInitEmail      string
	configInitLabel      string
	configInitURL        string
	configInitStore      string
	configInitSigningKey string
	configShowJSON       bool
)

// ConfigCmd manages the user config file.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sealreel configuration",
	Long: `The config file holds your account label, where keys are stored and how to
reach the backend. The session token may also be supplied with the
SEALREEL_TOKEN environment variable.`,
}

func init() {
	configInitCmd.Flags().StringVarP(&configInitEmail, "email", "e", "", "your email address")
	configInitCmd.Flags().StringVarP(&configInitLabel, "label", "l", "", "label used in backups and the audit log (defaults to your username)")
	configInitCmd.Flags().StringVar(&configInitURL, "url", "", "backend URL")
	configInitCmd.Flags().StringVar(&configInitStore, "store", "", "key store backend: file, sqlite, badger or memory")
	configInitCmd.Flags().StringVar(&configInitSigningKey, "signing-key", "", "path to the backend's content signing public key")

	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")

	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}

// resetConfigCommandState resets the config commands' global state for testing.
func resetConfigCommandState() {
	configInitEmail = ""
	configInitLabel = ""
	configInitURL = ""
	configInitStore = ""
	configInitSigningKey = ""
	configShowJSON = false
}

// promptForInput prompts the user for input with an optional default value.
func promptForInput(reader *bufio.Reader, prompt, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Printf("%s: ", prompt)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update your config file",
	Long: `Writes the user config file. Values not given as flags are prompted for when
running in a terminal, and otherwise keep their current or default value.

Examples:
  sealreel config init
  sealreel config init --email alice@example.com --url https://api.example.com
  sealreel config init --store sqlite`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")

		cfg, err := loadConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load user config: %v", err)
		}

		email, url := configInitEmail, configInitURL
		if utils.IsTerminal() {
			reader := bufio.NewReader(os.Stdin)
			if email == "" {
				if email, err = promptForInput(reader, "Email", cfg.Account.Email); err != nil {
					return Logger.ErrorfAndReturn("%v", err)
				}
			}
			if url == "" {
				if url, err = promptForInput(reader, "Backend URL", cfg.Backend.URL); err != nil {
					return Logger.ErrorfAndReturn("%v", err)
				}
			}
		}

		if email != "" {
			if !utils.IsValidEmail(email) {
				fmt.Println(ui.Error.Sprint("✗") + " Invalid email address: " + ui.Highlight.Sprint(email))
				return nil
			}
			cfg.Account.Email = email
		}
		if url != "" {
			cfg.Backend.URL = url
		}
		if configInitLabel != "" {
			cfg.Account.Label = utils.SanitizeLabel(configInitLabel)
		}
		if configInitSigningKey != "" {
			cfg.Backend.SigningKeyPath = configInitSigningKey
		}
		if configInitStore != "" {
			switch configInitStore {
			case keystore.BackendFile, keystore.BackendSQLite, keystore.BackendBadger, keystore.BackendMemory:
				cfg.Store.Backend = configInitStore
			default:
				fmt.Println(ui.Error.Sprint("✗") + " Unknown key store " + ui.Highlight.Sprint(configInitStore) +
					" " + ui.Muted.Sprint("file, sqlite, badger or memory"))
				return nil
			}
		}

		path := configPath
		if path == "" {
			path = configs.DefaultConfigPath()
		}
		Logger.Debugf("Saving user config to %s", path)
		if err := configs.SaveUserConfig(path, cfg); err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Saved configuration to " + ui.Path.Sprint(path))
		if cfg.Backend.Token == "" {
			fmt.Println(ui.Info.Sprint("→") + " Set " + ui.Code.Sprint(configs.TokenEnv) + " to your session token before running " + ui.Code.Sprint("sealreel login"))
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		cfg, err := loadConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load user config: %v", err)
		}

		// The token is a credential; never print it.
		token := "(not set)"
		if cfg.Backend.Token != "" {
			token = "(set)"
			cfg.Backend.Token = "********"
		}

		if configShowJSON {
			output, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("Failed to marshal config to JSON: %v", err)
			}
			fmt.Println(string(output))
			return nil
		}

		store := cfg.StoreOptions()
		fmt.Printf("  %-14s %s\n", "Label:", ui.Highlight.Sprint(cfg.Account.Label))
		if cfg.Account.Email != "" {
			fmt.Printf("  %-14s %s\n", "Email:", cfg.Account.Email)
		}
		fmt.Printf("  %-14s %s %s\n", "Key store:", store.Backend, ui.Path.Sprint(store.Path))
		fmt.Printf("  %-14s %s\n", "Backend:", cfg.Backend.URL)
		fmt.Printf("  %-14s %s\n", "Token:", token)
		if cfg.Backend.Timeout != "" {
			fmt.Printf("  %-14s %s\n", "Timeout:", cfg.Backend.Timeout)
		}
		if cfg.Backend.SigningKeyPath != "" {
			fmt.Printf("  %-14s %s\n", "Signing key:", ui.Path.Sprint(cfg.Backend.SigningKeyPath))
		}
		return nil
	},
}

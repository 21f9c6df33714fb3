package configs

import (
	"log"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/sealreel/internal/utils"
)

type UserSettings struct {
	ConfigDir string
	DataDir   string
	Username  string
}

var UserSealreelSettings *UserSettings

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("error getting home directory: %s", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")

	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	username, err := utils.GetUsername()
	if err != nil {
		username = "user"
	}

	UserSealreelSettings = &UserSettings{
		ConfigDir: filepath.Join(configDir, "sealreel"),
		DataDir:   filepath.Join(dataDir, "sealreel"),
		Username:  username,
	}
}

// DefaultConfigPath is where the user config lives unless --config is given.
func DefaultConfigPath() string {
	return filepath.Join(UserSealreelSettings.ConfigDir, "config.toml")
}

// AuditLogPath is the key lifecycle log.
func AuditLogPath() string {
	return filepath.Join(UserSealreelSettings.DataDir, "audit.jsonl")
}

package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PolarWolf314/sealreel/internal/backend"
	"github.com/PolarWolf314/sealreel/internal/keystore"
	"github.com/PolarWolf314/sealreel/internal/utils"
)

// TokenEnv overrides backend.token when set.
const TokenEnv = "SEALREEL_TOKEN"

type UserConfig struct {
	Account Account `toml:"account"`
	Store   Store   `toml:"store"`
	Backend Backend `toml:"backend"`
}

type Account struct {
	Label string `toml:"label"`
	Email string `toml:"email"`
}

type Store struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type Backend struct {
	URL            string `toml:"url"`
	Token          string `toml:"token"`
	Timeout        string `toml:"timeout"`
	SigningKeyPath string `toml:"signing_key_path"`
}

// DefaultUserConfig returns the config used when no file exists.
func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Account: Account{Label: utils.SanitizeLabel(UserSealreelSettings.Username)},
		Store:   Store{Backend: keystore.BackendFile},
		Backend: Backend{URL: "http://localhost:8000", Timeout: "30s"},
	}
}

// LoadUserConfig loads the config at path, or DefaultConfigPath when path
// is empty. A missing file yields the defaults. The token environment
// variable is applied after loading.
func LoadUserConfig(path string) (*UserConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	config := DefaultUserConfig()

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(path, config); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat user config: %w", err)
	}

	if token := os.Getenv(TokenEnv); token != "" {
		config.Backend.Token = token
	}
	if config.Account.Label == "" {
		config.Account.Label = utils.SanitizeLabel(UserSealreelSettings.Username)
	}
	return config, nil
}

// SaveUserConfig writes config to path, or DefaultConfigPath when path is
// empty.
func SaveUserConfig(path string, config *UserConfig) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	return nil
}

// StoreOptions resolves the key store backend and its default location
// under the data directory.
func (c *UserConfig) StoreOptions() keystore.Options {
	backendName := strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if backendName == "" {
		backendName = keystore.BackendFile
	}

	path := c.Store.Path
	if path == "" {
		switch backendName {
		case keystore.BackendSQLite:
			path = filepath.Join(UserSealreelSettings.DataDir, "keys.db")
		case keystore.BackendBadger:
			path = filepath.Join(UserSealreelSettings.DataDir, "keys.badger")
		default:
			path = filepath.Join(UserSealreelSettings.DataDir, "keys")
		}
	}
	return keystore.Options{Backend: backendName, Path: path}
}

// BackendConfig returns the HTTP client settings.
func (c *UserConfig) BackendConfig() (backend.Config, error) {
	cfg := backend.Config{URL: c.Backend.URL, Token: c.Backend.Token}
	if c.Backend.Timeout != "" {
		timeout, err := time.ParseDuration(c.Backend.Timeout)
		if err != nil {
			return backend.Config{}, fmt.Errorf("invalid backend timeout %q: %w", c.Backend.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	return cfg.WithDefaults(), nil
}

// SigningKey reads the backend's content signing public key, or returns ""
// when none is configured.
func (c *UserConfig) SigningKey() (string, error) {
	if c.Backend.SigningKeyPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Backend.SigningKeyPath)
	if err != nil {
		return "", fmt.Errorf("failed to read signing key: %w", err)
	}
	return string(data), nil
}

package workflows

import (
	"fmt"

	"github.com/PolarWolf314/sealreel/internal/backend"
	"github.com/PolarWolf314/sealreel/internal/configs"
	"github.com/PolarWolf314/sealreel/internal/keystore"
	logger "github.com/PolarWolf314/sealreel/internal/logging"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// Env carries the collaborators every workflow needs. Build it once per
// command with NewEnv and Close it when done.
type Env struct {
	Config  *configs.UserConfig
	Store   keystore.Store
	Custody *secrets.Custody
	Wrapper *secrets.Wrapper
	Client  *backend.Client
	Logger  logger.Logger
}

// NewEnv opens the configured key store and builds the backend client.
func NewEnv(cfg *configs.UserConfig, log logger.Logger) (*Env, error) {
	opts := cfg.StoreOptions()
	log.Debugf("Opening %s key store at %s", opts.Backend, opts.Path)

	store, err := keystore.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open key store: %w", err)
	}

	backendCfg, err := cfg.BackendConfig()
	if err != nil {
		_ = keystore.Close(store)
		return nil, err
	}
	log.Debugf("Backend at %s (timeout %s)", backendCfg.URL, backendCfg.Timeout)

	return NewEnvWith(cfg, store, backend.NewClient(backendCfg), log), nil
}

// NewEnvWith assembles an Env from an already opened store and client.
func NewEnvWith(cfg *configs.UserConfig, store keystore.Store, client *backend.Client, log logger.Logger) *Env {
	custody := secrets.NewCustody(store)
	return &Env{
		Config:  cfg,
		Store:   store,
		Custody: custody,
		Wrapper: secrets.NewWrapper(custody),
		Client:  client,
		Logger:  log,
	}
}

// Close releases the key store.
func (e *Env) Close() error {
	return keystore.Close(e.Store)
}

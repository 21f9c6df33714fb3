// Package configs manages sealreel's user configuration.
//
// Configuration is stored as TOML at $XDG_CONFIG_HOME/sealreel/config.toml:
//
//	[account]
//	label = "alice"
//	email = "alice@example.com"
//
//	[store]
//	backend = "file"   # file, sqlite, badger or memory
//	path = ""          # defaults under $XDG_DATA_HOME/sealreel
//
//	[backend]
//	url = "http://localhost:8000"
//	token = ""
//	timeout = "30s"
//	signing_key_path = ""
//
// A missing file is not an error; defaults are used. SEALREEL_TOKEN
// overrides backend.token so the session token need not be written to disk.
//
// # Settings
//
// UserSealreelSettings is initialized at startup with the config and data
// directories and the OS username, which is the default backup label.
package configs

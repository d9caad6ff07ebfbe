// Package common provides shared constants, types, and utilities
// used across the tunnel manager.
package common

import "time"

// Application metadata.
const (
	// AppID is the identifier used for notifications and the keyring service.
	AppID = "wg-tunnels"
	// AppName is the display name of the application.
	AppName = "WireGuard Tunnels"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "wg-tunnels"
)

// File names used by the application.
const (
	TunnelsFileName  = "tunnels.yaml"
	DatabaseFileName = "tunnels.db"
	ConfigFileName   = "config.yaml"
	SecretsFileName  = ".secrets"
	LogFileName      = "wg-tunnels.log"
)

// Storage backends.
const (
	StoreBackendYAML   = "yaml"
	StoreBackendSQLite = "sqlite"
)

// Tunnel defaults taken from wg-quick.
const (
	// DefaultMTU is used when a configuration does not set one.
	DefaultMTU = 1420
	// MaxTunnelNameLength is the Linux interface name limit (IFNAMSIZ - 1).
	MaxTunnelNameLength = 15
	// KeyLength is the size in bytes of a Curve25519 key.
	KeyLength = 32
)

// Timeouts.
const (
	// LoadTimeout bounds how long the registry may take to load from storage.
	LoadTimeout = 10 * time.Second
	// NotificationTimeout is how long desktop notifications stay visible.
	NotificationTimeout = 5 * time.Second
)

// Log level names accepted in configuration.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

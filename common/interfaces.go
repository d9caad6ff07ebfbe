// Package common provides shared constants, types, and utilities
// used across the tunnel manager.
package common

// SecretStore defines the interface for private key storage.
// Implementations may use the system keyring, encrypted files, etc.
type SecretStore interface {
	// Store saves the secret for a tunnel.
	Store(tunnelName, secret string) error
	// Get retrieves the secret for a tunnel.
	Get(tunnelName string) (string, error)
	// Delete removes the secret for a tunnel.
	Delete(tunnelName string) error
}

// Notifier defines the interface for sending desktop notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
}

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}

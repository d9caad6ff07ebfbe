// Package common provides shared constants, types, and utilities
// used across the tunnel manager.
package common

import "errors"

// Sentinel errors for tunnel operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Registry errors.
	ErrTunnelsUninitialized = errors.New("tunnels not yet loaded")
	ErrOutOfRange           = errors.New("tunnel position out of range")
	ErrTunnelNotFound       = errors.New("tunnel not found")
	ErrDuplicateName        = errors.New("tunnel name already exists")

	// Configuration file errors.
	ErrInvalidConfig = errors.New("invalid tunnel configuration")
	ErrInvalidName   = errors.New("invalid tunnel name")
	ErrInvalidKey    = errors.New("invalid key")

	// Secret errors.
	ErrSecretNotFound = errors.New("secret not found")
	ErrSecretStorage  = errors.New("failed to store secret")
	ErrEncryption     = errors.New("encryption error")
	ErrDecryption     = errors.New("decryption error")

	// Storage errors.
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrStoreLoad      = errors.New("failed to load tunnels")
	ErrStoreSave      = errors.New("failed to save tunnels")

	// Application configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}

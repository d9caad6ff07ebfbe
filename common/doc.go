// Package common provides shared constants, types, utilities, and interfaces
// used throughout the tunnel manager.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: file names, storage backends, wg-quick defaults
//   - Errors: sentinel errors for consistent error handling across packages
//   - Interfaces: abstractions for secret storage, notifications, and logging
//   - Logger: levelled logging with optional rotated file output
//   - Utils: configuration directory helpers and slice utilities
//
// # Usage
//
//	common.LogInfo("Imported tunnel %s", name)
//
//	if errors.Is(err, common.ErrTunnelNotFound) {
//	    // Handle missing tunnel
//	}
package common

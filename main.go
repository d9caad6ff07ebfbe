// Package main provides the entry point for wg-tunnels.
// wg-tunnels keeps an ordered list of WireGuard tunnel configurations,
// newest first, with private keys held in the system keyring.
//
// Features:
//   - Import and export of wg-quick configuration files
//   - Tunnel creation with freshly generated keys
//   - YAML or SQLite storage for tunnel configurations
//   - Interactive terminal list view
//
// Usage:
//
//	wg-tunnels [command] [flags]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yllada/wg-tunnels/cli"
	"github.com/yllada/wg-tunnels/common"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	err := cli.Execute(ctx, cli.BuildInfo{
		Version:   appVersion,
		BuildTime: buildTime,
		Commit:    commitSHA,
	})
	common.CloseLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupSignalHandler cancels the context on SIGINT/SIGTERM so running
// commands and the terminal interface can shut down cleanly.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, shutting down", sig)
		cancel()
	}()
}

// Package cli provides the command-line interface for the tunnel manager.
// Tunnels can be listed, imported, created, exported and removed from the
// terminal, and the interactive list view is started from here.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yllada/wg-tunnels/common"
	"github.com/yllada/wg-tunnels/config"
	"github.com/yllada/wg-tunnels/keyring"
	"github.com/yllada/wg-tunnels/manager"
	"github.com/yllada/wg-tunnels/store"
	"github.com/yllada/wg-tunnels/ui"
)

// BuildInfo is injected by main from ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	Commit    string
}

// CLI holds state shared by all commands.
type CLI struct {
	build      BuildInfo
	configPath string
	verbose    bool

	cfg     *config.Config
	dataDir string
}

// NewRootCommand builds the command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	c := &CLI{build: build}

	root := &cobra.Command{
		Use:   "wg-tunnels",
		Short: "Manage WireGuard tunnel configurations",
		Long: `wg-tunnels keeps an ordered list of WireGuard tunnel configurations.
Private keys are kept in the system keyring, everything else in the data directory.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to configuration file (default ~/.config/wg-tunnels/config.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.listCommand(),
		c.showCommand(),
		c.importCommand(),
		c.updateCommand(),
		c.newCommand(),
		c.removeCommand(),
		c.exportCommand(),
		c.tuiCommand(),
		c.versionCommand(),
	)
	return root
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context, build BuildInfo) error {
	return NewRootCommand(build).ExecuteContext(ctx)
}

// setup loads the configuration and initializes logging.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	if c.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		c.configPath = path
	}

	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.dataDir = cfg.ResolveDataDir(c.configPath)

	level := common.ParseLogLevel(cfg.LogLevel)
	if c.verbose {
		level = common.LevelDebug
	}
	logCfg := common.LogConfig{Level: level, EnableFile: cfg.LogToFile}
	if cfg.DataDir != "" {
		logCfg.LogDir = filepath.Join(cfg.DataDir, "logs")
	}
	if err := common.InitLogger(logCfg); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not initialize file logging: %v\n", err)
	}
	common.LogDebug("Using configuration %s, data in %s", c.configPath, c.dataDir)
	return nil
}

// openStore opens the configured store and secret storage.
func (c *CLI) openStore() (store.Store, common.SecretStore, error) {
	st, err := store.Open(c.cfg.StoreBackend, c.dataDir)
	if err != nil {
		return nil, nil, err
	}
	secrets, err := keyring.New(filepath.Join(c.dataDir, common.SecretsFileName))
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, secrets, nil
}

// openManager opens storage and loads the tunnels. The caller closes the
// returned manager.
func (c *CLI) openManager(ctx context.Context) (*manager.Manager, error) {
	st, secrets, err := c.openStore()
	if err != nil {
		return nil, err
	}

	var opts []manager.Option
	if n := ui.NewNotifier(c.cfg.ShowNotifications); n != nil {
		opts = append(opts, manager.WithNotifier(n))
	}
	mgr := manager.New(st, secrets, opts...)
	if _, err := mgr.OpenAndWait(ctx); err != nil {
		mgr.Close()
		return nil, fmt.Errorf("failed to load tunnels: %w", err)
	}
	return mgr, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Package store persists the ordered tunnel list.
//
// Stores keep configurations in registry order (index 0 is the newest
// tunnel) and never write interface private keys; those belong in the
// keyring.
package store

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/yllada/wg-tunnels/common"
	"github.com/yllada/wg-tunnels/tunnel"
)

// Store loads and saves tunnel configurations.
type Store interface {
	// Load returns the saved configurations in order.
	Load(ctx context.Context) ([]*tunnel.Configuration, error)
	// Save replaces the saved configurations.
	Save(ctx context.Context, configs []*tunnel.Configuration) error
	// Close releases any resources held by the store.
	Close() error
}

// Open returns the store for backend, keeping its files in dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case common.StoreBackendYAML, "":
		return NewYAMLStore(filepath.Join(dir, common.TunnelsFileName))
	case common.StoreBackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, common.DatabaseFileName))
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownBackend, backend)
	}
}

// decodeEntry parses a stored wg-quick body under name.
func decodeEntry(name, body string) (*tunnel.Configuration, error) {
	cfg, err := tunnel.ParseConfig(name, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, fmt.Errorf("tunnel %s: %w", name, err)
	}
	return cfg, nil
}

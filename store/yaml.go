package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yllada/wg-tunnels/common"
	"github.com/yllada/wg-tunnels/tunnel"
)

// entry is one tunnel in tunnels.yaml.
type entry struct {
	Name   string `yaml:"name"`
	Config string `yaml:"config"`
}

// YAMLStore keeps tunnels in a single YAML file.
type YAMLStore struct {
	path string
}

// NewYAMLStore returns a store backed by the YAML file at path.
// The parent directory is created if needed.
func NewYAMLStore(path string) (*YAMLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &YAMLStore{path: path}, nil
}

// Load reads the tunnels file. A missing file means no tunnels.
func (s *YAMLStore) Load(ctx context.Context) ([]*tunnel.Configuration, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreLoad, err)
	}

	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", common.ErrStoreLoad, s.path, err)
	}

	configs := make([]*tunnel.Configuration, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg, err := decodeEntry(e.Name, e.Config)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStoreLoad, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Save writes configs to the tunnels file.
func (s *YAMLStore) Save(ctx context.Context, configs []*tunnel.Configuration) error {
	entries := make([]entry, 0, len(configs))
	for _, cfg := range configs {
		entries = append(entries, entry{
			Name:   cfg.TunnelName(),
			Config: string(cfg.MarshalPublic()),
		})
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: failed to serialize tunnels: %v", common.ErrStoreSave, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreSave, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreSave, err)
	}
	return nil
}

// Close is a no-op.
func (s *YAMLStore) Close() error {
	return nil
}

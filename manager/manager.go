// Package manager ties the tunnel registry to persistent storage, the
// keyring and desktop notifications.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/yllada/wg-tunnels/common"
	"github.com/yllada/wg-tunnels/store"
	"github.com/yllada/wg-tunnels/tunnel"
)

// Manager owns the registry handle and keeps storage in step with it.
//
// Like the registry, a Manager expects calls from one goroutine at a time.
// Every operation reports through exactly one callback.
type Manager struct {
	store      store.Store
	secrets    common.SecretStore
	notifier   common.Notifier
	log        common.Logger
	regOptions []tunnel.Option
	handle     tunnel.Handle
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier sends add and delete events to n.
func WithNotifier(n common.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithLogger replaces the default application logger.
func WithLogger(l common.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithRegistryOptions passes opts to the registry when it is created.
func WithRegistryOptions(opts ...tunnel.Option) Option {
	return func(m *Manager) { m.regOptions = append(m.regOptions, opts...) }
}

// New creates a Manager. Call Open to load tunnels.
func New(st store.Store, secrets common.SecretStore, opts ...Option) *Manager {
	m := &Manager{
		store:   st,
		secrets: secrets,
		log:     common.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle returns the handle that resolves once Open has loaded the tunnels.
func (m *Manager) Handle() *tunnel.Handle {
	return &m.handle
}

// Open loads tunnels from storage in the background. The handle resolves
// before done runs.
func (m *Manager) Open(ctx context.Context, done func(*tunnel.Registry, error)) {
	tunnel.Create(ctx, m.load, func(reg *tunnel.Registry, err error) {
		if err != nil {
			m.log.Error("Failed to load tunnels: %v", err)
		} else {
			m.log.Debug("Loaded %d tunnels", reg.Count())
			m.handle.Resolve(reg)
		}
		if done != nil {
			done(reg, err)
		}
	}, m.regOptions...)
}

// OpenAndWait runs Open and blocks until it completes or ctx ends.
// It must not be used with a dispatcher that needs the calling goroutine.
func (m *Manager) OpenAndWait(ctx context.Context) (*tunnel.Registry, error) {
	ctx, cancel := context.WithTimeout(ctx, common.LoadTimeout)
	defer cancel()

	type result struct {
		reg *tunnel.Registry
		err error
	}
	ch := make(chan result, 1)
	m.Open(ctx, func(reg *tunnel.Registry, err error) {
		ch <- result{reg, err}
	})

	select {
	case r := <-ch:
		return r.reg, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load reads configurations and reattaches private keys from the keyring.
func (m *Manager) load(ctx context.Context) ([]*tunnel.Configuration, error) {
	configs, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		name := cfg.TunnelName()
		secret, err := m.secrets.Get(name)
		if err != nil {
			if errors.Is(err, common.ErrSecretNotFound) {
				m.log.Warn("No private key stored for tunnel %s", name)
				continue
			}
			return nil, fmt.Errorf("private key for %s: %w", name, err)
		}
		key, err := tunnel.ParseKey(secret)
		if err != nil {
			return nil, fmt.Errorf("private key for %s: %w", name, err)
		}
		cfg.Interface.PrivateKey = key
	}
	return configs, nil
}

// Import parses a wg-quick file and adds it.
func (m *Manager) Import(ctx context.Context, path string, done func(*tunnel.Record, error)) {
	cfg, err := tunnel.ParseConfigFile(path)
	if err != nil {
		finishRecord(done, nil, err)
		return
	}
	m.Add(ctx, cfg, done)
}

// Generate adds an empty tunnel named name with a fresh private key.
func (m *Manager) Generate(ctx context.Context, name string, done func(*tunnel.Record, error)) {
	key, err := tunnel.GeneratePrivateKey()
	if err != nil {
		finishRecord(done, nil, err)
		return
	}
	m.Add(ctx, &tunnel.Configuration{
		Name:      name,
		Interface: tunnel.Interface{Name: name, PrivateKey: key},
	}, done)
}

// Add validates cfg, stores its private key and inserts it at the top of
// the registry. The new list is saved before the registry changes, so a
// failed save leaves the registry and keyring as they were.
func (m *Manager) Add(ctx context.Context, cfg *tunnel.Configuration, done func(*tunnel.Record, error)) {
	reg, err := m.handle.Registry()
	if err != nil {
		finishRecord(done, nil, err)
		return
	}
	if cfg == nil {
		finishRecord(done, nil, fmt.Errorf("%w: nil configuration", common.ErrInvalidConfig))
		return
	}
	if err := cfg.Validate(); err != nil {
		finishRecord(done, nil, err)
		return
	}
	name := cfg.TunnelName()
	if _, exists := reg.Find(name); exists {
		finishRecord(done, nil, fmt.Errorf("%w: %s", common.ErrDuplicateName, name))
		return
	}
	if err := m.secrets.Store(name, cfg.Interface.PrivateKey.String()); err != nil {
		finishRecord(done, nil, err)
		return
	}

	next := append([]*tunnel.Configuration{cfg}, reg.Configurations()...)
	if err := m.save(ctx, next); err != nil {
		m.forgetSecret(name)
		finishRecord(done, nil, err)
		return
	}

	reg.Add(cfg, func(rec *tunnel.Record, err error) {
		if err != nil {
			m.forgetSecret(name)
			m.resync(ctx, reg)
		} else {
			m.log.Info("Added tunnel %s", name)
			m.notify("Tunnel added", name)
		}
		finishRecord(done, rec, err)
	})
}

// Update replaces the configuration of the tunnel called name. The tunnel
// keeps its name; a configuration without a private key keeps the old key.
// A new private key reaches the keyring only after the change is saved.
func (m *Manager) Update(ctx context.Context, name string, cfg *tunnel.Configuration, done func(error)) {
	reg, err := m.handle.Registry()
	if err != nil {
		finish(done, err)
		return
	}
	rec, ok := reg.Find(name)
	if !ok {
		finish(done, fmt.Errorf("%w: %s", common.ErrTunnelNotFound, name))
		return
	}
	if cfg == nil {
		finish(done, fmt.Errorf("%w: nil configuration", common.ErrInvalidConfig))
		return
	}

	cfg = cfg.Clone()
	cfg.Name = name
	cfg.Interface.Name = name
	oldKey := rec.Configuration().Interface.PrivateKey
	newKey := cfg.Interface.PrivateKey
	if newKey.IsZero() {
		cfg.Interface.PrivateKey = oldKey
	}
	if err := cfg.Validate(); err != nil {
		finish(done, err)
		return
	}

	next := reg.Configurations()
	next[rec.Position()] = cfg
	if err := m.save(ctx, next); err != nil {
		finish(done, err)
		return
	}
	if !newKey.IsZero() && newKey != oldKey {
		if err := m.secrets.Store(name, newKey.String()); err != nil {
			m.resync(ctx, reg)
			finish(done, err)
			return
		}
	}

	reg.Modify(rec, cfg, func(err error) {
		if err != nil {
			m.resync(ctx, reg)
		} else {
			m.log.Info("Updated tunnel %s", name)
		}
		finish(done, err)
	})
}

// UpdateFromFile replaces the configuration of name with the contents of
// a wg-quick file. The file name does not rename the tunnel.
func (m *Manager) UpdateFromFile(ctx context.Context, name, path string, done func(error)) {
	cfg, err := tunnel.ParseConfigFile(path)
	if err != nil {
		finish(done, err)
		return
	}
	m.Update(ctx, name, cfg, done)
}

// Delete removes the tunnel called name together with its private key.
// When the save fails nothing is removed.
func (m *Manager) Delete(ctx context.Context, name string, done func(error)) {
	reg, err := m.handle.Registry()
	if err != nil {
		finish(done, err)
		return
	}
	rec, ok := reg.Find(name)
	if !ok {
		finish(done, fmt.Errorf("%w: %s", common.ErrTunnelNotFound, name))
		return
	}

	pos := rec.Position()
	next := slices.Delete(reg.Configurations(), pos, pos+1)
	if err := m.save(ctx, next); err != nil {
		finish(done, err)
		return
	}

	reg.Remove(rec, func(err error) {
		if err != nil {
			m.resync(ctx, reg)
		} else {
			m.forgetSecret(name)
			m.log.Info("Deleted tunnel %s", name)
			m.notify("Tunnel removed", name)
		}
		finish(done, err)
	})
}

// Export writes the full wg-quick configuration of name, private key included.
func (m *Manager) Export(name string, w io.Writer) error {
	reg, err := m.handle.Registry()
	if err != nil {
		return err
	}
	rec, ok := reg.Find(name)
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrTunnelNotFound, name)
	}
	_, err = w.Write(rec.Configuration().Marshal())
	return err
}

// Close releases the store.
func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) save(ctx context.Context, configs []*tunnel.Configuration) error {
	if err := m.store.Save(ctx, configs); err != nil {
		m.log.Error("Failed to save tunnels: %v", err)
		return err
	}
	return nil
}

// resync writes the registry's current contents after a step that
// followed a successful save has failed.
func (m *Manager) resync(ctx context.Context, reg *tunnel.Registry) {
	if err := m.save(ctx, reg.Configurations()); err != nil {
		m.log.Warn("Stored tunnels may differ from the loaded list until the next save")
	}
}

func (m *Manager) forgetSecret(name string) {
	if err := m.secrets.Delete(name); err != nil {
		m.log.Warn("Could not delete private key for %s: %v", name, err)
	}
}

func (m *Manager) notify(title, message string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(title, message); err != nil {
		m.log.Debug("Notification failed: %v", err)
	}
}

func finish(done func(error), err error) {
	if done != nil {
		done(err)
	}
}

func finishRecord(done func(*tunnel.Record, error), rec *tunnel.Record, err error) {
	if done != nil {
		done(rec, err)
	}
}

package tunnel

import (
	"context"
	"fmt"
	"slices"

	"github.com/yllada/wg-tunnels/common"
)

// Errors returned by the registry, re-exported from common for convenience.
var (
	ErrTunnelsUninitialized = common.ErrTunnelsUninitialized
	ErrOutOfRange           = common.ErrOutOfRange
	ErrTunnelNotFound       = common.ErrTunnelNotFound
)

// Dispatcher runs completion callbacks. The default runs them immediately;
// a UI can supply one that posts them to its own event loop.
type Dispatcher func(func())

// Option configures a Registry.
type Option func(*Registry)

// WithDispatcher sets the dispatcher used for completion callbacks.
func WithDispatcher(d Dispatcher) Option {
	return func(reg *Registry) {
		if d != nil {
			reg.dispatch = d
		}
	}
}

// Loader supplies the initial configurations for Create.
type Loader func(ctx context.Context) ([]*Configuration, error)

// Registry is an ordered list of tunnels, newest first.
//
// A Registry has no internal lock. It must be used from a single goroutine
// at a time; completion callbacks never run concurrently with another
// mutation on the same registry as long as the dispatcher preserves that.
type Registry struct {
	records  []*Record
	observer func() Observer
	dispatch Dispatcher
}

func syncDispatch(fn func()) { fn() }

// New builds a registry holding configs in the given order.
// Nil entries are skipped.
func New(configs []*Configuration, opts ...Option) *Registry {
	reg := &Registry{
		records:  make([]*Record, 0, len(configs)),
		dispatch: syncDispatch,
	}
	for _, opt := range opts {
		opt(reg)
	}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		reg.records = append(reg.records, reg.newRecord(cfg))
	}
	return reg
}

// Create builds a registry asynchronously from load and passes it to done.
// done is invoked exactly once through the configured dispatcher, with
// either the new registry or the load error.
func Create(ctx context.Context, load Loader, done func(*Registry, error), opts ...Option) {
	reg := New(nil, opts...)
	finish := func(r *Registry, err error) {
		reg.dispatch(func() {
			if done != nil {
				done(r, err)
			}
		})
	}

	go func() {
		if load == nil {
			finish(reg, nil)
			return
		}
		configs, err := load(ctx)
		if err != nil {
			finish(nil, err)
			return
		}
		for _, cfg := range configs {
			if cfg != nil {
				reg.records = append(reg.records, reg.newRecord(cfg))
			}
		}
		finish(reg, nil)
	}()
}

func (reg *Registry) newRecord(cfg *Configuration) *Record {
	cfg = cfg.Clone()
	return &Record{
		id:     common.GenerateID(),
		name:   cfg.TunnelName(),
		config: cfg,
		owner:  reg,
	}
}

// Add inserts a new record built from cfg at position 0, shifting every
// existing record down by one, and notifies the observer with (0, 1).
func (reg *Registry) Add(cfg *Configuration, done func(*Record, error)) {
	if cfg == nil {
		reg.complete(func() {
			if done != nil {
				done(nil, fmt.Errorf("%w: nil configuration", common.ErrInvalidConfig))
			}
		})
		return
	}

	rec := reg.newRecord(cfg)
	reg.records = slices.Insert(reg.records, 0, rec)
	reg.notifyAdded(0, 1)

	reg.complete(func() {
		if done != nil {
			done(rec, nil)
		}
	})
}

// Modify replaces rec's configuration. Name and position are unchanged and
// the observer is not notified.
func (reg *Registry) Modify(rec *Record, cfg *Configuration, done func(error)) {
	var err error
	switch {
	case cfg == nil:
		err = fmt.Errorf("%w: nil configuration", common.ErrInvalidConfig)
	case !reg.contains(rec):
		err = ErrTunnelNotFound
	default:
		rec.config = cfg.Clone()
	}
	reg.complete(func() {
		if done != nil {
			done(err)
		}
	})
}

// Remove deletes rec. Every record after it moves up one position.
// The observer is not notified.
func (reg *Registry) Remove(rec *Record, done func(error)) {
	var err error
	if i := reg.indexOf(rec); i < 0 {
		err = ErrTunnelNotFound
	} else {
		reg.records = slices.Delete(reg.records, i, i+1)
		rec.owner = nil
	}
	reg.complete(func() {
		if done != nil {
			done(err)
		}
	})
}

func (reg *Registry) complete(fn func()) {
	reg.dispatch(fn)
}

// Count returns the number of records.
func (reg *Registry) Count() int {
	return len(reg.records)
}

// RecordAt returns the record at position.
func (reg *Registry) RecordAt(position int) (*Record, error) {
	if position < 0 || position >= len(reg.records) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, position, len(reg.records))
	}
	return reg.records[position], nil
}

// Find returns the first record named name. Matching is exact and
// case-sensitive. Duplicate names are not prevented here.
func (reg *Registry) Find(name string) (*Record, bool) {
	for _, rec := range reg.records {
		if rec.name == name {
			return rec, true
		}
	}
	return nil, false
}

// Records returns the records in order. The slice is a copy.
func (reg *Registry) Records() []*Record {
	return slices.Clone(reg.records)
}

// Names returns the record names in order.
func (reg *Registry) Names() []string {
	names := make([]string, len(reg.records))
	for i, rec := range reg.records {
		names[i] = rec.name
	}
	return names
}

// Configurations returns copies of every configuration in order.
func (reg *Registry) Configurations() []*Configuration {
	configs := make([]*Configuration, len(reg.records))
	for i, rec := range reg.records {
		configs[i] = rec.config.Clone()
	}
	return configs
}

func (reg *Registry) indexOf(rec *Record) int {
	if rec == nil || rec.owner != reg {
		return -1
	}
	return slices.Index(reg.records, rec)
}

func (reg *Registry) contains(rec *Record) bool {
	return reg.indexOf(rec) >= 0
}

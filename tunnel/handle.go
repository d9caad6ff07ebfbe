package tunnel

import "sync"

// Handle holds a registry that is still being created.
//
// Callers that need the registry before it exists register a callback with
// WhenReady. Only one callback is kept: registering again replaces the
// previous one. The stored callback runs once when the handle resolves and
// is then dropped.
type Handle struct {
	mu      sync.Mutex
	reg     *Registry
	pending func(*Registry)
}

// Registry returns the registry, or ErrTunnelsUninitialized if the handle
// has not resolved yet.
func (h *Handle) Registry() (*Registry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reg == nil {
		return nil, ErrTunnelsUninitialized
	}
	return h.reg, nil
}

// Ready reports whether the handle has resolved.
func (h *Handle) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reg != nil
}

// WhenReady runs fn with the registry now if the handle has resolved,
// otherwise stores it in place of any earlier pending callback.
func (h *Handle) WhenReady(fn func(*Registry)) {
	h.mu.Lock()
	reg := h.reg
	if reg == nil {
		h.pending = fn
	}
	h.mu.Unlock()

	if reg != nil && fn != nil {
		fn(reg)
	}
}

// Resolve stores reg and runs the pending callback, if any.
// Only the first call has an effect.
func (h *Handle) Resolve(reg *Registry) {
	if reg == nil {
		return
	}
	h.mu.Lock()
	if h.reg != nil {
		h.mu.Unlock()
		return
	}
	h.reg = reg
	fn := h.pending
	h.pending = nil
	h.mu.Unlock()

	if fn != nil {
		fn(reg)
	}
}

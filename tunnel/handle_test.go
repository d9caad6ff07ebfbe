package tunnel

import (
	"errors"
	"testing"
)

func TestHandle_UninitializedBeforeResolve(t *testing.T) {
	var h Handle

	if _, err := h.Registry(); !errors.Is(err, ErrTunnelsUninitialized) {
		t.Errorf("Registry() error = %v, want ErrTunnelsUninitialized", err)
	}
	if h.Ready() {
		t.Error("Ready() should be false before Resolve")
	}
}

func TestHandle_PendingCallbackIsOverwritten(t *testing.T) {
	var h Handle
	var ran []string

	h.WhenReady(func(*Registry) { ran = append(ran, "first") })
	h.WhenReady(func(*Registry) { ran = append(ran, "second") })

	reg := New(nil)
	h.Resolve(reg)

	if len(ran) != 1 || ran[0] != "second" {
		t.Fatalf("ran = %v, want [second]", ran)
	}

	h.Resolve(New(nil))
	if len(ran) != 1 {
		t.Errorf("pending callback ran again: %v", ran)
	}

	got, err := h.Registry()
	if err != nil || got != reg {
		t.Errorf("Registry() = (%p, %v), want first resolved registry", got, err)
	}
}

func TestHandle_WhenReadyAfterResolveRunsImmediately(t *testing.T) {
	var h Handle
	reg := New(nil)
	h.Resolve(reg)

	var got *Registry
	h.WhenReady(func(r *Registry) { got = r })
	if got != reg {
		t.Error("WhenReady should run immediately once resolved")
	}
}

func TestHandle_ResolveNilIgnored(t *testing.T) {
	var h Handle
	ran := false
	h.WhenReady(func(*Registry) { ran = true })
	h.Resolve(nil)

	if ran || h.Ready() {
		t.Error("Resolve(nil) should have no effect")
	}
}

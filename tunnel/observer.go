package tunnel

import "weak"

// Observer is notified of structural insertions into a Registry.
// There is no removal notification; callers re-read the registry after
// a removal completes.
type Observer interface {
	TunnelsAdded(startPosition, count int)
}

// SetObserver attaches obs to reg without keeping obs alive. Once obs is
// garbage collected, notifications silently stop. Passing nil detaches the
// current observer.
func SetObserver[T any, P interface {
	*T
	Observer
}](reg *Registry, obs P) {
	if obs == nil {
		reg.observer = nil
		return
	}
	ref := weak.Make((*T)(obs))
	reg.observer = func() Observer {
		p := ref.Value()
		if p == nil {
			return nil
		}
		return P(p)
	}
}

// ClearObserver detaches any observer from reg.
func ClearObserver(reg *Registry) {
	reg.observer = nil
}

func (reg *Registry) notifyAdded(start, count int) {
	if reg.observer == nil {
		return
	}
	if obs := reg.observer(); obs != nil {
		obs.TunnelsAdded(start, count)
	}
}

// Package pins implements the source pin registry and the pins lock file.
package pins

import (
	"maps"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// Registry is an immutable name to pinned source mapping.
type Registry struct {
	pins domain.PinSet
}

// NewRegistry creates a registry over a copy of pins.
func NewRegistry(pins domain.PinSet) *Registry {
	r := &Registry{pins: make(domain.PinSet, len(pins))}
	for name, pin := range pins {
		pin.Name = name
		r.pins[name] = pin
	}
	return r
}

// Resolve returns the pinned source recorded under name.
func (r *Registry) Resolve(name string) (domain.PinnedSource, error) {
	pin, ok := r.pins[name]
	if !ok {
		return domain.PinnedSource{}, zerr.With(zerr.Wrap(domain.ErrUnknownSource, name), "source", name)
	}
	return pin, nil
}

// PinSet returns a copy of the mapping.
func (r *Registry) PinSet() domain.PinSet {
	return r.pins.Clone()
}

// Names returns the pin names in sorted order.
func (r *Registry) Names() []string {
	return r.pins.Names()
}

// WithOverrides returns a new registry in which every pin of overrides
// replaces the pin of the same name. The receiver is left unchanged.
func (r *Registry) WithOverrides(overrides domain.PinSet) *Registry {
	merged := maps.Clone(r.pins)
	if merged == nil {
		merged = make(domain.PinSet, len(overrides))
	}
	maps.Copy(merged, overrides)
	return NewRegistry(merged)
}

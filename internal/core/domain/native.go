package domain

import "slices"

// NativeDeps is the set of system libraries and tools a build or shell needs.
// Order is irrelevant; values are kept sorted and de-duplicated.
type NativeDeps struct {
	names []InternedString
}

// NewNativeDeps builds a canonical native dependency set.
func NewNativeDeps(names ...string) NativeDeps {
	sorted := slices.Clone(names)
	sorted = slices.DeleteFunc(sorted, func(s string) bool { return s == "" })
	slices.Sort(sorted)
	return NativeDeps{names: NewInternedStrings(slices.Compact(sorted))}
}

// Names returns the sorted dependency names.
func (n NativeDeps) Names() []string {
	return Strings(n.names)
}

// Len returns the number of dependencies.
func (n NativeDeps) Len() int {
	return len(n.names)
}

// Contains reports whether name is part of the set.
func (n NativeDeps) Contains(name string) bool {
	return slices.Contains(n.names, NewInternedString(name))
}

// Union returns a new set holding n and every name in extra.
func (n NativeDeps) Union(extra ...string) NativeDeps {
	return NewNativeDeps(append(n.Names(), extra...)...)
}

package monitor

// Registry is an insertion-ordered set of entries keyed by path.
type Registry struct {
	entries []Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add inserts entry, replacing any entry registered under the same path.
// A replaced entry moves to the end of the listing order.
func (r *Registry) Add(entry Entry) {
	r.Remove(entry.Path)
	r.entries = append(r.entries, entry)
}

// Remove deletes the entry with exactly this path and reports whether one existed.
func (r *Registry) Remove(path string) bool {
	for i, entry := range r.entries {
		if entry.Path != path {
			continue
		}
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
		return true
	}
	return false
}

// List returns a copy of the entries in registry order. The result is never nil.
func (r *Registry) List() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports the number of registered entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

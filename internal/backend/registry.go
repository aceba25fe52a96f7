package backend

import (
	"fmt"
	"sort"
)

type entry struct {
	spec   Spec
	client Client
}

// Registry resolves backend ids to their static spec and client.
// It is populated once at start-up and read concurrently afterwards.
type Registry struct {
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a backend. Registering the same id twice is an error.
func (r *Registry) Register(spec Spec, c Client) error {
	if spec.ID == "" {
		return fmt.Errorf("backend id is required")
	}
	if c == nil {
		return fmt.Errorf("backend %q: client is nil", spec.ID)
	}
	if _, dup := r.entries[spec.ID]; dup {
		return fmt.Errorf("backend %q already registered", spec.ID)
	}
	r.entries[spec.ID] = entry{spec: spec, client: c}
	return nil
}

// Lookup returns the spec and client for id.
func (r *Registry) Lookup(id string) (Spec, Client, error) {
	e, ok := r.entries[id]
	if !ok {
		return Spec{}, nil, fmt.Errorf("%q: %w", id, ErrUnknownBackend)
	}
	return e.spec, e.client, nil
}

// Spec returns the static attributes for id.
func (r *Registry) Spec(id string) (Spec, bool) {
	e, ok := r.entries[id]
	return e.spec, ok
}

// Specs lists every backend, cheapest first (ties broken by id).
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.spec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CostPerUnit == out[j].CostPerUnit {
			return out[i].ID < out[j].ID
		}
		return out[i].CostPerUnit < out[j].CostPerUnit
	})
	return out
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	return len(r.entries)
}

// IDs lists registered ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

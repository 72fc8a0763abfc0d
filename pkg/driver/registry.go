package driver

import "fmt"

// Registry resolves a driver tag (e.g. "kong.driver.local") to the
// concrete Driver instance handling it. Drivers are registered once at
// program start; there is no reflective loading at runtime, per
// spec.md §9's "Dynamic dispatch" design note.
type Registry struct {
	drivers map[string]Driver
}

// NewRegistry returns an empty Registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// Register adds d under its own Tag(). It panics on a duplicate tag —
// that is a wiring bug, not a runtime condition to handle gracefully.
func (r *Registry) Register(d Driver) {
	tag := d.Tag()
	if _, exists := r.drivers[tag]; exists {
		panic(fmt.Sprintf("driver: tag %q already registered", tag))
	}
	r.drivers[tag] = d
}

// Get resolves tag to its Driver, or an error if nothing is registered
// under it.
func (r *Registry) Get(tag string) (Driver, error) {
	d, ok := r.drivers[tag]
	if !ok {
		return nil, fmt.Errorf("driver: no driver registered for tag %q", tag)
	}
	return d, nil
}

// Tags returns every registered tag, in no particular order.
func (r *Registry) Tags() []string {
	out := make([]string, 0, len(r.drivers))
	for tag := range r.drivers {
		out = append(out, tag)
	}
	return out
}

package syncreg

import (
	"log/slog"

	"github.com/roach88/replica/internal/constraint"
	"github.com/roach88/replica/internal/cube"
	"github.com/roach88/replica/internal/schema"
)

// Registry is the set of cubes known to be fully synchronized.
// It is not safe for concurrent use.
type Registry struct {
	set        *cube.Set
	generation string
	dirty      bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{set: cube.NewSet()}
}

// IsSynced reports whether some synced cube covers the query cube.
func (r *Registry) IsSynced(query cube.Cube) bool {
	return r.set.Encompasses(query)
}

// IsSyncedConstraint builds the hypercube of a filter and checks it. A
// filter without a hypercube is never synced.
func (r *Registry) IsSyncedConstraint(c constraint.Constraint, catalog schema.Resolver) bool {
	query, ok := cube.Build(c, catalog)
	if !ok {
		return false
	}
	return r.IsSynced(query)
}

// SetSynced records that everything inside c is synchronized. Members that
// c covers are dropped first.
func (r *Registry) SetSynced(c cube.Cube) {
	removed := r.set.RemoveEncompassedBy(c)
	r.set.Add(c)
	r.dirty = true
	slog.Debug("coverage set synced", "cube", c.String(), "replaced", removed, "cubes", r.set.Len())
}

// SetUnsynced withdraws every claim covering c.
func (r *Registry) SetUnsynced(c cube.Cube) {
	removed := r.set.RemoveEncompassing(c)
	if removed > 0 {
		r.dirty = true
	}
	slog.Debug("coverage set unsynced", "cube", c.String(), "removed", removed, "cubes", r.set.Len())
}

// RemoveAxis projects a retired attribute out of every synced cube.
func (r *Registry) RemoveAxis(attr string) {
	r.set.RemoveAxis(attr)
	r.dirty = true
}

// Clear forgets all coverage.
func (r *Registry) Clear() {
	if r.set.Len() > 0 {
		r.dirty = true
	}
	r.set.Clear()
}

// Cubes returns the synced cubes in insertion order.
func (r *Registry) Cubes() []cube.Cube {
	return r.set.Cubes()
}

// Len returns the number of synced cubes.
func (r *Registry) Len() int {
	return r.set.Len()
}

// Generation returns the token written by the last save, or "" for a
// registry that was never saved.
func (r *Registry) Generation() string {
	return r.generation
}

// Dirty reports whether the registry changed since it was loaded.
func (r *Registry) Dirty() bool {
	return r.dirty
}

// Equal reports whether both registries hold the same cubes, in any order.
func (r *Registry) Equal(o *Registry) bool {
	return r.set.EqualUnordered(o.set)
}

package shape

// Registry tracks live entities. It is owned by a single goroutine and is
// not safe for concurrent use.
type Registry struct {
	items  []*Entity
	byBody map[BodyID]*Entity

	// iterating counts nested Each calls; removals wait until it drops to 0.
	iterating int
	pending   []*Entity
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byBody: make(map[BodyID]*Entity)}
}

// Register appends e. Registering an entity twice is ignored.
func (r *Registry) Register(e *Entity) {
	if e == nil {
		return
	}
	if _, ok := r.byBody[e.BodyID]; ok {
		return
	}
	e.index = len(r.items)
	r.items = append(r.items, e)
	r.byBody[e.BodyID] = e
}

// FindByBodyID resolves a physics body to its entity.
func (r *Registry) FindByBodyID(id BodyID) (*Entity, bool) {
	e, ok := r.byBody[id]
	return e, ok
}

// Contains reports whether e is still registered.
func (r *Registry) Contains(e *Entity) bool {
	if e == nil {
		return false
	}
	got, ok := r.byBody[e.BodyID]
	return ok && got == e
}

// Len returns the number of registered entities, including any whose
// removal is still pending.
func (r *Registry) Len() int {
	return len(r.items)
}

// Remove deletes e by swapping the last entity into its slot. When called
// from inside Each the removal is applied once the outermost Each returns,
// so no entity is skipped.
func (r *Registry) Remove(e *Entity) {
	if !r.Contains(e) {
		return
	}
	if r.iterating > 0 {
		r.pending = append(r.pending, e)
		return
	}
	r.remove(e)
}

func (r *Registry) remove(e *Entity) {
	if !r.Contains(e) {
		return
	}
	last := len(r.items) - 1
	i := e.index
	if i != last {
		moved := r.items[last]
		r.items[i] = moved
		moved.index = i
	}
	r.items[last] = nil
	r.items = r.items[:last]
	delete(r.byBody, e.BodyID)
	e.index = -1
}

// Each calls fn for every entity registered when the call started. Iteration
// stops early if fn returns false.
func (r *Registry) Each(fn func(*Entity) bool) {
	r.iterating++
	defer r.endIteration()
	n := len(r.items)
	for i := 0; i < n && i < len(r.items); i++ {
		if !fn(r.items[i]) {
			return
		}
	}
}

func (r *Registry) endIteration() {
	r.iterating--
	if r.iterating > 0 || len(r.pending) == 0 {
		return
	}
	pending := r.pending
	r.pending = nil
	for _, e := range pending {
		r.remove(e)
	}
}

// Snapshot returns the registered entities in storage order.
func (r *Registry) Snapshot() []*Entity {
	out := make([]*Entity, len(r.items))
	copy(out, r.items)
	return out
}

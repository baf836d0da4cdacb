package core

import (
	"slices"
	"strconv"
	"sync"
)

// Registry allocates view ids and resolves owner handles. It is the table
// owner back-references point into, so a view never holds a pointer to its
// owner.
type Registry struct {
	mu    sync.RWMutex
	views map[ID]*View
	next  int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[ID]*View)}
}

// NewView creates and registers a view in the preRender state.
func (r *Registry) NewView(behavior Behavior, children ...*View) *View {
	if behavior == nil {
		behavior = TagBehavior{}
	}
	r.mu.Lock()
	r.next++
	id := ID("view-" + strconv.Itoa(r.next))
	v := &View{
		id:       id,
		behavior: behavior,
		registry: r,
		state:    PreRender,
	}
	r.views[id] = v
	r.mu.Unlock()

	for _, child := range children {
		v.AppendChild(child)
	}
	return v
}

// Lookup returns the view with id, or nil.
func (r *Registry) Lookup(id ID) *View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.views[id]
}

// Unregister removes the view with id. It reports whether it was present.
func (r *Registry) Unregister(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[id]; !ok {
		return false
	}
	delete(r.views, id)
	return true
}

// Len returns the number of registered views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// IDs returns the registered ids in allocation order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	ids := make([]ID, 0, len(r.views))
	for id := range r.views {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.SortFunc(ids, func(a, b ID) int {
		return idNumber(a) - idNumber(b)
	})
	return ids
}

func idNumber(id ID) int {
	n, _ := strconv.Atoi(string(id[len("view-"):]))
	return n
}

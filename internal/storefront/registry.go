package storefront

import (
	"errors"
	"sync"
)

var ErrViewNotFound = errors.New("view not found")

type registry struct {
	mu    sync.RWMutex
	views map[string]*View
}

func newRegistry() *registry {
	return &registry{views: make(map[string]*View)}
}

func (r *registry) add(v *View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[v.ID] = v
}

func (r *registry) get(id string) (*View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	return v, nil
}

func (r *registry) remove(id string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	delete(r.views, id)
	return v, ok
}

func (r *registry) byVisitor(visitor string) []*View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*View
	for _, v := range r.views {
		if v.Visitor == visitor {
			out = append(out, v)
		}
	}
	return out
}

func (r *registry) all() []*View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		out = append(out, v)
	}
	return out
}

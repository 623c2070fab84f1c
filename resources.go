package chirashi

import "reflect"

// Resources manages world-level singletons (time sources, asset handles,
// host bridges), ensuring at most one resource per type at a time. Storage
// is a slice with a type-to-ID map and a free list for ID reuse.
type Resources struct {
	items   []any
	types   map[reflect.Type]int
	freeIds []int
}

// Add adds a resource and returns its ID. Panics if a resource of the same
// type already exists. Reuses free IDs when available.
func (r *Resources) Add(res any) int {
	if res == nil {
		panic("cannot add nil resource")
	}
	t := reflect.TypeOf(res)
	if r.types == nil {
		r.types = make(map[reflect.Type]int)
	}
	if _, ok := r.types[t]; ok {
		panic("resource of the same type already exists")
	}
	var id int
	if len(r.freeIds) > 0 {
		id = r.freeIds[len(r.freeIds)-1]
		r.freeIds = r.freeIds[:len(r.freeIds)-1]
		r.items[id] = res
	} else {
		r.items = append(r.items, res)
		id = len(r.items) - 1
	}
	r.types[t] = id
	return id
}

// Has checks if a resource with the given ID exists.
func (r *Resources) Has(id int) bool {
	return id >= 0 && id < len(r.items) && r.items[id] != nil
}

// Get retrieves the resource by ID, or nil if it doesn't exist.
func (r *Resources) Get(id int) any {
	if !r.Has(id) {
		return nil
	}
	return r.items[id]
}

// Remove removes the resource by ID if it exists, marking the ID as free for
// reuse.
func (r *Resources) Remove(id int) {
	if !r.Has(id) {
		return
	}
	res := r.items[id]
	t := reflect.TypeOf(res)
	delete(r.types, t)
	r.items[id] = nil
	r.freeIds = append(r.freeIds, id)
}

// Clear removes all resources, resetting the free list.
func (r *Resources) Clear() {
	for i := range r.items {
		r.items[i] = nil
	}
	r.items = r.items[:0]
	clear(r.types)
	r.freeIds = r.freeIds[:0]
}

// HasResource checks if a resource of type T exists, returning its ID.
func HasResource[T any](r *Resources) (bool, int) {
	t := reflect.TypeOf((*T)(nil))
	if id, ok := r.types[t]; ok {
		return true, id
	}
	return false, -1
}

// GetResource retrieves the resource of type T, or nil when absent.
func GetResource[T any](r *Resources) *T {
	t := reflect.TypeOf((*T)(nil))
	id, ok := r.types[t]
	if !ok {
		return nil
	}
	res, _ := r.items[id].(*T)
	return res
}

// AddResource stores a resource of type T and returns its ID.
func AddResource[T any](r *Resources, res *T) int {
	return r.Add(res)
}

// RemoveResource removes the resource of type T if present.
func RemoveResource[T any](r *Resources) {
	t := reflect.TypeOf((*T)(nil))
	if id, ok := r.types[t]; ok {
		r.Remove(id)
	}
}

package chirashi

// Multi-component operations. Each variant resolves every component ID up
// front and performs at most one archetype migration, which makes composing
// an entity out of several components much cheaper than repeated
// single-component calls.

// GetComponent2 retrieves pointers to two components of the given entity.
// Any absent component yields nil in its position.
func GetComponent2[T1 any, T2 any](w *World, e Entity) (*T1, *T2) {
	return GetComponent[T1](w, e), GetComponent[T2](w, e)
}

// GetComponent3 retrieves pointers to three components of the given entity.
func GetComponent3[T1 any, T2 any, T3 any](w *World, e Entity) (*T1, *T2, *T3) {
	return GetComponent[T1](w, e), GetComponent[T2](w, e), GetComponent[T3](w, e)
}

// GetComponent4 retrieves pointers to four components of the given entity.
func GetComponent4[T1 any, T2 any, T3 any, T4 any](w *World, e Entity) (*T1, *T2, *T3, *T4) {
	return GetComponent[T1](w, e), GetComponent[T2](w, e), GetComponent[T3](w, e), GetComponent[T4](w, e)
}

// AddComponent2 adds two components to an entity if not already present,
// with a single archetype migration. It returns pointers to the components
// (existing or new) and a boolean indicating success.
func AddComponent2[T1 any, T2 any](w *World, e Entity) (*T1, *T2, bool) {
	id1 := RegisterComponent[T1]()
	id2 := RegisterComponent[T2]()
	checkDistinct(id1, id2)
	a, ci, slot, ok := w.ensureMask(e, makeMask([]ComponentID{id1, id2}))
	if !ok {
		return nil, nil, false
	}
	return (*T1)(a.componentAt(ci, slot, id1)),
		(*T2)(a.componentAt(ci, slot, id2)), true
}

// AddComponent3 adds three components to an entity if not already present,
// with a single archetype migration.
func AddComponent3[T1 any, T2 any, T3 any](w *World, e Entity) (*T1, *T2, *T3, bool) {
	id1 := RegisterComponent[T1]()
	id2 := RegisterComponent[T2]()
	id3 := RegisterComponent[T3]()
	checkDistinct(id1, id2, id3)
	a, ci, slot, ok := w.ensureMask(e, makeMask([]ComponentID{id1, id2, id3}))
	if !ok {
		return nil, nil, nil, false
	}
	return (*T1)(a.componentAt(ci, slot, id1)),
		(*T2)(a.componentAt(ci, slot, id2)),
		(*T3)(a.componentAt(ci, slot, id3)), true
}

// AddComponent4 adds four components to an entity if not already present,
// with a single archetype migration.
func AddComponent4[T1 any, T2 any, T3 any, T4 any](w *World, e Entity) (*T1, *T2, *T3, *T4, bool) {
	id1 := RegisterComponent[T1]()
	id2 := RegisterComponent[T2]()
	id3 := RegisterComponent[T3]()
	id4 := RegisterComponent[T4]()
	checkDistinct(id1, id2, id3, id4)
	a, ci, slot, ok := w.ensureMask(e, makeMask([]ComponentID{id1, id2, id3, id4}))
	if !ok {
		return nil, nil, nil, nil, false
	}
	return (*T1)(a.componentAt(ci, slot, id1)),
		(*T2)(a.componentAt(ci, slot, id2)),
		(*T3)(a.componentAt(ci, slot, id3)),
		(*T4)(a.componentAt(ci, slot, id4)), true
}

// SetComponent2 sets two component values on an entity, adding missing ones
// with a single migration. It returns a boolean indicating success.
func SetComponent2[T1 any, T2 any](w *World, e Entity, v1 T1, v2 T2) bool {
	p1, p2, ok := AddComponent2[T1, T2](w, e)
	if !ok {
		return false
	}
	*p1 = v1
	*p2 = v2
	return true
}

// SetComponent3 sets three component values on an entity, adding missing
// ones with a single migration.
func SetComponent3[T1 any, T2 any, T3 any](w *World, e Entity, v1 T1, v2 T2, v3 T3) bool {
	p1, p2, p3, ok := AddComponent3[T1, T2, T3](w, e)
	if !ok {
		return false
	}
	*p1 = v1
	*p2 = v2
	*p3 = v3
	return true
}

// SetComponent4 sets four component values on an entity, adding missing ones
// with a single migration.
func SetComponent4[T1 any, T2 any, T3 any, T4 any](w *World, e Entity, v1 T1, v2 T2, v3 T3, v4 T4) bool {
	p1, p2, p3, p4, ok := AddComponent4[T1, T2, T3, T4](w, e)
	if !ok {
		return false
	}
	*p1 = v1
	*p2 = v2
	*p3 = v3
	*p4 = v4
	return true
}

// RemoveComponent2 removes two components from an entity with a single
// migration. Absent components are ignored; with nothing to remove this is a
// no-op.
func RemoveComponent2[T1 any, T2 any](w *World, e Entity) bool {
	id1, ok1 := TryGetID[T1]()
	id2, ok2 := TryGetID[T2]()
	var rem maskType
	if ok1 {
		rem = setMask(rem, id1)
	}
	if ok2 {
		rem = setMask(rem, id2)
	}
	if isEmptyMask(rem) {
		return false
	}
	return w.stripMask(e, rem)
}

// RemoveComponent3 removes three components from an entity with a single
// migration.
func RemoveComponent3[T1 any, T2 any, T3 any](w *World, e Entity) bool {
	var rem maskType
	if id, ok := TryGetID[T1](); ok {
		rem = setMask(rem, id)
	}
	if id, ok := TryGetID[T2](); ok {
		rem = setMask(rem, id)
	}
	if id, ok := TryGetID[T3](); ok {
		rem = setMask(rem, id)
	}
	if isEmptyMask(rem) {
		return false
	}
	return w.stripMask(e, rem)
}

// RemoveComponent4 removes four components from an entity with a single
// migration.
func RemoveComponent4[T1 any, T2 any, T3 any, T4 any](w *World, e Entity) bool {
	var rem maskType
	if id, ok := TryGetID[T1](); ok {
		rem = setMask(rem, id)
	}
	if id, ok := TryGetID[T2](); ok {
		rem = setMask(rem, id)
	}
	if id, ok := TryGetID[T3](); ok {
		rem = setMask(rem, id)
	}
	if id, ok := TryGetID[T4](); ok {
		rem = setMask(rem, id)
	}
	if isEmptyMask(rem) {
		return false
	}
	return w.stripMask(e, rem)
}

// HasComponent2 reports whether the entity carries both component types.
func HasComponent2[T1 any, T2 any](w *World, e Entity) bool {
	return HasComponent[T1](w, e) && HasComponent[T2](w, e)
}

// HasComponent3 reports whether the entity carries all three component types.
func HasComponent3[T1 any, T2 any, T3 any](w *World, e Entity) bool {
	return HasComponent[T1](w, e) && HasComponent[T2](w, e) && HasComponent[T3](w, e)
}

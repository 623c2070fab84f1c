package chirashi

import "reflect"

// GetComponent retrieves a pointer to the component of type `T` for the given
// entity. It provides a direct, type-safe way to access component data.
//
// If the entity is invalid, does not have the component, or if the component
// type was never registered, this function returns nil (with Config.Debug set,
// an unregistered type panics instead). The pointer stays
// valid only until the next structural edit touching the entity's archetype;
// use Ref to hold a component across frames.
func GetComponent[T any](w *World, e Entity) *T {
	id, ok := TryGetID[T]()
	if !ok {
		if w.config.Debug {
			panic("query for unregistered component type " + reflect.TypeOf((*T)(nil)).Elem().String())
		}
		return nil
	}
	return (*T)(w.getComponentPtr(e, id))
}

// HasComponent reports whether the entity carries component type `T`.
func HasComponent[T any](w *World, e Entity) bool {
	id, ok := TryGetID[T]()
	if !ok {
		return false
	}
	return w.getComponentPtr(e, id) != nil
}

// AddComponent adds a component of type T to an entity.
// It returns a pointer to the newly added component and a boolean indicating success.
// If the entity already has the component, it returns a pointer to the existing component.
//
// Adding a new component migrates the entity to a wider archetype; the fresh
// slot is zero-initialized. Stale handles return (nil, false).
func AddComponent[T any](w *World, e Entity) (*T, bool) {
	id := RegisterComponent[T]()
	ptr, ok := w.ensureComponentSlot(e, id)
	if !ok {
		return nil, false
	}
	return (*T)(ptr), true
}

// SetComponent sets the component data for an entity.
// If the entity does not have the component, it will be added.
// It returns a boolean indicating success.
//
// Setting an already present component overwrites the slot in place without
// moving the entity.
func SetComponent[T any](w *World, e Entity, val T) bool {
	id := RegisterComponent[T]()
	ptr, ok := w.ensureComponentSlot(e, id)
	if !ok {
		return false
	}
	*(*T)(ptr) = val
	return true
}

// RemoveComponent removes the component of type `T` from the specified entity.
//
// The entity migrates to the narrowed archetype. If the entity is invalid or
// does not have the component, this function does nothing.
func RemoveComponent[T any](w *World, e Entity) bool {
	id, ok := TryGetID[T]()
	if !ok {
		return false
	}
	return w.removeComponentByID(e, id)
}

// Spawn creates an entity carrying the given component values in one step.
// Component types are resolved (and registered on first sight) from the
// runtime values; pointer values are flattened to their element type.
func Spawn(w *World, components ...any) Entity {
	e := w.CreateEntity()
	if e == InvalidEntity {
		return e
	}
	for _, c := range components {
		id, rv := componentIDOf(c)
		val := reflect.New(rv.Type())
		val.Elem().Set(rv)
		if !w.setComponentRaw(e, id, val.UnsafePointer()) {
			break
		}
	}
	return e
}

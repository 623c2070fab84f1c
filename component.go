package chirashi

import (
	"fmt"
	"reflect"
	"unsafe"
)

// ComponentID is a unique identifier for a component type.
type ComponentID uint32

const (
	bitsPerWord       = 64
	maskWords         = 4
	maxComponentTypes = maskWords * bitsPerWord
)

// DropFunc releases resources owned by the component stored at p. It is
// invoked exactly once per constructed slot before the slot's memory is
// reused or discarded. Components without a drop function are treated as
// trivially destructible.
type DropFunc func(p unsafe.Pointer)

// MoveFunc transfers the component at src into dst. After the call dst owns
// the value and src must be treated as uninitialized. Components without a
// move function are relocated with a plain byte copy.
type MoveFunc func(dst, src unsafe.Pointer)

// componentInfo is the runtime descriptor for one registered component type.
type componentInfo struct {
	typ   reflect.Type
	size  uintptr
	align uintptr
	drop  DropFunc
	move  MoveFunc
}

var (
	nextComponentID ComponentID
	typeToID        = make(map[reflect.Type]ComponentID, maxComponentTypes)
	componentInfos  [maxComponentTypes]componentInfo
)

// ResetGlobalRegistry resets the global component registry.
// This is useful for tests or applications that need to re-initialize the ECS state.
func ResetGlobalRegistry() {
	nextComponentID = 0
	typeToID = make(map[reflect.Type]ComponentID, maxComponentTypes)
	componentInfos = [maxComponentTypes]componentInfo{}
}

// RegisterComponent registers a component type and returns its unique ID.
// If the component type is already registered, it returns the existing ID.
// It panics if the maximum number of component types is exceeded.
func RegisterComponent[T any]() ComponentID {
	var t T
	return registerComponentType(reflect.TypeOf(t))
}

// RegisterComponentHooks registers a component type together with non-trivial
// drop and move hooks. Either hook may be nil; a nil drop means trivially
// destructible, a nil move means byte-copyable. Registering hooks for an
// already registered type overwrites its hooks.
func RegisterComponentHooks[T any](drop func(*T), move func(dst, src *T)) ComponentID {
	id := RegisterComponent[T]()
	info := &componentInfos[id]
	if drop != nil {
		info.drop = func(p unsafe.Pointer) { drop((*T)(p)) }
	} else {
		info.drop = nil
	}
	if move != nil {
		info.move = func(dst, src unsafe.Pointer) { move((*T)(dst), (*T)(src)) }
	} else {
		info.move = nil
	}
	return id
}

// registerComponentType is the reflect-based registration path shared by the
// generic API, prefabs, and the variadic spawn helpers.
func registerComponentType(compType reflect.Type) ComponentID {
	if id, ok := typeToID[compType]; ok {
		return id
	}
	if int(nextComponentID) >= maxComponentTypes {
		panic(fmt.Sprintf("cannot register component %s: maximum number of component types (%d) reached", compType.Name(), maxComponentTypes))
	}
	id := nextComponentID
	typeToID[compType] = id
	componentInfos[id] = componentInfo{
		typ:   compType,
		size:  compType.Size(),
		align: uintptr(compType.Align()),
	}
	nextComponentID++
	return id
}

// GetID returns the ComponentID for a given component type.
// It panics if the component type has not been registered.
func GetID[T any]() ComponentID {
	var zero T
	typ := reflect.TypeOf(zero)
	id, ok := typeToID[typ]
	if !ok {
		panic(fmt.Sprintf("component type %s not registered", typ))
	}
	return id
}

// TryGetID returns the ComponentID for a given component type and a boolean indicating if it was found.
// It does not panic if the component type is not registered.
func TryGetID[T any]() (ComponentID, bool) {
	var zero T
	typ := reflect.TypeOf(zero)
	id, ok := typeToID[typ]
	return id, ok
}

// ComponentSize returns the size in bytes of the registered component.
func ComponentSize(id ComponentID) uintptr {
	return componentInfos[id].size
}

// ComponentType returns the reflect.Type of the registered component, or nil
// for an unassigned ID.
func ComponentType(id ComponentID) reflect.Type {
	if id >= nextComponentID {
		return nil
	}
	return componentInfos[id].typ
}

// componentIDOf resolves the ID of a runtime value's type, registering the
// type on first sight. Pointer values are flattened to their element type so
// Spawn-style variadic APIs accept both T and *T.
func componentIDOf(v any) (ComponentID, reflect.Value) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	return registerComponentType(rv.Type()), rv
}

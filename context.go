package chirashi

import (
	"reflect"
	"unsafe"
)

// EntityCommands is a fluent façade over a command buffer, scoped to one
// entity. It owns no state beyond the entity handle and the buffer
// reference; everything it records still plays back at the frame fences.
type EntityCommands struct {
	cb *CommandBuffer
	e  Entity
}

// Spawn records creation of a new entity and returns its fluent façade.
func (cb *CommandBuffer) Spawn() EntityCommands {
	return EntityCommands{cb: cb, e: cb.Create()}
}

// On returns the fluent façade for an existing entity.
func (cb *CommandBuffer) On(e Entity) EntityCommands {
	return EntityCommands{cb: cb, e: e}
}

// SpawnWith records creation of an entity carrying the given component
// values. Component types are resolved from the runtime values, like Spawn
// on the world. Returns the placeholder handle.
func (cb *CommandBuffer) SpawnWith(components ...any) Entity {
	ec := cb.Spawn()
	for _, c := range components {
		id, rv := componentIDOf(c)
		info := &componentInfos[id]
		data := make([]byte, info.size)
		if info.size > 0 {
			val := reflect.New(rv.Type())
			val.Elem().Set(rv)
			copy(data, unsafe.Slice((*byte)(val.UnsafePointer()), info.size))
		}
		cb.pushAddRaw(ec.e, id, data)
	}
	return ec.e
}

// Entity returns the handle the façade operates on. For spawned entities
// this is a placeholder until playback.
func (ec EntityCommands) Entity() Entity { return ec.e }

// Destroy records destruction of the entity.
func (ec EntityCommands) Destroy() EntityCommands {
	ec.cb.Destroy(ec.e)
	return ec
}

// With records adding the component value to the entity and returns the
// façade for chaining.
func With[T any](ec EntityCommands, val T) EntityCommands {
	PushAdd(ec.cb, ec.e, val)
	return ec
}

// Remove records removing component T from the entity and returns the
// façade for chaining.
func Remove[T any](ec EntityCommands) EntityCommands {
	PushRemove[T](ec.cb, ec.e)
	return ec
}

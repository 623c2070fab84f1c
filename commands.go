package chirashi

import (
	"sync"
	"unsafe"
)

// commandKind discriminates the deferred operation log entries.
type commandKind uint8

const (
	cmdCreate commandKind = iota
	cmdDestroy
	cmdAdd
	cmdRemove
	cmdInstantiate
)

// command is one entry of the deferred log. Add entries carry the component
// value as an erased byte payload; armed marks payloads whose drop hook is
// still owed because ownership has not moved into an archetype yet.
type command struct {
	kind   commandKind
	entity Entity
	compID ComponentID
	data   []byte
	armed  bool
	prefab *Prefab
}

// CommandBuffer is a thread-safe, append-only log of structural edits.
// Recording is safe from any goroutine; playback runs single-threaded at the
// frame fences, while no queries are in flight.
//
// Entities created through the buffer get placeholder handles that resolve
// to real handles at playback. Placeholders are scoped to the buffer that
// issued them. Order is FIFO within the buffer; across buffers the scheduler
// fixes the merge order (system buffers in the scheduler's topological order,
// then the world's shared buffer).
type CommandBuffer struct {
	mu           sync.Mutex
	world        *World
	cmds         []command
	placeholders uint32
}

func newCommandBuffer(w *World) *CommandBuffer {
	return &CommandBuffer{world: w}
}

// Create records entity creation and returns a placeholder handle usable in
// subsequent commands on this buffer.
func (cb *CommandBuffer) Create() Entity {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	ph := Entity{ID: cb.placeholders, Version: placeholderVersion}
	cb.placeholders++
	cb.cmds = append(cb.cmds, command{kind: cmdCreate, entity: ph})
	return ph
}

// Destroy records entity destruction. Handles that are stale by playback
// time are silently dropped.
func (cb *CommandBuffer) Destroy(e Entity) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.cmds = append(cb.cmds, command{kind: cmdDestroy, entity: e})
}

// Instantiate records prefab instantiation and returns a placeholder for the
// clone.
func (cb *CommandBuffer) Instantiate(p *Prefab) Entity {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	ph := Entity{ID: cb.placeholders, Version: placeholderVersion}
	cb.placeholders++
	cb.cmds = append(cb.cmds, command{kind: cmdInstantiate, entity: ph, prefab: p})
	return ph
}

// Len returns the number of recorded commands.
func (cb *CommandBuffer) Len() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return len(cb.cmds)
}

// PushAdd records setting component value val on e. The value is captured
// into the log; if the command is cancelled (entity dead at playback, or
// playback aborted) the component's drop hook runs on the captured copy.
func PushAdd[T any](cb *CommandBuffer, e Entity, val T) {
	id := RegisterComponent[T]()
	info := &componentInfos[id]
	data := make([]byte, info.size)
	if info.size > 0 {
		src := unsafe.Slice((*byte)(unsafe.Pointer(&val)), info.size)
		copy(data, src)
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.cmds = append(cb.cmds, command{
		kind:   cmdAdd,
		entity: e,
		compID: id,
		data:   data,
		armed:  info.drop != nil,
	})
}

// PushRemove records removal of component T from e. Removing a component the
// entity does not have is a no-op at playback.
func PushRemove[T any](cb *CommandBuffer, e Entity) {
	id := RegisterComponent[T]()
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.cmds = append(cb.cmds, command{kind: cmdRemove, entity: e, compID: id})
}

// pushAddRaw records an add command from an already erased payload. The
// buffer takes ownership of data.
func (cb *CommandBuffer) pushAddRaw(e Entity, id ComponentID, data []byte) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.cmds = append(cb.cmds, command{
		kind:   cmdAdd,
		entity: e,
		compID: id,
		data:   data,
		armed:  componentInfos[id].drop != nil,
	})
}

// playback applies the log in FIFO order on the frame driver goroutine. A
// fatal failure (chunk budget) aborts the remaining commands, running the
// drop hook of every still-armed payload; the storage stays consistent.
func (cb *CommandBuffer) playback() error {
	cb.mu.Lock()
	cmds := cb.cmds
	cb.cmds = nil
	count := cb.placeholders
	cb.placeholders = 0
	cb.mu.Unlock()

	if len(cmds) == 0 {
		return nil
	}
	w := cb.world

	var resolved []Entity
	if count > 0 {
		resolved = make([]Entity, count)
	}
	resolve := func(e Entity) Entity {
		if e.IsPlaceholder() {
			if int(e.ID) < len(resolved) {
				return resolved[e.ID]
			}
			return InvalidEntity
		}
		return e
	}

	for i := range cmds {
		cmd := &cmds[i]
		switch cmd.kind {
		case cmdCreate:
			e := w.CreateEntity()
			if e == InvalidEntity {
				cb.cancelFrom(cmds, i)
				return w.takeErr()
			}
			resolved[cmd.entity.ID] = e

		case cmdInstantiate:
			e, err := cmd.prefab.Instantiate(w)
			if err != nil {
				cb.cancelFrom(cmds, i)
				return err
			}
			resolved[cmd.entity.ID] = e

		case cmdDestroy:
			w.DestroyEntity(resolve(cmd.entity))

		case cmdAdd:
			e := resolve(cmd.entity)
			var src unsafe.Pointer
			if len(cmd.data) > 0 {
				src = unsafe.Pointer(&cmd.data[0])
			}
			if w.IsValid(e) && w.setComponentRaw(e, cmd.compID, src) {
				// Ownership moved into the archetype.
				cmd.armed = false
			} else {
				cb.cancelOne(cmd)
				if err := w.err; err != nil {
					cb.cancelFrom(cmds, i+1)
					return w.takeErr()
				}
			}

		case cmdRemove:
			w.removeComponentByID(resolve(cmd.entity), cmd.compID)
		}
	}
	return nil
}

// cancelOne runs the owed drop hook of a cancelled add command.
func (cb *CommandBuffer) cancelOne(cmd *command) {
	if cmd.armed {
		if drop := componentInfos[cmd.compID].drop; drop != nil && len(cmd.data) > 0 {
			drop(unsafe.Pointer(&cmd.data[0]))
		}
		cmd.armed = false
	}
}

// cancelFrom disposes of commands[from:] without applying them.
func (cb *CommandBuffer) cancelFrom(cmds []command, from int) {
	for i := from; i < len(cmds); i++ {
		cb.cancelOne(&cmds[i])
	}
}

// discard drops every recorded command, running owed drop hooks.
func (cb *CommandBuffer) discard() {
	cb.mu.Lock()
	cmds := cb.cmds
	cb.cmds = nil
	cb.placeholders = 0
	cb.mu.Unlock()
	cb.cancelFrom(cmds, 0)
}

package chirashi

import (
	"sync/atomic"
	"unsafe"
)

// World manages all entities, components, and systems. A world owns its
// archetype storage, entity table, and chunk store exclusively on the frame
// driver goroutine; worker goroutines only ever touch component memory of
// disjoint chunks during parallel iteration. Worlds are independent: handles
// from one world mean nothing to another.
type World struct {
	config     Config
	entities   entityTable
	chunks     chunkStore
	archetypes archetypeStorage
	emptyArch  *archetype // interned zero-signature archetype
	deferred   *CommandBuffer
	systems    scheduler
	Resources  Resources
	Events     EventBus
	executor   Executor

	frame  uint64
	alive  int
	cancel CancelToken

	// locks counts parallel iterations currently in flight. While nonzero
	// the storage is read-locked and structural edits are a contract
	// violation.
	locks atomic.Int32

	// err holds the first fatal failure since the frame driver last
	// observed one. The storage stays consistent when it is set.
	err error
}

// NewWorld creates a world with the default configuration.
func NewWorld() *World {
	return NewWorldWithConfig(Config{})
}

// NewWorldWithConfig creates a world with the specified configuration.
func NewWorldWithConfig(config Config) *World {
	config = config.withDefaults()
	w := &World{
		config: config,
		chunks: newChunkStore(int(config.ChunkSize), config.maxBlocks()),
		entities: entityTable{
			rows: make([]entityRow, 0, config.InitialCapacity),
		},
		archetypes: newArchetypeStorage(),
	}
	w.emptyArch = w.archetypes.getOrCreate(maskType{}, w.blockSize())
	w.deferred = newCommandBuffer(w)
	w.executor = config.Executor
	if w.executor == nil {
		w.executor = newGoExecutor(config.Workers)
	}
	w.systems.init()
	return w
}

func (self *World) blockSize() int { return self.chunks.blockSize }

// Frame returns the current frame number.
func (self *World) Frame() uint64 { return self.frame }

// EntityCount returns the number of live entities.
func (self *World) EntityCount() int { return self.alive }

// Deferred returns the world's shared command buffer. It is safe for
// concurrent recording; playback happens at the frame fences.
func (self *World) Deferred() *CommandBuffer { return self.deferred }

// Cancel requests early termination of the current frame's remaining work.
// Systems and parallel iterations observe the token between chunks.
func (self *World) Cancel() { self.cancel.cancel() }

// IsValid reports whether the handle refers to a live entity.
func (self *World) IsValid(e Entity) bool {
	return self.entities.alive(e)
}

// Location describes where a live entity is stored.
type Location struct {
	Archetype int // archetype index within the storage
	Chunk     int // chunk index within the archetype
	Slot      int // slot within the chunk
}

// Locate returns the storage location of a live entity. Stale handles
// return false.
func (self *World) Locate(e Entity) (Location, bool) {
	row, ok := self.entities.locate(e)
	if !ok {
		return Location{}, false
	}
	return Location{
		Archetype: int(row.archetypeIndex),
		Chunk:     int(row.chunkIndex),
		Slot:      int(row.slot),
	}, true
}

// locked reports whether a parallel iteration is in flight.
func (self *World) locked() bool { return self.locks.Load() != 0 }

// checkStructural flags a structural edit attempted inside an iteration
// window. Debug builds panic; otherwise the edit proceeds unchecked and the
// caller owns the consequences.
func (self *World) checkStructural(op string) {
	if self.config.Debug && self.locked() {
		panic(LockedWorldError{Op: op})
	}
}

// fail records the first fatal error for the frame driver to pick up.
func (self *World) fail(err error) {
	if self.err == nil {
		self.err = err
	}
}

// takeErr returns and clears the pending fatal error.
func (self *World) takeErr() error {
	err := self.err
	self.err = nil
	return err
}

// CreateEntity creates a new entity with no components. It lives in the
// singleton empty archetype, whose chunks carry only the identity array.
func (self *World) CreateEntity() Entity {
	return self.createInto(self.emptyArch)
}

// CreateEntities creates a batch of new entities with no components.
func (self *World) CreateEntities(count int) []Entity {
	if count <= 0 {
		return nil
	}
	entities := make([]Entity, 0, count)
	for i := 0; i < count; i++ {
		e := self.CreateEntity()
		if e == InvalidEntity {
			break
		}
		entities = append(entities, e)
	}
	return entities
}

// createInto creates an entity directly inside the given archetype with all
// components zero-initialized.
func (self *World) createInto(a *archetype) Entity {
	self.checkStructural("create entity")
	ci, slot, err := a.reserveSlot(&self.chunks)
	if err != nil {
		self.fail(err)
		return InvalidEntity
	}
	e := self.entities.create()
	a.commitSlot(ci, slot, e)
	self.entities.update(e.ID, a.index, ci, slot)
	self.alive++
	return e
}

// createManyInto creates count entities inside the given archetype, stopping
// early when the chunk budget runs out.
func (self *World) createManyInto(a *archetype, count int) []Entity {
	if count <= 0 {
		return nil
	}
	entities := make([]Entity, 0, count)
	for i := 0; i < count; i++ {
		e := self.createInto(a)
		if e == InvalidEntity {
			break
		}
		entities = append(entities, e)
	}
	return entities
}

// DestroyEntity destroys a live entity immediately, running component drop
// hooks and recycling its table row. Stale handles are a silent no-op.
func (self *World) DestroyEntity(e Entity) bool {
	self.checkStructural("destroy entity")
	row, ok := self.entities.locate(e)
	if !ok {
		return false
	}
	a := self.archetypes.archetypes[row.archetypeIndex]
	a.removeSlot(self, int(row.chunkIndex), int(row.slot), true)
	self.entities.destroy(e)
	self.alive--
	// The swap-remove may have relocated another entity's slot; cached
	// locations captured before this point must re-locate.
	self.archetypes.bumpVersion()
	return true
}

// DestroyEntities destroys a batch of entities. Stale handles are skipped.
func (self *World) DestroyEntities(entities []Entity) {
	for _, e := range entities {
		self.DestroyEntity(e)
	}
}

// getComponentPtr returns the address of component id on e, or nil.
func (self *World) getComponentPtr(e Entity, id ComponentID) unsafe.Pointer {
	row, ok := self.entities.locate(e)
	if !ok {
		return nil
	}
	a := self.archetypes.archetypes[row.archetypeIndex]
	if !a.hasComponent(id) {
		return nil
	}
	return a.componentAt(int(row.chunkIndex), int(row.slot), id)
}

// ensureComponentSlot guarantees e carries component id and returns the
// slot's address. When the component is already present the existing slot is
// returned untouched and no structure version tick happens. Otherwise the
// entity migrates to the widened archetype and the fresh, zero-initialized
// slot is returned.
func (self *World) ensureComponentSlot(e Entity, id ComponentID) (unsafe.Pointer, bool) {
	row, ok := self.entities.locate(e)
	if !ok {
		return nil, false
	}
	a := self.archetypes.archetypes[row.archetypeIndex]
	if a.hasComponent(id) {
		return a.componentAt(int(row.chunkIndex), int(row.slot), id), true
	}
	self.checkStructural("add component")
	dst := self.archetypes.getOrCreate(setMask(a.mask, id), self.blockSize())
	ci, slot, ok := self.migrate(e, row, dst)
	if !ok {
		return nil, false
	}
	return dst.componentAt(ci, slot, id), true
}

// setComponentRaw writes size bytes of component id onto e, adding the
// component first if absent. The value is moved in via the component's move
// hook when one is registered.
func (self *World) setComponentRaw(e Entity, id ComponentID, src unsafe.Pointer) bool {
	dst, ok := self.ensureComponentSlot(e, id)
	if !ok {
		return false
	}
	if move := componentInfos[id].move; move != nil {
		move(dst, src)
	} else {
		memCopy(dst, src, componentInfos[id].size)
	}
	return true
}

// ensureMask guarantees e carries every component in add, performing at most
// one migration no matter how many components are missing. Returns the
// archetype and slot the entity ends up in.
func (self *World) ensureMask(e Entity, add maskType) (*archetype, int, int, bool) {
	row, ok := self.entities.locate(e)
	if !ok {
		return nil, 0, 0, false
	}
	a := self.archetypes.archetypes[row.archetypeIndex]
	if includesAll(a.mask, add) {
		return a, int(row.chunkIndex), int(row.slot), true
	}
	self.checkStructural("add components")
	dst := self.archetypes.getOrCreate(orMask(a.mask, add), self.blockSize())
	ci, slot, ok := self.migrate(e, row, dst)
	if !ok {
		return nil, 0, 0, false
	}
	return dst, ci, slot, true
}

// stripMask removes every component in rem from e with a single migration.
// Components the entity does not have are ignored; when nothing remains to
// strip this is a no-op without a version tick.
func (self *World) stripMask(e Entity, rem maskType) bool {
	row, ok := self.entities.locate(e)
	if !ok {
		return false
	}
	a := self.archetypes.archetypes[row.archetypeIndex]
	if !intersects(a.mask, rem) {
		return false
	}
	self.checkStructural("remove components")
	var target maskType
	for i := range target {
		target[i] = a.mask[i] &^ rem[i]
	}
	dst := self.archetypes.getOrCreate(target, self.blockSize())
	_, _, ok = self.migrate(e, row, dst)
	return ok
}

// removeComponentByID strips component id off e, migrating it to the
// narrowed archetype. Removing a component the entity does not have is a
// no-op and does not tick the structure version.
func (self *World) removeComponentByID(e Entity, id ComponentID) bool {
	row, ok := self.entities.locate(e)
	if !ok {
		return false
	}
	a := self.archetypes.archetypes[row.archetypeIndex]
	if !a.hasComponent(id) {
		return false
	}
	self.checkStructural("remove component")
	dst := self.archetypes.getOrCreate(unsetMask(a.mask, id), self.blockSize())
	_, _, ok = self.migrate(e, row, dst)
	return ok
}

// migrate relocates e from its current archetype into dst. Components
// present in both signatures are moved across; components only in the source
// are dropped; components only in dst keep their zero initialization from
// reserveSlot. Bumps the structure version.
func (self *World) migrate(e Entity, row *entityRow, dst *archetype) (int, int, bool) {
	src := self.archetypes.archetypes[row.archetypeIndex]
	srcCI, srcSlot := int(row.chunkIndex), int(row.slot)

	ci, slot, err := dst.reserveSlot(&self.chunks)
	if err != nil {
		self.fail(err)
		return 0, 0, false
	}
	for _, id := range src.compOrder {
		srcPtr := src.componentAt(srcCI, srcSlot, id)
		if dst.hasComponent(id) {
			dstPtr := dst.chunks[ci].componentPtr(dst.offsets[id], dst.compSizes[id], slot)
			if move := componentInfos[id].move; move != nil {
				move(dstPtr, srcPtr)
			} else {
				memCopy(dstPtr, srcPtr, src.compSizes[id])
			}
		} else if drop := componentInfos[id].drop; drop != nil {
			drop(srcPtr)
		}
	}
	dst.commitSlot(ci, slot, e)
	src.removeSlot(self, srcCI, srcSlot, false)
	self.entities.update(e.ID, dst.index, ci, slot)
	self.archetypes.bumpVersion()
	return ci, slot, true
}

// BeginFrame opens a new frame: the previous frame's pending fatal error is
// surfaced first, then deferred commands recorded outside systems are played
// back. On error the frame is aborted and the world stays in its last
// consistent state.
func (self *World) BeginFrame(dt float64) error {
	if err := self.takeErr(); err != nil {
		return err
	}
	self.frame++
	self.cancel.reset()
	self.flushCommands()
	return self.takeErr()
}

// FixedUpdate runs one fixed-dt tick of the fixed phase, then flushes
// deferred commands. The caller owns the accumulator policy and may invoke
// this zero or more times per frame.
func (self *World) FixedUpdate(dt float64) error {
	self.systems.run(self, PhaseFixed, dt, 0)
	self.flushCommands()
	return self.takeErr()
}

// Update runs the variable-dt simulation phase. Structural edits recorded by
// systems stay buffered until EndFrame.
func (self *World) Update(dt float64) error {
	self.systems.run(self, PhaseSimulation, dt, 0)
	return self.takeErr()
}

// Render runs the render phase with the interpolation factor alpha.
func (self *World) Render(alpha float64) error {
	self.systems.run(self, PhaseRender, 0, alpha)
	return self.takeErr()
}

// EndFrame closes the frame by flushing all deferred commands.
func (self *World) EndFrame() error {
	self.flushCommands()
	return self.takeErr()
}

// flushCommands plays back every command buffer at a fence point: first each
// system's private buffer in the scheduler's topological order, then the world's
// shared buffer. FIFO order holds within each buffer.
func (self *World) flushCommands() {
	self.systems.flushBuffers(self)
	if err := self.deferred.playback(); err != nil {
		self.fail(err)
	}
}

// Clear destroys all entities and their components but keeps registered
// systems and recycles chunk blocks for reuse.
func (self *World) Clear() {
	self.checkStructural("clear world")
	for _, a := range self.archetypes.archetypes {
		a.clearAll(self)
	}
	self.entities.clear()
	self.alive = 0
	self.deferred.discard()
	self.systems.discardBuffers()
	self.archetypes.bumpVersion()
}

// Reset clears the world, unregisters all systems, releases the chunk free
// list, and rewinds the frame counter.
func (self *World) Reset() {
	self.Clear()
	self.systems.init()
	self.chunks.trim()
	self.frame = 0
}

package chirashi

import (
	"fmt"
	"unsafe"
)

// Access declares how a query touches one component type. The scheduler uses
// the declared modes to decide which systems of a layer may run in parallel.
type Access uint8

const (
	// In grants read-only access.
	In Access = iota
	// Out grants write access; the previous value must not be read.
	Out
	// InOut grants read and write access.
	InOut
)

func (a Access) writes() bool { return a != In }

// AccessSet is implemented by every query and exposes the component IDs it
// reads and writes, for the scheduler's conflict analysis.
type AccessSet interface {
	accessMasks() (reads, writes maskType)
}

// chunkRef is one entry of the snapshot a parallel iteration works over.
type chunkRef struct {
	arch *archetype
	c    *chunk
	ci   int
}

// queryCore carries the filter, the cached archetype list, and the chunk
// cursor shared by all query arities.
type queryCore struct {
	world         *World
	includeMask   maskType // components the entity must have
	excludeMask   maskType // components the entity must not have
	cached        []*archetype
	cachedVersion uint64
	hasCache      bool

	archIdx       int
	chunkIdx      int
	index         int
	curChunk      *chunk
	currentEntity Entity
}

// revalidate rebuilds the cached archetype list when the storage's structure
// version moved past the recorded one.
func (q *queryCore) revalidate() {
	st := &q.world.archetypes
	if q.hasCache && q.cachedVersion == st.version {
		return
	}
	q.cached = q.cached[:0]
	st.forEachMatching(q.includeMask, q.excludeMask, func(a *archetype) {
		q.cached = append(q.cached, a)
	})
	q.cachedVersion = st.version
	q.hasCache = true
}

// rewind resets the cursor to before the first slot.
func (q *queryCore) rewind() {
	q.revalidate()
	q.archIdx = 0
	q.chunkIdx = -1
	q.index = -1
	q.curChunk = nil
}

// nextChunk advances the cursor to the next non-empty chunk, returning its
// owning archetype, or nil when iteration is exhausted.
func (q *queryCore) nextChunk() *archetype {
	for q.archIdx < len(q.cached) {
		a := q.cached[q.archIdx]
		q.chunkIdx++
		if q.chunkIdx >= len(a.chunks) {
			q.archIdx++
			q.chunkIdx = -1
			continue
		}
		c := a.chunks[q.chunkIdx]
		if c.count == 0 {
			continue
		}
		q.curChunk = c
		q.index = 0
		q.currentEntity = c.identityAt(0)
		return a
	}
	q.curChunk = nil
	return nil
}

// step advances within the current chunk, returning false at its end.
func (q *queryCore) step() bool {
	q.index++
	if q.curChunk != nil && q.index < q.curChunk.count {
		q.currentEntity = q.curChunk.identityAt(q.index)
		return true
	}
	return false
}

// count sums live entities over matching archetypes. O(matching archetypes).
func (q *queryCore) count() int {
	q.revalidate()
	n := 0
	for _, a := range q.cached {
		n += a.size
	}
	return n
}

// snapshot collects the (archetype, chunk) pairs that currently match, for
// parallel dispatch.
func (q *queryCore) snapshot() []chunkRef {
	q.revalidate()
	var refs []chunkRef
	for _, a := range q.cached {
		for ci, c := range a.chunks {
			if c.count > 0 {
				refs = append(refs, chunkRef{arch: a, c: c, ci: ci})
			}
		}
	}
	return refs
}

// exclude folds component IDs into the with-none mask and invalidates the
// cache.
func (q *queryCore) exclude(ids []ComponentID) {
	for _, id := range ids {
		if q.includeMask.has(id) {
			panic(fmt.Sprintf("component %d both required and excluded by query", id))
		}
		q.excludeMask = setMask(q.excludeMask, id)
	}
	q.hasCache = false
}

// Query is an iterator over entities that have a specific set of components.
// This query is for entities with one component type.
//
// A query is a value: it may be stored across frames and transparently
// revalidates its archetype cache against the storage's structure version
// whenever it is rewound.
type Query[T1 any] struct {
	queryCore
	id1     ComponentID
	access1 Access
	base1   unsafe.Pointer
	stride1 uintptr
}

// NewQuery creates a query over entities carrying component T1 with the
// given access mode. The component type is registered on first sight.
func NewQuery[T1 any](w *World, access1 Access) *Query[T1] {
	id1 := RegisterComponent[T1]()
	q := &Query[T1]{id1: id1, access1: access1, stride1: componentInfos[id1].size}
	q.world = w
	q.includeMask = makeMask([]ComponentID{id1})
	q.rewind()
	return q
}

// Without adds component types the matched entities must not have.
func (self *Query[T1]) Without(ids ...ComponentID) *Query[T1] {
	self.exclude(ids)
	self.rewind()
	return self
}

// Reset resets the query for reuse, revalidating the archetype cache.
func (self *Query[T1]) Reset() {
	self.rewind()
}

// Next advances to the next entity. Returns false if no more entities.
func (self *Query[T1]) Next() bool {
	if self.step() {
		return true
	}
	a := self.nextChunk()
	if a == nil {
		return false
	}
	self.base1 = self.curChunk.arrayBase(a.offsets[self.id1])
	if self.access1.writes() {
		self.curChunk.version++
	}
	return true
}

// Get returns a pointer to the component for the current entity.
func (self *Query[T1]) Get() *T1 {
	return (*T1)(unsafe.Add(self.base1, uintptr(self.index)*self.stride1))
}

// Entity returns the current entity.
func (self *Query[T1]) Entity() Entity {
	return self.currentEntity
}

// Count returns the number of matching entities.
func (self *Query[T1]) Count() int { return self.count() }

// IsEmpty reports whether no entity matches.
func (self *Query[T1]) IsEmpty() bool { return self.count() == 0 }

// ForEach invokes fn for every matching entity in insertion order within a
// chunk and archetype-discovery order across chunks.
func (self *Query[T1]) ForEach(fn func(Entity, *T1)) {
	self.Reset()
	for self.Next() {
		fn(self.currentEntity, self.Get())
	}
}

// ParallelForEach dispatches one work item per matching chunk onto the
// world's executor and invokes fn for every slot. The storage is
// read-locked for the duration: structural edits from inside fn are a
// contract violation and must go through a command buffer. The frame's
// cancellation token is polled between chunks.
func (self *Query[T1]) ParallelForEach(fn func(Entity, *T1)) {
	refs := self.snapshot()
	if len(refs) == 0 {
		return
	}
	w := self.world
	w.locks.Add(1)
	defer w.locks.Add(-1)
	w.executor.SpawnRange(0, len(refs), func(worker, begin, end int) {
		for i := begin; i < end; i++ {
			if w.cancel.Cancelled() {
				return
			}
			ref := refs[i]
			base1 := ref.c.arrayBase(ref.arch.offsets[self.id1])
			if self.access1.writes() {
				ref.c.version++
			}
			for s, n := 0, ref.c.count; s < n; s++ {
				fn(ref.c.identityAt(s), (*T1)(unsafe.Add(base1, uintptr(s)*self.stride1)))
			}
		}
	}).Join()
}

// accessMasks implements AccessSet.
func (self *Query[T1]) accessMasks() (maskType, maskType) {
	var reads, writes maskType
	if self.access1.writes() {
		writes = setMask(writes, self.id1)
	} else {
		reads = setMask(reads, self.id1)
	}
	return reads, writes
}

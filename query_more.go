package chirashi

import (
	"fmt"
	"unsafe"
)

// checkDistinct panics when a component type appears more than once in a
// query's access list.
func checkDistinct(ids ...ComponentID) {
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[i] == ids[j] {
				panic(fmt.Sprintf("component %s appears twice in query access list", componentInfos[ids[i]].typ))
			}
		}
	}
}

// Query2 is an iterator over entities that have a specific set of components.
// This query is for entities with two component types.
type Query2[T1 any, T2 any] struct {
	queryCore
	id1, id2         ComponentID
	access1, access2 Access
	base1, base2     unsafe.Pointer
	stride1, stride2 uintptr
}

// NewQuery2 creates a query over entities carrying components T1 and T2 with
// the given access modes.
func NewQuery2[T1 any, T2 any](w *World, access1, access2 Access) *Query2[T1, T2] {
	id1 := RegisterComponent[T1]()
	id2 := RegisterComponent[T2]()
	checkDistinct(id1, id2)
	q := &Query2[T1, T2]{
		id1: id1, id2: id2,
		access1: access1, access2: access2,
		stride1: componentInfos[id1].size,
		stride2: componentInfos[id2].size,
	}
	q.world = w
	q.includeMask = makeMask([]ComponentID{id1, id2})
	q.rewind()
	return q
}

// Without adds component types the matched entities must not have.
func (self *Query2[T1, T2]) Without(ids ...ComponentID) *Query2[T1, T2] {
	self.exclude(ids)
	self.rewind()
	return self
}

// Reset resets the query for reuse, revalidating the archetype cache.
func (self *Query2[T1, T2]) Reset() {
	self.rewind()
}

// Next advances to the next entity. Returns false if no more entities.
func (self *Query2[T1, T2]) Next() bool {
	if self.step() {
		return true
	}
	a := self.nextChunk()
	if a == nil {
		return false
	}
	self.base1 = self.curChunk.arrayBase(a.offsets[self.id1])
	self.base2 = self.curChunk.arrayBase(a.offsets[self.id2])
	if self.access1.writes() || self.access2.writes() {
		self.curChunk.version++
	}
	return true
}

// Get returns pointers to the components for the current entity.
func (self *Query2[T1, T2]) Get() (*T1, *T2) {
	p1 := unsafe.Add(self.base1, uintptr(self.index)*self.stride1)
	p2 := unsafe.Add(self.base2, uintptr(self.index)*self.stride2)
	return (*T1)(p1), (*T2)(p2)
}

// Entity returns the current entity.
func (self *Query2[T1, T2]) Entity() Entity {
	return self.currentEntity
}

// Count returns the number of matching entities.
func (self *Query2[T1, T2]) Count() int { return self.count() }

// IsEmpty reports whether no entity matches.
func (self *Query2[T1, T2]) IsEmpty() bool { return self.count() == 0 }

// ForEach invokes fn for every matching entity.
func (self *Query2[T1, T2]) ForEach(fn func(Entity, *T1, *T2)) {
	self.Reset()
	for self.Next() {
		p1, p2 := self.Get()
		fn(self.currentEntity, p1, p2)
	}
}

// ParallelForEach dispatches one work item per matching chunk onto the
// world's executor. Structural edits from inside fn must go through a
// command buffer.
func (self *Query2[T1, T2]) ParallelForEach(fn func(Entity, *T1, *T2)) {
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
			base2 := ref.c.arrayBase(ref.arch.offsets[self.id2])
			if self.access1.writes() || self.access2.writes() {
				ref.c.version++
			}
			for s, n := 0, ref.c.count; s < n; s++ {
				fn(ref.c.identityAt(s),
					(*T1)(unsafe.Add(base1, uintptr(s)*self.stride1)),
					(*T2)(unsafe.Add(base2, uintptr(s)*self.stride2)))
			}
		}
	}).Join()
}

// accessMasks implements AccessSet.
func (self *Query2[T1, T2]) accessMasks() (maskType, maskType) {
	var reads, writes maskType
	for _, ac := range [...]struct {
		id ComponentID
		a  Access
	}{{self.id1, self.access1}, {self.id2, self.access2}} {
		if ac.a.writes() {
			writes = setMask(writes, ac.id)
		} else {
			reads = setMask(reads, ac.id)
		}
	}
	return reads, writes
}

// Query3 is an iterator over entities that have a specific set of components.
// This query is for entities with three component types.
type Query3[T1 any, T2 any, T3 any] struct {
	queryCore
	id1, id2, id3             ComponentID
	access1, access2, access3 Access
	base1, base2, base3       unsafe.Pointer
	stride1, stride2, stride3 uintptr
}

// NewQuery3 creates a query over entities carrying components T1, T2 and T3
// with the given access modes.
func NewQuery3[T1 any, T2 any, T3 any](w *World, access1, access2, access3 Access) *Query3[T1, T2, T3] {
	id1 := RegisterComponent[T1]()
	id2 := RegisterComponent[T2]()
	id3 := RegisterComponent[T3]()
	checkDistinct(id1, id2, id3)
	q := &Query3[T1, T2, T3]{
		id1: id1, id2: id2, id3: id3,
		access1: access1, access2: access2, access3: access3,
		stride1: componentInfos[id1].size,
		stride2: componentInfos[id2].size,
		stride3: componentInfos[id3].size,
	}
	q.world = w
	q.includeMask = makeMask([]ComponentID{id1, id2, id3})
	q.rewind()
	return q
}

// Without adds component types the matched entities must not have.
func (self *Query3[T1, T2, T3]) Without(ids ...ComponentID) *Query3[T1, T2, T3] {
	self.exclude(ids)
	self.rewind()
	return self
}

// Reset resets the query for reuse, revalidating the archetype cache.
func (self *Query3[T1, T2, T3]) Reset() {
	self.rewind()
}

// Next advances to the next entity. Returns false if no more entities.
func (self *Query3[T1, T2, T3]) Next() bool {
	if self.step() {
		return true
	}
	a := self.nextChunk()
	if a == nil {
		return false
	}
	self.base1 = self.curChunk.arrayBase(a.offsets[self.id1])
	self.base2 = self.curChunk.arrayBase(a.offsets[self.id2])
	self.base3 = self.curChunk.arrayBase(a.offsets[self.id3])
	if self.access1.writes() || self.access2.writes() || self.access3.writes() {
		self.curChunk.version++
	}
	return true
}

// Get returns pointers to the components for the current entity.
func (self *Query3[T1, T2, T3]) Get() (*T1, *T2, *T3) {
	p1 := unsafe.Add(self.base1, uintptr(self.index)*self.stride1)
	p2 := unsafe.Add(self.base2, uintptr(self.index)*self.stride2)
	p3 := unsafe.Add(self.base3, uintptr(self.index)*self.stride3)
	return (*T1)(p1), (*T2)(p2), (*T3)(p3)
}

// Entity returns the current entity.
func (self *Query3[T1, T2, T3]) Entity() Entity {
	return self.currentEntity
}

// Count returns the number of matching entities.
func (self *Query3[T1, T2, T3]) Count() int { return self.count() }

// IsEmpty reports whether no entity matches.
func (self *Query3[T1, T2, T3]) IsEmpty() bool { return self.count() == 0 }

// ForEach invokes fn for every matching entity.
func (self *Query3[T1, T2, T3]) ForEach(fn func(Entity, *T1, *T2, *T3)) {
	self.Reset()
	for self.Next() {
		p1, p2, p3 := self.Get()
		fn(self.currentEntity, p1, p2, p3)
	}
}

// ParallelForEach dispatches one work item per matching chunk onto the
// world's executor. Structural edits from inside fn must go through a
// command buffer.
func (self *Query3[T1, T2, T3]) ParallelForEach(fn func(Entity, *T1, *T2, *T3)) {
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
			base2 := ref.c.arrayBase(ref.arch.offsets[self.id2])
			base3 := ref.c.arrayBase(ref.arch.offsets[self.id3])
			if self.access1.writes() || self.access2.writes() || self.access3.writes() {
				ref.c.version++
			}
			for s, n := 0, ref.c.count; s < n; s++ {
				fn(ref.c.identityAt(s),
					(*T1)(unsafe.Add(base1, uintptr(s)*self.stride1)),
					(*T2)(unsafe.Add(base2, uintptr(s)*self.stride2)),
					(*T3)(unsafe.Add(base3, uintptr(s)*self.stride3)))
			}
		}
	}).Join()
}

// accessMasks implements AccessSet.
func (self *Query3[T1, T2, T3]) accessMasks() (maskType, maskType) {
	var reads, writes maskType
	for _, ac := range [...]struct {
		id ComponentID
		a  Access
	}{{self.id1, self.access1}, {self.id2, self.access2}, {self.id3, self.access3}} {
		if ac.a.writes() {
			writes = setMask(writes, ac.id)
		} else {
			reads = setMask(reads, ac.id)
		}
	}
	return reads, writes
}

// Query4 is an iterator over entities that have a specific set of components.
// This query is for entities with four component types.
type Query4[T1 any, T2 any, T3 any, T4 any] struct {
	queryCore
	id1, id2, id3, id4                 ComponentID
	access1, access2, access3, access4 Access
	base1, base2, base3, base4         unsafe.Pointer
	stride1, stride2, stride3, stride4 uintptr
}

// NewQuery4 creates a query over entities carrying components T1 through T4
// with the given access modes.
func NewQuery4[T1 any, T2 any, T3 any, T4 any](w *World, access1, access2, access3, access4 Access) *Query4[T1, T2, T3, T4] {
	id1 := RegisterComponent[T1]()
	id2 := RegisterComponent[T2]()
	id3 := RegisterComponent[T3]()
	id4 := RegisterComponent[T4]()
	checkDistinct(id1, id2, id3, id4)
	q := &Query4[T1, T2, T3, T4]{
		id1: id1, id2: id2, id3: id3, id4: id4,
		access1: access1, access2: access2, access3: access3, access4: access4,
		stride1: componentInfos[id1].size,
		stride2: componentInfos[id2].size,
		stride3: componentInfos[id3].size,
		stride4: componentInfos[id4].size,
	}
	q.world = w
	q.includeMask = makeMask([]ComponentID{id1, id2, id3, id4})
	q.rewind()
	return q
}

// Without adds component types the matched entities must not have.
func (self *Query4[T1, T2, T3, T4]) Without(ids ...ComponentID) *Query4[T1, T2, T3, T4] {
	self.exclude(ids)
	self.rewind()
	return self
}

// Reset resets the query for reuse, revalidating the archetype cache.
func (self *Query4[T1, T2, T3, T4]) Reset() {
	self.rewind()
}

// Next advances to the next entity. Returns false if no more entities.
func (self *Query4[T1, T2, T3, T4]) Next() bool {
	if self.step() {
		return true
	}
	a := self.nextChunk()
	if a == nil {
		return false
	}
	self.base1 = self.curChunk.arrayBase(a.offsets[self.id1])
	self.base2 = self.curChunk.arrayBase(a.offsets[self.id2])
	self.base3 = self.curChunk.arrayBase(a.offsets[self.id3])
	self.base4 = self.curChunk.arrayBase(a.offsets[self.id4])
	if self.access1.writes() || self.access2.writes() || self.access3.writes() || self.access4.writes() {
		self.curChunk.version++
	}
	return true
}

// Get returns pointers to the components for the current entity.
func (self *Query4[T1, T2, T3, T4]) Get() (*T1, *T2, *T3, *T4) {
	p1 := unsafe.Add(self.base1, uintptr(self.index)*self.stride1)
	p2 := unsafe.Add(self.base2, uintptr(self.index)*self.stride2)
	p3 := unsafe.Add(self.base3, uintptr(self.index)*self.stride3)
	p4 := unsafe.Add(self.base4, uintptr(self.index)*self.stride4)
	return (*T1)(p1), (*T2)(p2), (*T3)(p3), (*T4)(p4)
}

// Entity returns the current entity.
func (self *Query4[T1, T2, T3, T4]) Entity() Entity {
	return self.currentEntity
}

// Count returns the number of matching entities.
func (self *Query4[T1, T2, T3, T4]) Count() int { return self.count() }

// IsEmpty reports whether no entity matches.
func (self *Query4[T1, T2, T3, T4]) IsEmpty() bool { return self.count() == 0 }

// ForEach invokes fn for every matching entity.
func (self *Query4[T1, T2, T3, T4]) ForEach(fn func(Entity, *T1, *T2, *T3, *T4)) {
	self.Reset()
	for self.Next() {
		p1, p2, p3, p4 := self.Get()
		fn(self.currentEntity, p1, p2, p3, p4)
	}
}

// ParallelForEach dispatches one work item per matching chunk onto the
// world's executor. Structural edits from inside fn must go through a
// command buffer.
func (self *Query4[T1, T2, T3, T4]) ParallelForEach(fn func(Entity, *T1, *T2, *T3, *T4)) {
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
			base2 := ref.c.arrayBase(ref.arch.offsets[self.id2])
			base3 := ref.c.arrayBase(ref.arch.offsets[self.id3])
			base4 := ref.c.arrayBase(ref.arch.offsets[self.id4])
			if self.access1.writes() || self.access2.writes() || self.access3.writes() || self.access4.writes() {
				ref.c.version++
			}
			for s, n := 0, ref.c.count; s < n; s++ {
				fn(ref.c.identityAt(s),
					(*T1)(unsafe.Add(base1, uintptr(s)*self.stride1)),
					(*T2)(unsafe.Add(base2, uintptr(s)*self.stride2)),
					(*T3)(unsafe.Add(base3, uintptr(s)*self.stride3)),
					(*T4)(unsafe.Add(base4, uintptr(s)*self.stride4)))
			}
		}
	}).Join()
}

// accessMasks implements AccessSet.
func (self *Query4[T1, T2, T3, T4]) accessMasks() (maskType, maskType) {
	var reads, writes maskType
	for _, ac := range [...]struct {
		id ComponentID
		a  Access
	}{{self.id1, self.access1}, {self.id2, self.access2}, {self.id3, self.access3}, {self.id4, self.access4}} {
		if ac.a.writes() {
			writes = setMask(writes, ac.id)
		} else {
			reads = setMask(reads, ac.id)
		}
	}
	return reads, writes
}

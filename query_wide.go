package chirashi

import "unsafe"

// Query5 is an iterator over entities that have a specific set of components.
// This query is for entities with five component types.
type Query5[T1 any, T2 any, T3 any, T4 any, T5 any] struct {
	queryCore
	id1, id2, id3, id4, id5                     ComponentID
	access1, access2, access3, access4, access5 Access
	base1, base2, base3, base4, base5           unsafe.Pointer
	stride1, stride2, stride3, stride4, stride5 uintptr
}

// NewQuery5 creates a query over entities carrying components T1 through T5
// with the given access modes.
func NewQuery5[T1 any, T2 any, T3 any, T4 any, T5 any](w *World, access1, access2, access3, access4, access5 Access) *Query5[T1, T2, T3, T4, T5] {
	id1 := RegisterComponent[T1]()
	id2 := RegisterComponent[T2]()
	id3 := RegisterComponent[T3]()
	id4 := RegisterComponent[T4]()
	id5 := RegisterComponent[T5]()
	checkDistinct(id1, id2, id3, id4, id5)
	q := &Query5[T1, T2, T3, T4, T5]{
		id1: id1, id2: id2, id3: id3, id4: id4, id5: id5,
		access1: access1, access2: access2, access3: access3, access4: access4, access5: access5,
		stride1: componentInfos[id1].size,
		stride2: componentInfos[id2].size,
		stride3: componentInfos[id3].size,
		stride4: componentInfos[id4].size,
		stride5: componentInfos[id5].size,
	}
	q.world = w
	q.includeMask = makeMask([]ComponentID{id1, id2, id3, id4, id5})
	q.rewind()
	return q
}

// Without adds component types the matched entities must not have.
func (self *Query5[T1, T2, T3, T4, T5]) Without(ids ...ComponentID) *Query5[T1, T2, T3, T4, T5] {
	self.exclude(ids)
	self.rewind()
	return self
}

// Reset resets the query for reuse, revalidating the archetype cache.
func (self *Query5[T1, T2, T3, T4, T5]) Reset() {
	self.rewind()
}

// Next advances to the next entity. Returns false if no more entities.
func (self *Query5[T1, T2, T3, T4, T5]) Next() bool {
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
	self.base5 = self.curChunk.arrayBase(a.offsets[self.id5])
	if self.access1.writes() || self.access2.writes() || self.access3.writes() ||
		self.access4.writes() || self.access5.writes() {
		self.curChunk.version++
	}
	return true
}

// Get returns pointers to the components for the current entity.
func (self *Query5[T1, T2, T3, T4, T5]) Get() (*T1, *T2, *T3, *T4, *T5) {
	p1 := unsafe.Add(self.base1, uintptr(self.index)*self.stride1)
	p2 := unsafe.Add(self.base2, uintptr(self.index)*self.stride2)
	p3 := unsafe.Add(self.base3, uintptr(self.index)*self.stride3)
	p4 := unsafe.Add(self.base4, uintptr(self.index)*self.stride4)
	p5 := unsafe.Add(self.base5, uintptr(self.index)*self.stride5)
	return (*T1)(p1), (*T2)(p2), (*T3)(p3), (*T4)(p4), (*T5)(p5)
}

// Entity returns the current entity.
func (self *Query5[T1, T2, T3, T4, T5]) Entity() Entity {
	return self.currentEntity
}

// Count returns the number of matching entities.
func (self *Query5[T1, T2, T3, T4, T5]) Count() int { return self.count() }

// IsEmpty reports whether no entity matches.
func (self *Query5[T1, T2, T3, T4, T5]) IsEmpty() bool { return self.count() == 0 }

// ForEach invokes fn for every matching entity.
func (self *Query5[T1, T2, T3, T4, T5]) ForEach(fn func(Entity, *T1, *T2, *T3, *T4, *T5)) {
	self.Reset()
	for self.Next() {
		p1, p2, p3, p4, p5 := self.Get()
		fn(self.currentEntity, p1, p2, p3, p4, p5)
	}
}

// ParallelForEach dispatches one work item per matching chunk onto the
// world's executor. Structural edits from inside fn must go through a
// command buffer.
func (self *Query5[T1, T2, T3, T4, T5]) ParallelForEach(fn func(Entity, *T1, *T2, *T3, *T4, *T5)) {
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
			base5 := ref.c.arrayBase(ref.arch.offsets[self.id5])
			if self.access1.writes() || self.access2.writes() || self.access3.writes() ||
				self.access4.writes() || self.access5.writes() {
				ref.c.version++
			}
			for s, n := 0, ref.c.count; s < n; s++ {
				fn(ref.c.identityAt(s),
					(*T1)(unsafe.Add(base1, uintptr(s)*self.stride1)),
					(*T2)(unsafe.Add(base2, uintptr(s)*self.stride2)),
					(*T3)(unsafe.Add(base3, uintptr(s)*self.stride3)),
					(*T4)(unsafe.Add(base4, uintptr(s)*self.stride4)),
					(*T5)(unsafe.Add(base5, uintptr(s)*self.stride5)))
			}
		}
	}).Join()
}

// accessMasks implements AccessSet.
func (self *Query5[T1, T2, T3, T4, T5]) accessMasks() (maskType, maskType) {
	var reads, writes maskType
	for _, ac := range [...]struct {
		id ComponentID
		a  Access
	}{
		{self.id1, self.access1}, {self.id2, self.access2}, {self.id3, self.access3},
		{self.id4, self.access4}, {self.id5, self.access5},
	} {
		if ac.a.writes() {
			writes = setMask(writes, ac.id)
		} else {
			reads = setMask(reads, ac.id)
		}
	}
	return reads, writes
}

// Query6 is an iterator over entities that have a specific set of components.
// This query is for entities with six component types.
type Query6[T1 any, T2 any, T3 any, T4 any, T5 any, T6 any] struct {
	queryCore
	id1, id2, id3, id4, id5, id6                         ComponentID
	access1, access2, access3, access4, access5, access6 Access
	base1, base2, base3, base4, base5, base6             unsafe.Pointer
	stride1, stride2, stride3, stride4, stride5, stride6 uintptr
}

// NewQuery6 creates a query over entities carrying components T1 through T6
// with the given access modes.
func NewQuery6[T1 any, T2 any, T3 any, T4 any, T5 any, T6 any](w *World, access1, access2, access3, access4, access5, access6 Access) *Query6[T1, T2, T3, T4, T5, T6] {
	id1 := RegisterComponent[T1]()
	id2 := RegisterComponent[T2]()
	id3 := RegisterComponent[T3]()
	id4 := RegisterComponent[T4]()
	id5 := RegisterComponent[T5]()
	id6 := RegisterComponent[T6]()
	checkDistinct(id1, id2, id3, id4, id5, id6)
	q := &Query6[T1, T2, T3, T4, T5, T6]{
		id1: id1, id2: id2, id3: id3, id4: id4, id5: id5, id6: id6,
		access1: access1, access2: access2, access3: access3,
		access4: access4, access5: access5, access6: access6,
		stride1: componentInfos[id1].size,
		stride2: componentInfos[id2].size,
		stride3: componentInfos[id3].size,
		stride4: componentInfos[id4].size,
		stride5: componentInfos[id5].size,
		stride6: componentInfos[id6].size,
	}
	q.world = w
	q.includeMask = makeMask([]ComponentID{id1, id2, id3, id4, id5, id6})
	q.rewind()
	return q
}

// Without adds component types the matched entities must not have.
func (self *Query6[T1, T2, T3, T4, T5, T6]) Without(ids ...ComponentID) *Query6[T1, T2, T3, T4, T5, T6] {
	self.exclude(ids)
	self.rewind()
	return self
}

// Reset resets the query for reuse, revalidating the archetype cache.
func (self *Query6[T1, T2, T3, T4, T5, T6]) Reset() {
	self.rewind()
}

// Next advances to the next entity. Returns false if no more entities.
func (self *Query6[T1, T2, T3, T4, T5, T6]) Next() bool {
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
	self.base5 = self.curChunk.arrayBase(a.offsets[self.id5])
	self.base6 = self.curChunk.arrayBase(a.offsets[self.id6])
	if self.access1.writes() || self.access2.writes() || self.access3.writes() ||
		self.access4.writes() || self.access5.writes() || self.access6.writes() {
		self.curChunk.version++
	}
	return true
}

// Get returns pointers to the components for the current entity.
func (self *Query6[T1, T2, T3, T4, T5, T6]) Get() (*T1, *T2, *T3, *T4, *T5, *T6) {
	p1 := unsafe.Add(self.base1, uintptr(self.index)*self.stride1)
	p2 := unsafe.Add(self.base2, uintptr(self.index)*self.stride2)
	p3 := unsafe.Add(self.base3, uintptr(self.index)*self.stride3)
	p4 := unsafe.Add(self.base4, uintptr(self.index)*self.stride4)
	p5 := unsafe.Add(self.base5, uintptr(self.index)*self.stride5)
	p6 := unsafe.Add(self.base6, uintptr(self.index)*self.stride6)
	return (*T1)(p1), (*T2)(p2), (*T3)(p3), (*T4)(p4), (*T5)(p5), (*T6)(p6)
}

// Entity returns the current entity.
func (self *Query6[T1, T2, T3, T4, T5, T6]) Entity() Entity {
	return self.currentEntity
}

// Count returns the number of matching entities.
func (self *Query6[T1, T2, T3, T4, T5, T6]) Count() int { return self.count() }

// IsEmpty reports whether no entity matches.
func (self *Query6[T1, T2, T3, T4, T5, T6]) IsEmpty() bool { return self.count() == 0 }

// ForEach invokes fn for every matching entity.
func (self *Query6[T1, T2, T3, T4, T5, T6]) ForEach(fn func(Entity, *T1, *T2, *T3, *T4, *T5, *T6)) {
	self.Reset()
	for self.Next() {
		p1, p2, p3, p4, p5, p6 := self.Get()
		fn(self.currentEntity, p1, p2, p3, p4, p5, p6)
	}
}

// accessMasks implements AccessSet.
func (self *Query6[T1, T2, T3, T4, T5, T6]) accessMasks() (maskType, maskType) {
	var reads, writes maskType
	for _, ac := range [...]struct {
		id ComponentID
		a  Access
	}{
		{self.id1, self.access1}, {self.id2, self.access2}, {self.id3, self.access3},
		{self.id4, self.access4}, {self.id5, self.access5}, {self.id6, self.access6},
	} {
		if ac.a.writes() {
			writes = setMask(writes, ac.id)
		} else {
			reads = setMask(reads, ac.id)
		}
	}
	return reads, writes
}

package chirashi

import (
	"fmt"
	"unsafe"
)

// archetype holds the storage for one unique component-set mask: the SoA
// layout shared by all of its chunks, and the chunk list itself. Entities
// with the same set of components always live in the same archetype.
type archetype struct {
	index     int                        // position in the archetype storage
	mask      maskType                   // which component bits this archetype uses
	compOrder []ComponentID              // ascending component IDs; the canonical signature
	offsets   [maxComponentTypes]uintptr // byte offset of each component array inside a chunk
	compSizes [maxComponentTypes]uintptr // stride of each component array
	capacity  int                        // entities per chunk
	chunks    []*chunk
	size      int // total live entities across all chunks
}

// newArchetype lays out the SoA arrays for the given signature within one
// block of blockSize bytes and returns the empty archetype. The identity
// array sits at offset zero; each component array follows, aligned to the
// component's alignment. Capacity is the exact largest entity count whose
// layout fits the block.
func newArchetype(index int, mask maskType, ids []ComponentID, blockSize int) *archetype {
	a := &archetype{
		index:     index,
		mask:      mask,
		compOrder: ids,
	}
	for _, id := range ids {
		a.compSizes[id] = componentInfos[id].size
	}
	a.capacity = a.computeLayout(blockSize)
	return a
}

// computeLayout finds the largest capacity whose layout fits blockSize and
// records the per-component offsets for it.
func (a *archetype) computeLayout(blockSize int) int {
	var sum uintptr = entityStride
	for _, id := range a.compOrder {
		sum += componentInfos[id].size
	}
	n := blockSize / int(sum)
	for n > 0 {
		if a.layoutSize(n) <= uintptr(blockSize) {
			break
		}
		n--
	}
	if n == 0 {
		panic(fmt.Sprintf("component set of %d bytes does not fit a %d byte chunk", sum, blockSize))
	}
	return n
}

// layoutSize computes the block footprint for capacity n and stores the
// component offsets that capacity implies.
func (a *archetype) layoutSize(n int) uintptr {
	off := uintptr(n) * entityStride
	for _, id := range a.compOrder {
		info := &componentInfos[id]
		off = alignUp(off, info.align)
		a.offsets[id] = off
		off += uintptr(n) * info.size
	}
	return off
}

// hasComponent reports whether the signature contains id.
func (a *archetype) hasComponent(id ComponentID) bool {
	return a.mask.has(id)
}

// componentAt returns the address of the component id at (chunkIndex, slot).
// The caller must know the component is part of the signature.
func (a *archetype) componentAt(chunkIndex, slot int, id ComponentID) unsafe.Pointer {
	c := a.chunks[chunkIndex]
	return c.componentPtr(a.offsets[id], a.compSizes[id], slot)
}

// reserveSlot picks a chunk with room, allocating a new block from the store
// if every chunk is full, and returns the reserved (chunk, slot) position
// with all component payloads zeroed. The slot is not counted in until the
// caller writes the identity via commitSlot.
func (a *archetype) reserveSlot(store *chunkStore) (int, int, error) {
	ci := len(a.chunks) - 1
	if ci < 0 || a.chunks[ci].count == a.capacity {
		block, err := store.acquire()
		if err != nil {
			return 0, 0, err
		}
		a.chunks = append(a.chunks, &chunk{block: block})
		ci = len(a.chunks) - 1
	}
	c := a.chunks[ci]
	slot := c.count
	a.zeroSlot(ci, slot)
	return ci, slot, nil
}

// commitSlot writes the identity for a freshly reserved slot and counts it in.
func (a *archetype) commitSlot(ci, slot int, e Entity) {
	c := a.chunks[ci]
	c.setIdentity(slot, e)
	c.count++
	a.size++
}

// zeroSlot clears the component payloads of one slot. Recycled blocks and
// swap-removed slots leave stale bytes behind, so every insert starts from
// zeroed memory.
func (a *archetype) zeroSlot(ci, slot int) {
	for _, id := range a.compOrder {
		memZero(a.componentAt(ci, slot, id), a.compSizes[id])
	}
}

// dropSlot runs the drop hook of every component at (ci, slot). Trivially
// destructible components are skipped.
func (a *archetype) dropSlot(ci, slot int) {
	for _, id := range a.compOrder {
		if drop := componentInfos[id].drop; drop != nil {
			drop(a.componentAt(ci, slot, id))
		}
	}
}

// removeSlot vacates (ci, slot) with the swap-remove scheme: the occupant of
// the archetype's very last slot is relocated into the hole and its entity
// row updated; the last chunk shrinks by one and is returned to the store
// when it empties. When runDrops is false the caller has already disposed of
// the slot's components (cross-archetype moves drop or move them piecemeal).
func (a *archetype) removeSlot(w *World, ci, slot int, runDrops bool) {
	if runDrops {
		a.dropSlot(ci, slot)
	}
	lastCI := len(a.chunks) - 1
	last := a.chunks[lastCI]
	lastSlot := last.count - 1

	if ci != lastCI || slot != lastSlot {
		moved := last.identityAt(lastSlot)
		for _, id := range a.compOrder {
			dst := a.componentAt(ci, slot, id)
			src := a.componentAt(lastCI, lastSlot, id)
			if move := componentInfos[id].move; move != nil {
				move(dst, src)
			} else {
				memCopy(dst, src, a.compSizes[id])
			}
		}
		a.chunks[ci].setIdentity(slot, moved)
		w.entities.update(moved.ID, a.index, ci, slot)
	}

	last.count--
	a.size--
	if last.count == 0 {
		w.chunks.release(last.block)
		a.chunks = a.chunks[:lastCI]
	}
}

// clearAll drops every live slot and returns all chunks to the store.
func (a *archetype) clearAll(w *World) {
	for ci, c := range a.chunks {
		for s := 0; s < c.count; s++ {
			a.dropSlot(ci, s)
		}
		w.chunks.release(c.block)
	}
	a.chunks = a.chunks[:0]
	a.size = 0
}

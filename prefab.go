package chirashi

import (
	"reflect"
	"unsafe"
)

// Prefab is a frozen entity template: a signature plus default values for
// each component. Instantiating a prefab allocates a slot in the matching
// archetype and copies the captured values into it. Prefabs are immutable
// after construction and safe to share.
type Prefab struct {
	ids  []ComponentID
	mask maskType
	data [][]byte // captured default bytes, parallel to ids
}

// NewPrefab builds a prefab from component values. Types are resolved (and
// registered on first sight) from the runtime values.
func NewPrefab(components ...any) *Prefab {
	p := &Prefab{}
	for _, c := range components {
		id, rv := componentIDOf(c)
		if p.mask.has(id) {
			continue
		}
		info := &componentInfos[id]
		data := make([]byte, info.size)
		if info.size > 0 {
			val := reflect.New(rv.Type())
			val.Elem().Set(rv)
			copy(data, unsafe.Slice((*byte)(val.UnsafePointer()), info.size))
		}
		p.ids = append(p.ids, id)
		p.mask = setMask(p.mask, id)
		p.data = append(p.data, data)
	}
	return p
}

// PrefabFromEntity freezes a live entity's current components into a prefab.
// Returns false for a stale handle.
func PrefabFromEntity(w *World, e Entity) (*Prefab, bool) {
	row, ok := w.entities.locate(e)
	if !ok {
		return nil, false
	}
	a := w.archetypes.archetypes[row.archetypeIndex]
	p := &Prefab{mask: a.mask}
	for _, id := range a.compOrder {
		size := componentInfos[id].size
		data := make([]byte, size)
		if size > 0 {
			src := a.componentAt(int(row.chunkIndex), int(row.slot), id)
			copy(data, unsafe.Slice((*byte)(src), size))
		}
		p.ids = append(p.ids, id)
		p.data = append(p.data, data)
	}
	return p, true
}

// Instantiate clones the template into the world and returns the new entity.
// Component values are copied from the captured defaults.
func (p *Prefab) Instantiate(w *World) (Entity, error) {
	a := w.archetypes.getOrCreate(p.mask, w.blockSize())
	w.checkStructural("instantiate prefab")
	ci, slot, err := a.reserveSlot(&w.chunks)
	if err != nil {
		w.fail(err)
		return InvalidEntity, err
	}
	e := w.entities.create()
	a.commitSlot(ci, slot, e)
	w.entities.update(e.ID, a.index, ci, slot)
	w.alive++
	for i, id := range p.ids {
		if len(p.data[i]) == 0 {
			continue
		}
		memCopy(a.componentAt(ci, slot, id), unsafe.Pointer(&p.data[i][0]), componentInfos[id].size)
	}
	return e, nil
}

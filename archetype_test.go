package chirashi

import (
	"testing"
	"unsafe"
)

func TestSwapRemovePreservesIdentity(t *testing.T) {
	w := NewWorld()
	batch := CreateBatch[Health](w)
	entities := make([]Entity, 10)
	for i := range entities {
		e := batch.NewEntity()
		SetComponent(w, e, Health{HP: i})
		entities[i] = e
	}

	locsBefore := make([]Location, 10)
	for i, e := range entities {
		locsBefore[i], _ = w.Locate(e)
	}

	w.DestroyEntity(entities[2])

	// The occupant of slot 9 moved down into slot 2.
	loc, ok := w.Locate(entities[9])
	if !ok {
		t.Fatal("moved entity lost")
	}
	if loc.Slot != 2 {
		t.Errorf("expected moved entity at slot 2, got %d", loc.Slot)
	}
	if GetComponent[Health](w, entities[9]).HP != 9 {
		t.Error("moved entity's component value corrupted")
	}

	// No other row changed.
	for i, e := range entities {
		if i == 2 || i == 9 {
			continue
		}
		loc, ok := w.Locate(e)
		if !ok || loc != locsBefore[i] {
			t.Errorf("row of entity %d changed unexpectedly", i)
		}
	}

	arch := batch.arch
	if arch.chunks[0].count != 9 {
		t.Errorf("expected count 9, got %d", arch.chunks[0].count)
	}
	checkIntegrity(t, w)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	w := NewWorld()
	e := Spawn(w, Position{X: 1, Y: 2}, Health{HP: 50})
	locBefore, _ := w.Locate(e)

	SetComponent(w, e, Velocity{DX: 9})
	RemoveComponent[Velocity](w, e)

	locAfter, _ := w.Locate(e)
	if locAfter.Archetype != locBefore.Archetype {
		t.Error("entity did not return to its original archetype")
	}
	if got := *GetComponent[Position](w, e); got != (Position{X: 1, Y: 2}) {
		t.Errorf("position corrupted across round trip: %+v", got)
	}
	if got := *GetComponent[Health](w, e); got != (Health{HP: 50}) {
		t.Errorf("health corrupted across round trip: %+v", got)
	}
}

func TestRemoveAbsentComponentIsNoOp(t *testing.T) {
	w := NewWorld()
	e := Spawn(w, Position{X: 1})
	before := w.archetypes.version
	if RemoveComponent[Velocity](w, e) {
		t.Error("removing an absent component must report false")
	}
	if w.archetypes.version != before {
		t.Error("no-op removal must not tick the structure version")
	}
}

func TestStructureVersionMonotonic(t *testing.T) {
	w := NewWorld()
	last := w.archetypes.version
	step := func(op string) {
		if w.archetypes.version < last {
			t.Fatalf("structure version decreased after %s", op)
		}
		last = w.archetypes.version
	}
	e := w.CreateEntity()
	step("create")
	SetComponent(w, e, Position{})
	step("add")
	RemoveComponent[Position](w, e)
	step("remove")
	w.DestroyEntity(e)
	step("destroy")
}

func TestDropHookRunsOnDestroy(t *testing.T) {
	ResetGlobalRegistry()
	defer ResetGlobalRegistry()

	type resource struct {
		handle int
	}
	dropped := []int{}
	RegisterComponentHooks(func(r *resource) {
		dropped = append(dropped, r.handle)
	}, nil)

	w := NewWorld()
	e := Spawn(w, resource{handle: 42})
	w.DestroyEntity(e)

	if len(dropped) != 1 || dropped[0] != 42 {
		t.Fatalf("expected drop of handle 42, got %v", dropped)
	}
}

func TestDropHookRunsOnComponentRemoval(t *testing.T) {
	ResetGlobalRegistry()
	defer ResetGlobalRegistry()

	type resource struct {
		handle int
	}
	dropped := 0
	RegisterComponentHooks(func(*resource) { dropped++ }, nil)

	w := NewWorld()
	e := Spawn(w, resource{handle: 7}, Position{})
	RemoveComponent[resource](w, e)

	if dropped != 1 {
		t.Fatalf("expected one drop, got %d", dropped)
	}
	// The surviving component is intact and the entity alive.
	if !w.IsValid(e) || !HasComponent[Position](w, e) {
		t.Fatal("entity damaged by component removal")
	}
}

func TestMoveHookUsedOnRelocation(t *testing.T) {
	ResetGlobalRegistry()
	defer ResetGlobalRegistry()

	type tracked struct {
		value int
	}
	moves := 0
	RegisterComponentHooks[tracked](nil, func(dst, src *tracked) {
		*dst = *src
		moves++
	})

	w := NewWorld()
	batch := CreateBatch[tracked](w)
	a := batch.NewEntity()
	SetComponent(w, a, tracked{value: 1})
	b := batch.NewEntity()
	SetComponent(w, b, tracked{value: 2})

	// Destroying the first slot swap-moves the second down.
	w.DestroyEntity(a)
	if moves == 0 {
		t.Fatal("move hook not invoked on swap-remove")
	}
	if GetComponent[tracked](w, b).value != 2 {
		t.Fatal("moved value corrupted")
	}
}

func TestZeroSizeComponent(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	SetComponent(w, e, Tag{})
	if !HasComponent[Tag](w, e) {
		t.Fatal("tag component not attached")
	}
	if GetComponent[Tag](w, e) == nil {
		t.Fatal("tag component pointer must be non-nil")
	}
	q := NewQuery[Tag](w, In)
	if q.Count() != 1 {
		t.Fatalf("expected one tagged entity, got %d", q.Count())
	}
	RemoveComponent[Tag](w, e)
	if HasComponent[Tag](w, e) {
		t.Fatal("tag component not removed")
	}
}

func TestFreshSlotIsZeroed(t *testing.T) {
	w := NewWorld()
	batch := CreateBatch[Health](w)

	// Dirty a slot, free it, then reuse it.
	e1 := batch.NewEntity()
	SetComponent(w, e1, Health{HP: 999})
	w.DestroyEntity(e1)

	e2 := batch.NewEntity()
	if hp := GetComponent[Health](w, e2).HP; hp != 0 {
		t.Fatalf("recycled slot not zero-initialized: %d", hp)
	}
}

func TestComponentArraysAreSoA(t *testing.T) {
	w := NewWorld()
	batch := CreateBatch2[Position, Velocity](w)
	entities := batch.CreateEntities(4)

	arch := batch.arch
	posID := GetID[Position]()
	stride := unsafe.Sizeof(Position{})
	base := uintptr(arch.componentAt(0, 0, posID))
	for i := range entities {
		got := uintptr(arch.componentAt(0, i, posID))
		if got != base+uintptr(i)*stride {
			t.Fatalf("position array not contiguous at slot %d", i)
		}
	}
}

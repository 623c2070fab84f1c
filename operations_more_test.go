package chirashi

import "testing"

func TestAddComponent2SingleMigration(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	versionBefore := w.archetypes.version

	p, v, ok := AddComponent2[Position, Velocity](w, e)
	if !ok || p == nil || v == nil {
		t.Fatal("add failed")
	}
	// At most one archetype creation (the target), and exactly one entity move.
	moves := w.archetypes.version - versionBefore
	if moves < 1 {
		t.Fatal("no structural change recorded")
	}
	if !HasComponent2[Position, Velocity](w, e) {
		t.Fatal("components missing after add")
	}

	// Idempotent: a second call returns the existing slots.
	p.X = 5
	p2, _, ok := AddComponent2[Position, Velocity](w, e)
	if !ok || p2.X != 5 {
		t.Fatal("second add did not return the existing component")
	}
}

func TestSetComponent3AndRoundTrip(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	if !SetComponent3(w, e, Position{X: 1}, Velocity{DX: 2}, Health{HP: 3}) {
		t.Fatal("set failed")
	}
	p, v, h := GetComponent3[Position, Velocity, Health](w, e)
	if p.X != 1 || v.DX != 2 || h.HP != 3 {
		t.Fatalf("values lost: %+v %+v %+v", *p, *v, *h)
	}

	if !RemoveComponent2[Velocity, Health](w, e) {
		t.Fatal("remove failed")
	}
	p, v, h = GetComponent3[Position, Velocity, Health](w, e)
	if p == nil || v != nil || h != nil {
		t.Fatal("wrong component set after bulk removal")
	}
	if errs := w.Validate(); len(errs) != 0 {
		t.Fatalf("storage inconsistent: %v", errs)
	}
}

func TestRemoveComponentsAbsentIsNoOp(t *testing.T) {
	w := NewWorld()
	e := Spawn(w, Position{X: 1})
	version := w.archetypes.version
	if RemoveComponent2[Velocity, Health](w, e) {
		t.Fatal("removal of absent components must report false")
	}
	if w.archetypes.version != version {
		t.Fatal("no-op bulk removal must not tick the version")
	}
}

func TestSetComponent4OnStaleHandle(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	w.DestroyEntity(e)
	type extra struct{ N int }
	if SetComponent4(w, e, Position{}, Velocity{}, Health{}, extra{}) {
		t.Fatal("set on stale handle must fail")
	}
}

func TestValidateCatchesCorruption(t *testing.T) {
	w := NewWorld()
	Spawn(w, Position{X: 1})
	if errs := w.Validate(); len(errs) != 0 {
		t.Fatalf("fresh world invalid: %v", errs)
	}

	// Sabotage the identity of the first slot.
	loc, _ := w.Locate(mustFirst(w))
	a := w.archetypes.archetypes[loc.Archetype]
	a.chunks[loc.Chunk].setIdentity(loc.Slot, Entity{ID: 999, Version: 1})
	if errs := w.Validate(); len(errs) == 0 {
		t.Fatal("validator missed a corrupted identity")
	}
}

// mustFirst returns the first live entity of the world.
func mustFirst(w *World) Entity {
	for i := range w.entities.rows {
		row := &w.entities.rows[i]
		if row.archetypeIndex >= 0 {
			return Entity{ID: uint32(i), Version: row.version}
		}
	}
	panic("no live entity")
}

func TestWideQueries(t *testing.T) {
	type c1 struct{ A int32 }
	type c2 struct{ B int32 }
	type c3 struct{ C int32 }
	type c4 struct{ D int32 }
	type c5 struct{ E int32 }
	type c6 struct{ F int32 }

	w := NewWorld()
	e := w.CreateEntity()
	SetComponent4(w, e, c1{1}, c2{2}, c3{3}, c4{4})
	SetComponent2(w, e, c5{5}, c6{6})

	q5 := NewQuery5[c1, c2, c3, c4, c5](w, In, In, In, In, In)
	n := 0
	q5.ForEach(func(_ Entity, a *c1, b *c2, c *c3, d *c4, ee *c5) {
		if a.A+b.B+c.C+d.D+ee.E != 15 {
			t.Error("wrong values through five-way query")
		}
		n++
	})
	if n != 1 {
		t.Fatalf("expected one match, got %d", n)
	}

	q6 := NewQuery6[c1, c2, c3, c4, c5, c6](w, In, In, In, In, In, InOut)
	q6.ForEach(func(_ Entity, _ *c1, _ *c2, _ *c3, _ *c4, _ *c5, f *c6) {
		f.F *= 10
	})
	if GetComponent[c6](w, e).F != 60 {
		t.Fatal("six-way query write lost")
	}
}

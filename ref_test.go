package chirashi

import "testing"

func TestRefSurvivesMigration(t *testing.T) {
	w := NewWorld()
	e := Spawn(w, Health{HP: 30})
	r := NewRef[Health](w, e)

	if r.Get().HP != 30 {
		t.Fatal("fresh ref does not resolve")
	}

	// Migrating the entity to another archetype relocates its slot.
	SetComponent(w, e, Position{X: 1})
	if got := r.Get(); got == nil || got.HP != 30 {
		t.Fatal("ref lost the component across archetype migration")
	}

	got := r.Get()
	got.HP = 31
	if GetComponent[Health](w, e).HP != 31 {
		t.Fatal("ref write did not land in storage")
	}
}

func TestRefSurvivesSwapRemove(t *testing.T) {
	w := NewWorld()
	batch := CreateBatch[Health](w)
	a := batch.NewEntity()
	SetComponent(w, a, Health{HP: 1})
	b := batch.NewEntity()
	SetComponent(w, b, Health{HP: 2})

	r := NewRef[Health](w, b)
	// Destroying a swap-moves b into a's slot.
	w.DestroyEntity(a)
	if got := r.Get(); got == nil || got.HP != 2 {
		t.Fatal("ref did not re-locate after swap-remove")
	}
}

func TestRefGoesNilOnDeath(t *testing.T) {
	w := NewWorld()
	e := Spawn(w, Health{HP: 1})
	r := NewRef[Health](w, e)
	w.DestroyEntity(e)

	if r.Get() != nil {
		t.Fatal("ref must resolve to nil after destruction")
	}
	if r.Alive() {
		t.Fatal("dead ref reports alive")
	}
}

func TestRefGoesNilOnComponentRemoval(t *testing.T) {
	w := NewWorld()
	e := Spawn(w, Health{HP: 1}, Position{})
	r := NewRef[Health](w, e)
	RemoveComponent[Health](w, e)
	if r.Get() != nil {
		t.Fatal("ref must resolve to nil after component removal")
	}
}

func TestCachedGetHitsAndInvalidates(t *testing.T) {
	w := NewWorld()
	e := Spawn(w, Health{HP: 5})

	var cache ComponentCache
	p1 := CachedGet[Health](&cache, w, e)
	p2 := CachedGet[Health](&cache, w, e)
	if p1 == nil || p1 != p2 {
		t.Fatal("repeated lookup must hit the cache")
	}

	// A structural edit invalidates the cached pointer.
	SetComponent(w, e, Position{})
	p3 := CachedGet[Health](&cache, w, e)
	if p3 == nil || p3.HP != 5 {
		t.Fatal("cache returned a stale location after migration")
	}

	w.DestroyEntity(e)
	if CachedGet[Health](&cache, w, e) != nil {
		t.Fatal("cache must miss for a dead entity")
	}
}

func TestCachedGetDistinguishesEntities(t *testing.T) {
	w := NewWorld()
	a := Spawn(w, Health{HP: 1})
	b := Spawn(w, Health{HP: 2})

	var cache ComponentCache
	if CachedGet[Health](&cache, w, a).HP != 1 {
		t.Fatal("wrong value for first entity")
	}
	if CachedGet[Health](&cache, w, b).HP != 2 {
		t.Fatal("cache leaked the previous entity's pointer")
	}
}

package chirashi

import "testing"

type filterA struct{ X int32 }
type filterB struct{ Y float32 }
type filterC struct{ Z int64 }

func TestQueryFilterCorrectness(t *testing.T) {
	w := NewWorld()

	e1 := Spawn(w, filterA{X: 1})
	e2 := Spawn(w, filterA{X: 2}, filterB{})
	e3 := Spawn(w, filterA{X: 3}, filterB{}, filterC{})
	e4 := Spawn(w, filterB{})

	q := NewQuery[filterA](w, In).Without(GetID[filterC]())

	visited := map[Entity]bool{}
	q.ForEach(func(e Entity, _ *filterA) {
		visited[e] = true
	})

	if len(visited) != 2 || !visited[e1] || !visited[e2] {
		t.Fatalf("expected visit set {e1, e2}, got %v", visited)
	}
	if visited[e3] || visited[e4] {
		t.Fatal("with-none / with-all filter leaked")
	}
	if q.Count() != 2 {
		t.Fatalf("expected count 2, got %d", q.Count())
	}
}

func TestQueryCacheRevalidates(t *testing.T) {
	w := NewWorld()
	q := NewQuery[filterA](w, In)

	Spawn(w, filterA{X: 1})
	if q.Count() != 1 {
		t.Fatal("query missed archetype created after construction")
	}
	cachedLen := len(q.cached)

	// A new matching archetype must show up on the next use.
	Spawn(w, filterA{X: 2}, filterB{})
	if q.Count() != 2 {
		t.Fatal("query cache not invalidated by archetype creation")
	}
	if len(q.cached) <= cachedLen {
		t.Fatal("cached archetype list did not grow")
	}

	// With an unchanged structure version, the cache must match a fresh scan.
	version := w.archetypes.version
	q.Reset()
	if q.cachedVersion != version {
		t.Fatal("recorded version out of date")
	}
	fresh := 0
	w.archetypes.forEachMatching(q.includeMask, q.excludeMask, func(*archetype) { fresh++ })
	if fresh != len(q.cached) {
		t.Fatalf("cached list (%d) differs from fresh scan (%d)", len(q.cached), fresh)
	}
}

func TestQueryIterationOrder(t *testing.T) {
	w := NewWorld()
	batch := CreateBatch[filterA](w)
	count := batch.arch.capacity + 10 // spans two chunks
	entities := batch.CreateEntities(count)
	for i, e := range entities {
		SetComponent(w, e, filterA{X: int32(i)})
	}

	q := NewQuery[filterA](w, In)
	i := 0
	q.ForEach(func(e Entity, a *filterA) {
		// Within a chunk the order is insertion order, and chunks are
		// visited in allocation order.
		if a.X != int32(i) {
			t.Fatalf("expected insertion order, got %d at position %d", a.X, i)
		}
		i++
	})
	if i != count {
		t.Fatalf("visited %d of %d entities", i, count)
	}
}

func TestQueryTwoComponents(t *testing.T) {
	w := NewWorld()
	Spawn(w, filterA{X: 10}, filterB{Y: 0.5})
	Spawn(w, filterA{X: 20})

	q := NewQuery2[filterA, filterB](w, InOut, In)
	n := 0
	q.ForEach(func(_ Entity, a *filterA, b *filterB) {
		a.X++
		if b.Y != 0.5 {
			t.Errorf("unexpected b value %f", b.Y)
		}
		n++
	})
	if n != 1 {
		t.Fatalf("expected one match, got %d", n)
	}
}

func TestQueryWritesVisibleAfterIteration(t *testing.T) {
	w := NewWorld()
	entities := make([]Entity, 5)
	for i := range entities {
		entities[i] = Spawn(w, filterA{X: int32(i)})
	}

	q := NewQuery[filterA](w, InOut)
	q.ForEach(func(_ Entity, a *filterA) { a.X *= 2 })

	for i, e := range entities {
		if got := GetComponent[filterA](w, e).X; got != int32(i*2) {
			t.Errorf("entity %d: expected %d, got %d", i, i*2, got)
		}
	}
}

func TestQueryIteratorAcrossEmptyArchetypes(t *testing.T) {
	w := NewWorld()
	// Create and empty out an archetype so the cache holds a chunk-less one.
	e := Spawn(w, filterA{X: 1}, filterC{})
	q := NewQuery[filterA](w, In)
	if q.Count() != 1 {
		t.Fatal("setup failed")
	}
	w.DestroyEntity(e)

	Spawn(w, filterA{X: 2})
	sum := int32(0)
	q.ForEach(func(_ Entity, a *filterA) { sum += a.X })
	if sum != 2 {
		t.Fatalf("expected only the live entity, sum %d", sum)
	}
}

func TestQueryDuplicateComponentPanics(t *testing.T) {
	w := NewWorld()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate component in access list")
		}
	}()
	NewQuery2[filterA, filterA](w, In, In)
}

func TestQueryConflictingFilterPanics(t *testing.T) {
	w := NewWorld()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when a component is both required and excluded")
		}
	}()
	NewQuery[filterA](w, In).Without(GetID[filterA]())
}

func TestQueryAccessMasks(t *testing.T) {
	w := NewWorld()
	q := NewQuery2[filterA, filterB](w, In, InOut)
	reads, writes := q.accessMasks()
	if !reads.has(GetID[filterA]()) || reads.has(GetID[filterB]()) {
		t.Error("read mask wrong")
	}
	if !writes.has(GetID[filterB]()) || writes.has(GetID[filterA]()) {
		t.Error("write mask wrong")
	}
}

func TestStoredQuerySurvivesFrames(t *testing.T) {
	w := NewWorld()
	q := NewQuery[filterA](w, In)

	for frame := 0; frame < 3; frame++ {
		if err := w.BeginFrame(0.016); err != nil {
			t.Fatal(err)
		}
		Spawn(w, filterA{X: int32(frame)})
		if q.Count() != frame+1 {
			t.Fatalf("frame %d: expected %d matches, got %d", frame, frame+1, q.Count())
		}
		if err := w.EndFrame(); err != nil {
			t.Fatal(err)
		}
	}
}

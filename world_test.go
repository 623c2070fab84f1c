package chirashi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Shared test components.
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	HP int
}

type Tag struct{}

// checkIntegrity verifies that every live entity row points at a slot whose
// stored identity equals the handle, and that chunk counts stay within
// capacity.
func checkIntegrity(t *testing.T, w *World) {
	t.Helper()
	for i := range w.entities.rows {
		row := &w.entities.rows[i]
		if row.archetypeIndex < 0 {
			continue
		}
		a := w.archetypes.archetypes[row.archetypeIndex]
		c := a.chunks[row.chunkIndex]
		got := c.identityAt(int(row.slot))
		if got.ID != uint32(i) || got.Version != row.version {
			t.Fatalf("row %d points at slot holding %v", i, got)
		}
	}
	for _, a := range w.archetypes.archetypes {
		for ci, c := range a.chunks {
			if c.count < 0 || c.count > a.capacity {
				t.Fatalf("chunk %d count %d out of range [0, %d]", ci, c.count, a.capacity)
			}
		}
	}
}

func TestCreateDestroyReuse(t *testing.T) {
	w := NewWorld()
	e1 := w.CreateEntity()
	e2 := w.CreateEntity()
	e3 := w.CreateEntity()

	if !w.DestroyEntity(e2) {
		t.Fatal("destroy of live entity failed")
	}
	e4 := w.CreateEntity()

	if e4.ID != e2.ID {
		t.Errorf("expected index reuse, got %d and %d", e4.ID, e2.ID)
	}
	if e4.Version != e2.Version+1 {
		t.Errorf("expected version %d, got %d", e2.Version+1, e4.Version)
	}
	if e4 == e2 {
		t.Error("recycled handle must not equal the destroyed one")
	}
	if _, ok := w.Locate(e2); ok {
		t.Error("stale handle must not locate")
	}
	if _, ok := w.Locate(e4); !ok {
		t.Error("live handle must locate")
	}
	if !w.IsValid(e1) || !w.IsValid(e3) {
		t.Error("unrelated entities must stay valid")
	}
	checkIntegrity(t, w)
}

func TestArchetypeMigration(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()

	SetComponent(w, e, Position{X: 7})
	SetComponent(w, e, Velocity{DX: 1.5})

	loc, ok := w.Locate(e)
	require.True(t, ok)
	arch := w.archetypes.archetypes[loc.Archetype]
	require.ElementsMatch(t, []ComponentID{GetID[Position](), GetID[Velocity]()}, arch.compOrder)

	require.Equal(t, float32(7), GetComponent[Position](w, e).X)
	require.Equal(t, float32(1.5), GetComponent[Velocity](w, e).DX)

	RemoveComponent[Position](w, e)
	loc, ok = w.Locate(e)
	require.True(t, ok)
	arch = w.archetypes.archetypes[loc.Archetype]
	require.Equal(t, []ComponentID{GetID[Velocity]()}, arch.compOrder)
	require.Nil(t, GetComponent[Position](w, e))
	require.Equal(t, float32(1.5), GetComponent[Velocity](w, e).DX)
	checkIntegrity(t, w)
}

func TestSetComponentOverwritesInPlace(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	SetComponent(w, e, Health{HP: 10})

	before := w.archetypes.version
	locBefore, _ := w.Locate(e)
	SetComponent(w, e, Health{HP: 25})
	locAfter, _ := w.Locate(e)

	if w.archetypes.version != before {
		t.Error("overwriting an existing component must not tick the structure version")
	}
	if locBefore != locAfter {
		t.Error("overwriting must not move the entity")
	}
	if GetComponent[Health](w, e).HP != 25 {
		t.Error("overwrite lost the value")
	}
}

func TestSpawnVariadic(t *testing.T) {
	w := NewWorld()
	e := Spawn(w, Position{X: 3}, Health{HP: 9})
	require.Equal(t, float32(3), GetComponent[Position](w, e).X)
	require.Equal(t, 9, GetComponent[Health](w, e).HP)
	require.True(t, HasComponent[Position](w, e))
	require.False(t, HasComponent[Velocity](w, e))
}

func TestDeferredEditsHonorFrameBoundary(t *testing.T) {
	w := NewWorld()
	batch := CreateBatch[Position](w)
	entities := batch.CreateEntities(10)

	q := NewQuery[Position](w, In)
	velID := RegisterComponent[Velocity]()

	err := w.AddSystem("attach-velocity", func(s *SystemState) {
		q.ForEach(func(e Entity, _ *Position) {
			// No archetype change may be visible while iterating.
			if HasComponent[Velocity](s.World, e) {
				t.Error("deferred add leaked into the running query")
			}
			PushAdd(s.Commands, e, Velocity{DX: 1})
		})
	}).Uses(q).Reads(velID).Commit()
	require.NoError(t, err)

	require.NoError(t, w.BeginFrame(1.0/60))
	require.NoError(t, w.Update(1.0/60))

	// Still unchanged before the end-of-frame fence.
	for _, e := range entities {
		require.False(t, HasComponent[Velocity](w, e))
	}

	require.NoError(t, w.EndFrame())
	for _, e := range entities {
		require.True(t, HasComponent[Velocity](w, e))
		require.Equal(t, float32(1), GetComponent[Velocity](w, e).DX)
	}
	checkIntegrity(t, w)
}

func TestBeginFrameFlushesOutsideCommands(t *testing.T) {
	w := NewWorld()
	ph := w.Deferred().SpawnWith(Position{X: 4})
	require.True(t, ph.IsPlaceholder())

	require.NoError(t, w.BeginFrame(0.016))
	require.Equal(t, 1, w.EntityCount())

	q := NewQuery[Position](w, In)
	require.Equal(t, 1, q.Count())
}

func TestWorldClearKeepsSystemsAndRecyclesChunks(t *testing.T) {
	w := NewWorld()
	ran := 0
	require.NoError(t, w.AddSystem("tick", func(*SystemState) { ran++ }).Commit())

	batch := CreateBatch[Position](w)
	batch.CreateEntities(5000)
	chunksBefore := w.Stats().Chunks
	require.Greater(t, chunksBefore, 1)

	w.Clear()
	require.Equal(t, 0, w.EntityCount())
	st := w.Stats()
	require.Equal(t, 0, st.Chunks)
	require.Equal(t, chunksBefore, st.FreeChunks)

	require.NoError(t, w.Update(0.016))
	require.Equal(t, 1, ran)

	// Recreated entities reuse the free-listed blocks.
	batch.CreateEntities(100)
	require.Less(t, w.Stats().FreeChunks, chunksBefore)
}

func TestWorldResetDropsSystems(t *testing.T) {
	w := NewWorld()
	ran := 0
	require.NoError(t, w.AddSystem("tick", func(*SystemState) { ran++ }).Commit())
	w.CreateEntities(10)

	w.Reset()
	require.NoError(t, w.Update(0.016))
	require.Equal(t, 0, ran)
	require.Equal(t, uint64(0), w.Frame())
	require.Equal(t, 0, w.EntityCount())
}

func TestChunkBudgetSurfacesAtFrameDriver(t *testing.T) {
	w := NewWorldWithConfig(Config{
		ChunkSize: DefaultChunkSize,
		MaxMemory: DefaultChunkSize, // a single block
	})
	created := 0
	for i := 0; i < 3000; i++ {
		if w.CreateEntity() == InvalidEntity {
			break
		}
		created++
	}
	require.Equal(t, 2048, created, "one 16 KiB block holds exactly 2048 identities")

	err := w.BeginFrame(0.016)
	require.Error(t, err)
	var budget ChunkBudgetError
	require.ErrorAs(t, err, &budget)

	// The failed create left the world consistent and usable.
	checkIntegrity(t, w)
	require.NoError(t, w.BeginFrame(0.016))
}

func TestStatsSnapshot(t *testing.T) {
	w := NewWorld()
	batch := CreateBatch2[Position, Velocity](w)
	batch.CreateEntities(10)

	st := w.Stats()
	require.Equal(t, 10, st.Entities)
	require.Equal(t, DefaultChunkSize, int(st.ChunkSize))
	require.NotZero(t, st.StructureVersion)
	found := false
	for _, as := range st.ArchetypeStats {
		if as.Entities == 10 {
			found = true
			require.Equal(t, 1, as.Chunks)
			require.Greater(t, as.Capacity, 10)
		}
	}
	require.True(t, found)
}

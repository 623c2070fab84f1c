/*
Package chirashi is a chunked, archetype-based Entity-Component-System
runtime for games and simulations.

Entities sharing the same component set live together in an archetype, and
each archetype stores its entities in fixed-size chunks (16 KiB by default):
one contiguous allocation holding the identity array plus one
structure-of-arrays slice per component. Queries iterate chunk by chunk, so
the inner loop is a tight base + slot*stride walk over cache-coherent memory.

Core concepts:

  - Entity: a generational 64-bit handle (32-bit index, 32-bit version).
    Handles may outlive their entity; stale handles are detected in O(1)
    and every operation on them degrades to a no-op.
  - Component: a plain data value identified by its type, registered once
    with size, alignment and optional drop/move hooks.
  - Archetype: all entities sharing one component signature, plus their
    chunked SoA storage.
  - Query: a with-all / with-none filter with per-component access modes
    (In, Out, InOut) that iterates matching chunks and feeds the
    scheduler's conflict analysis.
  - Command buffer: a thread-safe log of structural edits (create, destroy,
    add, remove) played back deterministically at frame fences, so systems
    can record edits while iterating.
  - Scheduler: systems registered with priorities, run-after/run-before
    links and a phase; topologically layered, with conflict-free systems of
    a layer running in parallel.

Basic usage:

	w := chirashi.NewWorld()

	e := chirashi.Spawn(w, Position{X: 1}, Velocity{DX: 2})

	q := chirashi.NewQuery2[Position, Velocity](w, chirashi.InOut, chirashi.In)
	w.AddSystem("move", func(s *chirashi.SystemState) {
		q.ForEach(func(_ chirashi.Entity, p *Position, v *Velocity) {
			p.X += v.DX * float32(s.DT)
		})
	}).Uses(q).Commit()

	w.BeginFrame(dt)
	w.Update(dt)
	w.EndFrame()

	_ = e

The world's storage belongs to the frame driver goroutine. Structural edits
are legal there between iterations; inside queries and systems running in a
parallel batch they must go through a command buffer instead. Debug mode
(Config.Debug) turns violations into panics.
*/
package chirashi

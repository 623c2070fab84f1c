package chirashi

import (
	"container/heap"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Phase assigns a system to one of the frame driver's execution windows.
type Phase uint8

const (
	// PhaseSimulation runs during Update with the variable dt.
	PhaseSimulation Phase = iota
	// PhaseFixed runs during each FixedUpdate tick.
	PhaseFixed
	// PhaseRender runs during Render with the interpolation alpha.
	PhaseRender
)

// SystemID is the stable identifier a system registers under.
type SystemID string

// SystemState is the per-invocation context handed to a system callback.
type SystemState struct {
	World *World
	DT    float64
	Alpha float64
	Frame uint64
	// Cancel is the frame-scoped early-out token.
	Cancel *CancelToken
	// Commands is the system's private command buffer. Buffers flush in the
	// scheduler's deterministic topological order at the next fence.
	Commands *CommandBuffer
}

// SystemFunc is a system callback. Systems are synchronous procedures; any
// asynchronous work re-enters the core through a command buffer.
type SystemFunc func(*SystemState)

// systemEntry is one registered system plus its scheduling metadata.
type systemEntry struct {
	id        SystemID
	priority  int
	runAfter  []SystemID
	runBefore []SystemID
	phase     Phase
	fn        SystemFunc
	reads     maskType
	writes    maskType
	buffer    *CommandBuffer
	regIndex  int
	layer     int
	orderPos  int
}

// conflictsWith reports whether two systems may not run concurrently: they
// conflict unless every component both touch is only read by both.
func (e *systemEntry) conflictsWith(o *systemEntry) bool {
	return intersects(e.writes, orMask(o.reads, o.writes)) ||
		intersects(o.writes, orMask(e.reads, e.writes))
}

// SystemBuilder accumulates one system registration and commits it
// atomically. Registration fails loudly on duplicate IDs, references to
// unregistered systems, and dependency cycles.
type SystemBuilder struct {
	world *World
	entry systemEntry
}

// AddSystem starts registering a system under the given stable ID. The
// default is priority 0 in the simulation phase with no dependencies and no
// declared component accesses.
func (self *World) AddSystem(id SystemID, fn SystemFunc) *SystemBuilder {
	return &SystemBuilder{
		world: self,
		entry: systemEntry{id: id, fn: fn, phase: PhaseSimulation},
	}
}

// Priority sets the ordering weight; lower priorities run first.
func (b *SystemBuilder) Priority(p int) *SystemBuilder {
	b.entry.priority = p
	return b
}

// After declares systems that must finish before this one starts.
func (b *SystemBuilder) After(ids ...SystemID) *SystemBuilder {
	b.entry.runAfter = append(b.entry.runAfter, ids...)
	return b
}

// Before declares systems that must not start until this one finishes.
func (b *SystemBuilder) Before(ids ...SystemID) *SystemBuilder {
	b.entry.runBefore = append(b.entry.runBefore, ids...)
	return b
}

// Phase assigns the execution window.
func (b *SystemBuilder) Phase(p Phase) *SystemBuilder {
	b.entry.phase = p
	return b
}

// Reads declares component types the system reads outside its queries.
func (b *SystemBuilder) Reads(ids ...ComponentID) *SystemBuilder {
	for _, id := range ids {
		b.entry.reads = setMask(b.entry.reads, id)
	}
	return b
}

// Writes declares component types the system writes outside its queries.
func (b *SystemBuilder) Writes(ids ...ComponentID) *SystemBuilder {
	for _, id := range ids {
		b.entry.writes = setMask(b.entry.writes, id)
	}
	return b
}

// Uses folds the access declarations of the given queries into the system's
// conflict footprint.
func (b *SystemBuilder) Uses(queries ...AccessSet) *SystemBuilder {
	for _, q := range queries {
		r, w := q.accessMasks()
		b.entry.reads = orMask(b.entry.reads, r)
		b.entry.writes = orMask(b.entry.writes, w)
	}
	return b
}

// Commit registers the system. On any error the schedule is left exactly as
// it was before the call.
func (b *SystemBuilder) Commit() error {
	return b.world.systems.commit(b.world, b.entry)
}

// scheduler owns the registered systems, their topological order, and the
// per-phase execution layers.
type scheduler struct {
	entries []*systemEntry
	byID    map[SystemID]*systemEntry
	order   []*systemEntry            // global topological order
	layers  [3][][]*systemEntry       // per-phase execution layers
}

func (s *scheduler) init() {
	s.entries = nil
	s.byID = make(map[SystemID]*systemEntry)
	s.order = nil
	s.layers = [3][][]*systemEntry{}
}

// commit adds one entry and rebuilds the schedule, rolling back on error.
func (s *scheduler) commit(w *World, entry systemEntry) error {
	if _, dup := s.byID[entry.id]; dup {
		return DuplicateSystemError{ID: entry.id}
	}
	e := &entry
	e.regIndex = len(s.entries)
	e.buffer = newCommandBuffer(w)
	s.entries = append(s.entries, e)
	s.byID[e.id] = e
	if err := s.rebuild(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		delete(s.byID, e.id)
		// The previous schedule was valid; restore it.
		if len(s.entries) > 0 {
			_ = s.rebuild()
		} else {
			s.order = nil
			s.layers = [3][][]*systemEntry{}
		}
		return err
	}
	return nil
}

// orderHeap pops ready systems lowest priority first, registration order as
// the final tie-break, so the topological order is deterministic.
type orderHeap []*systemEntry

func (h orderHeap) Len() int { return len(h) }
func (h orderHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].regIndex < h[j].regIndex
}
func (h orderHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *orderHeap) Push(x any)        { *h = append(*h, x.(*systemEntry)) }
func (h *orderHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// rebuild recomputes the DAG, the topological order, and the layers.
//
// Explicit edges come from run-after and run-before. Implicit edges go from
// the lower-priority to the higher-priority system of any same-phase pair
// with no explicit relation in either direction, so priority breaks ties
// without ever contradicting a declared dependency.
func (s *scheduler) rebuild() error {
	n := len(s.entries)
	adj := make([][]int, n)     // explicit successor lists
	addEdge := func(from, to int) {
		adj[from] = append(adj[from], to)
	}
	for i, e := range s.entries {
		for _, id := range e.runAfter {
			pred, ok := s.byID[id]
			if !ok {
				return UnknownSystemError{ID: id, Where: e.id}
			}
			addEdge(pred.regIndex, i)
		}
		for _, id := range e.runBefore {
			succ, ok := s.byID[id]
			if !ok {
				return UnknownSystemError{ID: id, Where: e.id}
			}
			addEdge(i, succ.regIndex)
		}
	}

	if cyclic := findCycle(adj); len(cyclic) > 0 {
		ids := make([]SystemID, len(cyclic))
		for i, idx := range cyclic {
			ids[i] = s.entries[idx].id
		}
		return ScheduleCycleError{Systems: ids}
	}

	// Reachability over explicit edges; the graphs stay small enough that
	// a DFS per node is fine.
	reach := make([][]bool, n)
	for i := range reach {
		reach[i] = make([]bool, n)
		stack := append([]int(nil), adj[i]...)
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reach[i][v] {
				continue
			}
			reach[i][v] = true
			stack = append(stack, adj[v]...)
		}
	}

	full := make([][]int, n)
	indeg := make([]int, n)
	edge := func(from, to int) {
		full[from] = append(full[from], to)
		indeg[to]++
	}
	for i := range s.entries {
		full[i] = append(full[i], adj[i]...)
	}
	for i := range s.entries {
		for _, to := range adj[i] {
			indeg[to]++
		}
	}
	for i, a := range s.entries {
		for j, b := range s.entries {
			if i == j || a.phase != b.phase {
				continue
			}
			if a.priority < b.priority && !reach[i][j] && !reach[j][i] {
				edge(i, j)
				// Keep reach transitive so a later implicit edge can never
				// close a cycle through this one.
				for x := range s.entries {
					if x != i && !reach[x][i] {
						continue
					}
					reach[x][j] = true
					for y := range s.entries {
						if reach[j][y] {
							reach[x][y] = true
						}
					}
				}
			}
		}
	}

	// Deterministic Kahn pass over the combined graph.
	h := &orderHeap{}
	for i, e := range s.entries {
		e.layer = 0
		if indeg[i] == 0 {
			heap.Push(h, e)
		}
	}
	order := make([]*systemEntry, 0, n)
	layer := make([]int, n)
	for h.Len() > 0 {
		e := heap.Pop(h).(*systemEntry)
		e.orderPos = len(order)
		order = append(order, e)
		for _, to := range full[e.regIndex] {
			t := s.entries[to]
			// Layers count only same-phase predecessors; phases are
			// already fully sequential at runtime.
			if t.phase == e.phase && layer[to] < layer[e.regIndex]+1 {
				layer[to] = layer[e.regIndex] + 1
			}
			indeg[to]--
			if indeg[to] == 0 {
				heap.Push(h, t)
			}
		}
	}
	for i, e := range s.entries {
		e.layer = layer[i]
	}
	s.order = order

	// Group each phase's systems into layers, ordered by priority then
	// registration inside a layer.
	s.layers = [3][][]*systemEntry{}
	for p := 0; p < 3; p++ {
		var phaseEntries []*systemEntry
		maxLayer := -1
		for _, e := range order {
			if int(e.phase) == p {
				phaseEntries = append(phaseEntries, e)
				if e.layer > maxLayer {
					maxLayer = e.layer
				}
			}
		}
		if maxLayer < 0 {
			continue
		}
		layers := make([][]*systemEntry, maxLayer+1)
		for _, e := range phaseEntries {
			layers[e.layer] = append(layers[e.layer], e)
		}
		for _, l := range layers {
			sort.SliceStable(l, func(a, b int) bool {
				if l[a].priority != l[b].priority {
					return l[a].priority < l[b].priority
				}
				return l[a].regIndex < l[b].regIndex
			})
		}
		s.layers[p] = layers
	}
	return nil
}

// findCycle returns the nodes still on a cycle of the explicit graph, or nil.
func findCycle(adj [][]int) []int {
	n := len(adj)
	indeg := make([]int, n)
	for _, succs := range adj {
		for _, to := range succs {
			indeg[to]++
		}
	}
	queue := make([]int, 0, n)
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	seen := 0
	for len(queue) > 0 {
		v := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		seen++
		for _, to := range adj[v] {
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	if seen == n {
		return nil
	}
	var cyclic []int
	for i, d := range indeg {
		if d > 0 {
			cyclic = append(cyclic, i)
		}
	}
	return cyclic
}

// run executes one phase layer by layer. Inside a layer, consecutive
// conflict-free systems run concurrently; a conflicting system closes the
// batch and starts the next one, so conflicting pairs stay sequential in
// priority order. The storage is consistent at every layer boundary.
func (s *scheduler) run(w *World, phase Phase, dt, alpha float64) {
	layers := s.layers[phase]
	for _, layer := range layers {
		if w.cancel.Cancelled() {
			return
		}
		var batch []*systemEntry
		flush := func() {
			if len(batch) == 0 {
				return
			}
			s.runBatch(w, batch, dt, alpha)
			batch = batch[:0]
		}
		for _, e := range layer {
			conflict := false
			for _, member := range batch {
				if e.conflictsWith(member) {
					conflict = true
					break
				}
			}
			if conflict {
				flush()
			}
			batch = append(batch, e)
		}
		flush()
	}
}

// runBatch executes a set of conflict-free systems, in parallel when the
// batch has more than one member. The storage counts as read-locked while a
// parallel batch runs.
func (s *scheduler) runBatch(w *World, batch []*systemEntry, dt, alpha float64) {
	if len(batch) == 1 {
		e := batch[0]
		e.fn(&SystemState{
			World: w, DT: dt, Alpha: alpha,
			Frame: w.frame, Cancel: &w.cancel, Commands: e.buffer,
		})
		return
	}
	w.locks.Add(1)
	defer w.locks.Add(-1)
	var g errgroup.Group
	for _, e := range batch {
		e := e
		g.Go(func() error {
			e.fn(&SystemState{
				World: w, DT: dt, Alpha: alpha,
				Frame: w.frame, Cancel: &w.cancel, Commands: e.buffer,
			})
			return nil
		})
	}
	_ = g.Wait()
}

// flushBuffers plays back every system's private buffer in the global
// topological order, which fixes the documented cross-producer merge order.
func (s *scheduler) flushBuffers(w *World) {
	for _, e := range s.order {
		if err := e.buffer.playback(); err != nil {
			w.fail(err)
		}
	}
}

// discardBuffers drops all recorded system commands, running owed drops.
func (s *scheduler) discardBuffers() {
	for _, e := range s.entries {
		e.buffer.discard()
	}
}

package chirashi

import "fmt"

// Validate walks the whole storage and verifies its invariants: every live
// entity row points at a slot whose stored identity equals the handle, chunk
// counts stay within capacity, archetype signatures match their masks, and
// per-archetype sizes add up. It returns every violation found.
//
// This is a diagnostics surface for tests and debug builds; it touches every
// chunk and must not run on the hot path.
func (self *World) Validate() []error {
	var errs []error

	for i := range self.entities.rows {
		row := &self.entities.rows[i]
		if row.archetypeIndex < 0 {
			continue
		}
		if int(row.archetypeIndex) >= len(self.archetypes.archetypes) {
			errs = append(errs, fmt.Errorf("entity %d: archetype index %d out of range", i, row.archetypeIndex))
			continue
		}
		a := self.archetypes.archetypes[row.archetypeIndex]
		if int(row.chunkIndex) >= len(a.chunks) {
			errs = append(errs, fmt.Errorf("entity %d: chunk index %d out of range", i, row.chunkIndex))
			continue
		}
		c := a.chunks[row.chunkIndex]
		if int(row.slot) >= c.count {
			errs = append(errs, fmt.Errorf("entity %d: slot %d beyond count %d", i, row.slot, c.count))
			continue
		}
		id := c.identityAt(int(row.slot))
		if id.ID != uint32(i) || id.Version != row.version {
			errs = append(errs, fmt.Errorf("entity %d: identity mismatch, slot holds %d/%d", i, id.ID, id.Version))
		}
	}

	for ai, a := range self.archetypes.archetypes {
		total := 0
		for ci, c := range a.chunks {
			if c.count < 0 || c.count > a.capacity {
				errs = append(errs, fmt.Errorf("archetype %d chunk %d: count %d outside [0, %d]", ai, ci, c.count, a.capacity))
			}
			if len(c.block) != self.chunks.blockSize {
				errs = append(errs, fmt.Errorf("archetype %d chunk %d: block size %d", ai, ci, len(c.block)))
			}
			if ci < len(a.chunks)-1 && c.count != a.capacity {
				errs = append(errs, fmt.Errorf("archetype %d chunk %d: non-terminal chunk not full", ai, ci))
			}
			total += c.count
		}
		if total != a.size {
			errs = append(errs, fmt.Errorf("archetype %d: size %d but chunks hold %d", ai, a.size, total))
		}
		seen := map[ComponentID]bool{}
		for _, id := range a.compOrder {
			if !a.mask.has(id) {
				errs = append(errs, fmt.Errorf("archetype %d: component %d missing from mask", ai, id))
			}
			if seen[id] {
				errs = append(errs, fmt.Errorf("archetype %d: duplicate component %d in signature", ai, id))
			}
			seen[id] = true
		}
		if len(seen) != len(maskIDs(a.mask, nil)) {
			errs = append(errs, fmt.Errorf("archetype %d: mask and signature disagree", ai))
		}
	}

	live := 0
	for i := range self.entities.rows {
		if self.entities.rows[i].archetypeIndex >= 0 {
			live++
		}
	}
	if live != self.alive {
		errs = append(errs, fmt.Errorf("live counter %d but table holds %d", self.alive, live))
	}
	return errs
}

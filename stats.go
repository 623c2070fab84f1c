package chirashi

import "github.com/c2h5oh/datasize"

// ArchetypeStats describes one archetype's storage occupancy.
type ArchetypeStats struct {
	Components []ComponentID // the signature, in canonical order
	Capacity   int           // entities per chunk
	Chunks     int
	Entities   int
}

// WorldStats is a point-in-time snapshot of the world's storage shape.
type WorldStats struct {
	Entities         int
	Archetypes       int
	Chunks           int
	FreeChunks       int
	ChunkSize        datasize.ByteSize
	Memory           datasize.ByteSize // total block memory, live and free-listed
	StructureVersion uint64
	Frame            uint64
	ArchetypeStats   []ArchetypeStats
}

// Stats collects a storage snapshot. It walks every archetype, so it is a
// diagnostics surface, not a hot-path one.
func (self *World) Stats() WorldStats {
	s := WorldStats{
		Entities:         self.alive,
		Archetypes:       len(self.archetypes.archetypes),
		Chunks:           self.chunks.liveCount(),
		FreeChunks:       self.chunks.freeCount(),
		ChunkSize:        datasize.ByteSize(self.chunks.blockSize),
		Memory:           datasize.ByteSize(self.chunks.allocated * self.chunks.blockSize),
		StructureVersion: self.archetypes.version,
		Frame:            self.frame,
	}
	for _, a := range self.archetypes.archetypes {
		s.ArchetypeStats = append(s.ArchetypeStats, ArchetypeStats{
			Components: a.compOrder,
			Capacity:   a.capacity,
			Chunks:     len(a.chunks),
			Entities:   a.size,
		})
	}
	return s
}

package chirashi

import "unsafe"

// cacheEntry is one memoized component lookup.
type cacheEntry struct {
	entity  Entity
	ptr     unsafe.Pointer
	frame   uint64
	version uint64
}

// ComponentCache memoizes component lookups within one frame. Entries
// invalidate on frame advance and on structural edits, so a hit is always a
// safe pointer. Intended for gameplay code that reads the same component of
// the same entity many times per frame through scattered call sites.
//
// A cache belongs to one goroutine; it is not synchronized.
type ComponentCache struct {
	entries [maxComponentTypes]cacheEntry
}

// CachedGet resolves component T on e through the cache. Misses fall through
// to the world and refill the entry.
func CachedGet[T any](c *ComponentCache, w *World, e Entity) *T {
	id, ok := TryGetID[T]()
	if !ok {
		return nil
	}
	entry := &c.entries[id]
	if entry.entity == e && entry.frame == w.frame && entry.version == w.archetypes.version {
		return (*T)(entry.ptr)
	}
	ptr := w.getComponentPtr(e, id)
	entry.entity = e
	entry.ptr = ptr
	entry.frame = w.frame
	entry.version = w.archetypes.version
	return (*T)(ptr)
}

// Invalidate clears every entry.
func (c *ComponentCache) Invalidate() {
	c.entries = [maxComponentTypes]cacheEntry{}
}

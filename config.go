package chirashi

import (
	"runtime"

	"github.com/c2h5oh/datasize"
)

// Config carries the host-tunable knobs handed to NewWorld. The zero value
// is a usable default configuration.
type Config struct {
	// ChunkSize overrides the storage block size. Zero means
	// DefaultChunkSize (16 KiB). Values below 1 KiB are raised to 1 KiB.
	ChunkSize datasize.ByteSize

	// MaxMemory caps the total memory the chunk store may allocate.
	// Zero means unbounded. The cap is rounded down to whole blocks, with a
	// minimum of one block.
	MaxMemory datasize.ByteSize

	// Workers is the parallel iteration width. Zero means GOMAXPROCS.
	Workers int

	// InitialCapacity pre-sizes the entity table.
	InitialCapacity int

	// Debug turns contract violations (structural edits during iteration,
	// unregistered query types) into panics instead of leaving them
	// unchecked.
	Debug bool

	// Executor overrides the task executor used for parallel iteration and
	// parallel system execution. Nil selects the built-in executor; a world
	// with Workers == 1 degrades to serial execution.
	Executor Executor
}

// withDefaults resolves zero fields to their effective values.
func (c Config) withDefaults() Config {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkSize < datasize.KB {
		c.ChunkSize = datasize.KB
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.InitialCapacity <= 0 {
		c.InitialCapacity = 1024
	}
	return c
}

// maxBlocks converts the memory cap into a block budget. Zero means
// unbounded.
func (c Config) maxBlocks() int {
	if c.MaxMemory == 0 {
		return 0
	}
	n := int(c.MaxMemory / c.ChunkSize)
	if n < 1 {
		n = 1
	}
	return n
}

package chirashi

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Executor is the task-executor surface the core expects from its host. It
// splits [begin, end) into contiguous sub-ranges and runs fn for each on some
// worker, passing the worker index so callers can stripe per-worker state.
// SpawnRange may return before the work is done (the serial executor runs it
// inline before returning); the work is complete once Join returns.
//
// A host with its own job system plugs it in through Config.Executor. When
// none is provided the built-in goroutine executor is used; a width of one
// degrades to serial execution on the calling goroutine.
type Executor interface {
	SpawnRange(begin, end int, fn func(worker, begin, end int)) JoinHandle
}

// JoinHandle blocks until the spawned range has been fully processed.
type JoinHandle interface {
	Join()
}

// CancelToken is a frame-scoped early-out flag. Systems receive it through
// SystemState and should return promptly once it trips; in-flight parallel
// work items finish their current chunk.
type CancelToken struct {
	flag atomic.Bool
}

// Cancelled reports whether cancellation was requested.
func (t *CancelToken) Cancelled() bool { return t.flag.Load() }

func (t *CancelToken) cancel() { t.flag.Store(true) }
func (t *CancelToken) reset()  { t.flag.Store(false) }

// goExecutor fans ranges out over a bounded errgroup.
type goExecutor struct {
	workers int
}

func newGoExecutor(workers int) Executor {
	if workers <= 1 {
		return serialExecutor{}
	}
	return &goExecutor{workers: workers}
}

type groupHandle struct {
	g *errgroup.Group
}

func (h groupHandle) Join() {
	// Workers never return errors; Wait only synchronizes.
	_ = h.g.Wait()
}

func (e *goExecutor) SpawnRange(begin, end int, fn func(worker, begin, end int)) JoinHandle {
	n := end - begin
	if n <= 0 {
		return noopHandle{}
	}
	workers := e.workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		worker := w
		lo := begin + worker*chunk
		hi := lo + chunk
		if hi > end {
			hi = end
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			fn(worker, lo, hi)
			return nil
		})
	}
	return groupHandle{g: &g}
}

// serialExecutor runs the whole range inline on the caller.
type serialExecutor struct{}

func (serialExecutor) SpawnRange(begin, end int, fn func(worker, begin, end int)) JoinHandle {
	if end > begin {
		fn(0, begin, end)
	}
	return noopHandle{}
}

type noopHandle struct{}

func (noopHandle) Join() {}

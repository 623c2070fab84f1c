package chirashi

import "fmt"

// ChunkBudgetError reports that the chunk store hit its configured memory
// budget. It surfaces through the frame driver; the storage stays consistent.
type ChunkBudgetError struct {
	Allocated int
	Limit     int
}

func (e ChunkBudgetError) Error() string {
	return fmt.Sprintf("chunk store exhausted: %d of %d blocks allocated", e.Allocated, e.Limit)
}

// DuplicateSystemError reports a second registration under an already taken
// system ID.
type DuplicateSystemError struct {
	ID SystemID
}

func (e DuplicateSystemError) Error() string {
	return fmt.Sprintf("system %q is already registered", e.ID)
}

// UnknownSystemError reports a run-after or run-before reference to a system
// ID that was never registered.
type UnknownSystemError struct {
	ID    SystemID
	Where SystemID
}

func (e UnknownSystemError) Error() string {
	return fmt.Sprintf("system %q depends on unregistered system %q", e.Where, e.ID)
}

// ScheduleCycleError reports that the dependency edges between systems form
// a cycle. The systems still on the cycle are listed.
type ScheduleCycleError struct {
	Systems []SystemID
}

func (e ScheduleCycleError) Error() string {
	return fmt.Sprintf("system dependencies form a cycle involving %v", e.Systems)
}

// LockedWorldError reports a structural edit attempted while a parallel
// iteration holds the storage read-locked. Only produced in debug mode;
// release builds do not check.
type LockedWorldError struct {
	Op string
}

func (e LockedWorldError) Error() string {
	return fmt.Sprintf("structural edit (%s) during query iteration", e.Op)
}

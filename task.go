package taskqueue

// Task is the unit of work executed by a Queue. Run takes no arguments and
// returns nothing; values must be cheap to copy, since the queue moves them
// from the pending store into a worker slot by value.
//
// Run is invoked exactly once per enqueued value, on the dedicated goroutine
// of whichever slot the scheduler hands it to.
type Task interface {
	Run()
}

// ComparableTask constrains task types whose values support equality. Equality
// is what makes removal of a pending task expressible, so TryRemove accepts
// only such types. Function-backed tasks (Func) are not comparable and cannot
// instantiate TryRemove; the restriction is enforced at compile time rather
// than surfacing as a runtime error.
type ComparableTask interface {
	comparable
	Task
}

// Func adapts a plain func() to the Task interface.
type Func func()

// Run invokes the function.
func (f Func) Run() { f() }

package taskqueue

import "errors"

const Namespace = "taskqueue"

var (
	ErrQueueClosed   = errors.New(Namespace + ": queue is closed")
	ErrTaskPanicked  = errors.New(Namespace + ": task execution panicked")
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
)

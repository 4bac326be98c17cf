// Package batch provides the grouped-operation queue that batch-capable
// storage delegates share across one event cycle. The queue is registered
// as a cycle state type: collaborators enqueue mutations through it during
// the cycle, and the queue's lifecycle flushes everything through the
// host's delegate when the cycle finishes.
package batch

import (
	"errors"
	"fmt"

	eventstate "github.com/goliatone/go-eventstate"
)

// ErrQueueClosed indicates an Add after the queue was drained for flushing.
var ErrQueueClosed = errors.New("batch: queue already flushed")

// Key is the cycle state key the queue lifecycle registers under.
var Key = eventstate.NewKey[*Queue]("batch.operations")

// Kind names the mutation an Operation performs.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindRemove Kind = "remove"
)

// Operation is one pending datastore mutation.
type Operation struct {
	Kind    Kind
	Entity  string
	Key     string
	Payload map[string]any
}

// Queue accumulates operations in arrival order for one cycle. It is cycle
// state: confined to the unit of work that created it, so no locking is
// needed.
type Queue struct {
	ops    []Operation
	closed bool
}

// Add appends op to the queue.
func (q *Queue) Add(op Operation) error {
	if q == nil {
		return fmt.Errorf("batch: queue is nil")
	}
	if q.closed {
		return ErrQueueClosed
	}
	q.ops = append(q.ops, op)
	return nil
}

// Len returns the number of pending operations.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.ops)
}

// Operations returns a copy of the pending operations in arrival order.
func (q *Queue) Operations() []Operation {
	if q == nil || len(q.ops) == 0 {
		return nil
	}
	out := make([]Operation, len(q.ops))
	copy(out, q.ops)
	return out
}

// drain detaches all pending operations and closes the queue so a flusher
// cannot observe concurrent appends.
func (q *Queue) drain() []Operation {
	ops := q.ops
	q.ops = nil
	q.closed = true
	return ops
}

// Flusher applies a cycle's grouped operations in one shot. Implementations
// belong to the host's datastore layer.
type Flusher interface {
	Flush(session eventstate.Session, ops []Operation) error
}

// FlusherFunc adapts a function to Flusher.
type FlusherFunc func(session eventstate.Session, ops []Operation) error

// Flush implements Flusher.
func (fn FlusherFunc) Flush(session eventstate.Session, ops []Operation) error {
	if fn == nil {
		return nil
	}
	return fn(session, ops)
}

// NewLifecycle returns the queue lifecycle for Key: a fresh empty queue per
// cycle, flushed through flusher when the cycle finishes. An empty queue
// finishes without touching the flusher.
func NewLifecycle(flusher Flusher) eventstate.Lifecycle[*Queue] {
	return eventstate.LifecycleFuncs[*Queue]{
		OnCreate: func(_ eventstate.Session) (*Queue, error) {
			return &Queue{}, nil
		},
		OnFinish: func(queue *Queue, session eventstate.Session) error {
			ops := queue.drain()
			if len(ops) == 0 || flusher == nil {
				return nil
			}
			if err := flusher.Flush(session, ops); err != nil {
				return fmt.Errorf("batch: flush %d operations: %w", len(ops), err)
			}
			return nil
		},
	}
}

package batch_test

import (
	"errors"
	"testing"

	eventstate "github.com/goliatone/go-eventstate"
	"github.com/goliatone/go-eventstate/pkg/batch"
)

type sessionStub struct {
	name string
}

type capturingFlusher struct {
	flushes  int
	sessions []eventstate.Session
	ops      []batch.Operation
	err      error
}

func (f *capturingFlusher) Flush(session eventstate.Session, ops []batch.Operation) error {
	f.flushes++
	f.sessions = append(f.sessions, session)
	f.ops = append(f.ops, ops...)
	return f.err
}

func newBatchManager(t *testing.T, flusher batch.Flusher) *eventstate.Manager {
	t.Helper()
	builder := eventstate.NewRegistryBuilder()
	if err := eventstate.Register(builder, batch.Key, batch.NewLifecycle(flusher)); err != nil {
		t.Fatalf("register queue lifecycle: %v", err)
	}
	registry, err := builder.Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	manager, err := eventstate.New(registry)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestQueueFlushesInArrivalOrder(t *testing.T) {
	flusher := &capturingFlusher{}
	manager := newBatchManager(t, flusher)
	session := &sessionStub{name: "uow-1"}

	cycle, err := manager.Begin(session)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	queue, err := eventstate.Get(cycle, batch.Key)
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}
	inserts := []batch.Operation{
		{Kind: batch.KindInsert, Entity: "user", Key: "u1"},
		{Kind: batch.KindUpdate, Entity: "user", Key: "u1"},
		{Kind: batch.KindRemove, Entity: "session", Key: "s9"},
	}
	for _, op := range inserts {
		if err := queue.Add(op); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if queue.Len() != 3 {
		t.Fatalf("expected 3 pending operations, got %d", queue.Len())
	}
	if flusher.flushes != 0 {
		t.Fatalf("flusher must not run before the cycle finishes")
	}

	if err := cycle.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if flusher.flushes != 1 {
		t.Fatalf("expected one flush, got %d", flusher.flushes)
	}
	if len(flusher.sessions) != 1 || flusher.sessions[0] != session {
		t.Fatalf("expected flush to receive the cycle session")
	}
	if len(flusher.ops) != 3 {
		t.Fatalf("expected 3 flushed operations, got %d", len(flusher.ops))
	}
	for i, op := range flusher.ops {
		if op.Kind != inserts[i].Kind || op.Entity != inserts[i].Entity || op.Key != inserts[i].Key {
			t.Fatalf("expected arrival order preserved, got %+v", flusher.ops)
		}
	}
}

func TestEmptyQueueSkipsFlusher(t *testing.T) {
	flusher := &capturingFlusher{}
	manager := newBatchManager(t, flusher)

	cycle, err := manager.Begin(&sessionStub{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := eventstate.Get(cycle, batch.Key); err != nil {
		t.Fatalf("get queue: %v", err)
	}
	if err := cycle.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if flusher.flushes != 0 {
		t.Fatalf("expected empty queue to skip the flusher, got %d flushes", flusher.flushes)
	}
}

func TestAddAfterFlushFails(t *testing.T) {
	flusher := &capturingFlusher{}
	manager := newBatchManager(t, flusher)

	cycle, err := manager.Begin(&sessionStub{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	queue, err := eventstate.Get(cycle, batch.Key)
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}
	if err := queue.Add(batch.Operation{Kind: batch.KindInsert, Entity: "user", Key: "u1"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cycle.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if err := queue.Add(batch.Operation{Kind: batch.KindInsert, Entity: "user", Key: "u2"}); !errors.Is(err, batch.ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestFlushErrorSurfacesAsFinishError(t *testing.T) {
	flushErr := errors.New("connection reset")
	flusher := &capturingFlusher{err: flushErr}
	manager := newBatchManager(t, flusher)

	cycle, err := manager.Begin(&sessionStub{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	queue, err := eventstate.Get(cycle, batch.Key)
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}
	if err := queue.Add(batch.Operation{Kind: batch.KindUpdate, Entity: "user", Key: "u1"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	err = cycle.Finish()
	if !errors.Is(err, flushErr) {
		t.Fatalf("expected flush error to surface, got %v", err)
	}
	var finishErr *eventstate.FinishError
	if !errors.As(err, &finishErr) {
		t.Fatalf("expected FinishError, got %T", err)
	}
	if finishErr.State != batch.Key.Name() {
		t.Fatalf("expected failing state %q, got %q", batch.Key.Name(), finishErr.State)
	}
}

func TestOperationsReturnsCopy(t *testing.T) {
	queue := &batch.Queue{}
	if err := queue.Add(batch.Operation{Kind: batch.KindInsert, Entity: "user", Key: "u1"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	ops := queue.Operations()
	ops[0].Key = "mutated"
	if queue.Operations()[0].Key != "u1" {
		t.Fatalf("expected Operations to return a copy")
	}
}

package collector_test

import (
	"errors"
	"testing"

	eventstate "github.com/goliatone/go-eventstate"
	"github.com/goliatone/go-eventstate/pkg/collector"
)

type sessionStub struct {
	name string
}

type capturingReporter struct {
	reports  int
	sessions []eventstate.Session
	applied  []collector.Applied
	err      error
}

func (r *capturingReporter) Report(session eventstate.Session, applied []collector.Applied) error {
	r.reports++
	r.sessions = append(r.sessions, session)
	r.applied = append(r.applied, applied...)
	return r.err
}

func newCollectorManager(t *testing.T, reporter collector.Reporter) *eventstate.Manager {
	t.Helper()
	builder := eventstate.NewRegistryBuilder()
	if err := eventstate.Register(builder, collector.Key, collector.NewLifecycle(reporter)); err != nil {
		t.Fatalf("register collector lifecycle: %v", err)
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

func TestCollectorReportsAppliedOperations(t *testing.T) {
	reporter := &capturingReporter{}
	manager := newCollectorManager(t, reporter)
	session := &sessionStub{name: "uow-1"}

	cycle, err := manager.Begin(session)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	applied, err := eventstate.Get(cycle, collector.Key)
	if err != nil {
		t.Fatalf("get collector: %v", err)
	}
	applied.Record(collector.Applied{Kind: "insert", Entity: "user", Key: "u1"})
	applied.Record(collector.Applied{Kind: "update", Entity: "user", Key: "u1"})
	if applied.Len() != 2 {
		t.Fatalf("expected 2 applied operations, got %d", applied.Len())
	}

	if err := cycle.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if reporter.reports != 1 {
		t.Fatalf("expected one report, got %d", reporter.reports)
	}
	if len(reporter.sessions) != 1 || reporter.sessions[0] != session {
		t.Fatalf("expected report to receive the cycle session")
	}
	if len(reporter.applied) != 2 || reporter.applied[0].Key != "u1" || reporter.applied[1].Kind != "update" {
		t.Fatalf("expected application order preserved, got %+v", reporter.applied)
	}
}

func TestEmptyCollectorSkipsReporter(t *testing.T) {
	reporter := &capturingReporter{}
	manager := newCollectorManager(t, reporter)

	cycle, err := manager.Begin(&sessionStub{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := eventstate.Get(cycle, collector.Key); err != nil {
		t.Fatalf("get collector: %v", err)
	}
	if err := cycle.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if reporter.reports != 0 {
		t.Fatalf("expected empty collector to skip the reporter, got %d reports", reporter.reports)
	}
}

func TestReportErrorSurfacesAsFinishError(t *testing.T) {
	reportErr := errors.New("handler unavailable")
	reporter := &capturingReporter{err: reportErr}
	manager := newCollectorManager(t, reporter)

	cycle, err := manager.Begin(&sessionStub{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	applied, err := eventstate.Get(cycle, collector.Key)
	if err != nil {
		t.Fatalf("get collector: %v", err)
	}
	applied.Record(collector.Applied{Kind: "remove", Entity: "session", Key: "s9"})

	err = cycle.Finish()
	if !errors.Is(err, reportErr) {
		t.Fatalf("expected report error to surface, got %v", err)
	}
	var finishErr *eventstate.FinishError
	if !errors.As(err, &finishErr) {
		t.Fatalf("expected FinishError, got %T", err)
	}
	if finishErr.State != collector.Key.Name() {
		t.Fatalf("expected failing state %q, got %q", collector.Key.Name(), finishErr.State)
	}
}

func TestAppliedReturnsCopy(t *testing.T) {
	c := &collector.Collector{}
	c.Record(collector.Applied{Kind: "insert", Entity: "user", Key: "u1"})
	applied := c.Applied()
	applied[0].Key = "mutated"
	if c.Applied()[0].Key != "u1" {
		t.Fatalf("expected Applied to return a copy")
	}
}
